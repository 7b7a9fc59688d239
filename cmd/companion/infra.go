package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	mongodb "github.com/mindmate/companion-api/internal/infrastructure/db/mongo"
	redisstore "github.com/mindmate/companion-api/internal/infrastructure/db/redis"
	"github.com/mindmate/companion-api/internal/infrastructure/mq"
	"github.com/mindmate/companion-api/internal/infrastructure/storage"
	"github.com/mindmate/companion-api/internal/pkg/config"
)

// stores holds the connections shared by every command.
type stores struct {
	client *mongo.Client
	db     *mongo.Database
	redis  *goredis.Client
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &stores{client: client, db: db, redis: rdb}, nil
}

func (s *stores) Close(ctx context.Context) {
	_ = s.redis.Close()
	_ = s.client.Disconnect(ctx)
}

// openBroker returns nil when MQ_BACKEND is none.
func openBroker(ctx context.Context, cfg config.MQConfig) (mq.Backend, error) {
	switch cfg.Backend {
	case "rabbitmq":
		return mq.NewRabbitMQClient(mq.RabbitMQConfig{URL: cfg.RabbitURL, QueueDurable: true, PrefetchCount: 16})
	case "pubsub":
		return mq.NewPubSubClient(ctx, mq.PubSubConfig{
			ProjectID:          cfg.PubSubProject,
			CredentialsFile:    cfg.PubSubCreds,
			SubscriptionSuffix: cfg.PubSubSuffix,
		})
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown MQ_BACKEND %q", cfg.Backend)
	}
}

// openMedia returns nil when STORAGE_BACKEND is none.
func openMedia(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*storage.MediaStore, error) {
	var objects storage.ObjectStorage
	switch cfg.Backend {
	case "minio":
		c, err := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		objects = c
	case "gcs":
		c, err := storage.NewGCSClient(ctx, storage.GCSConfig{
			Bucket:          cfg.Bucket,
			ProjectID:       cfg.GCSProject,
			CredentialsFile: cfg.GCSCreds,
		})
		if err != nil {
			return nil, err
		}
		objects = c
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Backend)
	}

	if err := objects.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", objects.Bucket(), err)
	}
	log.Info().Str("backend", cfg.Backend).Str("bucket", objects.Bucket()).Msg("media storage ready")
	return storage.NewMediaStore(objects), nil
}
