package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mindmate/companion-api/internal/api"
	"github.com/mindmate/companion-api/internal/api/handler"
	"github.com/mindmate/companion-api/internal/core/ports"
	"github.com/mindmate/companion-api/internal/core/service"
	"github.com/mindmate/companion-api/internal/infrastructure/ai/gemini"
	"github.com/mindmate/companion-api/internal/infrastructure/ai/voiceclone"
	"github.com/mindmate/companion-api/internal/infrastructure/catalog"
	mongodb "github.com/mindmate/companion-api/internal/infrastructure/db/mongo"
	redisstore "github.com/mindmate/companion-api/internal/infrastructure/db/redis"
	"github.com/mindmate/companion-api/internal/infrastructure/mq"
	"github.com/mindmate/companion-api/internal/infrastructure/queue"
)

const shutdownTimeout = 20 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the crisis alert workers",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	if err := mongodb.EnsureIndexes(ctx, st.db); err != nil {
		return err
	}

	registry, err := catalog.Load(cfg.TasksFile)
	if err != nil {
		return err
	}
	log.Info().Int("tasks", len(registry.All())).Msg("task catalog loaded")

	ai, err := gemini.New(ctx, gemini.Config{
		APIKey:         cfg.AI.APIKey,
		CrisisModel:    cfg.AI.CrisisModel,
		ResponderModel: cfg.AI.ResponderModel,
		SpeechModel:    cfg.AI.SpeechModel,
		SpeechVoice:    cfg.AI.SpeechVoice,
	})
	if err != nil {
		return err
	}

	var cloned ports.SpeechBackend
	if cfg.VoiceClone.APIKey != "" {
		cloned = voiceclone.New(voiceclone.Config{
			BaseURL: cfg.VoiceClone.BaseURL,
			APIKey:  cfg.VoiceClone.APIKey,
			ModelID: cfg.VoiceClone.ModelID,
		})
	}

	broker, err := openBroker(ctx, cfg.MQ)
	if err != nil {
		return err
	}
	var publisher ports.AlertPublisher
	if broker != nil {
		defer broker.Close()
		publisher = mq.NewAlertPublisher(broker, cfg.MQ.AlertChannel)
		log.Info().Str("backend", cfg.MQ.Backend).Str("channel", cfg.MQ.AlertChannel).Msg("alert broker ready")
	}

	mediaStore, err := openMedia(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	var (
		media       ports.MediaStore
		mediaReader ports.MediaReader
	)
	if mediaStore != nil {
		media, mediaReader = mediaStore, mediaStore
	}

	// --- Repositories ---
	accounts := mongodb.NewAccountRepository(st.db)
	ledgerRepo := mongodb.NewLedgerRepository(st.client, st.db)
	rewardRepo := mongodb.NewRewardRepository(st.db, ledgerRepo)
	turns := mongodb.NewConversationRepository(st.db)
	alertRepo := mongodb.NewAlertRepository(st.db)
	journal := mongodb.NewJournalRepository(st.db)
	screenings := mongodb.NewScreeningRepository(st.db)
	cache := redisstore.NewBalanceCache(st.redis)
	guard := redisstore.NewSubmissionGuard(st.redis)

	// --- Services ---
	alerts := service.NewAlertService(accounts, alertRepo, publisher, log)
	dispatcher := queue.NewAlertDispatcher(cfg.AlertWorkers, alerts, log)

	interaction := service.NewInteractionService(service.InteractionDeps{
		Ledger:    ledgerRepo,
		Accounts:  accounts,
		Turns:     turns,
		Detector:  ai.Crisis,
		Responder: ai.Responder,
		Speech:    service.NewSpeechService(ai.Speech, cloned, log),
		Alerts:    dispatcher,
		Media:     media,
		Guard:     guard,
		Cache:     cache,
	}, service.InteractionConfig{
		Cost:             cfg.Interaction.Cost,
		HistoryLimit:     cfg.Interaction.HistoryLimit,
		DefaultLanguage:  cfg.Interaction.DefaultLanguage,
		DefaultCompanion: cfg.Interaction.DefaultCompanion,
		AITimeout:        cfg.Interaction.AITimeout,
	}, log)

	e := api.NewRouter(api.Deps{
		Auth:        service.NewAuthService(accounts, cfg.JWTSecret, cfg.TokenTTL, cfg.StartingTokens),
		Profile:     service.NewProfileService(accounts),
		Interaction: interaction,
		Ledger:      service.NewLedgerService(ledgerRepo, cache, log),
		Rewards:     service.NewRewardService(registry, rewardRepo, cache, log),
		Wellness:    service.NewWellnessService(journal, screenings, dispatcher, log),
		Media:       mediaReader,
		Checks: map[string]handler.DependencyCheck{
			"mongodb": handler.MongoCheck(st.db),
			"redis":   handler.RedisCheck(st.redis),
		},
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	})

	// Alert workers outlive the HTTP server so requests still in flight at
	// shutdown can enqueue.
	alertCtx, stopAlerts := context.WithCancel(context.Background())
	defer stopAlerts()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(alertCtx)
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		stopAlerts()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
