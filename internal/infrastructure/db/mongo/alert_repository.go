package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// AlertRepository stores CrisisAlert records for the external notifier.
type AlertRepository struct {
	coll *mongo.Collection
}

func NewAlertRepository(db *mongo.Database) *AlertRepository {
	return &AlertRepository{coll: db.Collection(collectionAlerts)}
}

type alertDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	UserID       string             `bson:"user_id"`
	TriggeredAt  time.Time          `bson:"triggered_at"`
	Source       string             `bson:"source"`
	ContactName  string             `bson:"contact_name"`
	ContactEmail string             `bson:"contact_email,omitempty"`
	ContactPhone string             `bson:"contact_phone,omitempty"`
	Status       string             `bson:"status"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (r *AlertRepository) CreateMany(ctx context.Context, alerts []*domain.CrisisAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	docs := make([]interface{}, len(alerts))
	for i, a := range alerts {
		id := primitive.NewObjectID()
		docs[i] = alertDoc{
			ID:           id,
			UserID:       a.UserID,
			TriggeredAt:  a.TriggeredAt.UTC(),
			Source:       string(a.Source),
			ContactName:  a.ContactName,
			ContactEmail: a.ContactEmail,
			ContactPhone: a.ContactPhone,
			Status:       string(a.Status),
			CreatedAt:    now,
		}
		a.ID = id.Hex()
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert alerts: %w", err)
	}
	return nil
}
