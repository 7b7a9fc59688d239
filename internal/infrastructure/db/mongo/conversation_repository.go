package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// ConversationRepository implements ports.ConversationRepository. Turns are
// ordered by (created_at, _id); ObjectIDs minted in one process are
// increasing, so turns appended together keep their order.
type ConversationRepository struct {
	coll *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{coll: db.Collection(collectionTurns)}
}

type turnDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"user_id"`
	Sender    string             `bson:"sender"`
	Text      string             `bson:"text"`
	ImageRef  string             `bson:"image_ref,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *ConversationRepository) Append(ctx context.Context, turns ...*domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]interface{}, len(turns))
	for i, t := range turns {
		doc := turnDoc{
			ID:        primitive.NewObjectID(),
			UserID:    t.UserID,
			Sender:    string(t.Sender),
			Text:      t.Text,
			ImageRef:  t.ImageRef,
			CreatedAt: now,
		}
		docs[i] = doc
		t.ID = doc.ID.Hex()
		t.CreatedAt = now
	}

	if _, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("append turns: %w", err)
	}
	return nil
}

func (r *ConversationRepository) Recent(ctx context.Context, userID string, limit int) ([]domain.Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	var docs []turnDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode turns: %w", err)
	}

	// newest-first from the query, oldest-first to the caller
	out := make([]domain.Turn, len(docs))
	for i, d := range docs {
		out[len(docs)-1-i] = domain.Turn{
			ID:        d.ID.Hex(),
			UserID:    d.UserID,
			Sender:    domain.Sender(d.Sender),
			Text:      d.Text,
			ImageRef:  d.ImageRef,
			CreatedAt: d.CreatedAt,
		}
	}
	return out, nil
}
