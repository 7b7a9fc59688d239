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

// JournalRepository implements ports.JournalRepository.
type JournalRepository struct {
	coll *mongo.Collection
}

func NewJournalRepository(db *mongo.Database) *JournalRepository {
	return &JournalRepository{coll: db.Collection(collectionJournal)}
}

type journalDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"user_id"`
	Mood      int                `bson:"mood"`
	Note      string             `bson:"note"`
	Tags      []string           `bson:"tags"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *JournalRepository) Create(ctx context.Context, e *domain.JournalEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := journalDoc{
		ID:        primitive.NewObjectID(),
		UserID:    e.UserID,
		Mood:      e.Mood,
		Note:      e.Note,
		Tags:      e.Tags,
		CreatedAt: e.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	e.ID = doc.ID.Hex()
	return nil
}

func (r *JournalRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.JournalEntry, error) {
	var docs []journalDoc
	if err := findNewest(ctx, r.coll, userID, limit, &docs); err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	out := make([]domain.JournalEntry, len(docs))
	for i, d := range docs {
		out[i] = domain.JournalEntry{ID: d.ID.Hex(), UserID: d.UserID, Mood: d.Mood, Note: d.Note, Tags: d.Tags, CreatedAt: d.CreatedAt}
	}
	return out, nil
}

// ScreeningRepository implements ports.ScreeningRepository.
type ScreeningRepository struct {
	coll *mongo.Collection
}

func NewScreeningRepository(db *mongo.Database) *ScreeningRepository {
	return &ScreeningRepository{coll: db.Collection(collectionScreenings)}
}

type screeningDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	UserID       string             `bson:"user_id"`
	Instrument   string             `bson:"instrument"`
	Answers      []int              `bson:"answers"`
	Total        int                `bson:"total"`
	Severity     string             `bson:"severity"`
	SelfHarmRisk bool               `bson:"self_harm_risk"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (r *ScreeningRepository) Create(ctx context.Context, res *domain.ScreeningResult) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := screeningDoc{
		ID:           primitive.NewObjectID(),
		UserID:       res.UserID,
		Instrument:   string(res.Instrument),
		Answers:      res.Answers,
		Total:        res.Total,
		Severity:     res.Severity,
		SelfHarmRisk: res.SelfHarmRisk,
		CreatedAt:    res.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert screening: %w", err)
	}
	res.ID = doc.ID.Hex()
	return nil
}

func (r *ScreeningRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ScreeningResult, error) {
	var docs []screeningDoc
	if err := findNewest(ctx, r.coll, userID, limit, &docs); err != nil {
		return nil, fmt.Errorf("list screenings: %w", err)
	}
	out := make([]domain.ScreeningResult, len(docs))
	for i, d := range docs {
		out[i] = domain.ScreeningResult{
			ID:           d.ID.Hex(),
			UserID:       d.UserID,
			Instrument:   domain.Instrument(d.Instrument),
			Answers:      d.Answers,
			Total:        d.Total,
			Severity:     d.Severity,
			CreatedAt:    d.CreatedAt,
			SelfHarmRisk: d.SelfHarmRisk,
		}
	}
	return out, nil
}

func findNewest(ctx context.Context, coll *mongo.Collection, userID string, limit int, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cur, err := coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}
