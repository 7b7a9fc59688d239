package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// RewardRepository implements ports.RewardRepository on task_completions,
// crediting through the ledger in the same transaction.
type RewardRepository struct {
	coll   *mongo.Collection
	ledger *LedgerRepository
}

func NewRewardRepository(db *mongo.Database, ledger *LedgerRepository) *RewardRepository {
	return &RewardRepository{coll: db.Collection(collectionCompletions), ledger: ledger}
}

type completionDoc struct {
	UserID      string     `bson:"user_id"`
	TaskID      string     `bson:"task_id"`
	Completed   bool       `bson:"completed"`
	CompletedAt time.Time  `bson:"completed_at"`
	Rewarded    bool       `bson:"rewarded"`
	RewardedAt  *time.Time `bson:"rewarded_at,omitempty"`
	RewardedBy  string     `bson:"rewarded_by,omitempty"`
}

func (d *completionDoc) toDomain() *domain.TaskCompletion {
	return &domain.TaskCompletion{
		UserID:      d.UserID,
		TaskID:      d.TaskID,
		Completed:   d.Completed,
		CompletedAt: d.CompletedAt,
		Rewarded:    d.Rewarded,
		RewardedAt:  d.RewardedAt,
		RewardedBy:  d.RewardedBy,
	}
}

// MarkComplete inserts the pending record once; existing records, rewarded or
// not, are left untouched.
func (r *RewardRepository) MarkComplete(ctx context.Context, userID, taskID string, at time.Time) (*domain.TaskCompletion, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "task_id": taskID}
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":      userID,
		"task_id":      taskID,
		"completed":    true,
		"completed_at": at.UTC(),
		"rewarded":     false,
	}}

	res, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("mark complete: %w", err)
	}
	created := err == nil && res.UpsertedCount > 0

	var doc completionDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("mark complete: read back: %w", err)
	}
	return doc.toDomain(), created, nil
}

func (r *RewardRepository) ApproveAndCredit(ctx context.Context, userID, taskID string, reward int64, reviewer string) (*domain.TaskCompletion, int64, error) {
	if reward <= 0 {
		return nil, 0, domain.ErrInvalidAmount
	}
	oid, err := accountID(userID)
	if err != nil {
		return nil, 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	out, err := withTransaction(ctx, r.ledger.client, func(sc mongo.SessionContext) (interface{}, error) {
		return r.approve(sc, oid, userID, taskID, reward, reviewer)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyRewarded),
			errors.Is(err, domain.ErrTaskNotCompleted),
			errors.Is(err, domain.ErrAccountNotFound):
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("approve reward: %w", err)
	}
	a := out.(approval)
	return a.rec, a.balance, nil
}

type approval struct {
	rec     *domain.TaskCompletion
	balance int64
}

// approve flips rewarded and credits the reward. It is called with the
// session context of a running transaction.
func (r *RewardRepository) approve(ctx context.Context, oid primitive.ObjectID, userID, taskID string, reward int64, reviewer string) (approval, error) {
	var doc completionDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "task_id": taskID, "completed": true, "rewarded": false},
		bson.M{"$set": bson.M{"rewarded": true, "rewarded_at": time.Now().UTC(), "rewarded_by": reviewer}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return approval{}, r.missReason(ctx, userID, taskID)
	}
	if err != nil {
		return approval{}, err
	}

	balance, err := r.ledger.applyDelta(ctx, oid, nil, reward)
	if err != nil {
		return approval{}, err
	}
	if err := r.ledger.insertEntry(ctx, userID, domain.EntryReward, reward, balance, "task:"+taskID); err != nil {
		return approval{}, err
	}
	return approval{rec: doc.toDomain(), balance: balance}, nil
}

// missReason explains why the approval filter matched nothing.
func (r *RewardRepository) missReason(ctx context.Context, userID, taskID string) error {
	var doc completionDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "task_id": taskID}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrTaskNotCompleted
	case err != nil:
		return err
	case doc.Rewarded:
		return domain.ErrAlreadyRewarded
	default:
		return domain.ErrTaskNotCompleted
	}
}

func (r *RewardRepository) ListByUser(ctx context.Context, userID string) ([]domain.TaskCompletion, error) {
	return r.find(ctx, bson.M{"user_id": userID}, options.Find())
}

func (r *RewardRepository) ListPending(ctx context.Context, limit int) ([]domain.TaskCompletion, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"completed": true, "rewarded": false}, opts)
}

func (r *RewardRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.TaskCompletion, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find completions: %w", err)
	}
	var docs []completionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode completions: %w", err)
	}
	out := make([]domain.TaskCompletion, len(docs))
	for i := range docs {
		out[i] = *docs[i].toDomain()
	}
	return out, nil
}
