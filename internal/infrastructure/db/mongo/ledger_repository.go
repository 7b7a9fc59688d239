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

// LedgerRepository implements ports.Ledger. Every balance mutation is a
// conditional update plus a ledger_entries insert inside one transaction.
type LedgerRepository struct {
	client   *mongo.Client
	accounts *mongo.Collection
	entries  *mongo.Collection
	usage    *mongo.Collection
}

func NewLedgerRepository(client *mongo.Client, db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		client:   client,
		accounts: db.Collection(collectionAccounts),
		entries:  db.Collection(collectionLedgerEntries),
		usage:    db.Collection(collectionDailyUsage),
	}
}

type ledgerEntryDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	Kind         string             `bson:"kind"`
	Delta        int64              `bson:"delta"`
	BalanceAfter int64              `bson:"balance_after"`
	Reference    string             `bson:"reference,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
}

type usageDoc struct {
	UserID      string    `bson:"user_id"`
	Day         string    `bson:"day"`
	SecondsUsed int64     `bson:"time_spent_seconds"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d *usageDoc) toDomain() *domain.DailyUsage {
	return &domain.DailyUsage{UserID: d.UserID, Day: d.Day, SecondsUsed: d.SecondsUsed, UpdatedAt: d.UpdatedAt}
}

type balanceDoc struct {
	Tokens int64 `bson:"tokens"`
}

func (r *LedgerRepository) Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	return r.mutate(ctx, userID, atLeast(amount), -amount, domain.EntryDebit, ref)
}

func (r *LedgerRepository) Credit(ctx context.Context, userID string, amount int64, kind domain.EntryKind, ref string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	return r.mutate(ctx, userID, nil, amount, kind, ref)
}

func (r *LedgerRepository) AddBalance(ctx context.Context, userID string, delta int64, ref string) (int64, error) {
	var guard bson.M
	if delta < 0 {
		guard = atLeast(-delta)
	}
	return r.mutate(ctx, userID, guard, delta, domain.EntryAdminAdd, ref)
}

func (r *LedgerRepository) SetBalance(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidAmount
	}
	oid, err := accountID(userID)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = withTransaction(ctx, r.client, func(sc mongo.SessionContext) (interface{}, error) {
		var before balanceDoc
		err := r.accounts.FindOneAndUpdate(sc,
			bson.M{"_id": oid},
			bson.M{"$set": bson.M{"tokens": amount, "updated_at": time.Now().UTC()}},
			options.FindOneAndUpdate().SetReturnDocument(options.Before).SetProjection(bson.M{"tokens": 1}),
		).Decode(&before)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, r.insertEntry(sc, userID, domain.EntryAdminSet, amount-before.Tokens, amount, ref)
	})
	if err != nil {
		return 0, fmt.Errorf("set balance: %w", err)
	}
	return amount, nil
}

func (r *LedgerRepository) Balance(ctx context.Context, userID string) (int64, error) {
	oid, err := accountID(userID)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc balanceDoc
	err = r.accounts.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"tokens": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, domain.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	return doc.Tokens, nil
}

// mutate applies delta to the balance when guard matches and records the
// entry, all in one transaction. A guard miss on an existing account is
// ErrInsufficientBalance.
func (r *LedgerRepository) mutate(ctx context.Context, userID string, guard bson.M, delta int64, kind domain.EntryKind, ref string) (int64, error) {
	oid, err := accountID(userID)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	out, err := withTransaction(ctx, r.client, func(sc mongo.SessionContext) (interface{}, error) {
		balance, err := r.applyDelta(sc, oid, guard, delta)
		if err != nil {
			return nil, err
		}
		if err := r.insertEntry(sc, userID, kind, delta, balance, ref); err != nil {
			return nil, err
		}
		return balance, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) || errors.Is(err, domain.ErrAccountNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("ledger %s: %w", kind, err)
	}
	return out.(int64), nil
}

// atLeast guards a balance change on the account holding at least n tokens.
func atLeast(n int64) bson.M {
	return bson.M{"tokens": bson.M{"$gte": n}}
}

// applyDelta is called with the session context of a running transaction.
func (r *LedgerRepository) applyDelta(ctx context.Context, oid primitive.ObjectID, guard bson.M, delta int64) (int64, error) {
	filter := bson.M{"_id": oid}
	for k, v := range guard {
		filter[k] = v
	}

	var after balanceDoc
	err := r.accounts.FindOneAndUpdate(ctx,
		filter,
		bson.M{
			"$inc": bson.M{"tokens": delta},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"tokens": 1}),
	).Decode(&after)
	if err == nil {
		return after.Tokens, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	n, err := r.accounts.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.ErrAccountNotFound
	}
	return 0, domain.ErrInsufficientBalance
}

func (r *LedgerRepository) insertEntry(ctx context.Context, userID string, kind domain.EntryKind, delta, after int64, ref string) error {
	_, err := r.entries.InsertOne(ctx, ledgerEntryDoc{
		UserID:       userID,
		Kind:         string(kind),
		Delta:        delta,
		BalanceAfter: after,
		Reference:    ref,
		CreatedAt:    time.Now().UTC(),
	})
	return err
}

func (r *LedgerRepository) IncrementUsage(ctx context.Context, userID, day string, seconds int64) (*domain.DailyUsage, error) {
	return r.upsertUsage(ctx, userID, day, bson.M{
		"$inc": bson.M{"time_spent_seconds": seconds},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *LedgerRepository) ResetUsage(ctx context.Context, userID, day string) (*domain.DailyUsage, error) {
	return r.upsertUsage(ctx, userID, day, bson.M{
		"$set": bson.M{"time_spent_seconds": int64(0), "updated_at": time.Now().UTC()},
	})
}

// AddUsage uses a pipeline update so the clamp is evaluated server-side.
func (r *LedgerRepository) AddUsage(ctx context.Context, userID, day string, delta int64) (*domain.DailyUsage, error) {
	return r.upsertUsage(ctx, userID, day, mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"time_spent_seconds": bson.M{"$max": bson.A{
				0,
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$time_spent_seconds", 0}}, delta}},
			}},
			"updated_at": time.Now().UTC(),
		}}},
	})
}

func (r *LedgerRepository) Usage(ctx context.Context, userID, day string) (*domain.DailyUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc usageDoc
	err := r.usage.FindOne(ctx, bson.M{"user_id": userID, "day": day}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.DailyUsage{UserID: userID, Day: day}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("usage: %w", err)
	}
	return doc.toDomain(), nil
}

// upsertUsage retries once on a duplicate key, which two concurrent first
// upserts for the same day can produce.
func (r *LedgerRepository) upsertUsage(ctx context.Context, userID, day string, update interface{}) (*domain.DailyUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.M{"user_id": userID, "day": day}

	var doc usageDoc
	err := r.usage.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = r.usage.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("usage update: %w", err)
	}
	return doc.toDomain(), nil
}
