package ports

import (
	"context"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// Ledger is the transactional store for token balances and daily usage.
// Every mutating method runs as one atomic unit against the store and
// returns the balance (or usage record) as committed.
type Ledger interface {
	// Debit fails with domain.ErrInsufficientBalance, leaving the balance
	// untouched, when the balance is lower than amount.
	Debit(ctx context.Context, userID string, amount int64, reference string) (int64, error)
	// Credit adds amount. kind is recorded on the ledger entry (refund, reward).
	Credit(ctx context.Context, userID string, amount int64, kind domain.EntryKind, reference string) (int64, error)
	SetBalance(ctx context.Context, userID string, amount int64, reference string) (int64, error)
	// AddBalance applies a signed delta; it refuses to go below zero.
	AddBalance(ctx context.Context, userID string, delta int64, reference string) (int64, error)
	Balance(ctx context.Context, userID string) (int64, error)

	IncrementUsage(ctx context.Context, userID, day string, seconds int64) (*domain.DailyUsage, error)
	// AddUsage applies a signed delta in seconds, clamped at zero.
	AddUsage(ctx context.Context, userID, day string, delta int64) (*domain.DailyUsage, error)
	ResetUsage(ctx context.Context, userID, day string) (*domain.DailyUsage, error)
	Usage(ctx context.Context, userID, day string) (*domain.DailyUsage, error)
}

// BalanceCache holds display copies of balances. It is never consulted for
// debit decisions.
type BalanceCache interface {
	Get(ctx context.Context, userID string) (int64, bool, error)
	Set(ctx context.Context, userID string, balance int64) error
	Invalidate(ctx context.Context, userID string) error
}
