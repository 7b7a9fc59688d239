package ports

import (
	"context"
	"time"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// RewardRepository persists TaskCompletion records.
type RewardRepository interface {
	// MarkComplete inserts {completed: true, rewarded: false} if no record
	// exists yet. created reports whether this call inserted it.
	MarkComplete(ctx context.Context, userID, taskID string, at time.Time) (rec *domain.TaskCompletion, created bool, err error)
	// ApproveAndCredit flips rewarded to true and credits reward to the
	// user's balance in a single transaction.
	ApproveAndCredit(ctx context.Context, userID, taskID string, reward int64, reviewer string) (*domain.TaskCompletion, int64, error)
	ListByUser(ctx context.Context, userID string) ([]domain.TaskCompletion, error)
	ListPending(ctx context.Context, limit int) ([]domain.TaskCompletion, error)
}
