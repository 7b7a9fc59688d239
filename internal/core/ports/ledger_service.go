package ports

import (
	"context"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// LedgerService exposes balance reads, usage tracking and the privileged
// administrative overrides.
type LedgerService interface {
	Balance(ctx context.Context, userID string) (int64, error)
	TrackUsage(ctx context.Context, userID string, seconds int64) (*domain.DailyUsage, error)
	TodayUsage(ctx context.Context, userID string) (*domain.DailyUsage, error)

	SetBalance(ctx context.Context, adminID, userID string, amount int64) (int64, error)
	AddBalance(ctx context.Context, adminID, userID string, delta int64) (int64, error)
	ResetUsage(ctx context.Context, adminID, userID, day string) (*domain.DailyUsage, error)
	AddUsageMinutes(ctx context.Context, adminID, userID, day string, minutes int64) (*domain.DailyUsage, error)
}
