package ports

import (
	"context"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// ConversationRepository is the append-only turn log.
type ConversationRepository interface {
	// Append stores turns in the given order and assigns server timestamps.
	Append(ctx context.Context, turns ...*domain.Turn) error
	// Recent returns the newest limit turns, oldest first.
	Recent(ctx context.Context, userID string, limit int) ([]domain.Turn, error)
}
