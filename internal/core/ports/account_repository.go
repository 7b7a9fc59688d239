package ports

import (
	"context"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// AccountRepository persists user accounts. It never mutates the token
// balance; that is the Ledger's job.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	UpdateSafety(ctx context.Context, id string, settings domain.SafetySettings) error
	UpdateVoice(ctx context.Context, id, voiceID string) error
	UpdateRole(ctx context.Context, id, role string) error
}
