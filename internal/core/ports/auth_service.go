package ports

import (
	"context"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// RegisterInput carries sign-up data.
type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
	Role        string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (string, *domain.Account, error)
}

// ProfileService reads and edits the caller's own account.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.Account, error)
	UpdateSafety(ctx context.Context, userID string, settings domain.SafetySettings) (*domain.Account, error)
	UpdateVoice(ctx context.Context, userID, voiceID string) (*domain.Account, error)
}
