package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

type profileService struct {
	accounts ports.AccountRepository
}

func NewProfileService(accounts ports.AccountRepository) ports.ProfileService {
	return &profileService{accounts: accounts}
}

func (s *profileService) Get(ctx context.Context, userID string) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, userID)
}

func (s *profileService) UpdateSafety(ctx context.Context, userID string, settings domain.SafetySettings) (*domain.Account, error) {
	contacts := make([]domain.TrustedContact, 0, len(settings.TrustedContacts))
	for _, c := range settings.TrustedContacts {
		c.Name = strings.TrimSpace(c.Name)
		c.Email = strings.ToLower(strings.TrimSpace(c.Email))
		c.Phone = strings.TrimSpace(c.Phone)
		contacts = append(contacts, c)
	}
	settings.TrustedContacts = contacts

	if err := s.accounts.UpdateSafety(ctx, userID, settings); err != nil {
		return nil, fmt.Errorf("update safety: %w", err)
	}
	return s.accounts.FindByID(ctx, userID)
}

func (s *profileService) UpdateVoice(ctx context.Context, userID, voiceID string) (*domain.Account, error) {
	if err := s.accounts.UpdateVoice(ctx, userID, strings.TrimSpace(voiceID)); err != nil {
		return nil, fmt.Errorf("update voice: %w", err)
	}
	return s.accounts.FindByID(ctx, userID)
}
