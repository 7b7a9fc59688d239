package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
	"github.com/mindmate/companion-api/internal/pkg/metrics"
)

type alertService struct {
	accounts  ports.AccountRepository
	repo      ports.AlertRepository
	publisher ports.AlertPublisher
	log       zerolog.Logger
}

// NewAlertService returns the crisis alerting side-channel. publisher may be
// nil when no broker is configured; records are still stored.
func NewAlertService(accounts ports.AccountRepository, repo ports.AlertRepository, publisher ports.AlertPublisher, log zerolog.Logger) ports.AlertService {
	return &alertService{accounts: accounts, repo: repo, publisher: publisher, log: log}
}

// Raise creates one pending alert per trusted contact when the user has
// opted in. It returns the number of alerts created.
func (s *alertService) Raise(ctx context.Context, req ports.AlertRequest) (int, error) {
	acc, err := s.accounts.FindByID(ctx, req.UserID)
	if err != nil {
		return 0, fmt.Errorf("raise alert: %w", err)
	}
	if !acc.AlertConsent {
		s.log.Info().Str("user_id", req.UserID).Msg("crisis alert skipped: no consent")
		return 0, nil
	}

	contacts := alertContacts(acc)
	if len(contacts) == 0 {
		s.log.Info().Str("user_id", req.UserID).Msg("crisis alert skipped: no trusted contacts")
		return 0, nil
	}

	alerts := make([]*domain.CrisisAlert, len(contacts))
	for i, c := range contacts {
		alerts[i] = &domain.CrisisAlert{
			UserID:       req.UserID,
			TriggeredAt:  req.TriggeredAt,
			Source:       req.Source,
			ContactName:  c.Name,
			ContactEmail: c.Email,
			ContactPhone: c.Phone,
			Status:       domain.AlertPending,
		}
	}
	if err := s.repo.CreateMany(ctx, alerts); err != nil {
		return 0, fmt.Errorf("raise alert: store: %w", err)
	}
	metrics.AlertsCreatedTotal.Add(float64(len(alerts)))

	if s.publisher != nil {
		for _, a := range alerts {
			if err := s.publisher.PublishAlert(ctx, a); err != nil {
				s.log.Warn().Err(err).Str("user_id", req.UserID).Str("alert_id", a.ID).Msg("failed to publish crisis alert")
			}
		}
	}

	s.log.Info().
		Str("user_id", req.UserID).
		Str("source", string(req.Source)).
		Int("contacts", len(alerts)).
		Msg("crisis alerts created")
	return len(alerts), nil
}

// alertContacts returns the trusted contacts plus the emergency contact when
// it is not already listed.
func alertContacts(acc *domain.Account) []domain.TrustedContact {
	out := make([]domain.TrustedContact, 0, len(acc.TrustedContacts)+1)
	seenPhone := make(map[string]bool)
	for _, c := range acc.TrustedContacts {
		if c.Email == "" && c.Phone == "" {
			continue
		}
		if c.Phone != "" {
			seenPhone[c.Phone] = true
		}
		out = append(out, c)
	}
	if acc.EmergencyPhone != "" && !seenPhone[acc.EmergencyPhone] {
		out = append(out, domain.TrustedContact{Name: acc.EmergencyName, Phone: acc.EmergencyPhone})
	}
	return out
}
