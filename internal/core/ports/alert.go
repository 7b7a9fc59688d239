package ports

import (
	"context"
	"time"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// AlertRepository stores CrisisAlert records.
type AlertRepository interface {
	CreateMany(ctx context.Context, alerts []*domain.CrisisAlert) error
}

// AlertPublisher hands an alert to the external notifier.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.CrisisAlert) error
}

// AlertRequest asks the side-channel to notify a user's trusted contacts.
type AlertRequest struct {
	UserID      string
	TriggeredAt time.Time
	Source      domain.AlertSource
}

// AlertService creates the alert records for one request.
type AlertService interface {
	Raise(ctx context.Context, req AlertRequest) (int, error)
}

// AlertQueue accepts alert requests without blocking the caller.
type AlertQueue interface {
	Enqueue(req AlertRequest) bool
}
