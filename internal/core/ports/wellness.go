package ports

import (
	"context"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// JournalRepository persists mood journal entries.
type JournalRepository interface {
	Create(ctx context.Context, entry *domain.JournalEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.JournalEntry, error)
}

// ScreeningRepository persists scored questionnaires.
type ScreeningRepository interface {
	Create(ctx context.Context, res *domain.ScreeningResult) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.ScreeningResult, error)
}

// JournalInput is a new mood journal entry.
type JournalInput struct {
	UserID string
	Mood   int
	Note   string
	Tags   []string
}

// WellnessService covers the mood journal and screening questionnaires.
type WellnessService interface {
	AddJournalEntry(ctx context.Context, in JournalInput) (*domain.JournalEntry, error)
	Journal(ctx context.Context, userID string, limit int) ([]domain.JournalEntry, error)
	SubmitScreening(ctx context.Context, userID string, inst domain.Instrument, answers []int) (*domain.ScreeningResult, error)
	Screenings(ctx context.Context, userID string, limit int) ([]domain.ScreeningResult, error)
}
