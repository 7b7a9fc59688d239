package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

type wellnessService struct {
	journal    ports.JournalRepository
	screenings ports.ScreeningRepository
	alerts     ports.AlertQueue
	now        func() time.Time
	log        zerolog.Logger
}

// NewWellnessService returns the mood journal and screening operations.
func NewWellnessService(journal ports.JournalRepository, screenings ports.ScreeningRepository, alerts ports.AlertQueue, log zerolog.Logger) ports.WellnessService {
	return &wellnessService{journal: journal, screenings: screenings, alerts: alerts, now: time.Now, log: log}
}

func (s *wellnessService) AddJournalEntry(ctx context.Context, in ports.JournalInput) (*domain.JournalEntry, error) {
	if !domain.ValidMood(in.Mood) {
		return nil, domain.ErrInvalidMood
	}
	entry := &domain.JournalEntry{
		UserID:    in.UserID,
		Mood:      in.Mood,
		Note:      strings.TrimSpace(in.Note),
		Tags:      normalizeTags(in.Tags),
		CreatedAt: s.now().UTC(),
	}
	if err := s.journal.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("add journal entry: %w", err)
	}
	return entry, nil
}

func (s *wellnessService) Journal(ctx context.Context, userID string, limit int) ([]domain.JournalEntry, error) {
	entries, err := s.journal.ListByUser(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return entries, nil
}

// SubmitScreening scores and stores a questionnaire. A self-harm answer
// raises the crisis alert side-channel.
func (s *wellnessService) SubmitScreening(ctx context.Context, userID string, inst domain.Instrument, answers []int) (*domain.ScreeningResult, error) {
	res, err := domain.Score(inst, answers)
	if err != nil {
		return nil, err
	}
	res.UserID = userID
	res.CreatedAt = s.now().UTC()

	if err := s.screenings.Create(ctx, &res); err != nil {
		return nil, fmt.Errorf("submit screening: %w", err)
	}

	if res.SelfHarmRisk {
		req := ports.AlertRequest{UserID: userID, TriggeredAt: res.CreatedAt, Source: domain.AlertSourceScreening}
		if !s.alerts.Enqueue(req) {
			s.log.Error().Str("user_id", userID).Msg("screening alert dropped: queue full")
		}
	}
	return &res, nil
}

func (s *wellnessService) Screenings(ctx context.Context, userID string, limit int) ([]domain.ScreeningResult, error) {
	out, err := s.screenings.ListByUser(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("screenings: %w", err)
	}
	return out, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
