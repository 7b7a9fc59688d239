package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

type ledgerService struct {
	ledger ports.Ledger
	cache  ports.BalanceCache
	now    func() time.Time
	log    zerolog.Logger
}

// NewLedgerService returns balance, usage and admin-override operations.
// cache may be nil.
func NewLedgerService(ledger ports.Ledger, cache ports.BalanceCache, log zerolog.Logger) ports.LedgerService {
	return &ledgerService{ledger: ledger, cache: cache, now: time.Now, log: log}
}

// Balance returns the display balance, served from cache when possible.
func (s *ledgerService) Balance(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		if bal, ok, err := s.cache.Get(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("balance cache read failed")
		} else if ok {
			return bal, nil
		}
	}

	bal, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, bal); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("balance cache write failed")
		}
	}
	return bal, nil
}

func (s *ledgerService) TrackUsage(ctx context.Context, userID string, seconds int64) (*domain.DailyUsage, error) {
	if seconds <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	u, err := s.ledger.IncrementUsage(ctx, userID, domain.Day(s.now()), seconds)
	if err != nil {
		return nil, fmt.Errorf("track usage: %w", err)
	}
	return u, nil
}

func (s *ledgerService) TodayUsage(ctx context.Context, userID string) (*domain.DailyUsage, error) {
	u, err := s.ledger.Usage(ctx, userID, domain.Day(s.now()))
	if err != nil {
		return nil, fmt.Errorf("usage: %w", err)
	}
	return u, nil
}

func (s *ledgerService) SetBalance(ctx context.Context, adminID, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidAmount
	}
	bal, err := s.ledger.SetBalance(ctx, userID, amount, "admin:"+adminID)
	if err != nil {
		return 0, fmt.Errorf("set balance: %w", err)
	}
	s.invalidate(ctx, userID)
	s.log.Info().Str("admin_id", adminID).Str("user_id", userID).Int64("balance", bal).Msg("balance set by admin")
	return bal, nil
}

func (s *ledgerService) AddBalance(ctx context.Context, adminID, userID string, delta int64) (int64, error) {
	if delta == 0 {
		return 0, domain.ErrInvalidAmount
	}
	bal, err := s.ledger.AddBalance(ctx, userID, delta, "admin:"+adminID)
	if err != nil {
		return 0, fmt.Errorf("add balance: %w", err)
	}
	s.invalidate(ctx, userID)
	s.log.Info().Str("admin_id", adminID).Str("user_id", userID).Int64("delta", delta).Int64("balance", bal).Msg("balance adjusted by admin")
	return bal, nil
}

func (s *ledgerService) ResetUsage(ctx context.Context, adminID, userID, day string) (*domain.DailyUsage, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return nil, err
	}
	u, err := s.ledger.ResetUsage(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("reset usage: %w", err)
	}
	s.log.Info().Str("admin_id", adminID).Str("user_id", userID).Str("day", day).Msg("usage reset by admin")
	return u, nil
}

func (s *ledgerService) AddUsageMinutes(ctx context.Context, adminID, userID, day string, minutes int64) (*domain.DailyUsage, error) {
	if minutes == 0 {
		return nil, domain.ErrInvalidAmount
	}
	day, err := s.resolveDay(day)
	if err != nil {
		return nil, err
	}
	u, err := s.ledger.AddUsage(ctx, userID, day, minutes*60)
	if err != nil {
		return nil, fmt.Errorf("add usage: %w", err)
	}
	s.log.Info().Str("admin_id", adminID).Str("user_id", userID).Str("day", day).Int64("minutes", minutes).Msg("usage adjusted by admin")
	return u, nil
}

// resolveDay defaults to today and validates the key format.
func (s *ledgerService) resolveDay(day string) (string, error) {
	if day == "" {
		return domain.Day(s.now()), nil
	}
	if _, err := time.Parse(domain.DayLayout, day); err != nil {
		return "", fmt.Errorf("%w: day must be YYYY-MM-DD", domain.ErrInvalidAmount)
	}
	return day, nil
}

func (s *ledgerService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("balance cache invalidation failed")
	}
}
