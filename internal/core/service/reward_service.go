package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
	"github.com/mindmate/companion-api/internal/pkg/metrics"
)

type rewardService struct {
	registry *domain.TaskRegistry
	repo     ports.RewardRepository
	cache    ports.BalanceCache
	now      func() time.Time
	log      zerolog.Logger
}

// NewRewardService returns the task reward workflow. cache may be nil.
func NewRewardService(registry *domain.TaskRegistry, repo ports.RewardRepository, cache ports.BalanceCache, log zerolog.Logger) ports.RewardService {
	return &rewardService{registry: registry, repo: repo, cache: cache, now: time.Now, log: log}
}

// ListTasks joins the catalog with the user's completion records.
func (s *rewardService) ListTasks(ctx context.Context, userID string) ([]domain.TaskStatus, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	byTask := make(map[string]domain.TaskCompletion, len(records))
	for _, r := range records {
		byTask[r.TaskID] = r
	}

	tasks := s.registry.All()
	out := make([]domain.TaskStatus, len(tasks))
	for i, t := range tasks {
		rec := byTask[t.ID]
		out[i] = domain.TaskStatus{Task: t, Completed: rec.Completed, Rewarded: rec.Rewarded}
	}
	return out, nil
}

// MarkComplete records a pending completion. Repeated calls are no-ops.
func (s *rewardService) MarkComplete(ctx context.Context, userID, taskID string) (*domain.TaskCompletion, error) {
	if _, ok := s.registry.Get(taskID); !ok {
		return nil, domain.ErrTaskNotFound
	}
	rec, created, err := s.repo.MarkComplete(ctx, userID, taskID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("mark complete: %w", err)
	}
	if created {
		s.log.Info().Str("user_id", userID).Str("task_id", taskID).Msg("task marked complete")
	}
	return rec, nil
}

// ApproveReward grants the task reward exactly once.
func (s *rewardService) ApproveReward(ctx context.Context, reviewerID, userID, taskID string) (*ports.ApprovalResult, error) {
	task, ok := s.registry.Get(taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	rec, balance, err := s.repo.ApproveAndCredit(ctx, userID, taskID, task.Reward, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("approve reward: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("balance cache invalidation failed")
		}
	}
	metrics.RewardsGrantedTotal.WithLabelValues(taskID).Inc()
	s.log.Info().
		Str("reviewer_id", reviewerID).
		Str("user_id", userID).
		Str("task_id", taskID).
		Int64("reward", task.Reward).
		Msg("reward granted")

	return &ports.ApprovalResult{Completion: rec, Reward: task.Reward, Balance: balance}, nil
}

func (s *rewardService) ListPending(ctx context.Context, limit int) ([]domain.TaskCompletion, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	recs, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return recs, nil
}
