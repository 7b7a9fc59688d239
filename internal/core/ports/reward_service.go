package ports

import (
	"context"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// ApprovalResult is returned after a reward was granted.
type ApprovalResult struct {
	Completion *domain.TaskCompletion
	Reward     int64
	Balance    int64
}

// RewardService implements the mark-complete / approve workflow.
type RewardService interface {
	ListTasks(ctx context.Context, userID string) ([]domain.TaskStatus, error)
	MarkComplete(ctx context.Context, userID, taskID string) (*domain.TaskCompletion, error)
	ApproveReward(ctx context.Context, reviewerID, userID, taskID string) (*ApprovalResult, error)
	ListPending(ctx context.Context, limit int) ([]domain.TaskCompletion, error)
}
