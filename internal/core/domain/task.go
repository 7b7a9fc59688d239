package domain

import (
	"fmt"
	"time"
)

// Task is an immutable reward-bearing catalog entry.
type Task struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Reward      int64  `json:"reward" yaml:"reward"`
	ActionPath  string `json:"action_path,omitempty" yaml:"action_path,omitempty"`
}

// TaskCompletion is the per user × task status record.
type TaskCompletion struct {
	UserID      string     `json:"user_id"`
	TaskID      string     `json:"task_id"`
	Completed   bool       `json:"completed"`
	CompletedAt time.Time  `json:"completed_at"`
	Rewarded    bool       `json:"rewarded"`
	RewardedAt  *time.Time `json:"rewarded_at,omitempty"`
	RewardedBy  string     `json:"rewarded_by,omitempty"`
}

// TaskStatus is a catalog entry joined with the caller's completion record.
type TaskStatus struct {
	Task
	Completed bool `json:"completed"`
	Rewarded  bool `json:"rewarded"`
}

// TaskRegistry is the read-only task catalog. It is built once and safe for
// concurrent reads.
type TaskRegistry struct {
	tasks []Task
	byID  map[string]Task
}

// NewTaskRegistry validates tasks and freezes them into a registry.
func NewTaskRegistry(tasks []Task) (*TaskRegistry, error) {
	r := &TaskRegistry{
		tasks: make([]Task, 0, len(tasks)),
		byID:  make(map[string]Task, len(tasks)),
	}
	for _, t := range tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("task registry: task %q has empty id", t.Title)
		}
		if t.Reward <= 0 {
			return nil, fmt.Errorf("task registry: task %q: %w", t.ID, ErrInvalidAmount)
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("task registry: duplicate task id %q", t.ID)
		}
		r.byID[t.ID] = t
		r.tasks = append(r.tasks, t)
	}
	return r, nil
}

// Get returns the task with the given id.
func (r *TaskRegistry) Get(id string) (Task, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// All returns the catalog in declaration order.
func (r *TaskRegistry) All() []Task {
	out := make([]Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}
