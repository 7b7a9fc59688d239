package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

// RewardHandler serves the task catalog and the review workflow.
type RewardHandler struct {
	service ports.RewardService
}

func NewRewardHandler(service ports.RewardService) *RewardHandler {
	return &RewardHandler{service: service}
}

type tasksResponse struct {
	Tasks []domain.TaskStatus `json:"tasks"`
}

type pendingResponse struct {
	Pending []domain.TaskCompletion `json:"pending"`
}

type approvalResponse struct {
	Completion *domain.TaskCompletion `json:"completion"`
	Reward     int64                  `json:"reward"`
	Balance    int64                  `json:"balance"`
}

// ListTasks returns the catalog joined with the caller's status per task.
//
// @Summary      List reward tasks
// @Tags         rewards
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  tasksResponse
// @Router       /v1/tasks [get]
func (h *RewardHandler) ListTasks(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	tasks, err := h.service.ListTasks(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
}

// Complete marks a task as done. The reward is granted only after review.
//
// @Summary      Mark a task complete
// @Tags         rewards
// @Produce      json
// @Security     BearerAuth
// @Param        task_id  path      string  true  "Task id"
// @Success      200      {object}  domain.TaskCompletion
// @Failure      404      {object}  map[string]string
// @Router       /v1/tasks/{task_id}/complete [post]
func (h *RewardHandler) Complete(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	rec, err := h.service.MarkComplete(c.Request().Context(), userID, c.Param("task_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// Pending lists completions waiting for review, oldest first.
//
// @Summary      Pending reviews
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum records"
// @Success      200    {object}  pendingResponse
// @Failure      403    {object}  map[string]string
// @Router       /v1/reviews/pending [get]
func (h *RewardHandler) Pending(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	pending, err := h.service.ListPending(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pendingResponse{Pending: pending})
}

// Approve grants the task reward exactly once.
//
// @Summary      Approve a task reward
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "Account id"
// @Param        task_id  path      string  true  "Task id"
// @Success      200      {object}  approvalResponse
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /v1/reviews/{user_id}/{task_id}/approve [post]
func (h *RewardHandler) Approve(c echo.Context) error {
	reviewerID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	res, err := h.service.ApproveReward(c.Request().Context(), reviewerID, c.Param("user_id"), c.Param("task_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, approvalResponse{
		Completion: res.Completion,
		Reward:     res.Reward,
		Balance:    res.Balance,
	})
}
