package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmate/companion-api/internal/core/ports"
)

// LedgerHandler serves the caller's balance and usage tracker.
type LedgerHandler struct {
	service ports.LedgerService
}

func NewLedgerHandler(service ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

type balanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type trackUsageRequest struct {
	Seconds int64 `json:"seconds" validate:"gt=0,lte=86400"`
}

// Balance returns the display balance. The value may lag a concurrent
// mutation by the cache TTL at most.
//
// @Summary      Get token balance
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  balanceResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/balance [get]
func (h *LedgerHandler) Balance(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	bal, err := h.service.Balance(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, balanceResponse{UserID: userID, Balance: bal})
}

// TrackUsage adds foreground seconds to today's usage record.
//
// @Summary      Track time spent
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      trackUsageRequest  true  "Seconds spent since the last report"
// @Success      200   {object}  domain.DailyUsage
// @Failure      400   {object}  map[string]string
// @Router       /v1/usage [post]
func (h *LedgerHandler) TrackUsage(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req trackUsageRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	usage, err := h.service.TrackUsage(c.Request().Context(), userID, req.Seconds)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usage)
}

// TodayUsage returns today's usage record.
//
// @Summary      Get today's usage
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.DailyUsage
// @Router       /v1/usage [get]
func (h *LedgerHandler) TodayUsage(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	usage, err := h.service.TodayUsage(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usage)
}
