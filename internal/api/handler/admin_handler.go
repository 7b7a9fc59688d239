package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmate/companion-api/internal/core/ports"
)

// AdminHandler exposes the privileged ledger overrides.
type AdminHandler struct {
	ledger ports.LedgerService
}

func NewAdminHandler(ledger ports.LedgerService) *AdminHandler {
	return &AdminHandler{ledger: ledger}
}

type setBalanceRequest struct {
	Amount int64 `json:"amount" validate:"gte=0"`
}

type addBalanceRequest struct {
	Delta int64 `json:"delta"`
}

type resetUsageRequest struct {
	Day string `json:"day"`
}

type addUsageRequest struct {
	Day     string `json:"day"`
	Minutes int64  `json:"minutes"`
}

// SetBalance overwrites a user's token balance.
//
// @Summary      Set a user's balance
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string             true  "Account id"
// @Param        body     body      setBalanceRequest  true  "New balance"
// @Success      200      {object}  balanceResponse
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /v1/admin/users/{user_id}/balance [put]
func (h *AdminHandler) SetBalance(c echo.Context) error {
	adminID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req setBalanceRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	userID := c.Param("user_id")
	bal, err := h.ledger.SetBalance(c.Request().Context(), adminID, userID, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, balanceResponse{UserID: userID, Balance: bal})
}

// AddBalance applies a signed delta to a user's balance.
//
// @Summary      Adjust a user's balance
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string             true  "Account id"
// @Param        body     body      addBalanceRequest  true  "Signed delta"
// @Success      200      {object}  balanceResponse
// @Failure      402      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Router       /v1/admin/users/{user_id}/balance/add [post]
func (h *AdminHandler) AddBalance(c echo.Context) error {
	adminID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req addBalanceRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	userID := c.Param("user_id")
	bal, err := h.ledger.AddBalance(c.Request().Context(), adminID, userID, req.Delta)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, balanceResponse{UserID: userID, Balance: bal})
}

// ResetUsage zeroes a user's usage for one day (default today).
//
// @Summary      Reset a user's usage
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string             true   "Account id"
// @Param        body     body      resetUsageRequest  false  "Day as YYYY-MM-DD"
// @Success      200      {object}  domain.DailyUsage
// @Failure      422      {object}  map[string]string
// @Router       /v1/admin/users/{user_id}/usage/reset [post]
func (h *AdminHandler) ResetUsage(c echo.Context) error {
	adminID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req resetUsageRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	usage, err := h.ledger.ResetUsage(c.Request().Context(), adminID, c.Param("user_id"), req.Day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usage)
}

// AddUsage adds or removes whole minutes from a user's usage for one day.
//
// @Summary      Adjust a user's usage
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string           true  "Account id"
// @Param        body     body      addUsageRequest  true  "Signed minutes"
// @Success      200      {object}  domain.DailyUsage
// @Failure      422      {object}  map[string]string
// @Router       /v1/admin/users/{user_id}/usage/add [post]
func (h *AdminHandler) AddUsage(c echo.Context) error {
	adminID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req addUsageRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	usage, err := h.ledger.AddUsageMinutes(c.Request().Context(), adminID, c.Param("user_id"), req.Day, req.Minutes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usage)
}
