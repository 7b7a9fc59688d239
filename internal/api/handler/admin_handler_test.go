package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/mindmate/companion-api/internal/core/domain"
)

type stubLedgerService struct {
	balance  int64
	lastCall string
	lastArg  int64
	lastDay  string
	addErr   error
}

func (s *stubLedgerService) Balance(ctx context.Context, userID string) (int64, error) {
	return s.balance, nil
}

func (s *stubLedgerService) TrackUsage(ctx context.Context, userID string, seconds int64) (*domain.DailyUsage, error) {
	s.lastCall, s.lastArg = "track:"+userID, seconds
	return &domain.DailyUsage{UserID: userID, Day: "2026-10-14", SecondsUsed: seconds}, nil
}

func (s *stubLedgerService) TodayUsage(ctx context.Context, userID string) (*domain.DailyUsage, error) {
	return &domain.DailyUsage{UserID: userID, Day: "2026-10-14", SecondsUsed: 90}, nil
}

func (s *stubLedgerService) SetBalance(ctx context.Context, adminID, userID string, amount int64) (int64, error) {
	s.lastCall, s.lastArg = "set:"+adminID+":"+userID, amount
	return amount, nil
}

func (s *stubLedgerService) AddBalance(ctx context.Context, adminID, userID string, delta int64) (int64, error) {
	if s.addErr != nil {
		return 0, s.addErr
	}
	s.lastCall, s.lastArg = "add:"+adminID+":"+userID, delta
	return 50 + delta, nil
}

func (s *stubLedgerService) ResetUsage(ctx context.Context, adminID, userID, day string) (*domain.DailyUsage, error) {
	s.lastCall, s.lastDay = "reset:"+adminID+":"+userID, day
	return &domain.DailyUsage{UserID: userID, Day: day}, nil
}

func (s *stubLedgerService) AddUsageMinutes(ctx context.Context, adminID, userID, day string, minutes int64) (*domain.DailyUsage, error) {
	s.lastCall, s.lastArg, s.lastDay = "usage:"+adminID+":"+userID, minutes, day
	return &domain.DailyUsage{UserID: userID, Day: day, SecondsUsed: minutes * 60}, nil
}

func newAdminHandler() (*stubLedgerService, *AdminHandler) {
	stub := &stubLedgerService{}
	return stub, NewAdminHandler(stub)
}

func TestAdminHandler_SetBalance(t *testing.T) {
	stub, handler := newAdminHandler()

	c, rec := newContext(http.MethodPut, "/v1/admin/users/u1/balance", `{"amount":75}`)
	withClaims(c, "admin-1", domain.RoleAdmin)
	c.SetParamNames("user_id")
	c.SetParamValues("u1")

	if err := handler.SetBalance(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastCall != "set:admin-1:u1" || stub.lastArg != 75 {
		t.Fatalf("unexpected call: %s %d", stub.lastCall, stub.lastArg)
	}
	var resp balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.UserID != "u1" || resp.Balance != 75 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAdminHandler_SetBalance_Negative(t *testing.T) {
	stub, handler := newAdminHandler()

	c, _ := newContext(http.MethodPut, "/v1/admin/users/u1/balance", `{"amount":-1}`)
	withClaims(c, "admin-1", domain.RoleAdmin)
	c.SetParamNames("user_id")
	c.SetParamValues("u1")

	if code := httpCode(t, handler.SetBalance(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if stub.lastCall != "" {
		t.Fatalf("service should not be called, got %s", stub.lastCall)
	}
}

func TestAdminHandler_AddBalance(t *testing.T) {
	stub, handler := newAdminHandler()

	c, rec := newContext(http.MethodPost, "/v1/admin/users/u1/balance/add", `{"delta":-20}`)
	withClaims(c, "admin-1", domain.RoleAdmin)
	c.SetParamNames("user_id")
	c.SetParamValues("u1")

	if err := handler.AddBalance(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastArg != -20 {
		t.Fatalf("expected delta -20, got %d", stub.lastArg)
	}
	var resp balanceResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Balance != 30 {
		t.Fatalf("expected balance 30, got %d", resp.Balance)
	}
}

func TestAdminHandler_AddBalance_Insufficient(t *testing.T) {
	stub, handler := newAdminHandler()
	stub.addErr = domain.ErrInsufficientBalance

	c, _ := newContext(http.MethodPost, "/v1/admin/users/u1/balance/add", `{"delta":-500}`)
	withClaims(c, "admin-1", domain.RoleAdmin)
	c.SetParamNames("user_id")
	c.SetParamValues("u1")

	if err := handler.AddBalance(c); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestAdminHandler_ResetUsage_EmptyBody(t *testing.T) {
	stub, handler := newAdminHandler()

	c, _ := newContext(http.MethodPost, "/v1/admin/users/u1/usage/reset", "")
	withClaims(c, "admin-1", domain.RoleAdmin)
	c.SetParamNames("user_id")
	c.SetParamValues("u1")

	if err := handler.ResetUsage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastCall != "reset:admin-1:u1" || stub.lastDay != "" {
		t.Fatalf("unexpected call: %s day=%q", stub.lastCall, stub.lastDay)
	}
}

func TestAdminHandler_AddUsage(t *testing.T) {
	stub, handler := newAdminHandler()

	c, rec := newContext(http.MethodPost, "/v1/admin/users/u1/usage/add", `{"day":"2026-10-13","minutes":15}`)
	withClaims(c, "admin-1", domain.RoleAdmin)
	c.SetParamNames("user_id")
	c.SetParamValues("u1")

	if err := handler.AddUsage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastArg != 15 || stub.lastDay != "2026-10-13" {
		t.Fatalf("unexpected call: %d %s", stub.lastArg, stub.lastDay)
	}
	var usage domain.DailyUsage
	_ = json.Unmarshal(rec.Body.Bytes(), &usage)
	if usage.SecondsUsed != 900 {
		t.Fatalf("expected 900 seconds, got %d", usage.SecondsUsed)
	}
}

func TestLedgerHandler_BalanceAndUsage(t *testing.T) {
	stub := &stubLedgerService{balance: 42}
	handler := NewLedgerHandler(stub)

	c, rec := newContext(http.MethodGet, "/v1/balance", "")
	withClaims(c, "u1", domain.RoleUser)
	if err := handler.Balance(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var bal balanceResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &bal)
	if bal.Balance != 42 || bal.UserID != "u1" {
		t.Fatalf("unexpected balance response: %+v", bal)
	}

	c, _ = newContext(http.MethodPost, "/v1/usage", `{"seconds":30}`)
	withClaims(c, "u1", domain.RoleUser)
	if err := handler.TrackUsage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastCall != "track:u1" || stub.lastArg != 30 {
		t.Fatalf("unexpected call: %s %d", stub.lastCall, stub.lastArg)
	}

	c, _ = newContext(http.MethodPost, "/v1/usage", `{"seconds":0}`)
	withClaims(c, "u1", domain.RoleUser)
	if code := httpCode(t, handler.TrackUsage(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero seconds, got %d", code)
	}
}
