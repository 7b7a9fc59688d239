package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

const testSecret = "router-secret"

type routerLedger struct {
	ports.LedgerService
	addErr error
}

func (l *routerLedger) Balance(ctx context.Context, userID string) (int64, error) {
	return 30, nil
}

func (l *routerLedger) AddBalance(ctx context.Context, adminID, userID string, delta int64) (int64, error) {
	return 0, l.addErr
}

type routerRewards struct {
	ports.RewardService
}

func (r *routerRewards) ListPending(ctx context.Context, limit int) ([]domain.TaskCompletion, error) {
	return nil, nil
}

func newTestRouter(ledger *routerLedger) http.Handler {
	return NewRouter(Deps{
		Ledger:     ledger,
		Rewards:    &routerRewards{},
		JWTSecret:  testSecret,
		Log:        zerolog.Nop(),
		Registerer: prometheus.NewRegistry(),
	})
}

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub, "role": role, "exp": time.Now().Add(time.Hour).Unix()})
	signed, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func do(h http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RequiresAuth(t *testing.T) {
	h := newTestRouter(&routerLedger{})

	if rec := do(h, http.MethodGet, "/v1/balance", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/v1/balance", bearer(t, "u1", domain.RoleUser), ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness, got %d", rec.Code)
	}
}

func TestRouter_ReviewerRoutes(t *testing.T) {
	h := newTestRouter(&routerLedger{})

	if rec := do(h, http.MethodGet, "/v1/reviews/pending", bearer(t, "u1", domain.RoleUser), ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/v1/reviews/pending", bearer(t, "r1", domain.RoleReviewer), ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for reviewer, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/v1/reviews/pending", bearer(t, "a1", domain.RoleAdmin), ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestRouter_AdminRoutes(t *testing.T) {
	h := newTestRouter(&routerLedger{addErr: domain.ErrInsufficientBalance})

	path := "/v1/admin/users/u1/balance/add"
	if rec := do(h, http.MethodPost, path, bearer(t, "r1", domain.RoleReviewer), `{"delta":-5}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for reviewer, got %d", rec.Code)
	}
	rec := do(h, http.MethodPost, path, bearer(t, "a1", domain.RoleAdmin), `{"delta":-500}`)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 from domain error, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "insufficient token balance") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
