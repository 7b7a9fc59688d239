package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.Account, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	return s.loginFn(ctx, email, password)
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
			if in.DisplayName != "Alice" || in.Email != "alice@example.com" || in.Role != "" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Account{ID: "u1", DisplayName: in.DisplayName, Email: in.Email, Role: domain.RoleUser, Tokens: 100}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/auth/register", `{"display_name":"Alice","email":"alice@example.com","password":"correct-horse"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["id"] != "u1" || user["role"] != "user" || user["tokens"] != float64(100) {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.Account, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.Account{ID: "u1", Email: email, Role: domain.RoleAdmin}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "u1" || user["role"] != "admin" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestAuthHandler_Errors(t *testing.T) {
	failing := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Account, error) {
			return nil, domain.ErrUserExists
		},
		loginFn: func(context.Context, string, string) (string, *domain.Account, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	unreachable := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Account, error) {
			t.Fatalf("register should not be called")
			return nil, nil
		},
		loginFn: func(context.Context, string, string) (string, *domain.Account, error) {
			t.Fatalf("login should not be called")
			return "", nil, nil
		},
	}

	cases := []struct {
		name     string
		svc      *stubAuthService
		login    bool
		body     string
		wantErr  error
		wantCode int
	}{
		{name: "register duplicate", svc: failing, body: `{"email":"bob@example.com","password":"long-enough"}`, wantErr: domain.ErrUserExists},
		{name: "register not json", svc: unreachable, body: "not-json", wantCode: http.StatusBadRequest},
		{name: "register bad email", svc: unreachable, body: `{"email":"not-an-email","password":"long-enough"}`, wantCode: http.StatusBadRequest},
		{name: "register short password", svc: unreachable, body: `{"email":"bob@example.com","password":"short"}`, wantCode: http.StatusBadRequest},
		{name: "login bad password", svc: failing, login: true, body: `{"email":"alice@example.com","password":"bad"}`, wantErr: domain.ErrInvalidCredentials},
		{name: "login truncated body", svc: unreachable, login: true, body: "{", wantCode: http.StatusBadRequest},
		{name: "login missing password", svc: unreachable, login: true, body: `{"email":"alice@example.com"}`, wantCode: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(tc.svc)
			c, _ := newContext(http.MethodPost, "/auth", tc.body)

			var err error
			if tc.login {
				err = h.Login(c)
			} else {
				err = h.Register(c)
			}

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if code := httpCode(t, err); code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, code)
			}
		})
	}
}
