package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/mindmate/companion-api/internal/core/domain"
)

type stubMediaReader struct {
	objects map[string]string
}

func (s *stubMediaReader) Open(ctx context.Context, userID, ref string) (io.ReadCloser, string, error) {
	body, ok := s.objects[ref]
	if !ok || !strings.Contains(ref, "/"+userID+"/") {
		return nil, "", domain.ErrMediaNotFound
	}
	return io.NopCloser(strings.NewReader(body)), "image/png", nil
}

func TestMediaHandler_Get(t *testing.T) {
	reader := &stubMediaReader{objects: map[string]string{"media/turns/u1/a.png": "PNGDATA"}}
	handler := NewMediaHandler(reader)

	c, rec := newContext(http.MethodGet, "/v1/media/media/turns/u1/a.png", "")
	withClaims(c, "u1", domain.RoleUser)
	c.SetParamNames("*")
	c.SetParamValues("media/turns/u1/a.png")

	if err := handler.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if rec.Body.String() != "PNGDATA" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestMediaHandler_Get_OtherUser(t *testing.T) {
	reader := &stubMediaReader{objects: map[string]string{"media/turns/u1/a.png": "PNGDATA"}}
	handler := NewMediaHandler(reader)

	c, _ := newContext(http.MethodGet, "/v1/media/media/turns/u1/a.png", "")
	withClaims(c, "u2", domain.RoleUser)
	c.SetParamNames("*")
	c.SetParamValues("media/turns/u1/a.png")

	if err := handler.Get(c); !errors.Is(err, domain.ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound, got %v", err)
	}
}
