package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

type stubAlertRepo struct {
	stored []*domain.CrisisAlert
	err    error
}

func (r *stubAlertRepo) CreateMany(_ context.Context, alerts []*domain.CrisisAlert) error {
	if r.err != nil {
		return r.err
	}
	for _, a := range alerts {
		a.ID = fmt.Sprintf("alert-%d", len(r.stored)+1)
		r.stored = append(r.stored, a)
	}
	return nil
}

type stubPublisher struct {
	published []*domain.CrisisAlert
	err       error
}

func (p *stubPublisher) PublishAlert(_ context.Context, a *domain.CrisisAlert) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, a)
	return nil
}

func TestAlertService_RaiseCreatesOneAlertPerContact(t *testing.T) {
	store := newMemStore()
	store.seed("u1", 0)
	_ = store.UpdateSafety(context.Background(), "u1", domain.SafetySettings{
		AlertConsent: true,
		TrustedContacts: []domain.TrustedContact{
			{Name: "Sam", Email: "sam@example.com"},
			{Name: "Kai", Phone: "+15550001"},
			{Name: "Nobody"},
		},
		EmergencyName:  "Kai",
		EmergencyPhone: "+15550001",
	})
	repo := &stubAlertRepo{}
	pub := &stubPublisher{}
	svc := NewAlertService(store, repo, pub, discardLogger)

	at := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	n, err := svc.Raise(context.Background(), ports.AlertRequest{UserID: "u1", TriggeredAt: at, Source: domain.AlertSourceClassifier})
	if err != nil {
		t.Fatalf("Raise returned error: %v", err)
	}
	if n != 2 || len(repo.stored) != 2 {
		t.Fatalf("expected 2 alerts, got n=%d stored=%d", n, len(repo.stored))
	}
	for _, a := range repo.stored {
		if a.Status != domain.AlertPending || !a.TriggeredAt.Equal(at) || a.UserID != "u1" {
			t.Fatalf("unexpected alert: %+v", a)
		}
	}
	if len(pub.published) != 2 {
		t.Fatalf("expected 2 published alerts, got %d", len(pub.published))
	}
}

func TestAlertService_EmergencyContactAdded(t *testing.T) {
	store := newMemStore()
	store.seed("u1", 0)
	_ = store.UpdateSafety(context.Background(), "u1", domain.SafetySettings{
		AlertConsent:   true,
		EmergencyName:  "Mum",
		EmergencyPhone: "+15557777",
	})
	repo := &stubAlertRepo{}
	svc := NewAlertService(store, repo, nil, discardLogger)

	n, err := svc.Raise(context.Background(), ports.AlertRequest{UserID: "u1", TriggeredAt: time.Now()})
	if err != nil || n != 1 {
		t.Fatalf("expected 1 alert, got n=%d err=%v", n, err)
	}
	if repo.stored[0].ContactName != "Mum" || repo.stored[0].ContactPhone != "+15557777" {
		t.Fatalf("unexpected contact: %+v", repo.stored[0])
	}
}

func TestAlertService_NoConsent(t *testing.T) {
	store := newMemStore()
	store.seed("u1", 0)
	_ = store.UpdateSafety(context.Background(), "u1", domain.SafetySettings{
		TrustedContacts: []domain.TrustedContact{{Name: "Sam", Email: "sam@example.com"}},
	})
	repo := &stubAlertRepo{}
	svc := NewAlertService(store, repo, nil, discardLogger)

	n, err := svc.Raise(context.Background(), ports.AlertRequest{UserID: "u1", TriggeredAt: time.Now()})
	if err != nil || n != 0 || len(repo.stored) != 0 {
		t.Fatalf("expected no alerts without consent, got n=%d err=%v", n, err)
	}
}

func TestAlertService_PublishFailureIsNotFatal(t *testing.T) {
	store := newMemStore()
	store.seed("u1", 0)
	_ = store.UpdateSafety(context.Background(), "u1", domain.SafetySettings{
		AlertConsent:    true,
		TrustedContacts: []domain.TrustedContact{{Name: "Sam", Email: "sam@example.com"}},
	})
	repo := &stubAlertRepo{}
	svc := NewAlertService(store, repo, &stubPublisher{err: errors.New("broker down")}, discardLogger)

	n, err := svc.Raise(context.Background(), ports.AlertRequest{UserID: "u1", TriggeredAt: time.Now()})
	if err != nil || n != 1 {
		t.Fatalf("expected stored alert despite publish failure, got n=%d err=%v", n, err)
	}
}

func TestAlertService_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.seed("u1", 0)
	_ = store.UpdateSafety(context.Background(), "u1", domain.SafetySettings{
		AlertConsent:    true,
		TrustedContacts: []domain.TrustedContact{{Email: "sam@example.com"}},
	})
	svc := NewAlertService(store, &stubAlertRepo{err: errors.New("mongo down")}, nil, discardLogger)

	if _, err := svc.Raise(context.Background(), ports.AlertRequest{UserID: "u1"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := svc.Raise(context.Background(), ports.AlertRequest{UserID: "ghost"}); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
