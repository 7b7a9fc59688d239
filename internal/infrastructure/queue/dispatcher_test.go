package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

type recordingAlertService struct {
	mu   sync.Mutex
	seen []ports.AlertRequest
	err  error
}

func (s *recordingAlertService) Raise(_ context.Context, req ports.AlertRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, req)
	return 1, s.err
}

func (s *recordingAlertService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func TestAlertDispatcher_DeliversInOrderPerUser(t *testing.T) {
	svc := &recordingAlertService{}
	d := NewAlertDispatcher(3, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	base := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if !d.Enqueue(ports.AlertRequest{UserID: "u1", TriggeredAt: base.Add(time.Duration(i) * time.Second), Source: domain.AlertSourceClassifier}) {
			t.Fatalf("enqueue %d rejected", i)
		}
	}

	deadline := time.After(2 * time.Second)
	for svc.count() < 5 {
		select {
		case <-deadline:
			t.Fatalf("timed out, got %d alerts", svc.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	for i := 1; i < len(svc.seen); i++ {
		if svc.seen[i].TriggeredAt.Before(svc.seen[i-1].TriggeredAt) {
			t.Fatalf("alerts for one user delivered out of order")
		}
	}
}

func TestAlertDispatcher_EnqueueDropsWhenFull(t *testing.T) {
	svc := &recordingAlertService{}
	d := NewAlertDispatcher(1, svc, zerolog.Nop())

	// No workers running: the single buffer fills up.
	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(ports.AlertRequest{UserID: "u1"}) {
			t.Fatalf("enqueue %d rejected before buffer was full", i)
		}
	}
	if d.Enqueue(ports.AlertRequest{UserID: "u1"}) {
		t.Fatalf("expected enqueue to be rejected when full")
	}
}

func TestAlertDispatcher_DrainsOnShutdown(t *testing.T) {
	svc := &recordingAlertService{err: errors.New("store down")}
	d := NewAlertDispatcher(2, svc, zerolog.Nop())
	for i := 0; i < 10; i++ {
		d.Enqueue(ports.AlertRequest{UserID: "user-" + string(rune('a'+i))})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if svc.count() != 10 {
		t.Fatalf("expected queued alerts to be drained, got %d", svc.count())
	}
}

func TestAlertDispatcher_ShardIndexStable(t *testing.T) {
	d := NewAlertDispatcher(8, &recordingAlertService{}, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		if d.shardIndex("user-42") != first {
			t.Fatalf("expected stable shard index")
		}
	}
}
