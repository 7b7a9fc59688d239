package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/ports"
	"github.com/mindmate/companion-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	raiseTimeout   = 15 * time.Second
)

// AlertDispatcher moves crisis alert requests off the request path. Requests
// are sharded by user so one user's alerts are raised in order.
type AlertDispatcher struct {
	workers []chan ports.AlertRequest
	service ports.AlertService
	timeout time.Duration
	log     zerolog.Logger
}

// NewAlertDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewAlertDispatcher(numWorkers int, service ports.AlertService, log zerolog.Logger) *AlertDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AlertDispatcher{
		workers: make([]chan ports.AlertRequest, numWorkers),
		service: service,
		timeout: raiseTimeout,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.AlertRequest, channelBuffer)
	}
	return d
}

// Enqueue hands req to its worker without blocking. It returns false and
// counts a drop when that worker's buffer is full.
func (d *AlertDispatcher) Enqueue(req ports.AlertRequest) bool {
	idx := d.shardIndex(req.UserID)
	select {
	case d.workers[idx] <- req:
		metrics.AlertQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return true
	default:
		metrics.AlertsDroppedTotal.Inc()
		return false
	}
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has drained what was already queued.
func (d *AlertDispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i, ch := range d.workers {
		wg.Add(1)
		go func(id int, ch <-chan ports.AlertRequest) {
			defer wg.Done()
			d.runWorker(ctx, id, ch)
		}(i, ch)
	}
	wg.Wait()
	return nil
}

// shardIndex maps a user id deterministically to a worker index.
func (d *AlertDispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AlertDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.AlertRequest) {
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case req := <-ch:
			d.raise(ctx, id, req)
		}
	}
}

func (d *AlertDispatcher) drain(ctx context.Context, id int, ch <-chan ports.AlertRequest) {
	for {
		select {
		case req := <-ch:
			d.raise(ctx, id, req)
		default:
			return
		}
	}
}

func (d *AlertDispatcher) raise(ctx context.Context, id int, req ports.AlertRequest) {
	metrics.AlertQueueDepth.WithLabelValues(strconv.Itoa(id)).Dec()

	// Alerts already accepted are raised even while shutting down.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if _, err := d.service.Raise(ctx, req); err != nil {
		d.log.Error().Err(err).
			Str("user_id", req.UserID).
			Str("source", string(req.Source)).
			Int("worker_id", id).
			Msg("crisis alert failed")
	}
}
