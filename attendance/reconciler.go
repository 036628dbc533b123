package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"eventscout-backend/logging"
	"eventscout-backend/metrics"
)

// CounterStore rebuilds the denormalised attendance counters.
type CounterStore interface {
	ReconcileCounters(ctx context.Context) (int64, error)
}

// Reconciler periodically recomputes the per-event and per-venue counters
// from the ledger, repairing increments lost after a committed check-in.
type Reconciler struct {
	store   CounterStore
	cron    *cron.Cron
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// NewReconciler schedules runs on a standard five-field cron spec or a
// descriptor such as "@every 15m".
func NewReconciler(s CounterStore, schedule string, timeout time.Duration) (*Reconciler, error) {
	r := &Reconciler{
		store:   s,
		cron:    cron.New(),
		timeout: timeout,
	}
	if _, err := r.cron.AddFunc(schedule, r.scheduled); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reconciler) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for a run in progress to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Reconciler) scheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_, _ = r.RunOnce(ctx)
}

// RunOnce reconciles immediately. Overlapping calls are skipped and report
// zero rows.
func (r *Reconciler) RunOnce(ctx context.Context) (int64, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		metrics.CounterReconciliations.WithLabelValues("skipped").Inc()
		return 0, nil
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	start := time.Now()
	n, err := r.store.ReconcileCounters(ctx)
	if err != nil {
		metrics.CounterReconciliations.WithLabelValues("error").Inc()
		logging.Error().Err(err).Msg("attendance counter reconciliation failed")
		return 0, err
	}
	metrics.CounterReconciliations.WithLabelValues("ok").Inc()
	logging.Info().Int64("rows", n).Dur("took", time.Since(start)).Msg("attendance counters reconciled")
	return n, nil
}
