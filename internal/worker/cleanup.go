// Package worker holds the background loops that run beside the API process.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/service/contacts"
)

// Without periodic cleanup, discovered contacts and their validation history
// accumulate indefinitely. Deletes run in small batches so a cleanup cycle
// never holds long row locks against live discovery traffic. Validation rows
// go with their contact via the FK cascade.

const (
	// DefaultCleanupInterval is how often a cleanup cycle runs.
	DefaultCleanupInterval = 1 * time.Hour

	// DefaultRetention keeps discovered contacts for 90 days.
	DefaultRetention = 90 * 24 * time.Hour

	// defaultCleanupBatchSize limits each DELETE statement.
	defaultCleanupBatchSize = 500
)

// CleanupOptions configures the retention worker. Zero values fall back to
// the defaults above.
type CleanupOptions struct {
	Interval  time.Duration
	Retention time.Duration
	BatchSize int
}

// CleanupWorker periodically removes contacts past the retention window.
type CleanupWorker struct {
	svc  *contacts.Service
	opts CleanupOptions
	log  *zap.Logger
}

// NewCleanupWorker creates a retention worker over the contact service.
func NewCleanupWorker(svc *contacts.Service, opts CleanupOptions, log *zap.Logger) *CleanupWorker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultCleanupInterval
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultCleanupBatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CleanupWorker{svc: svc, opts: opts, log: log}
}

// Start runs the cleanup loop. It blocks until ctx is cancelled. The first
// cycle runs immediately so a restart never postpones overdue cleanup by a
// full interval.
func (w *CleanupWorker) Start(ctx context.Context) {
	w.log.Info("retention cleanup starting",
		zap.Duration("interval", w.opts.Interval),
		zap.Duration("retention", w.opts.Retention),
		zap.Int("batch_size", w.opts.BatchSize))

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("retention cleanup stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single cleanup cycle and returns the number of removed
// contacts. Errors are logged, not returned to the loop; a failed cycle must
// not stop the worker.
func (w *CleanupWorker) RunOnce(ctx context.Context) int64 {
	start := time.Now()
	n, err := w.svc.Cleanup(ctx, w.opts.Retention, w.opts.BatchSize)
	if err != nil {
		w.log.Error("cleanup cycle failed", zap.Error(err), zap.Int64("removed_before_error", n))
		return n
	}
	w.log.Info("cleanup cycle done",
		zap.Int64("contacts_removed", n),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	return n
}
