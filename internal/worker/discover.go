package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/service/contacts"
)

// BatchEngine is the discovery surface the batch runner needs.
type BatchEngine interface {
	DiscoverBatch(ctx context.Context, urls []string, opts domain.DiscoveryOptions) []*domain.ExtractionResult
}

// BatchSummary totals one batch run.
type BatchSummary struct {
	URLs          int
	Succeeded     int
	Failed        int
	ContactsFound int
	Stored        int
	Merged        int
	Skipped       int
}

// BatchRunner feeds seed URLs through the engine and persists the results.
// The store is optional; without it the runner only reports what it found.
type BatchRunner struct {
	engine BatchEngine
	svc    *contacts.Service
	opts   domain.DiscoveryOptions
	log    *zap.Logger
}

// NewBatchRunner creates a batch discovery runner. svc may be nil.
func NewBatchRunner(engine BatchEngine, svc *contacts.Service, opts domain.DiscoveryOptions, log *zap.Logger) *BatchRunner {
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchRunner{engine: engine, svc: svc, opts: opts, log: log}
}

// Run discovers every URL and stores the successful results. Per-URL failures
// are counted and logged; only a storage error aborts the run, since losing
// the store midway means every later result would be lost too.
func (r *BatchRunner) Run(ctx context.Context, urls []string) (*BatchSummary, error) {
	summary := &BatchSummary{URLs: len(urls)}
	if len(urls) == 0 {
		return summary, nil
	}

	results := r.engine.DiscoverBatch(ctx, urls, r.opts)
	for _, result := range results {
		if result.Error != "" {
			summary.Failed++
			r.log.Warn("discovery failed",
				zap.String("url", result.SourceURL),
				zap.String("error", result.Error))
			continue
		}
		summary.Succeeded++
		summary.ContactsFound += len(result.Contacts)

		if r.svc == nil {
			continue
		}
		outcome, err := r.svc.StoreResult(ctx, nil, result)
		if err != nil {
			return summary, err
		}
		summary.Stored += outcome.Stored
		summary.Merged += outcome.Merged
		summary.Skipped += outcome.Skipped
	}

	r.log.Info("batch discovery done",
		zap.Int("urls", summary.URLs),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("contacts_found", summary.ContactsFound),
		zap.Int("stored", summary.Stored),
		zap.Int("merged", summary.Merged))
	return summary, nil
}
