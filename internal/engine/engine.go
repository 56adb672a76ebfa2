// Package engine orchestrates the discovery pipeline: fetch, extract,
// crawl, score, validate, cache. One Engine serves many concurrent
// discovery runs; all per-run state lives in the run itself.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/cache"
	"github.com/immoleads/contact-discovery/internal/crawl"
	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/extract"
	"github.com/immoleads/contact-discovery/internal/metrics"
	"github.com/immoleads/contact-discovery/internal/score"
)

// DefaultConcurrency bounds parallel runs inside DiscoverBatch.
const DefaultConcurrency = 5

// Fetcher is the engine's view of the fetch client: page fetches for the
// crawler plus artifact downloads for the OCR and PDF extractors.
type Fetcher interface {
	crawl.Fetcher
	extract.ArtifactFetcher
}

// Validator is the slice of the validate package the engine drives.
type Validator interface {
	ValidateBatch(ctx context.Context, contacts []*domain.Contact, level domain.ValidationLevel) ([]*domain.ValidationRecord, *domain.ValidationSummary)
}

// Options tune the engine.
type Options struct {
	// Defaults fill in zero-valued fields of per-request options.
	Defaults domain.DiscoveryOptions

	// Concurrency bounds parallel runs in DiscoverBatch.
	Concurrency int

	// Crawl tunes the crawler shared by all runs.
	Crawl crawl.Options

	// ValidationLevel is the depth of the validation pass when a run enables
	// validation. Empty means standard.
	ValidationLevel domain.ValidationLevel
}

// Engine runs discoveries. Safe for concurrent use.
type Engine struct {
	fetcher    Fetcher
	crawler    *crawl.Crawler
	scorer     *score.Scorer
	validator  Validator
	cache      cache.Cache
	extractors []extract.Extractor
	metrics    *metrics.Metrics
	log        *zap.Logger
	opts       Options

	mu    sync.Mutex
	stats Stats
}

// Option adds optional capability to an engine.
type Option func(*Engine) error

// WithOCR registers the OCR extractor. The recognizer is mandatory; an OCR
// run without one would silently extract nothing.
func WithOCR(recognizer extract.Recognizer, languages string) Option {
	return func(e *Engine) error {
		if recognizer == nil {
			return errors.New("ocr enabled without a recognizer")
		}
		e.extractors = append(e.extractors,
			extract.NewOCRExtractor(e.fetcher, recognizer, languages, e.log))
		return nil
	}
}

// WithPDF registers the PDF extractor.
func WithPDF() Option {
	return func(e *Engine) error {
		e.extractors = append(e.extractors, extract.NewPDFExtractor(e.fetcher, e.log))
		return nil
	}
}

// New builds an engine over its collaborators. validator and resultCache may
// be nil; runs then skip validation and caching. metrics may be nil.
func New(fetcher Fetcher, validator Validator, resultCache cache.Cache, m *metrics.Metrics, log *zap.Logger, opts Options, extras ...Option) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ValidationLevel == "" {
		opts.ValidationLevel = domain.LevelStandard
	}

	e := &Engine{
		fetcher:   fetcher,
		crawler:   crawl.New(fetcher, opts.Crawl, log),
		scorer:    score.New(),
		validator: validator,
		cache:     resultCache,
		metrics:   m,
		log:       log,
		opts:      opts,
		extractors: []extract.Extractor{
			extract.NewEmailExtractor(),
			extract.NewPhoneExtractor(),
			extract.NewFormExtractor(),
			extract.NewSocialExtractor(),
		},
	}
	for _, extra := range extras {
		if err := extra(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Stats is a per-process snapshot of engine activity.
type Stats struct {
	Discoveries    int           `json:"discoveries"`
	Failures       int           `json:"failures"`
	ContactsFound  int           `json:"contacts_found"`
	HighConfidence int           `json:"high_confidence"`
	PagesVisited   int           `json:"pages_visited"`
	CacheHits      int           `json:"cache_hits"`
	CacheMisses    int           `json:"cache_misses"`
	TotalElapsed   time.Duration `json:"total_elapsed"`
}

// Stats returns a snapshot of the counters since process start.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) recordRun(result *domain.ExtractionResult, crawlStats *crawl.Stats, cacheHit bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Discoveries++
	if result.Error != "" {
		e.stats.Failures++
	}
	e.stats.ContactsFound += len(result.Contacts)
	e.stats.HighConfidence += result.HighConfidenceCount()
	e.stats.TotalElapsed += result.Elapsed
	if crawlStats != nil {
		e.stats.PagesVisited += crawlStats.PagesVisited
	}
	if cacheHit {
		e.stats.CacheHits++
	} else {
		e.stats.CacheMisses++
	}
}
