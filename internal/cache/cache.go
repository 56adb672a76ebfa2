// Package cache stores finished extraction results keyed by seed URL and
// discovery options, so repeated discoveries of the same page skip the
// network entirely. Two backends exist: an in-process map for single-node
// deployments and tests, and Redis for anything shared.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// Key identifies one cached extraction. Two discoveries of the same URL with
// different languages or crawl settings produce different results and must
// not share an entry.
type Key struct {
	URL      string
	Language string
	Crawling bool
}

// String renders the storage key. The layout is part of the cache contract;
// changing it invalidates every existing entry.
func (k Key) String() string {
	return k.URL + "|" + k.Language + "|" + strconv.FormatBool(k.Crawling)
}

// Cache is the result-cache surface the engine uses. Get returns ok=false
// for both a miss and an expired entry; errors are reserved for backend
// trouble.
type Cache interface {
	Get(ctx context.Context, key Key) (*domain.ExtractionResult, bool, error)
	Set(ctx context.Context, key Key, result *domain.ExtractionResult) error
	Delete(ctx context.Context, key Key) error
	Purge(ctx context.Context) error
	Close() error
}

// Options select and tune the backend.
type Options struct {
	// Backend is "memory" or "redis". Empty means memory.
	Backend string

	// RedisURL is a redis:// connection string, only read for the redis
	// backend.
	RedisURL string

	// TTL bounds entry lifetime. Zero keeps entries until Purge.
	TTL time.Duration
}

// New builds the configured backend.
func New(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(opts.TTL), nil
	case "redis":
		return NewRedis(opts.RedisURL, opts.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
