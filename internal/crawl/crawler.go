// Package crawl walks the same-origin neighborhood of a seed URL with a
// depth-bounded, priority-ordered frontier. The crawler owns the frontier
// and the visited set for its run; extraction is the caller's concern and
// arrives through a per-page callback.
package crawl

import (
	"container/heap"
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/extract"
	"github.com/immoleads/contact-discovery/internal/fetch"
)

const (
	// DefaultMaxLinksPerPage caps enqueued links per page, not per run.
	DefaultMaxLinksPerPage = 20

	// DefaultMaxPages is the runtime quota of a single crawl run.
	DefaultMaxPages = 30
)

// Fetcher is the crawler's view of the fetch client.
type Fetcher interface {
	Fetch(ctx context.Context, url string, dctx *domain.DiscoveryContext) (*fetch.Result, error)
}

// PageFunc receives every successfully fetched page together with the
// discovery path from the seed to that page (inclusive).
type PageFunc func(ctx context.Context, page *extract.Page, path []string)

// Options tune a crawler.
type Options struct {
	MaxLinksPerPage int
	MaxPages        int
}

// Stats summarize one crawl run.
type Stats struct {
	PagesVisited  int      `json:"pages_visited"`
	PagesFailed   int      `json:"pages_failed"`
	RobotsBlocked int      `json:"robots_blocked"`
	Visited       []string `json:"visited,omitempty"`
}

// Crawler performs depth-bounded BFS, contact-page candidates first. Safe
// to reuse across runs; all run state lives on the stack of Run.
type Crawler struct {
	fetcher Fetcher
	opts    Options
	log     *zap.Logger
}

// New builds a crawler over the given fetcher.
func New(fetcher Fetcher, opts Options, log *zap.Logger) *Crawler {
	if opts.MaxLinksPerPage <= 0 {
		opts.MaxLinksPerPage = DefaultMaxLinksPerPage
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Crawler{fetcher: fetcher, opts: opts, log: log}
}

// Run crawls from the context's seed URL. Every URL is visited at most once
// per run; a link at depth max_depth is never enqueued. Fetch failures skip
// that page only.
func (c *Crawler) Run(ctx context.Context, dctx *domain.DiscoveryContext, onPage PageFunc) *Stats {
	stats := &Stats{}
	visited := make(map[string]bool)
	frontier := newFrontier()
	frontier.push(&frontierItem{url: dctx.SeedURL, depth: 0, path: nil})

	processed := 0
	for frontier.Len() > 0 && processed < c.opts.MaxPages {
		if ctx.Err() != nil {
			break
		}
		item := frontier.pop()
		if visited[canonicalURL(item.url)] {
			continue
		}
		visited[canonicalURL(item.url)] = true
		processed++

		res, err := c.fetcher.Fetch(ctx, item.url, dctx)
		if err != nil {
			if errors.Is(err, fetch.ErrRobotsBlocked) {
				stats.RobotsBlocked++
			} else {
				stats.PagesFailed++
			}
			c.log.Debug("crawl: page skipped",
				zap.String("url", item.url),
				zap.Int("depth", item.depth),
				zap.Error(err))
			continue
		}

		stats.PagesVisited++
		stats.Visited = append(stats.Visited, item.url)

		// Redirects may land on a URL we would otherwise enqueue again.
		visited[canonicalURL(res.FinalURL)] = true

		page, err := extract.NewPage(res.FinalURL, res.Body)
		if err != nil {
			stats.PagesFailed++
			continue
		}

		path := append(append([]string(nil), item.path...), res.FinalURL)
		if onPage != nil {
			onPage(ctx, page, path)
		}

		if item.depth+1 > dctx.MaxDepth {
			continue
		}
		enqueued := 0
		for _, link := range harvestLinks(page, dctx, item.depth) {
			if enqueued >= c.opts.MaxLinksPerPage {
				break
			}
			if visited[canonicalURL(link.url)] {
				continue
			}
			frontier.push(&frontierItem{
				url:      link.url,
				depth:    item.depth + 1,
				priority: link.score,
				path:     path,
			})
			enqueued++
		}
	}

	return stats
}

// canonicalURL is the visited-set key: fragment-free, trailing slash on a
// bare root so "https://acme.de" and "https://acme.de/" count once.
func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// frontierItem is one enqueued URL with the depth it was discovered at.
type frontierItem struct {
	url      string
	depth    int
	priority int
	path     []string
	seq      int
}

// frontier is a FIFO augmented with priority: highest link score first,
// insertion order breaking ties. Implements heap.Interface.
type frontier struct {
	items []*frontierItem
	next  int
}

func newFrontier() *frontier { return &frontier{} }

func (f *frontier) push(item *frontierItem) {
	item.seq = f.next
	f.next++
	heap.Push(f, item)
}

func (f *frontier) pop() *frontierItem { return heap.Pop(f).(*frontierItem) }

func (f *frontier) Len() int { return len(f.items) }

func (f *frontier) Less(i, j int) bool {
	if f.items[i].priority != f.items[j].priority {
		return f.items[i].priority > f.items[j].priority
	}
	return f.items[i].seq < f.items[j].seq
}

func (f *frontier) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier) Push(x any) { f.items = append(f.items, x.(*frontierItem)) }

func (f *frontier) Pop() any {
	old := f.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	f.items = old[:n-1]
	return item
}
