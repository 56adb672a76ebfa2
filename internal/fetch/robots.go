package fetch

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// robotsFetchTimeout bounds the robots.txt fetch itself. A slow or missing
// robots file must not stall the crawl; on any failure we assume allowed.
const robotsFetchTimeout = 5 * time.Second

// maxRobotsBytes caps the robots.txt body. Anything larger is junk.
const maxRobotsBytes = 512 << 10

// robotsCache holds one parsed robots.txt per origin. First access fetches;
// failures cache an allow-all entry so a flaky robots endpoint is probed
// only once per run.
type robotsCache struct {
	client *http.Client
	log    *zap.Logger

	mu      sync.Mutex
	entries map[string]*robotstxt.RobotsData
}

func newRobotsCache(client *http.Client, log *zap.Logger) *robotsCache {
	return &robotsCache{
		client:  client,
		log:     log,
		entries: make(map[string]*robotstxt.RobotsData),
	}
}

// allowed reports whether the user agent may fetch the path under the
// origin's robots rules. Matching uses the configured agent with wildcard
// fallback, per the exclusion protocol.
func (rc *robotsCache) allowed(ctx context.Context, origin, path, userAgent string) bool {
	data := rc.lookup(ctx, origin, userAgent)
	if data == nil {
		return true
	}
	return data.FindGroup(userAgent).Test(path)
}

func (rc *robotsCache) lookup(ctx context.Context, origin, userAgent string) *robotstxt.RobotsData {
	rc.mu.Lock()
	data, ok := rc.entries[origin]
	rc.mu.Unlock()
	if ok {
		return data
	}

	data = rc.fetch(ctx, origin, userAgent)

	rc.mu.Lock()
	// A concurrent fetch may have won; keep the first entry.
	if existing, ok := rc.entries[origin]; ok {
		data = existing
	} else {
		rc.entries[origin] = data
	}
	rc.mu.Unlock()
	return data
}

// fetch retrieves and parses origin/robots.txt. nil means "no rules".
func (rc *robotsCache) fetch(ctx context.Context, origin, userAgent string) *robotstxt.RobotsData {
	ctx, cancel := context.WithTimeout(ctx, robotsFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		rc.log.Debug("robots fetch failed, assuming allowed",
			zap.String("origin", origin),
			zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil
	}

	// FromStatusAndBytes implements the protocol's status handling: 4xx
	// means no restrictions, 5xx means full disallow.
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		rc.log.Debug("robots parse failed, assuming allowed",
			zap.String("origin", origin),
			zap.Error(err))
		return nil
	}
	return data
}
