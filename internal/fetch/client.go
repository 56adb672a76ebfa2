// Package fetch is the polite HTTP layer under the crawler and the artifact
// extractors: one client with per-origin rate limiting, a robots.txt cache,
// and a typed error taxonomy so callers can attribute failures by URL.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/metrics"
)

const (
	// DefaultUserAgent identifies the engine to listing sites.
	DefaultUserAgent = "ImmoLeadsBot/1.0 (+https://immoleads.example/bot)"

	// DefaultTimeout bounds a single page fetch when the discovery context
	// carries none.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodyBytes caps a page body. Listing pages beyond this are
	// not worth parsing.
	DefaultMaxBodyBytes = 2 << 20

	maxRedirects = 10
)

// Options configure the client.
type Options struct {
	Timeout       time.Duration
	RateLimit     time.Duration
	MaxBodyBytes  int64
	UserAgent     string
	RespectRobots bool
}

// Result is a completed fetch: the status, the UTF-8 body, and the URL the
// redirect chain ended on.
type Result struct {
	StatusCode  int
	Body        []byte
	FinalURL    string
	ContentType string
}

// Client fetches pages and artifacts. Safe for concurrent use; concurrent
// fetches against the same origin serialize through the rate limiter.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *originLimiter
	robots  *robotsCache
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewClient builds the fetch client. metrics may be nil.
func NewClient(opts Options, m *metrics.Metrics, log *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if log == nil {
		log = zap.NewNop()
	}

	hc := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}

	return &Client{
		http:    hc,
		opts:    opts,
		limiter: newOriginLimiter(opts.RateLimit),
		robots:  newRobotsCache(hc, log),
		metrics: m,
		log:     log,
	}
}

// Fetch retrieves one page under the discovery context's politeness rules.
// It blocks through the origin's rate-limit slot, then performs the request
// with the context's timeout. The body is decoded to UTF-8.
func (c *Client) Fetch(ctx context.Context, rawURL string, dctx *domain.DiscoveryContext) (*Result, error) {
	start := time.Now()
	res, err := c.fetch(ctx, rawURL, dctx)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			c.metrics.ObserveFetch(kindLabel(fe.Kind), time.Since(start))
		}
		return nil, err
	}
	c.metrics.ObserveFetch("", time.Since(start))
	return res, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string, dctx *domain.DiscoveryContext) (*Result, error) {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		return nil, newError(ErrInvalidURL, rawURL, err)
	}

	userAgent := c.opts.UserAgent
	timeout := c.opts.Timeout
	respectRobots := c.opts.RespectRobots
	language := ""
	if dctx != nil {
		if dctx.UserAgent != "" {
			userAgent = dctx.UserAgent
		}
		if dctx.Timeout > 0 {
			timeout = dctx.Timeout
		}
		respectRobots = dctx.RespectRobots
		language = dctx.Language
	}

	origin := Origin(u)
	if respectRobots && !c.robots.allowed(ctx, origin, u.RequestURI(), userAgent) {
		return nil, newError(ErrRobotsBlocked, rawURL, nil)
	}

	if err := c.limiter.wait(ctx, origin, 0); err != nil {
		return nil, classify(rawURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, newError(ErrInvalidURL, rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguage(language))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, newStatusError(rawURL, resp.StatusCode)
	}

	body, err := readCapped(resp.Body, c.opts.MaxBodyBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, newError(ErrTooLarge, rawURL, nil)
		}
		return nil, classify(rawURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	body = decodeCharset(body, contentType)

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		Body:        body,
		FinalURL:    finalURL,
		ContentType: contentType,
	}, nil
}

// FetchArtifact implements extract.ArtifactFetcher: images and PDFs share
// the per-origin rate limits and robots rules of page fetches, with the
// caller's own size cap.
func (c *Client) FetchArtifact(ctx context.Context, rawURL string, maxBytes int64) ([]byte, string, error) {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		return nil, "", newError(ErrInvalidURL, rawURL, err)
	}

	origin := Origin(u)
	if c.opts.RespectRobots && !c.robots.allowed(ctx, origin, u.RequestURI(), c.opts.UserAgent) {
		return nil, "", newError(ErrRobotsBlocked, rawURL, nil)
	}
	if err := c.limiter.wait(ctx, origin, 0); err != nil {
		return nil, "", classify(rawURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", newError(ErrInvalidURL, rawURL, err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", classify(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", newStatusError(rawURL, resp.StatusCode)
	}
	if resp.ContentLength > maxBytes {
		return nil, "", newError(ErrTooLarge, rawURL, nil)
	}

	body, err := readCapped(resp.Body, maxBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, "", newError(ErrTooLarge, rawURL, nil)
		}
		return nil, "", classify(rawURL, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// Origin is the rate-limit and robots scope of a URL: scheme plus host.
func Origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

func parseHTTPURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func acceptLanguage(language string) string {
	if language == "" {
		language = "de"
	}
	return language + ", en;q=0.5"
}

// readCapped reads at most max bytes and fails with ErrTooLarge when the
// body continues past the cap.
func readCapped(r io.Reader, max int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > max {
		return nil, ErrTooLarge
	}
	return body, nil
}

// decodeCharset converts a body to UTF-8 using the Content-Type hint and
// in-document markers. Undecodable bodies pass through unchanged.
func decodeCharset(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}

// classify maps transport errors onto the taxonomy.
func classify(url string, err error) *FetchError {
	var ne net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return newError(ErrCancelled, url, err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(ErrTimeout, url, err)
	case errors.As(err, &ne) && ne.Timeout():
		return newError(ErrTimeout, url, err)
	default:
		return newError(ErrNetwork, url, err)
	}
}

func kindLabel(kind error) string {
	switch kind {
	case ErrInvalidURL:
		return "invalid_url"
	case ErrTimeout:
		return "timeout"
	case ErrNetwork:
		return "network"
	case ErrHTTPStatus:
		return "http_status"
	case ErrRobotsBlocked:
		return "robots_blocked"
	case ErrTooLarge:
		return "too_large"
	case ErrCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
