package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immoleads/contact-discovery/internal/domain"
)

func testContext(respectRobots bool) *domain.DiscoveryContext {
	return &domain.DiscoveryContext{
		RespectRobots: respectRobots,
		Timeout:       5 * time.Second,
		UserAgent:     "TestBot/1.0",
		Language:      "de",
	}
}

func TestFetchSetsHeadersAndFollowsRedirects(t *testing.T) {
	var gotUA, gotLang string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte("<html>ok</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(Options{}, nil, nil)
	res, err := c.Fetch(context.Background(), srv.URL+"/start", testContext(false))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, srv.URL+"/final", res.FinalURL)
	assert.Contains(t, string(res.Body), "ok")
	assert.Equal(t, "TestBot/1.0", gotUA)
	assert.Equal(t, "de, en;q=0.5", gotLang)
}

func TestFetchErrorTaxonomy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(Options{}, nil, nil)

	_, err := c.Fetch(context.Background(), "ftp://acme.de/x", testContext(false))
	assert.True(t, errors.Is(err, ErrInvalidURL))

	_, err = c.Fetch(context.Background(), srv.URL+"/missing", testContext(false))
	require.True(t, errors.Is(err, ErrHTTPStatus))
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Equal(t, srv.URL+"/missing", fe.URL)

	_, err = c.Fetch(context.Background(), "http://127.0.0.1:1/nothing", testContext(false))
	assert.True(t, errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout))
}

func TestFetchRespectsRobots(t *testing.T) {
	var privateFetched bool
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/private/page", func(w http.ResponseWriter, r *http.Request) {
		privateFetched = true
	})
	mux.HandleFunc("/public", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(Options{}, nil, nil)

	_, err := c.Fetch(context.Background(), srv.URL+"/private/page", testContext(true))
	assert.True(t, errors.Is(err, ErrRobotsBlocked))
	assert.False(t, privateFetched)

	_, err = c.Fetch(context.Background(), srv.URL+"/public", testContext(true))
	assert.NoError(t, err)
}

func TestFetchRobotsUnavailableAssumesAllowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("page"))
	}))
	defer srv.Close()

	c := NewClient(Options{}, nil, nil)
	_, err := c.Fetch(context.Background(), srv.URL+"/page", testContext(true))
	assert.NoError(t, err)
}

func TestFetchRateLimitSpacesSameOrigin(t *testing.T) {
	var starts []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		starts = append(starts, time.Now())
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	const interval = 300 * time.Millisecond
	c := NewClient(Options{RateLimit: interval}, nil, nil)
	dctx := testContext(false)

	_, err := c.Fetch(context.Background(), srv.URL+"/a", dctx)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), srv.URL+"/b", dctx)
	require.NoError(t, err)

	require.Len(t, starts, 2)
	assert.GreaterOrEqual(t, starts[1].Sub(starts[0]), interval-10*time.Millisecond)
}

func TestFetchBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	c := NewClient(Options{MaxBodyBytes: 1024}, nil, nil)
	_, err := c.Fetch(context.Background(), srv.URL, testContext(false))
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestFetchArtifactSizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte(strings.Repeat("p", 2048)))
	}))
	defer srv.Close()

	c := NewClient(Options{}, nil, nil)

	body, contentType, err := c.FetchArtifact(context.Background(), srv.URL+"/img.png", 4096)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Len(t, body, 2048)

	_, _, err = c.FetchArtifact(context.Background(), srv.URL+"/img.png", 512)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestFetchCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	c := NewClient(Options{}, nil, nil)
	_, err := c.Fetch(ctx, srv.URL, testContext(false))
	assert.True(t, errors.Is(err, ErrCancelled))
}
