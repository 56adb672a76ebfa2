package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immoleads/contact-discovery/internal/api"
	"github.com/immoleads/contact-discovery/internal/cache"
	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/engine"
	"github.com/immoleads/contact-discovery/internal/service/contacts"
)

// fakeEngine serves canned results without touching the network.
type fakeEngine struct {
	stats engine.Stats
}

func (f *fakeEngine) Discover(_ context.Context, url string, _ domain.DiscoveryOptions) (*domain.ExtractionResult, error) {
	if !strings.HasPrefix(url, "http") {
		return nil, fmt.Errorf("unsupported scheme in %q", url)
	}
	return &domain.ExtractionResult{
		SourceURL: url,
		Contacts: []*domain.Contact{
			{Method: domain.MethodEmail, Value: "info@acme-immobilien.de", ConfidenceScore: 0.9, SourceURL: url},
		},
	}, nil
}

func (f *fakeEngine) DiscoverBatch(ctx context.Context, urls []string, opts domain.DiscoveryOptions) []*domain.ExtractionResult {
	results := make([]*domain.ExtractionResult, len(urls))
	for i, u := range urls {
		r, err := f.Discover(ctx, u, opts)
		if err != nil {
			r = &domain.ExtractionResult{SourceURL: u, Error: err.Error()}
		}
		results[i] = r
	}
	return results
}

func (f *fakeEngine) Stats() engine.Stats { return f.stats }

// fakeValidator approves everything at a fixed confidence.
type fakeValidator struct{}

func (fakeValidator) Validate(_ context.Context, c *domain.Contact, _ domain.ValidationLevel) *domain.ValidationRecord {
	return &domain.ValidationRecord{
		ContactID:       c.ID,
		Method:          domain.ValidationDNS,
		IsValid:         true,
		ConfidenceScore: 0.85,
		ValidatedAt:     time.Now().UTC(),
	}
}

// memRepo is the in-memory repository used across the handler tests.
type memRepo struct {
	mu          sync.Mutex
	rows        map[string]*domain.Contact
	validations map[string][]domain.ValidationRecord
	listings    map[string]*domain.Listing
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows:        make(map[string]*domain.Contact),
		validations: make(map[string][]domain.ValidationRecord),
		listings:    make(map[string]*domain.Listing),
	}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, contacts.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f contacts.ListFilter) ([]domain.Contact, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Contact
	for _, c := range m.rows {
		if f.Method != "" && string(c.Method) != f.Method {
			continue
		}
		if c.ConfidenceScore < f.MinConfidence {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memRepo) Upsert(_ context.Context, c *domain.Contact) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.rows {
		if existing.Method == c.Method && existing.Value == c.Value {
			return id, false, nil
		}
	}
	cp := *c
	cp.ID = uuid.New().String()
	m.rows[cp.ID] = &cp
	return cp.ID, true, nil
}

func (m *memRepo) UpdateVerification(_ context.Context, id string, status domain.VerificationStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return contacts.ErrNotFound
	}
	c.VerificationStatus = status
	c.ValidatedAt = &at
	return nil
}

func (m *memRepo) AddValidation(_ context.Context, rec *domain.ValidationRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	cp.ID = uuid.New().String()
	m.validations[rec.ContactID] = append(m.validations[rec.ContactID], cp)
	return cp.ID, nil
}

func (m *memRepo) Validations(_ context.Context, contactID string) ([]domain.ValidationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validations[contactID], nil
}

func (m *memRepo) EnsureListing(_ context.Context, l *domain.Listing) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.listings[l.URL]; ok {
		return existing.ID, nil
	}
	cp := *l
	cp.ID = uuid.New().String()
	m.listings[l.URL] = &cp
	return cp.ID, nil
}

func (m *memRepo) Statistics(_ context.Context) (*contacts.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &contacts.Statistics{ByMethod: map[string]int{}, ByStatus: map[string]int{}}
	for _, c := range m.rows {
		stats.Total++
		stats.ByMethod[string(c.Method)]++
		stats.ByStatus[string(c.VerificationStatus)]++
	}
	return stats, nil
}

func (m *memRepo) DeleteOlderThan(_ context.Context, cutoff time.Time, _ int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.rows {
		if c.CreatedAt.Before(cutoff) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type testServer struct {
	handler http.Handler
	repo    *memRepo
}

func newTestServer(t *testing.T, resultCache cache.Cache) *testServer {
	t.Helper()
	repo := newMemRepo()
	svc := contacts.NewService(repo, nil)
	srv := api.NewServer(&fakeEngine{stats: engine.Stats{Discoveries: 2}}, svc, fakeValidator{}, resultCache, nil, nil)
	return &testServer{handler: srv.Handler(), repo: repo}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestDiscoverSingleAndStore(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodPost, "/api/discover", map[string]any{
		"url":   "https://acme-immobilien.de",
		"store": true,
		"listing": map[string]any{
			"url":   "https://portal.de/expose/1",
			"title": "3-Zimmer-Wohnung",
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp api.DiscoverResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Stored, 1)
	assert.Equal(t, 1, resp.Stored[0].Stored)

	require.Len(t, ts.repo.rows, 1)
	for _, c := range ts.repo.rows {
		require.NotNil(t, c.ListingID, "stored contact must be linked to the listing")
	}
}

func TestDiscoverRequiresExactlyOneTarget(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodPost, "/api/discover", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/discover", map[string]any{
		"url":  "https://acme.de",
		"urls": []string{"https://acme.de"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDiscoverBatchKeepsFailedEntries(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodPost, "/api/discover", map[string]any{
		"urls": []string{"https://acme.de", "ftp://bad.example"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp api.DiscoverResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Empty(t, resp.Results[0].Error)
	assert.NotEmpty(t, resp.Results[1].Error)
}

func TestDiscoverInvalidURLIsBadRequest(t *testing.T) {
	ts := newTestServer(t, nil)
	rr := ts.do(t, http.MethodPost, "/api/discover", map[string]any{"url": "ftp://bad.example"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListContactsFilters(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.Upsert(context.Background(), &domain.Contact{Method: domain.MethodEmail, Value: "info@acme.de", ConfidenceScore: 0.9})
	ts.repo.Upsert(context.Background(), &domain.Contact{Method: domain.MethodPhone, Value: "08912345678", ConfidenceScore: 0.5})

	rr := ts.do(t, http.MethodGet, "/api/contacts?method=email&min_confidence=0.8", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.EqualValues(t, 1, body["total"])

	rr = ts.do(t, http.MethodGet, "/api/contacts?min_confidence=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetContactWithHistory(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _, err := ts.repo.Upsert(context.Background(), &domain.Contact{Method: domain.MethodEmail, Value: "info@acme.de"})
	require.NoError(t, err)
	_, err = ts.repo.AddValidation(context.Background(), &domain.ValidationRecord{ContactID: id, Method: domain.ValidationSyntax, IsValid: true})
	require.NoError(t, err)

	rr := ts.do(t, http.MethodGet, "/api/contacts/"+id, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.NotNil(t, body["contact"])
	require.Len(t, body["validations"], 1)

	rr = ts.do(t, http.MethodGet, "/api/contacts/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestValidateContact(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _, err := ts.repo.Upsert(context.Background(), &domain.Contact{Method: domain.MethodEmail, Value: "info@acme.de"})
	require.NoError(t, err)

	rr := ts.do(t, http.MethodPost, "/api/contacts/"+id+"/validate", map[string]any{"level": "standard"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, string(domain.StatusVerified), body["status"])

	got, err := ts.repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, got.VerificationStatus)

	history, err := ts.repo.Validations(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestValidateContactRejectsUnknownLevel(t *testing.T) {
	ts := newTestServer(t, nil)
	rr := ts.do(t, http.MethodPost, "/api/contacts/any/validate", map[string]any{"level": "extreme"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatsCombinesEngineAndStore(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.Upsert(context.Background(), &domain.Contact{Method: domain.MethodEmail, Value: "info@acme.de"})

	rr := ts.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Contains(t, body, "engine")
	require.Contains(t, body, "store")
}

func TestCleanupEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.repo.Upsert(context.Background(), &domain.Contact{
		Method: domain.MethodEmail, Value: "old@acme.de",
		CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
	})

	rr := ts.do(t, http.MethodPost, "/api/cleanup", map[string]any{"retention_days": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/cleanup", map[string]any{"retention_days": 30})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.EqualValues(t, 1, body["contacts_removed"])
}

func TestPurgeCache(t *testing.T) {
	withoutCache := newTestServer(t, nil)
	rr := withoutCache.do(t, http.MethodPost, "/api/cache/purge", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	mem := cache.NewMemory(0)
	require.NoError(t, mem.Set(context.Background(), cache.Key{URL: "https://acme.de"}, &domain.ExtractionResult{SourceURL: "https://acme.de"}))
	withCache := newTestServer(t, mem)
	rr = withCache.do(t, http.MethodPost, "/api/cache/purge", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, mem.Len())
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	rr := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "healthy", body["status"])
}
