package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/service/contacts"
)

// stubRepo implements just enough of the repository for the worker tests.
type stubRepo struct {
	mu      sync.Mutex
	rows    map[string]*domain.Contact
	deletes int
}

func newStubRepo() *stubRepo {
	return &stubRepo{rows: make(map[string]*domain.Contact)}
}

func (s *stubRepo) Get(_ context.Context, id string) (*domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return nil, contacts.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *stubRepo) List(_ context.Context, _ contacts.ListFilter) ([]domain.Contact, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) Upsert(_ context.Context, c *domain.Contact) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.rows {
		if existing.Method == c.Method && existing.Value == c.Value {
			return id, false, nil
		}
	}
	cp := *c
	cp.ID = uuid.New().String()
	s.rows[cp.ID] = &cp
	return cp.ID, true, nil
}

func (s *stubRepo) UpdateVerification(_ context.Context, _ string, _ domain.VerificationStatus, _ time.Time) error {
	return nil
}

func (s *stubRepo) AddValidation(_ context.Context, _ *domain.ValidationRecord) (string, error) {
	return uuid.New().String(), nil
}

func (s *stubRepo) Validations(_ context.Context, _ string) ([]domain.ValidationRecord, error) {
	return nil, nil
}

func (s *stubRepo) EnsureListing(_ context.Context, _ *domain.Listing) (string, error) {
	return uuid.New().String(), nil
}

func (s *stubRepo) Statistics(_ context.Context) (*contacts.Statistics, error) {
	return &contacts.Statistics{}, nil
}

func (s *stubRepo) DeleteOlderThan(_ context.Context, cutoff time.Time, _ int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	var n int64
	for id, c := range s.rows {
		if c.CreatedAt.Before(cutoff) {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

func TestCleanupRunOnce(t *testing.T) {
	repo := newStubRepo()
	svc := contacts.NewService(repo, nil)
	repo.Upsert(context.Background(), &domain.Contact{
		Method: domain.MethodEmail, Value: "old@acme.de",
		CreatedAt: time.Now().Add(-100 * 24 * time.Hour),
	})
	repo.Upsert(context.Background(), &domain.Contact{
		Method: domain.MethodEmail, Value: "new@acme.de",
		CreatedAt: time.Now(),
	})

	w := NewCleanupWorker(svc, CleanupOptions{Retention: 30 * 24 * time.Hour}, nil)
	n := w.RunOnce(context.Background())
	assert.Equal(t, int64(1), n)
	assert.Len(t, repo.rows, 1)
}

func TestCleanupStartRunsImmediatelyAndStops(t *testing.T) {
	repo := newStubRepo()
	svc := contacts.NewService(repo, nil)
	w := NewCleanupWorker(svc, CleanupOptions{Interval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// The first cycle runs before the first tick.
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.deletes == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestCleanupDefaults(t *testing.T) {
	w := NewCleanupWorker(contacts.NewService(newStubRepo(), nil), CleanupOptions{}, nil)
	assert.Equal(t, DefaultCleanupInterval, w.opts.Interval)
	assert.Equal(t, DefaultRetention, w.opts.Retention)
	assert.Equal(t, defaultCleanupBatchSize, w.opts.BatchSize)
}

type stubEngine struct{}

func (stubEngine) DiscoverBatch(_ context.Context, urls []string, _ domain.DiscoveryOptions) []*domain.ExtractionResult {
	results := make([]*domain.ExtractionResult, len(urls))
	for i, u := range urls {
		if u == "https://down.example" {
			results[i] = &domain.ExtractionResult{SourceURL: u, Error: "fetch failed"}
			continue
		}
		results[i] = &domain.ExtractionResult{
			SourceURL: u,
			Contacts: []*domain.Contact{
				{Method: domain.MethodEmail, Value: "info@acme.de", ConfidenceScore: 0.9, SourceURL: u},
			},
		}
	}
	return results
}

func TestBatchRunnerStoresAndCounts(t *testing.T) {
	repo := newStubRepo()
	svc := contacts.NewService(repo, nil)
	runner := NewBatchRunner(stubEngine{}, svc, domain.DiscoveryOptions{}, nil)

	summary, err := runner.Run(context.Background(), []string{
		"https://acme.de",
		"https://down.example",
		"https://other.de",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.URLs)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.ContactsFound)
	// The same address from two sites merges into one row.
	assert.Equal(t, 1, summary.Stored)
	assert.Equal(t, 1, summary.Merged)
	assert.Len(t, repo.rows, 1)
}

func TestBatchRunnerWithoutStore(t *testing.T) {
	runner := NewBatchRunner(stubEngine{}, nil, domain.DiscoveryOptions{}, nil)
	summary, err := runner.Run(context.Background(), []string{"https://acme.de"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Stored)
}

func TestBatchRunnerEmptyInput(t *testing.T) {
	runner := NewBatchRunner(stubEngine{}, nil, domain.DiscoveryOptions{}, nil)
	summary, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, summary.URLs)
}
