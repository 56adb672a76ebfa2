package contacts

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// Service implements contact persistence logic. It coordinates between the
// repository layer and the validation lifecycle. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a contact service backed by the given repository.
func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

// SaveOutcome summarizes one StoreResult call.
type SaveOutcome struct {
	Stored  int `json:"stored"`
	Merged  int `json:"merged"`
	Skipped int `json:"skipped"`
}

// StoreResult persists every contact of an extraction result. When a listing
// is given it is ensured first and the contacts are linked to it. Contacts
// that fail the sanity check are skipped, not fatal; a single malformed
// extraction must not lose the rest of the batch.
func (s *Service) StoreResult(ctx context.Context, listing *domain.Listing, result *domain.ExtractionResult) (*SaveOutcome, error) {
	var listingID *string
	if listing != nil {
		id, err := s.repo.EnsureListing(ctx, listing)
		if err != nil {
			return nil, fmt.Errorf("ensuring listing: %w", err)
		}
		listingID = &id
	}

	outcome := &SaveOutcome{}
	for _, c := range result.Contacts {
		if err := checkContact(c); err != nil {
			s.log.Warn("skipping contact",
				zap.String("method", string(c.Method)),
				zap.String("source", c.SourceURL),
				zap.Error(err))
			outcome.Skipped++
			continue
		}
		if listingID != nil {
			c.ListingID = listingID
		}

		id, created, err := s.repo.Upsert(ctx, c)
		if err != nil {
			return outcome, fmt.Errorf("storing %s contact: %w", c.Method, err)
		}
		c.ID = id
		if created {
			outcome.Stored++
		} else {
			outcome.Merged++
		}
	}

	s.log.Info("extraction result stored",
		zap.String("source", result.SourceURL),
		zap.Int("stored", outcome.Stored),
		zap.Int("merged", outcome.Merged),
		zap.Int("skipped", outcome.Skipped))
	return outcome, nil
}

// Get returns a single contact.
func (s *Service) Get(ctx context.Context, id string) (*domain.Contact, error) {
	return s.repo.Get(ctx, id)
}

// List returns contacts matching the filter plus the unpaginated total.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Contact, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.repo.List(ctx, f)
}

// RecordValidation appends a validation record and moves the contact's
// verification status accordingly. The record must carry the contact ID.
func (s *Service) RecordValidation(ctx context.Context, rec *domain.ValidationRecord, status domain.VerificationStatus) error {
	if rec.ContactID == "" {
		return fmt.Errorf("%w: validation record without contact id", ErrNotFound)
	}
	if rec.ValidatedAt.IsZero() {
		rec.ValidatedAt = time.Now().UTC()
	}

	id, err := s.repo.AddValidation(ctx, rec)
	if err != nil {
		return fmt.Errorf("recording validation: %w", err)
	}
	rec.ID = id

	if err := s.repo.UpdateVerification(ctx, rec.ContactID, status, rec.ValidatedAt); err != nil {
		return fmt.Errorf("updating verification status: %w", err)
	}
	return nil
}

// Validations returns a contact's validation history, newest first.
func (s *Service) Validations(ctx context.Context, contactID string) ([]domain.ValidationRecord, error) {
	return s.repo.Validations(ctx, contactID)
}

// Statistics aggregates store-wide counters.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	return s.repo.Statistics(ctx)
}

// Cleanup removes contacts older than the retention window. batchSize bounds
// each delete statement so cleanup never holds long row locks.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration, batchSize int) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	cutoff := time.Now().UTC().Add(-retention)
	n, err := s.repo.DeleteOlderThan(ctx, cutoff, batchSize)
	if err != nil {
		return n, fmt.Errorf("retention cleanup: %w", err)
	}
	if n > 0 {
		s.log.Info("retention cleanup done",
			zap.Int64("contacts_removed", n),
			zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// checkContact is the storage sanity check. Scoring and validation judge
// quality; this only rejects rows that can never be useful.
func checkContact(c *domain.Contact) error {
	if c.Value == "" {
		return ErrEmptyValue
	}
	switch c.Method {
	case domain.MethodEmail, domain.MethodMailto, domain.MethodPhone,
		domain.MethodForm, domain.MethodWebsite, domain.MethodSocialMedia,
		domain.MethodAddress:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, c.Method)
	}
}
