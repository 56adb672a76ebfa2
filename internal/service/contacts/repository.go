package contacts

import (
	"context"
	"time"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// Repository defines the data access contract for contacts.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single contact. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Contact, error)

	// List returns contacts matching the filter plus the unpaginated total,
	// ordered by confidence_score DESC, created_at DESC.
	List(ctx context.Context, filter ListFilter) ([]domain.Contact, int, error)

	// Upsert inserts the contact or merges it into the existing row with the
	// same (listing, method, value). The stored confidence score only ever
	// rises. Returns the row ID and whether a new row was created.
	Upsert(ctx context.Context, c *domain.Contact) (string, bool, error)

	// UpdateVerification sets the verification status and validated_at of a
	// contact. Returns ErrNotFound for unknown IDs.
	UpdateVerification(ctx context.Context, id string, status domain.VerificationStatus, at time.Time) error

	// AddValidation appends one validation record for a contact.
	AddValidation(ctx context.Context, rec *domain.ValidationRecord) (string, error)

	// Validations returns a contact's validation history, newest first.
	Validations(ctx context.Context, contactID string) ([]domain.ValidationRecord, error)

	// EnsureListing inserts the listing if its URL is new and returns the
	// listing ID either way.
	EnsureListing(ctx context.Context, l *domain.Listing) (string, error)

	// Statistics aggregates store-wide counters for the stats endpoint.
	Statistics(ctx context.Context) (*Statistics, error)

	// DeleteOlderThan removes contacts created before the cutoff along with
	// their validation records. Returns the number of contacts removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

// ListFilter controls pagination and filtering for contact lists.
type ListFilter struct {
	Method        string
	Status        string
	ListingID     string
	Search        string
	MinConfidence float64
	Limit         int
	Offset        int
}

// Statistics is the store-wide aggregate exposed by GET /api/stats.
type Statistics struct {
	Total             int            `json:"total"`
	ByMethod          map[string]int `json:"by_method"`
	ByStatus          map[string]int `json:"by_status"`
	AverageConfidence float64        `json:"average_confidence"`
	HighConfidence    int            `json:"high_confidence"`
	ValidatedLast24h  int            `json:"validated_last_24h"`
}
