package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// EnsureListing inserts the listing when its URL is new and returns the row
// ID either way. A later scrape with a title fills in one left empty by an
// earlier scrape; it never blanks an existing title.
func (r *ContactRepo) EnsureListing(ctx context.Context, l *domain.Listing) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}

	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO listings (id, url, title, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (url) DO UPDATE SET
			title = COALESCE(NULLIF(EXCLUDED.title, ''), listings.title),
			updated_at = NOW()
		RETURNING id
	`, l.ID, l.URL, l.Title).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("ensure listing: %w", err)
	}
	l.ID = id
	return id, nil
}
