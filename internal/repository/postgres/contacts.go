// Package postgres implements the contacts repository against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/service/contacts"
)

// ContactRepo implements contacts.Repository against PostgreSQL.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo creates a Postgres-backed contact repository.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

const contactColumns = `
	id, listing_id, method, value, confidence_score, source,
	COALESCE(discovery_path, '[]'), COALESCE(extraction_method, ''),
	status, COALESCE(language, ''), COALESCE(cultural_context, ''),
	COALESCE(metadata, '{}'), observed_at, validated_at, created_at, updated_at`

func (r *ContactRepo) Get(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE id = $1
	`, id)

	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, contacts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepo) List(ctx context.Context, f contacts.ListFilter) ([]domain.Contact, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	add := func(clause string, val interface{}) {
		where += fmt.Sprintf(clause, idx)
		args = append(args, val)
		idx++
	}

	if f.Method != "" {
		add(" AND method = $%d", f.Method)
	}
	if f.Status != "" {
		add(" AND status = $%d", f.Status)
	}
	if f.ListingID != "" {
		add(" AND listing_id = $%d", f.ListingID)
	}
	if f.MinConfidence > 0 {
		add(" AND confidence_score >= $%d", f.MinConfidence)
	}
	if f.Search != "" {
		add(" AND value ILIKE $%d", "%"+f.Search+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	q := "SELECT " + contactColumns + " FROM contacts" + where +
		fmt.Sprintf(" ORDER BY confidence_score DESC, created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// Upsert merges the observation into the row sharing its (listing, method,
// value). The stored score only rises; the source URL is only replaced when
// the new observation carries stronger extraction evidence.
func (r *ContactRepo) Upsert(ctx context.Context, c *domain.Contact) (string, bool, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	pathJSON, err := json.Marshal(c.DiscoveryPath)
	if err != nil {
		return "", false, fmt.Errorf("encode discovery path: %w", err)
	}
	metaJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return "", false, fmt.Errorf("encode metadata: %w", err)
	}
	status := c.VerificationStatus
	if status == "" {
		status = domain.StatusUnverified
	}
	observed := c.ObservedAt
	if observed.IsZero() {
		observed = time.Now().UTC()
	}

	var (
		id       string
		inserted bool
	)
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO contacts
			(id, listing_id, method, value, confidence_score, source,
			 discovery_path, extraction_method, status, language,
			 cultural_context, metadata, hash_signature, observed_at,
			 validated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		ON CONFLICT (COALESCE(listing_id::text, ''), method, value) DO UPDATE SET
			confidence_score = GREATEST(contacts.confidence_score, EXCLUDED.confidence_score),
			source = CASE
				WHEN EXCLUDED.extraction_method IN ('mailto_link', 'standard_pattern')
				THEN EXCLUDED.source ELSE contacts.source END,
			extraction_method = CASE
				WHEN EXCLUDED.extraction_method IN ('mailto_link', 'standard_pattern')
				THEN EXCLUDED.extraction_method ELSE contacts.extraction_method END,
			metadata = COALESCE(contacts.metadata, '{}'::jsonb) || COALESCE(EXCLUDED.metadata, '{}'::jsonb),
			status = CASE
				WHEN EXCLUDED.status = 'verified' THEN EXCLUDED.status
				ELSE contacts.status END,
			validated_at = COALESCE(EXCLUDED.validated_at, contacts.validated_at),
			updated_at = NOW()
		RETURNING id, (xmax = 0)
	`, c.ID, c.ListingID, c.Method, c.Value, c.ConfidenceScore, c.SourceURL,
		pathJSON, c.ExtractionMethod, status, c.Language,
		c.CulturalContext, metaJSON, c.HashSignature(), observed, c.ValidatedAt,
	).Scan(&id, &inserted)
	if err != nil {
		return "", false, fmt.Errorf("upsert contact: %w", err)
	}
	return id, inserted, nil
}

func (r *ContactRepo) UpdateVerification(ctx context.Context, id string, status domain.VerificationStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET status = $1, validated_at = $2, updated_at = NOW()
		WHERE id = $3
	`, status, at, id)
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return contacts.ErrNotFound
	}
	return nil
}

func (r *ContactRepo) AddValidation(ctx context.Context, rec *domain.ValidationRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	errsJSON, err := json.Marshal(rec.Errors)
	if err != nil {
		return "", fmt.Errorf("encode errors: %w", err)
	}
	warnJSON, err := json.Marshal(rec.Warnings)
	if err != nil {
		return "", fmt.Errorf("encode warnings: %w", err)
	}
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contact_validations
			(id, contact_id, validation_method, validation_result,
			 confidence_score, errors, warnings, metadata, validated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.ContactID, rec.Method, rec.IsValid,
		rec.ConfidenceScore, errsJSON, warnJSON, metaJSON, rec.ValidatedAt)
	if err != nil {
		return "", fmt.Errorf("add validation: %w", err)
	}
	return rec.ID, nil
}

func (r *ContactRepo) Validations(ctx context.Context, contactID string) ([]domain.ValidationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, contact_id, validation_method, validation_result,
		       confidence_score, COALESCE(errors, '[]'), COALESCE(warnings, '[]'),
		       COALESCE(metadata, '{}'), validated_at
		FROM contact_validations
		WHERE contact_id = $1
		ORDER BY validated_at DESC
	`, contactID)
	if err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	defer rows.Close()

	var out []domain.ValidationRecord
	for rows.Next() {
		rec := domain.ValidationRecord{}
		var errs, warns, meta []byte
		if err := rows.Scan(&rec.ID, &rec.ContactID, &rec.Method, &rec.IsValid,
			&rec.ConfidenceScore, &errs, &warns, &meta, &rec.ValidatedAt); err != nil {
			return nil, fmt.Errorf("scan validation: %w", err)
		}
		if err := json.Unmarshal(errs, &rec.Errors); err != nil {
			return nil, fmt.Errorf("decode errors: %w", err)
		}
		if err := json.Unmarshal(warns, &rec.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
		if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *ContactRepo) Statistics(ctx context.Context) (*contacts.Statistics, error) {
	stats := &contacts.Statistics{
		ByMethod: make(map[string]int),
		ByStatus: make(map[string]int),
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(confidence_score), 0),
		       COUNT(*) FILTER (WHERE confidence_score >= 0.8),
		       COUNT(*) FILTER (WHERE validated_at > NOW() - INTERVAL '24 hours')
		FROM contacts
	`).Scan(&stats.Total, &stats.AverageConfidence, &stats.HighConfidence, &stats.ValidatedLast24h)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}

	if err := r.groupCount(ctx, "method", stats.ByMethod); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "status", stats.ByStatus); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *ContactRepo) groupCount(ctx context.Context, column string, dest map[string]int) error {
	// column is one of two fixed identifiers, never user input.
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM contacts GROUP BY %s", column, column))
	if err != nil {
		return fmt.Errorf("group by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		dest[key] = n
	}
	return rows.Err()
}

// DeleteOlderThan removes expired contacts in bounded batches so the cleanup
// worker never holds long row locks. Validation records go with their
// contact via ON DELETE CASCADE.
func (r *ContactRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	var total int64
	for {
		res, err := r.db.ExecContext(ctx, `
			DELETE FROM contacts
			WHERE id IN (
				SELECT id FROM contacts
				WHERE created_at < $1
				LIMIT $2
			)
		`, cutoff, batchSize)
		if err != nil {
			return total, fmt.Errorf("delete batch: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
		if n < int64(batchSize) {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row scanner) (*domain.Contact, error) {
	c := &domain.Contact{}
	var path, meta []byte
	if err := row.Scan(
		&c.ID, &c.ListingID, &c.Method, &c.Value, &c.ConfidenceScore, &c.SourceURL,
		&path, &c.ExtractionMethod, &c.VerificationStatus, &c.Language,
		&c.CulturalContext, &meta, &c.ObservedAt, &c.ValidatedAt,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(path, &c.DiscoveryPath); err != nil {
		return nil, fmt.Errorf("decode discovery path: %w", err)
	}
	if err := json.Unmarshal(meta, &c.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return c, nil
}
