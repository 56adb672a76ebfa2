package validate

import (
	"context"
	"fmt"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// ValidateBatch runs contacts sequentially through the validator (the
// global min-interval limiter makes parallelism pointless) and aggregates a
// summary. One record per contact, in input order; cancellation leaves the
// remaining contacts unvalidated with a cancelled record.
func (v *Validator) ValidateBatch(ctx context.Context, contacts []*domain.Contact, level domain.ValidationLevel) ([]*domain.ValidationRecord, *domain.ValidationSummary) {
	records := make([]*domain.ValidationRecord, 0, len(contacts))
	summary := &domain.ValidationSummary{
		Total:    len(contacts),
		ByMethod: make(map[string]int),
	}

	var confidenceSum float64
	for _, c := range contacts {
		rec := v.Validate(ctx, c, level)
		records = append(records, rec)

		summary.ByMethod[string(c.Method)]++
		confidenceSum += rec.ConfidenceScore
		if rec.IsValid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
	}

	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Valid) / float64(summary.Total)
		summary.AverageConfidence = confidenceSum / float64(summary.Total)
	}
	summary.Recommendations = batchRecommendations(summary, level)
	return records, summary
}

// StatusFromRecord maps a validation outcome onto the contact's
// verification status. Verified demands both a positive result and strong
// evidence; weak positives stay unverified rather than overpromising.
func StatusFromRecord(rec *domain.ValidationRecord) domain.VerificationStatus {
	switch {
	case rec.IsValid && rec.ConfidenceScore >= 0.7:
		return domain.StatusVerified
	case rec.IsValid:
		return domain.StatusUnverified
	case len(rec.Warnings) > 0 && rec.ConfidenceScore >= 0.4:
		return domain.StatusSuspicious
	default:
		return domain.StatusInvalid
	}
}

func batchRecommendations(s *domain.ValidationSummary, level domain.ValidationLevel) []string {
	var recs []string
	if s.Total == 0 {
		return nil
	}
	if s.SuccessRate < 0.5 {
		recs = append(recs, fmt.Sprintf("only %d of %d contacts validated; review the source pages", s.Valid, s.Total))
	}
	if level == domain.LevelBasic {
		recs = append(recs, "syntax-only pass; run standard validation for DNS evidence")
	}
	if s.AverageConfidence < 0.6 {
		recs = append(recs, "low average validation confidence; prefer contacts with mailto or form evidence")
	}
	return recs
}
