package validate

import (
	"strings"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// validatePhone is syntax-only at every level: digit bounds, country-code
// plausibility for international numbers, the German numbering structure
// for national ones. Mobile numbers are tagged in metadata.
func (v *Validator) validatePhone(value string) *domain.ValidationRecord {
	rec := newRecord(domain.ValidationSyntax, false, 0.2)

	canonical := domain.CanonicalizePhone(value)
	if canonical != value {
		rec.Errors = append(rec.Errors, "phone value is not in canonical form")
		return rec
	}
	if !domain.ValidPhoneLength(canonical) {
		rec.Errors = append(rec.Errors, "digit count outside the 8-15 range")
		return rec
	}

	switch {
	case strings.HasPrefix(canonical, "+49") || strings.HasPrefix(canonical, "0") && !strings.HasPrefix(canonical, "00"):
		if !domain.IsValidGermanNational(canonical) {
			rec.Errors = append(rec.Errors, "not a structurally valid German number")
			return rec
		}
		rec.IsValid = true
		rec.ConfidenceScore = confSyntaxStrict
		if domain.IsGermanMobile(canonical) {
			rec.Metadata["is_mobile"] = "true"
		} else if code, city, ok := domain.GermanAreaCode(canonical); ok {
			rec.Metadata["area_code"] = code
			rec.Metadata["city"] = city
		}
	case strings.HasPrefix(canonical, "+"):
		if !domain.PlausibleCountryCode(canonical) {
			rec.Errors = append(rec.Errors, "implausible country code")
			return rec
		}
		rec.IsValid = true
		rec.ConfidenceScore = confSyntaxNormal
		rec.Metadata["international"] = "true"
	default:
		rec.Errors = append(rec.Errors, "neither international nor German national form")
		return rec
	}

	return rec
}
