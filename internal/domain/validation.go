package domain

import "time"

// ValidationLevel selects how deep a validation pass goes.
type ValidationLevel string

const (
	LevelBasic         ValidationLevel = "basic"
	LevelStandard      ValidationLevel = "standard"
	LevelComprehensive ValidationLevel = "comprehensive"
)

// ValidationMethod names the technique that produced a validation record.
type ValidationMethod string

const (
	ValidationSyntax        ValidationMethod = "syntax"
	ValidationDNS           ValidationMethod = "dns"
	ValidationSMTP          ValidationMethod = "smtp"
	ValidationReachability  ValidationMethod = "reachability"
	ValidationComprehensive ValidationMethod = "comprehensive"
)

// ValidationRecord is one append-only validation observation for a contact.
// Validators never fail with an error for bad input; they return a record
// with IsValid=false and the reasons in Errors.
type ValidationRecord struct {
	ID              string            `json:"id,omitempty" db:"id"`
	ContactID       string            `json:"contact_id,omitempty" db:"contact_id"`
	Method          ValidationMethod  `json:"validation_method" db:"validation_method"`
	IsValid         bool              `json:"validation_result" db:"validation_result"`
	ConfidenceScore float64           `json:"confidence_score" db:"confidence_score"`
	Errors          []string          `json:"errors,omitempty"`
	Warnings        []string          `json:"warnings,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty" db:"metadata"`
	ValidatedAt     time.Time         `json:"validated_at" db:"validated_at"`
}

// ValidationSummary aggregates a batch validation pass.
type ValidationSummary struct {
	Total             int            `json:"total"`
	Valid             int            `json:"valid"`
	Invalid           int            `json:"invalid"`
	SuccessRate       float64        `json:"success_rate"`
	AverageConfidence float64        `json:"average_confidence"`
	ByMethod          map[string]int `json:"by_method"`
	Recommendations   []string       `json:"recommendations,omitempty"`
}
