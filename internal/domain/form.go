package domain

import (
	"strconv"
	"time"
)

// ContactForm is an HTML form judged to be a contact channel. The action URL
// doubles as the contact value when the form is converted to a Contact.
type ContactForm struct {
	ID              string    `json:"id,omitempty" db:"id"`
	ContactID       string    `json:"contact_id,omitempty" db:"contact_id"`
	ActionURL       string    `json:"action_url" db:"action_url"`
	Method          string    `json:"http_method" db:"http_method"`
	Fields          []string  `json:"fields" db:"fields"`
	RequiredFields  []string  `json:"required_fields" db:"required_fields"`
	CSRFToken       string    `json:"csrf_token,omitempty" db:"csrf_token"`
	Complexity      float64   `json:"complexity" db:"complexity"`
	Friendliness    float64   `json:"friendliness" db:"friendliness"`
	SourceURL       string    `json:"source_url"`
	ConfidenceScore float64   `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at,omitempty" db:"created_at"`
}

// ConfidenceLevel derives the coarse bucket from the numeric score.
func (f *ContactForm) ConfidenceLevel() ConfidenceLevel {
	return LevelFromScore(f.ConfidenceScore)
}

// ToContact converts the form into a Contact of method=form whose value is
// the resolved action URL.
func (f *ContactForm) ToContact() *Contact {
	meta := map[string]string{
		"http_method": f.Method,
		"field_count": strconv.Itoa(len(f.Fields)),
		"has_csrf":    strconv.FormatBool(f.CSRFToken != ""),
	}
	return &Contact{
		Method:             MethodForm,
		Value:              f.ActionURL,
		ConfidenceScore:    f.ConfidenceScore,
		SourceURL:          f.SourceURL,
		ExtractionMethod:   ExtractionFormDetection,
		VerificationStatus: StatusUnverified,
		Metadata:           meta,
		ObservedAt:         time.Now().UTC(),
	}
}
