package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ContactMethod enumerates the ways a discovered party can be reached.
type ContactMethod string

const (
	MethodEmail       ContactMethod = "email"
	MethodPhone       ContactMethod = "phone"
	MethodForm        ContactMethod = "form"
	MethodWebsite     ContactMethod = "website"
	MethodMailto      ContactMethod = "mailto"
	MethodSocialMedia ContactMethod = "social_media"
	MethodAddress     ContactMethod = "address"
)

// ExtractionMethod tags how a contact was found on the page.
type ExtractionMethod string

const (
	ExtractionMailtoLink      ExtractionMethod = "mailto_link"
	ExtractionStandardPattern ExtractionMethod = "standard_pattern"
	ExtractionObfuscatedText  ExtractionMethod = "obfuscated_text"
	ExtractionUnicode         ExtractionMethod = "unicode"
	ExtractionOCR             ExtractionMethod = "ocr"
	ExtractionPDF             ExtractionMethod = "pdf"
	ExtractionPDFMetadata     ExtractionMethod = "pdf_metadata"
	ExtractionSocialMedia     ExtractionMethod = "social_media"
	ExtractionFormDetection   ExtractionMethod = "form_detection"
)

// VerificationStatus enumerates the lifecycle states of a contact's
// verification. A contact is "verified" only when its most recent
// validation record carries a positive result.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusVerified   VerificationStatus = "verified"
	StatusInvalid    VerificationStatus = "invalid"
	StatusSuspicious VerificationStatus = "suspicious"
	StatusFlagged    VerificationStatus = "flagged"
)

// ConfidenceLevel is the coarse bucket derived from the numeric score.
// Only the score is persisted; the level is recomputed on read.
type ConfidenceLevel string

const (
	ConfidenceHigh      ConfidenceLevel = "high"
	ConfidenceMedium    ConfidenceLevel = "medium"
	ConfidenceLow       ConfidenceLevel = "low"
	ConfidenceUncertain ConfidenceLevel = "uncertain"
)

// LevelFromScore maps a numeric confidence score to its coarse bucket.
func LevelFromScore(score float64) ConfidenceLevel {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.6:
		return ConfidenceMedium
	case score >= 0.4:
		return ConfidenceLow
	default:
		return ConfidenceUncertain
	}
}

// MinScoreForLevel returns the lower bound of a confidence bucket. Used to
// translate a level-expressed threshold into a numeric filter.
func MinScoreForLevel(level ConfidenceLevel) float64 {
	switch level {
	case ConfidenceHigh:
		return 0.8
	case ConfidenceMedium:
		return 0.6
	case ConfidenceLow:
		return 0.4
	default:
		return 0.0
	}
}

// Contact is a single observed means of reaching the owner or agency behind
// a listing. Contacts are deduplicated on (method, value) within a run and
// on (listing_id, method, value) in the store.
type Contact struct {
	ID                 string             `json:"id,omitempty" db:"id"`
	ListingID          *string            `json:"listing_id,omitempty" db:"listing_id"`
	Method             ContactMethod      `json:"method" db:"method"`
	Value              string             `json:"value" db:"value"`
	ConfidenceScore    float64            `json:"confidence_score" db:"confidence_score"`
	SourceURL          string             `json:"source_url" db:"source"`
	DiscoveryPath      []string           `json:"discovery_path,omitempty"`
	ExtractionMethod   ExtractionMethod   `json:"extraction_method"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"status"`
	Language           string             `json:"language,omitempty"`
	CulturalContext    string             `json:"cultural_context,omitempty"`
	Metadata           map[string]string  `json:"metadata,omitempty" db:"metadata"`
	ObservedAt         time.Time          `json:"observed_at"`
	ValidatedAt        *time.Time         `json:"validated_at,omitempty" db:"validated_at"`
	CreatedAt          time.Time          `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at,omitempty" db:"updated_at"`
}

// ConfidenceLevel derives the coarse bucket from the numeric score.
func (c *Contact) ConfidenceLevel() ConfidenceLevel {
	return LevelFromScore(c.ConfidenceScore)
}

// Fingerprint is the observation-level dedup key: stable over
// (method, value, source_url), never used as a persistence key.
func (c *Contact) Fingerprint() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", c.Method, c.Value, c.SourceURL)))
	return hex.EncodeToString(sum[:16])
}

// HashSignature is the cross-listing dedup key over
// (method, value, normalized domain). It is persisted with the contact.
func (c *Contact) HashSignature() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", c.Method, c.Value, c.Domain())))
	return hex.EncodeToString(sum[:])
}

// Domain derives the domain behind the contact value: the RHS of an email,
// the host of a URL-shaped value. Phones and addresses have none.
func (c *Contact) Domain() string {
	switch c.Method {
	case MethodEmail, MethodMailto:
		if i := strings.LastIndex(c.Value, "@"); i >= 0 {
			return strings.ToLower(c.Value[i+1:])
		}
		return ""
	case MethodForm, MethodWebsite, MethodSocialMedia:
		u, err := url.Parse(c.Value)
		if err != nil || u.Host == "" {
			return ""
		}
		return strings.ToLower(u.Hostname())
	default:
		return ""
	}
}

// MergeMetadata folds extra keys into the contact's metadata bag.
// New keys win; existing keys not present in extra are preserved.
func (c *Contact) MergeMetadata(extra map[string]string) {
	if len(extra) == 0 {
		return
	}
	if c.Metadata == nil {
		c.Metadata = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		c.Metadata[k] = v
	}
}

// Listing is the real-estate listing a contact was discovered for. The
// listings themselves are produced by an external scraper; this engine only
// needs the linkage row.
type Listing struct {
	ID        string    `json:"id" db:"id"`
	URL       string    `json:"url" db:"url"`
	Title     string    `json:"title,omitempty" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
