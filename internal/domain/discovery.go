package domain

import (
	"strings"
	"time"
)

// ExtractorKind names one of the pluggable extractors.
type ExtractorKind string

const (
	ExtractorEmail  ExtractorKind = "email"
	ExtractorPhone  ExtractorKind = "phone"
	ExtractorForm   ExtractorKind = "form"
	ExtractorSocial ExtractorKind = "social_media"
	ExtractorOCR    ExtractorKind = "ocr"
	ExtractorPDF    ExtractorKind = "pdf"
)

// DefaultExtractors is the extractor set used when options name none.
// OCR and PDF stay opt-in: they cost downloads and external tooling.
var DefaultExtractors = []ExtractorKind{ExtractorEmail, ExtractorPhone, ExtractorForm, ExtractorSocial}

// DiscoveryOptions are the per-request knobs of a discovery run. Zero values
// mean "use the engine defaults"; the boolean knobs are pointers so a request
// can explicitly set false against an enabling default, with nil meaning
// "inherit".
type DiscoveryOptions struct {
	EnableCrawling      *bool           `json:"enable_crawling,omitempty" yaml:"enable_crawling"`
	EnableValidation    *bool           `json:"enable_validation,omitempty" yaml:"enable_validation"`
	Methods             []ExtractorKind `json:"methods,omitempty" yaml:"methods"`
	ConfidenceThreshold ConfidenceLevel `json:"confidence_threshold,omitempty" yaml:"confidence_threshold"`
	Language            string          `json:"language,omitempty" yaml:"language"`
	CulturalContext     string          `json:"cultural_context,omitempty" yaml:"cultural_context"`
	MaxDepth            int             `json:"max_depth,omitempty" yaml:"max_depth"`
	Timeout             time.Duration   `json:"timeout,omitempty" yaml:"timeout"`
	RateLimit           time.Duration   `json:"rate_limit,omitempty" yaml:"rate_limit"`
	RespectRobots       *bool           `json:"respect_robots,omitempty" yaml:"respect_robots"`
	UserAgent           string          `json:"user_agent,omitempty" yaml:"user_agent"`
}

// Bool returns a pointer to v, for setting the tri-state option fields from
// literals and config values.
func Bool(v bool) *bool { return &v }

// DiscoveryContext is the immutable per-run view the pipeline components
// share: where the run started, what it may touch, and how it behaves.
type DiscoveryContext struct {
	SeedURL             string          `json:"seed_url"`
	RegisteredDomain    string          `json:"registered_domain"`
	AllowedDomains      []string        `json:"allowed_domains"`
	MaxDepth            int             `json:"max_depth"`
	CurrentDepth        int             `json:"current_depth"`
	RespectRobots       bool            `json:"respect_robots"`
	Timeout             time.Duration   `json:"timeout"`
	UserAgent           string          `json:"user_agent"`
	Language            string          `json:"language"`
	CulturalContext     string          `json:"cultural_context"`
	EnabledExtractors   []ExtractorKind `json:"enabled_extractors"`
	ConfidenceThreshold ConfidenceLevel `json:"confidence_threshold"`
}

// ExtractorEnabled reports whether the run includes the given extractor.
func (d *DiscoveryContext) ExtractorEnabled(kind ExtractorKind) bool {
	for _, k := range d.EnabledExtractors {
		if k == kind {
			return true
		}
	}
	return false
}

// DomainAllowed reports whether a host falls inside the run's allowlist.
// Subdomains of an allowed domain are allowed.
func (d *DiscoveryContext) DomainAllowed(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, allowed := range d.AllowedDomains {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// IsGermanContext reports whether German cultural heuristics apply.
func (d *DiscoveryContext) IsGermanContext() bool {
	return strings.EqualFold(d.CulturalContext, "german") || strings.EqualFold(d.Language, "de")
}

// ExtractionResult is the outcome of one discovery run for one URL.
// A failed run still produces a result with Error set; batch operations
// never drop entries.
type ExtractionResult struct {
	Contacts       []*Contact            `json:"contacts"`
	Forms          []*ContactForm        `json:"forms"`
	SocialProfiles []*SocialMediaProfile `json:"social_profiles"`
	SourceURL      string                `json:"source_url"`
	Elapsed        time.Duration         `json:"elapsed"`
	Error          string                `json:"error,omitempty"`
	Metadata       map[string]string     `json:"metadata,omitempty"`
}

// HighConfidenceCount counts contacts in the high bucket.
func (r *ExtractionResult) HighConfidenceCount() int {
	n := 0
	for _, c := range r.Contacts {
		if c.ConfidenceLevel() == ConfidenceHigh {
			n++
		}
	}
	return n
}
