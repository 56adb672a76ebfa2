// Package score computes the numeric confidence of a contact from seven
// weighted factors. The scorer is rule- and table-driven; the tables live in
// internal/domain so the extractors and the validator judge domains the same
// way.
package score

import (
	"net/url"
	"strings"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// Factor weights. They sum to 1.0; the final score is the dot product.
const (
	weightFormat       = 0.25
	weightReputation   = 0.20
	weightRelevance    = 0.20
	weightMethod       = 0.15
	weightCulturalFit  = 0.10
	weightVerification = 0.05
	weightHistory      = 0.05
)

// extractionMethodScores rate how trustworthy each extraction path is.
var extractionMethodScores = map[domain.ExtractionMethod]float64{
	domain.ExtractionMailtoLink:      0.95,
	domain.ExtractionStandardPattern: 0.80,
	domain.ExtractionObfuscatedText:  0.70,
	domain.ExtractionUnicode:         0.70,
	domain.ExtractionOCR:             0.60,
	domain.ExtractionPDF:             0.70,
	domain.ExtractionPDFMetadata:     0.70,
	domain.ExtractionSocialMedia:     0.75,
	domain.ExtractionFormDetection:   0.65,
}

// verificationScores rate the contact's current verification state.
var verificationScores = map[domain.VerificationStatus]float64{
	domain.StatusVerified:   1.0,
	domain.StatusUnverified: 0.6,
	domain.StatusSuspicious: 0.3,
	domain.StatusFlagged:    0.2,
	domain.StatusInvalid:    0.1,
}

// providerReputation rates known mail providers. German consumer providers
// rank above generic international ones; real-estate domains are handled
// separately.
var providerReputation = map[string]float64{
	"t-online.de": 0.90,
	"gmx.de":      0.85,
	"gmx.net":     0.85,
	"web.de":      0.85,
	"freenet.de":  0.80,
	"posteo.de":   0.80,
	"mailbox.org": 0.80,
	"gmail.com":   0.70,
	"outlook.com": 0.65,
	"hotmail.com": 0.65,
	"yahoo.com":   0.60,
	"aol.com":     0.60,
}

// suspiciousLocalParts mark throwaway-looking email local parts.
var suspiciousLocalParts = map[string]bool{
	"test":         true,
	"example":      true,
	"demo":         true,
	"asdf":         true,
	"spam":         true,
	"noreply":      true,
	"no-reply":     true,
	"donotreply":   true,
	"do-not-reply": true,
}

// Factor is one scored dimension with its contribution to the total.
type Factor struct {
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// Explanation is the reviewer-facing breakdown of a score.
type Explanation struct {
	Score           float64                `json:"score"`
	Level           domain.ConfidenceLevel `json:"level"`
	Factors         []Factor               `json:"factors"`
	Recommendations []string               `json:"recommendations,omitempty"`
}

// Scorer is stateless; one instance serves all runs.
type Scorer struct{}

// New returns the scorer.
func New() *Scorer { return &Scorer{} }

// Score computes the contact's confidence in [0,1] under the run context.
func (s *Scorer) Score(c *domain.Contact, dctx *domain.DiscoveryContext) float64 {
	return s.Explain(c, dctx).Score
}

// ScoreAll scores contacts in place. A contact's confidence only ever goes
// up: the extractor seed encodes per-method evidence (a mailto link is
// near-certain regardless of the surrounding page), so the factor score
// raises it but never undercuts it. Results are independent per item.
func (s *Scorer) ScoreAll(contacts []*domain.Contact, dctx *domain.DiscoveryContext) {
	for _, c := range contacts {
		if v := s.Score(c, dctx); v > c.ConfidenceScore {
			c.ConfidenceScore = v
		}
	}
}

// Explain computes the score together with each factor's contribution and a
// short list of improvements that would raise it.
func (s *Scorer) Explain(c *domain.Contact, dctx *domain.DiscoveryContext) *Explanation {
	factors := []Factor{
		{Name: "format_validity", Weight: weightFormat, Value: s.formatValidity(c)},
		{Name: "domain_reputation", Weight: weightReputation, Value: s.domainReputation(c)},
		{Name: "contextual_relevance", Weight: weightRelevance, Value: s.contextualRelevance(c)},
		{Name: "extraction_method", Weight: weightMethod, Value: s.extractionMethod(c)},
		{Name: "cultural_fit", Weight: weightCulturalFit, Value: s.culturalFit(c, dctx)},
		{Name: "verification_status", Weight: weightVerification, Value: s.verificationStatus(c)},
		// Reserved until an outcome-history table exists.
		{Name: "historical_performance", Weight: weightHistory, Value: 0.5},
	}

	total := 0.0
	for i := range factors {
		factors[i].Contribution = factors[i].Weight * factors[i].Value
		total += factors[i].Contribution
	}
	total = clamp01(total)

	return &Explanation{
		Score:           total,
		Level:           domain.LevelFromScore(total),
		Factors:         factors,
		Recommendations: s.recommend(c, factors),
	}
}

func (s *Scorer) formatValidity(c *domain.Contact) float64 {
	switch c.Method {
	case domain.MethodEmail, domain.MethodMailto:
		if !domain.ValidEmailSyntax(c.Value) {
			return 0.2
		}
		local := c.Value[:strings.LastIndex(c.Value, "@")]
		if suspiciousLocalParts[strings.ToLower(local)] {
			return 0.4
		}
		return 0.9
	case domain.MethodPhone:
		if !domain.ValidPhoneLength(c.Value) {
			return 0.3
		}
		if domain.IsGermanPhone(c.Value) && !domain.IsValidGermanNational(c.Value) &&
			!strings.HasPrefix(c.Value, "+") {
			return 0.4
		}
		return 0.9
	case domain.MethodForm, domain.MethodWebsite, domain.MethodSocialMedia:
		u, err := url.Parse(c.Value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return 0.3
		}
		return 0.85
	default:
		return 0.5
	}
}

func (s *Scorer) domainReputation(c *domain.Contact) float64 {
	dom := c.Domain()
	if dom == "" {
		// Phones and addresses carry no domain signal either way.
		return 0.5
	}
	if domain.ThrowawayEmailDomains[dom] || domain.PlaceholderEmailDomains[dom] {
		return 0.05
	}
	if domain.HasSuspiciousTLD(dom) {
		return 0.2
	}
	if base, ok := providerReputation[dom]; ok {
		return base
	}
	for _, kw := range domain.RealEstateKeywords {
		if strings.Contains(dom, kw) {
			return 0.85
		}
	}
	// Subdomain of a known provider scores 0.9x the base.
	for provider, base := range providerReputation {
		if strings.HasSuffix(dom, "."+provider) {
			return 0.9 * base
		}
	}
	return 0.5
}

func (s *Scorer) contextualRelevance(c *domain.Contact) float64 {
	// Neutral base: an unremarkable source page is no evidence against.
	v := 0.4
	lowerSource := strings.ToLower(c.SourceURL)
	for _, kw := range domain.RealEstateKeywords {
		if strings.Contains(lowerSource, kw) {
			v += 0.2
		}
	}
	for _, pattern := range domain.ContactURLPatterns {
		if strings.Contains(lowerSource, pattern) {
			v += 0.15
		}
	}
	for _, hop := range c.DiscoveryPath {
		if hop == c.SourceURL {
			continue
		}
		if containsContactPattern(hop) {
			v += 0.1
			break
		}
	}
	return clamp01(v)
}

func (s *Scorer) extractionMethod(c *domain.Contact) float64 {
	if v, ok := extractionMethodScores[c.ExtractionMethod]; ok {
		return v
	}
	return 0.5
}

func (s *Scorer) culturalFit(c *domain.Contact, dctx *domain.DiscoveryContext) float64 {
	german := dctx != nil && dctx.IsGermanContext()
	if !german {
		return 0.5
	}
	switch c.Method {
	case domain.MethodEmail, domain.MethodMailto:
		if domain.TLD(c.Domain()) == "de" {
			return 0.9
		}
		return 0.5
	case domain.MethodPhone:
		if code, _, ok := domain.GermanAreaCode(c.Value); ok && code == "089" {
			return 1.0
		}
		if domain.IsGermanPhone(c.Value) {
			return 0.85
		}
		return 0.4
	case domain.MethodSocialMedia:
		if c.Metadata["platform"] == string(domain.PlatformXING) {
			return 0.95
		}
		return 0.5
	default:
		return 0.5
	}
}

func (s *Scorer) verificationStatus(c *domain.Contact) float64 {
	if v, ok := verificationScores[c.VerificationStatus]; ok {
		return v
	}
	return 0.6
}

// recommend lists the cheapest actions that would raise the score.
func (s *Scorer) recommend(c *domain.Contact, factors []Factor) []string {
	var recs []string
	for _, f := range factors {
		switch {
		case f.Name == "verification_status" && c.VerificationStatus == domain.StatusUnverified:
			recs = append(recs, "run validation to confirm the contact is reachable")
		case f.Name == "domain_reputation" && f.Value < 0.3:
			recs = append(recs, "domain looks disposable; corroborate via a second contact method")
		case f.Name == "extraction_method" && f.Value <= 0.6:
			recs = append(recs, "low-trust extraction path (OCR); look for the same contact in page text")
		case f.Name == "contextual_relevance" && f.Value <= 0.4:
			recs = append(recs, "source page shows no contact-page signals; crawl the site's contact page")
		case f.Name == "format_validity" && f.Value < 0.5:
			recs = append(recs, "value fails strict format checks; treat as suspicious")
		}
	}
	return recs
}

func containsContactPattern(u string) bool {
	lower := strings.ToLower(u)
	for _, pattern := range domain.ContactURLPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
