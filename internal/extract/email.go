package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/normalize"
)

// Provisional confidence assigned at extraction time. The scorer recomputes
// the final score; these seed the dedup ordering and the method tagging.
const (
	confMailto     = 0.90
	confStandard   = 0.80
	confObfuscated = 0.65
)

var emailCandidatePattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// EmailExtractor finds addresses in mailto links, plain text, and text that
// only becomes an address after normalization.
type EmailExtractor struct{}

// NewEmailExtractor returns the email extractor.
func NewEmailExtractor() *EmailExtractor { return &EmailExtractor{} }

// Kind implements Extractor.
func (e *EmailExtractor) Kind() domain.ExtractorKind { return domain.ExtractorEmail }

// Extract implements Extractor. Pass order: mailto links first, then the
// visible text, then the normalized text for obfuscated and entity-escaped
// forms. Duplicates collapse onto the highest-confidence observation.
func (e *EmailExtractor) Extract(_ context.Context, page *Page, dctx *domain.DiscoveryContext) []*domain.Contact {
	out := e.extractMailto(page, dctx)
	text := e.FromText(page.Text, page.URL, dctx, page.HTML)

	// The HTML parser decodes entities before the DOM text reaches us, so an
	// address hidden behind &#64; looks like a plain hit here. When the raw
	// markup never contained the literal address, retag it.
	if page.HTML != "" && normalize.HasEntityEscapes(page.HTML) {
		rawLower := strings.ToLower(page.HTML)
		for _, c := range text {
			if c.ExtractionMethod == domain.ExtractionStandardPattern && !strings.Contains(rawLower, c.Value) {
				c.ExtractionMethod = domain.ExtractionUnicode
				c.ConfidenceScore = confObfuscated
			}
		}
	}

	return dedupeContacts(append(out, text...))
}

func (e *EmailExtractor) extractMailto(page *Page, dctx *domain.DiscoveryContext) []*domain.Contact {
	if page.Doc == nil {
		return nil
	}
	var out []*domain.Contact
	page.Doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexAny(addr, "?&"); i >= 0 {
			addr = addr[:i]
		}
		// mailto allows comma-separated recipient lists
		for _, part := range strings.Split(addr, ",") {
			email := domain.CanonicalizeEmail(part)
			if !acceptEmail(email) {
				continue
			}
			var meta map[string]string
			if text := normalize.CollapseWhitespace(s.Text()); text != "" {
				meta = map[string]string{"link_text": text}
			}
			out = append(out, newEmailContact(email, page.URL, dctx, domain.ExtractionMailtoLink, confMailto, meta))
		}
	})
	return out
}

// FromText scans text for addresses. rawHTML may be empty; when present it
// decides whether normalization-only matches are tagged as word-obfuscated
// or entity-escaped. The OCR and PDF extractors reuse this with their own
// retagging.
func (e *EmailExtractor) FromText(text, sourceURL string, dctx *domain.DiscoveryContext, rawHTML string) []*domain.Contact {
	var out []*domain.Contact

	plain := make(map[string]bool)
	for _, m := range findEmailCandidates(text) {
		email := domain.CanonicalizeEmail(m)
		if !acceptEmail(email) {
			continue
		}
		plain[email] = true
		out = append(out, newEmailContact(email, sourceURL, dctx, domain.ExtractionStandardPattern, confStandard, nil))
	}

	marker := rawHTML
	if marker == "" {
		marker = text
	}
	normalized := normalize.Text(text)
	for _, m := range findEmailCandidates(normalized) {
		email := domain.CanonicalizeEmail(m)
		if !acceptEmail(email) || plain[email] {
			continue
		}
		method := domain.ExtractionUnicode
		conf := confObfuscated
		if normalize.HasObfuscationMarkers(marker) {
			method = domain.ExtractionObfuscatedText
		} else if !normalize.HasEntityEscapes(marker) {
			// The address materialized purely from whitespace collapsing;
			// treat it like a plain pattern hit.
			method = domain.ExtractionStandardPattern
			conf = confStandard
		}
		out = append(out, newEmailContact(email, sourceURL, dctx, method, conf, nil))
	}

	return dedupeContacts(out)
}

// findEmailCandidates returns address-shaped substrings with dangling dots
// trimmed off the edges.
func findEmailCandidates(text string) []string {
	matches := emailCandidatePattern.FindAllString(text, -1)
	out := matches[:0]
	for _, m := range matches {
		m = strings.Trim(m, ".")
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func newEmailContact(email, sourceURL string, dctx *domain.DiscoveryContext, method domain.ExtractionMethod, conf float64, meta map[string]string) *domain.Contact {
	c := &domain.Contact{
		Method:             domain.MethodEmail,
		Value:              email,
		ConfidenceScore:    conf,
		SourceURL:          sourceURL,
		ExtractionMethod:   method,
		VerificationStatus: domain.StatusUnverified,
		Metadata:           meta,
		ObservedAt:         time.Now().UTC(),
	}
	if dctx != nil {
		c.Language = dctx.Language
		c.CulturalContext = dctx.CulturalContext
	}
	return c
}

// acceptEmail applies the extractor-level rejections: strict syntax plus the
// domain tables. Suspicious TLDs pass here and lose points in the scorer.
func acceptEmail(email string) bool {
	if !domain.ValidEmailSyntax(email) {
		return false
	}
	return !domain.IsRejectedEmailDomain(domain.EmailDomain(email))
}
