package extract

import (
	"context"
	"regexp"
	"time"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/normalize"
)

// phoneFamily is one number family with its own pattern and confidence.
// Families run in order; the first family to claim a canonical value wins.
type phoneFamily struct {
	name    string
	pattern *regexp.Regexp
}

// Patterns allow up to three separator characters between digits so that
// "089 / 12 34 56 78" still reads as one number without swallowing a second
// number further along the line.
var phoneFamilies = []phoneFamily{
	{"german_mobile", regexp.MustCompile(`(?:\+49[\s\-/.()]{0,3}|0049[\s\-/.()]{0,3}|0)1[5-7]\d(?:[\s\-/.()]{0,3}\d){6,9}`)},
	{"munich_local", regexp.MustCompile(`\(?089\)?(?:[\s\-/.()]{0,3}\d){6,9}`)},
	{"german_landline", regexp.MustCompile(`0[2-9](?:[\s\-/.()]{0,3}\d){6,11}`)},
	{"german_international", regexp.MustCompile(`(?:\+|00)49(?:[\s\-/.()]{0,3}\d){6,13}`)},
	{"international", regexp.MustCompile(`\+[1-9]\d{0,2}(?:[\s\-/.()]{0,3}\d){6,12}`)},
}

// PhoneExtractor finds phone numbers family by family over normalized text.
// German numbers are validated against the numbering structure; everything
// is canonicalized to "+"-digits or "0"-digits form.
type PhoneExtractor struct{}

// NewPhoneExtractor returns the phone extractor.
func NewPhoneExtractor() *PhoneExtractor { return &PhoneExtractor{} }

// Kind implements Extractor.
func (e *PhoneExtractor) Kind() domain.ExtractorKind { return domain.ExtractorPhone }

// Extract implements Extractor.
func (e *PhoneExtractor) Extract(_ context.Context, page *Page, dctx *domain.DiscoveryContext) []*domain.Contact {
	return e.FromText(page.Text, page.URL, dctx)
}

// FromText scans normalized text for phone numbers. The OCR and PDF
// extractors reuse this with their own retagging.
func (e *PhoneExtractor) FromText(text, sourceURL string, dctx *domain.DiscoveryContext) []*domain.Contact {
	normalized := normalize.CollapseWhitespace(normalize.DecodeEntities(text))

	var out []*domain.Contact
	claimed := make(map[string]bool)

	for _, family := range phoneFamilies {
		for _, loc := range family.pattern.FindAllStringIndex(normalized, -1) {
			start, end := loc[0], loc[1]
			if partOfLongerRun(normalized, start) {
				continue
			}
			canonical := domain.CanonicalizePhone(normalized[start:end])
			if claimed[canonical] || !domain.ValidPhoneLength(canonical) {
				continue
			}
			if !e.validFamily(family.name, canonical) {
				continue
			}
			claimed[canonical] = true
			out = append(out, e.newContact(canonical, family.name, sourceURL, dctx))
		}
	}
	return out
}

// partOfLongerRun rejects matches glued to a preceding digit run, directly
// ("9908912345678") or across one separator ("3704 0044 0532 ..."); IBANs
// and reference numbers fragment into phone-shaped blocks otherwise.
func partOfLongerRun(s string, start int) bool {
	if start == 0 {
		return false
	}
	prev := s[start-1]
	if prev >= '0' && prev <= '9' || prev == '+' {
		return true
	}
	if isPhoneSep(prev) && start > 1 {
		p2 := s[start-2]
		return p2 >= '0' && p2 <= '9'
	}
	return false
}

func isPhoneSep(c byte) bool {
	switch c {
	case ' ', '-', '/', '.', '(', ')':
		return true
	}
	return false
}

func (e *PhoneExtractor) validFamily(family, canonical string) bool {
	switch family {
	case "international":
		return domain.PlausibleCountryCode(canonical)
	default:
		return domain.IsValidGermanNational(canonical)
	}
}

func (e *PhoneExtractor) newContact(canonical, family, sourceURL string, dctx *domain.DiscoveryContext) *domain.Contact {
	meta := map[string]string{"family": family}

	mobile := domain.IsGermanMobile(canonical)
	munich := false
	if mobile {
		meta["is_mobile"] = "true"
	} else if code, city, ok := domain.GermanAreaCode(canonical); ok {
		meta["area_code"] = code
		meta["city"] = city
		munich = code == "089"
	}

	german := domain.IsGermanPhone(canonical)
	conf := 0.65
	switch {
	case mobile || munich:
		conf = 0.85
	case german && dctx != nil && dctx.IsGermanContext():
		conf = 0.80
	case german:
		conf = 0.70
	}

	c := &domain.Contact{
		Method:             domain.MethodPhone,
		Value:              canonical,
		ConfidenceScore:    conf,
		SourceURL:          sourceURL,
		ExtractionMethod:   domain.ExtractionStandardPattern,
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
