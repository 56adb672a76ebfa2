// Package extract turns fetched pages into candidate contacts. Each
// extractor is independent and side-effect free on page content; the OCR and
// PDF extractors additionally download artifacts through the fetcher.
package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// Page is one fetched document in the form the extractors consume: the final
// URL, the raw body, the parsed DOM, and the visible text with script and
// style content removed.
type Page struct {
	URL  string
	HTML string
	Doc  *goquery.Document
	Text string
}

// NewPage parses an HTML body into a Page. Malformed markup never fails;
// the HTML5 parser recovers and the extractors work with what remains.
func NewPage(url string, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()
	return &Page{
		URL:  url,
		HTML: string(body),
		Doc:  doc,
		Text: doc.Text(),
	}, nil
}

// NewTextPage wraps plain text (OCR output, PDF text) as a DOM-less page.
func NewTextPage(url, text string) *Page {
	return &Page{URL: url, Text: text}
}

// Extractor is the common contract: inspect one page under the run context
// and return candidate contacts. Implementations must not mutate the page.
type Extractor interface {
	Kind() domain.ExtractorKind
	Extract(ctx context.Context, page *Page, dctx *domain.DiscoveryContext) []*domain.Contact
}

// ArtifactFetcher downloads embedded artifacts (images, PDFs) under a size
// cap. Implemented by the fetch client so artifact downloads share the
// per-origin rate limits and robots rules of page fetches.
type ArtifactFetcher interface {
	FetchArtifact(ctx context.Context, url string, maxBytes int64) (body []byte, contentType string, err error)
}

// dedupeContacts collapses duplicates on (method, value), keeping the
// highest confidence and folding metadata together. Order of first
// appearance is preserved.
func dedupeContacts(contacts []*domain.Contact) []*domain.Contact {
	if len(contacts) < 2 {
		return contacts
	}
	seen := make(map[string]*domain.Contact, len(contacts))
	out := contacts[:0]
	for _, c := range contacts {
		key := string(c.Method) + "|" + c.Value
		prev, ok := seen[key]
		if !ok {
			seen[key] = c
			out = append(out, c)
			continue
		}
		if c.ConfidenceScore > prev.ConfidenceScore {
			prev.ConfidenceScore = c.ConfidenceScore
			prev.ExtractionMethod = c.ExtractionMethod
			prev.SourceURL = c.SourceURL
		}
		prev.MergeMetadata(c.Metadata)
	}
	return out
}

// containsAny reports whether s contains any of the needles,
// case-insensitively.
func containsAny(s string, needles []string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
