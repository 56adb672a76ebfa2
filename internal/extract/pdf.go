package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/domain"
)

const (
	// MaxPDFBytes caps a single PDF download.
	MaxPDFBytes = 10 << 20

	// maxPDFPages bounds text extraction per document.
	maxPDFPages = 50

	// maxPDFsPerPage bounds PDF work per listing page.
	maxPDFsPerPage = 4

	confPDF = 0.70
)

// pdfMetadataKeys are the Info dictionary entries worth scanning. Exposés
// regularly carry the agent's name and address in Author or Subject.
var pdfMetadataKeys = []string{"Author", "Creator", "Title", "Subject"}

// PDFExtractor downloads linked PDF documents (exposés, floor plans, energy
// certificates) and runs the email and phone extractors over their page text
// and metadata.
type PDFExtractor struct {
	fetcher  ArtifactFetcher
	maxBytes int64
	email    *EmailExtractor
	phone    *PhoneExtractor
	log      *zap.Logger
}

// NewPDFExtractor wires the PDF extractor.
func NewPDFExtractor(fetcher ArtifactFetcher, log *zap.Logger) *PDFExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &PDFExtractor{
		fetcher:  fetcher,
		maxBytes: MaxPDFBytes,
		email:    NewEmailExtractor(),
		phone:    NewPhoneExtractor(),
		log:      log,
	}
}

// Kind implements Extractor.
func (e *PDFExtractor) Kind() domain.ExtractorKind { return domain.ExtractorPDF }

// Extract implements Extractor. Oversized or unparseable documents skip
// that artifact only.
func (e *PDFExtractor) Extract(ctx context.Context, page *Page, dctx *domain.DiscoveryContext) []*domain.Contact {
	if e.fetcher == nil {
		return nil
	}

	var out []*domain.Contact
	for _, pdfURL := range e.collectPDFURLs(page) {
		if ctx.Err() != nil {
			break
		}
		contacts, err := e.extractFromPDF(ctx, pdfURL, page.URL, dctx)
		if err != nil {
			e.log.Debug("pdf: skipping document",
				zap.String("pdf_url", pdfURL),
				zap.Error(err))
			continue
		}
		out = append(out, contacts...)
	}
	return dedupeContacts(out)
}

func (e *PDFExtractor) extractFromPDF(ctx context.Context, pdfURL, pageURL string, dctx *domain.DiscoveryContext) ([]*domain.Contact, error) {
	data, _, err := e.fetcher.FetchArtifact(ctx, pdfURL, e.maxBytes)
	if err != nil {
		return nil, err
	}

	texts, meta, err := readPDF(data)
	if err != nil {
		return nil, err
	}
	return e.harvest(texts, meta, pageURL, pdfURL, dctx), nil
}

// harvest runs the text extractors over page texts and metadata values,
// retagging results as pdf and pdf_metadata respectively.
func (e *PDFExtractor) harvest(texts []string, meta map[string]string, pageURL, pdfURL string, dctx *domain.DiscoveryContext) []*domain.Contact {
	var out []*domain.Contact

	body := strings.Join(texts, "\n")
	if strings.TrimSpace(body) != "" {
		contacts := e.email.FromText(body, pageURL, dctx, "")
		contacts = append(contacts, e.phone.FromText(body, pageURL, dctx)...)
		for _, c := range contacts {
			c.ExtractionMethod = domain.ExtractionPDF
			c.ConfidenceScore = confPDF
			c.MergeMetadata(map[string]string{"pdf_url": pdfURL})
		}
		out = append(out, contacts...)
	}

	for key, value := range meta {
		contacts := e.email.FromText(value, pageURL, dctx, "")
		contacts = append(contacts, e.phone.FromText(value, pageURL, dctx)...)
		for _, c := range contacts {
			c.ExtractionMethod = domain.ExtractionPDFMetadata
			c.ConfidenceScore = confPDF
			c.MergeMetadata(map[string]string{"pdf_url": pdfURL, "pdf_field": key})
		}
		out = append(out, contacts...)
	}

	return dedupeContacts(out)
}

// collectPDFURLs resolves anchor hrefs against the page URL and keeps .pdf
// targets, capped per page.
func (e *PDFExtractor) collectPDFURLs(page *Page) []string {
	if page.Doc == nil {
		return nil
	}
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	page.Doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if strings.ToLower(path.Ext(resolved.Path)) != ".pdf" {
			return true
		}
		u := resolved.String()
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
		return len(out) < maxPDFsPerPage
	})
	return out
}

// readPDF parses the document into per-page text plus the Info dictionary
// fields. The underlying parser panics on malformed files; the recover
// converts that into an error so a broken exposé never kills a crawl.
func readPDF(data []byte) (texts []string, meta map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts, meta = nil, nil
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("pdf open: %w", err)
	}

	pages := reader.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}
	for i := 1; i <= pages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts = append(texts, text)
	}

	meta = make(map[string]string)
	info := reader.Trailer().Key("Info")
	if info.Kind() == pdf.Dict {
		for _, key := range pdfMetadataKeys {
			v := info.Key(key)
			if v.Kind() == pdf.String {
				if s := strings.TrimSpace(v.Text()); s != "" {
					meta[key] = s
				}
			}
		}
	}

	return texts, meta, nil
}
