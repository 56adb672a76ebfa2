package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/immoleads/contact-discovery/internal/domain"
)

const (
	// DefaultOCRLanguages is the Tesseract language set for German listings.
	DefaultOCRLanguages = "deu+eng"

	// MaxImageBytes caps a single image download.
	MaxImageBytes = 5 << 20

	// maxImagesPerPage bounds OCR work per page.
	maxImagesPerPage = 8

	// upscaleBelow is the max dimension under which an image is doubled
	// before recognition. Small contact banners OCR poorly at native size.
	upscaleBelow = 800

	confOCR = 0.60
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Recognizer turns a preprocessed PNG into text. The production
// implementation wraps Tesseract; tests substitute a fake.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte, languages string) (string, error)
}

// OCRExtractor downloads page images and runs text recognition over them,
// feeding the recognized text back through the email and phone extractors.
// Disabled unless the engine is constructed with a Recognizer.
type OCRExtractor struct {
	fetcher    ArtifactFetcher
	recognizer Recognizer
	languages  string
	maxBytes   int64
	email      *EmailExtractor
	phone      *PhoneExtractor
	log        *zap.Logger
}

// NewOCRExtractor wires the OCR extractor. languages may be empty for the
// default German+English set.
func NewOCRExtractor(fetcher ArtifactFetcher, recognizer Recognizer, languages string, log *zap.Logger) *OCRExtractor {
	if languages == "" {
		languages = DefaultOCRLanguages
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OCRExtractor{
		fetcher:    fetcher,
		recognizer: recognizer,
		languages:  languages,
		maxBytes:   MaxImageBytes,
		email:      NewEmailExtractor(),
		phone:      NewPhoneExtractor(),
		log:        log,
	}
}

// Kind implements Extractor.
func (e *OCRExtractor) Kind() domain.ExtractorKind { return domain.ExtractorOCR }

// Extract implements Extractor. Artifact failures (oversized, undecodable,
// recognition errors) skip that image only.
func (e *OCRExtractor) Extract(ctx context.Context, page *Page, dctx *domain.DiscoveryContext) []*domain.Contact {
	if e.recognizer == nil || e.fetcher == nil {
		return nil
	}

	var out []*domain.Contact
	for _, imgURL := range e.collectImageURLs(page) {
		if ctx.Err() != nil {
			break
		}
		contacts, err := e.extractFromImage(ctx, imgURL, page.URL, dctx)
		if err != nil {
			e.log.Debug("ocr: skipping image",
				zap.String("image_url", imgURL),
				zap.Error(err))
			continue
		}
		out = append(out, contacts...)
	}
	return dedupeContacts(out)
}

func (e *OCRExtractor) extractFromImage(ctx context.Context, imgURL, pageURL string, dctx *domain.DiscoveryContext) ([]*domain.Contact, error) {
	data, _, err := e.fetcher.FetchArtifact(ctx, imgURL, e.maxBytes)
	if err != nil {
		return nil, err
	}

	prepared, err := prepareForOCR(data)
	if err != nil {
		return nil, err
	}

	text, err := e.recognizer.Recognize(ctx, prepared, e.languages)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	contacts := e.email.FromText(text, pageURL, dctx, "")
	contacts = append(contacts, e.phone.FromText(text, pageURL, dctx)...)
	for _, c := range contacts {
		c.ExtractionMethod = domain.ExtractionOCR
		c.ConfidenceScore = confOCR
		c.MergeMetadata(map[string]string{"image_url": imgURL})
	}
	return contacts, nil
}

// collectImageURLs resolves img src attributes against the page URL and
// keeps recognized raster formats, capped per page.
func (e *OCRExtractor) collectImageURLs(page *Page) []string {
	if page.Doc == nil {
		return nil
	}
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	page.Doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}
		ref, err := url.Parse(src)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if !imageExtensions[strings.ToLower(path.Ext(resolved.Path))] {
			return true
		}
		u := resolved.String()
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
		return len(out) < maxImagesPerPage
	})
	return out
}

// prepareForOCR decodes the image, converts to grayscale, stretches the
// contrast between the 2nd and 98th percentiles, doubles small images, and
// re-encodes as PNG for the recognizer.
func prepareForOCR(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.New("empty image")
	}

	gray := image.NewGray(bounds)
	xdraw.Draw(gray, bounds, img, bounds.Min, xdraw.Src)
	stretchContrast(gray)

	var final image.Image = gray
	if maxDim := max(bounds.Dx(), bounds.Dy()); maxDim < upscaleBelow {
		dst := image.NewGray(image.Rect(0, 0, bounds.Dx()*2, bounds.Dy()*2))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), gray, bounds, xdraw.Over, nil)
		final = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, final); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stretchContrast linearly maps the 2nd..98th percentile range onto 0..255
// in place. Flat images are left untouched.
func stretchContrast(img *image.Gray) {
	var hist [256]int
	for _, p := range img.Pix {
		hist[p]++
	}
	total := len(img.Pix)
	if total == 0 {
		return
	}

	lo, hi := percentileBounds(hist[:], total, 0.02, 0.98)
	if hi <= lo {
		return
	}

	scale := 255.0 / float64(hi-lo)
	var lut [256]uint8
	for v := 0; v < 256; v++ {
		switch {
		case v <= lo:
			lut[v] = 0
		case v >= hi:
			lut[v] = 255
		default:
			lut[v] = uint8(float64(v-lo) * scale)
		}
	}
	for i := range img.Pix {
		img.Pix[i] = lut[img.Pix[i]]
	}
}

func percentileBounds(hist []int, total int, pLo, pHi float64) (lo, hi int) {
	loCount := int(float64(total) * pLo)
	hiCount := int(float64(total) * pHi)
	cum := 0
	lo, hi = 0, 255
	for v, n := range hist {
		cum += n
		if cum <= loCount {
			lo = v
		}
		if cum <= hiCount {
			hi = v
		}
	}
	return lo, hi
}
