// Package tesseract provides the production OCR recognizer backed by the
// system Tesseract library. It lives in its own package so that binaries
// built without OCR support never link the C dependency.
package tesseract

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer satisfies the extract.Recognizer interface over gosseract.
// A fresh client is created per call; gosseract clients are not safe for
// concurrent use.
type Recognizer struct{}

// New returns a Tesseract-backed recognizer. The tesseract data files for
// the requested languages must be installed on the host.
func New() *Recognizer { return &Recognizer{} }

// Recognize runs OCR over a PNG image. languages uses Tesseract's
// plus-joined form, e.g. "deu+eng".
func (r *Recognizer) Recognize(ctx context.Context, png []byte, languages string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if languages != "" {
		if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
			return "", err
		}
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", err
	}
	return client.Text()
}
