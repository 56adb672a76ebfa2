package extract

import (
	"context"
	"testing"

	"github.com/immoleads/contact-discovery/internal/domain"
)

func TestEmailExtractorMailtoAndText(t *testing.T) {
	html := `<html><body>
		<a href="mailto:info@acme-immobilien.de">Schreiben Sie uns</a>
		<p>Vertrieb: vertrieb@acme-immobilien.de</p>
	</body></html>`
	page := mustPage(t, "https://acme-immobilien.de/expose/42", html)

	contacts := NewEmailExtractor().Extract(context.Background(), page, germanContext())
	if len(contacts) != 2 {
		t.Fatalf("got %d contacts, want 2", len(contacts))
	}

	mailto := findByValue(contacts, "info@acme-immobilien.de")
	if mailto == nil {
		t.Fatal("mailto address missing")
	}
	if mailto.ExtractionMethod != domain.ExtractionMailtoLink {
		t.Errorf("mailto tagged %s", mailto.ExtractionMethod)
	}
	if mailto.ConfidenceScore != 0.90 {
		t.Errorf("mailto confidence = %v", mailto.ConfidenceScore)
	}
	if mailto.Metadata["link_text"] != "Schreiben Sie uns" {
		t.Errorf("link_text = %q", mailto.Metadata["link_text"])
	}
	if mailto.Language != "de" || mailto.CulturalContext != "german" {
		t.Errorf("run context not applied: %s/%s", mailto.Language, mailto.CulturalContext)
	}

	text := findByValue(contacts, "vertrieb@acme-immobilien.de")
	if text == nil {
		t.Fatal("text address missing")
	}
	if text.ExtractionMethod != domain.ExtractionStandardPattern {
		t.Errorf("text address tagged %s", text.ExtractionMethod)
	}
}

func TestEmailExtractorMailtoQueryAndList(t *testing.T) {
	html := `<body>
		<a href="mailto:kontakt@acme.de?subject=Expos%C3%A9%2042">Anfrage</a>
		<a href="mailto:a@acme.de,b@acme.de">Team</a>
	</body>`
	page := mustPage(t, "https://acme.de", html)

	contacts := NewEmailExtractor().Extract(context.Background(), page, nil)
	for _, want := range []string{"kontakt@acme.de", "a@acme.de", "b@acme.de"} {
		if findByValue(contacts, want) == nil {
			t.Errorf("missing %s", want)
		}
	}
	if findByValue(contacts, "kontakt@acme.de?subject=expos%c3%a9%2042") != nil {
		t.Error("mailto query string not stripped")
	}
}

func TestEmailExtractorObfuscated(t *testing.T) {
	html := `<body><p>Schreiben Sie an: info [at] mueller-immo [dot] de</p></body>`
	page := mustPage(t, "https://mueller-immo.de/kontakt", html)

	contacts := NewEmailExtractor().Extract(context.Background(), page, germanContext())
	c := findByValue(contacts, "info@mueller-immo.de")
	if c == nil {
		t.Fatalf("obfuscated address not recovered, got %+v", contacts)
	}
	if c.ExtractionMethod != domain.ExtractionObfuscatedText {
		t.Errorf("tagged %s, want obfuscated_text", c.ExtractionMethod)
	}
	if c.ConfidenceScore != 0.65 {
		t.Errorf("confidence = %v, want 0.65", c.ConfidenceScore)
	}
}

func TestEmailExtractorSpacedWordObfuscation(t *testing.T) {
	contacts := NewEmailExtractor().FromText(
		"reach us at hello at acme dot de", "https://acme.de", nil, "")
	c := findByValue(contacts, "hello@acme.de")
	if c == nil {
		t.Fatalf("spaced-word address not recovered, got %+v", contacts)
	}
	if c.ExtractionMethod != domain.ExtractionObfuscatedText {
		t.Errorf("tagged %s, want obfuscated_text", c.ExtractionMethod)
	}
}

func TestEmailExtractorEntityEscaped(t *testing.T) {
	html := `<body><p>Kontakt: verwaltung&#64;hausfried&#46;de</p></body>`
	page := mustPage(t, "https://hausfried.de/impressum", html)

	contacts := NewEmailExtractor().Extract(context.Background(), page, germanContext())
	c := findByValue(contacts, "verwaltung@hausfried.de")
	if c == nil {
		t.Fatalf("entity-escaped address not recovered, got %+v", contacts)
	}
	if c.ExtractionMethod != domain.ExtractionUnicode {
		t.Errorf("tagged %s, want unicode", c.ExtractionMethod)
	}
}

func TestEmailExtractorRejections(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"placeholder domain", "write to user@example.com"},
		{"throwaway provider", "temp: x9@mailinator.com"},
		{"ip literal domain", "root@192.168.0.1"},
		{"no tld", "user@localhost"},
		{"bare at sign", "prices start @ 500"},
	}
	e := NewEmailExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.FromText(tt.text, "https://acme.de", nil, ""); len(got) != 0 {
				t.Errorf("FromText(%q) = %+v, want none", tt.text, got)
			}
		})
	}
}

func TestEmailExtractorDeduplicatesAcrossPasses(t *testing.T) {
	// Same address as mailto link and in visible text: one contact, tagged
	// with the higher-confidence mailto method.
	html := `<body>
		<a href="mailto:info@acme.de">info@acme.de</a>
	</body>`
	page := mustPage(t, "https://acme.de", html)

	contacts := NewEmailExtractor().Extract(context.Background(), page, nil)
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(contacts))
	}
	if contacts[0].ExtractionMethod != domain.ExtractionMailtoLink {
		t.Errorf("tagged %s, want mailto_link", contacts[0].ExtractionMethod)
	}
	if contacts[0].ConfidenceScore != 0.90 {
		t.Errorf("confidence = %v, want 0.90", contacts[0].ConfidenceScore)
	}
}

func TestEmailExtractorTrailingPunctuation(t *testing.T) {
	contacts := NewEmailExtractor().FromText(
		"Fragen an info@acme.de.", "https://acme.de", nil, "")
	if c := findByValue(contacts, "info@acme.de"); c == nil {
		t.Fatalf("trailing dot not trimmed, got %+v", contacts)
	}
}

func TestEmailExtractorUmlautDomainText(t *testing.T) {
	// Non-ASCII domains only match in their punycode form; the raw umlaut
	// form must not produce a mangled value.
	contacts := NewEmailExtractor().FromText(
		"info@münchen-makler.de und buero@xn--mnchen-makler-cib.de",
		"https://acme.de", nil, "")
	if findByValue(contacts, "buero@xn--mnchen-makler-cib.de") == nil {
		t.Error("punycode domain rejected")
	}
	for _, c := range contacts {
		if c.Value == "info@münchen-makler.de" {
			t.Error("raw umlaut domain accepted")
		}
	}
}
