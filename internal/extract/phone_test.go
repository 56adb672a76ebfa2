package extract

import (
	"context"
	"testing"

	"github.com/immoleads/contact-discovery/internal/domain"
)

func TestPhoneExtractorMunichLandline(t *testing.T) {
	html := `<body><p>Tel: 089 / 12 34 56 78</p></body>`
	page := mustPage(t, "https://acme-immobilien.de/expose/42", html)

	contacts := NewPhoneExtractor().Extract(context.Background(), page, germanContext())
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1: %+v", len(contacts), contacts)
	}
	c := contacts[0]
	if c.Value != "08912345678" {
		t.Errorf("canonical value = %q, want 08912345678", c.Value)
	}
	if c.Method != domain.MethodPhone {
		t.Errorf("method = %s", c.Method)
	}
	if c.Metadata["area_code"] != "089" {
		t.Errorf("area_code = %q", c.Metadata["area_code"])
	}
	if c.Metadata["city"] != "München" {
		t.Errorf("city = %q", c.Metadata["city"])
	}
	if c.ConfidenceScore != 0.85 {
		t.Errorf("confidence = %v, want 0.85", c.ConfidenceScore)
	}
}

func TestPhoneExtractorFamilies(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantValue  string
		wantFamily string
	}{
		{
			name:       "german mobile with country code",
			text:       "Mobil: +49 151 23456789",
			wantValue:  "+4915123456789",
			wantFamily: "german_mobile",
		},
		{
			name:       "german mobile national",
			text:       "erreichbar unter 0171 9876543",
			wantValue:  "01719876543",
			wantFamily: "german_mobile",
		},
		{
			name:       "munich with parens",
			text:       "Büro: (089) 99 88 77 6",
			wantValue:  "0899988776",
			wantFamily: "munich_local",
		},
		{
			name:       "non-munich landline",
			text:       "Hamburg: 040 3344556",
			wantValue:  "0403344556",
			wantFamily: "german_landline",
		},
		{
			name:       "double zero international prefix",
			text:       "Zentrale 0049 89 1234567",
			wantValue:  "+49891234567",
			wantFamily: "german_international",
		},
		{
			name:       "foreign international",
			text:       "Wien: +43 1 5056926",
			wantValue:  "+4315056926",
			wantFamily: "international",
		},
	}
	e := NewPhoneExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts := e.FromText(tt.text, "https://acme.de", germanContext())
			c := findByValue(contacts, tt.wantValue)
			if c == nil {
				t.Fatalf("FromText(%q) = %+v, want value %s", tt.text, contacts, tt.wantValue)
			}
			if c.Metadata["family"] != tt.wantFamily {
				t.Errorf("family = %q, want %q", c.Metadata["family"], tt.wantFamily)
			}
		})
	}
}

func TestPhoneExtractorMobileMetadata(t *testing.T) {
	contacts := NewPhoneExtractor().FromText("Mobil: 0151 2345678", "https://acme.de", nil)
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(contacts))
	}
	c := contacts[0]
	if c.Metadata["is_mobile"] != "true" {
		t.Errorf("is_mobile = %q", c.Metadata["is_mobile"])
	}
	if c.ConfidenceScore != 0.85 {
		t.Errorf("confidence = %v, want 0.85", c.ConfidenceScore)
	}
}

func TestPhoneExtractorDeduplicatesFormats(t *testing.T) {
	text := "Tel 089/1234567 oder 089 1234567"
	contacts := NewPhoneExtractor().FromText(text, "https://acme.de", nil)
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1: %+v", len(contacts), contacts)
	}
	if contacts[0].Value != "0891234567" {
		t.Errorf("canonical value = %q", contacts[0].Value)
	}
}

func TestPhoneExtractorRejectsNonNumbers(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"year and area", "Baujahr 1995, Wohnfläche 120 qm"},
		{"object number", "Objekt-Nr. 2024-0815-333"},
		{"price", "Kaltmiete: 1.250,00 EUR"},
		{"iban fragment", "DE89 3704 0044 0532 0130 00"},
		{"too short", "Durchwahl 089 123"},
	}
	e := NewPhoneExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.FromText(tt.text, "https://acme.de", nil); len(got) != 0 {
				t.Errorf("FromText(%q) = %+v, want none", tt.text, got)
			}
		})
	}
}

func TestPhoneExtractorBoundary(t *testing.T) {
	// A plausible number glued to a longer digit run is part of that run,
	// not a contact.
	contacts := NewPhoneExtractor().FromText("Referenz 9908912345678", "https://acme.de", nil)
	if len(contacts) != 0 {
		t.Fatalf("matched inside digit run: %+v", contacts)
	}
}
