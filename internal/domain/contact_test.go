package domain

import "testing"

func TestLevelFromScore(t *testing.T) {
	cases := []struct {
		score float64
		want  ConfidenceLevel
	}{
		{0.95, ConfidenceHigh},
		{0.8, ConfidenceHigh},
		{0.79, ConfidenceMedium},
		{0.6, ConfidenceMedium},
		{0.59, ConfidenceLow},
		{0.4, ConfidenceLow},
		{0.39, ConfidenceUncertain},
		{0.0, ConfidenceUncertain},
	}
	for _, tc := range cases {
		if got := LevelFromScore(tc.score); got != tc.want {
			t.Errorf("LevelFromScore(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestContactFingerprint(t *testing.T) {
	a := &Contact{Method: MethodEmail, Value: "info@acme.de", SourceURL: "https://acme.de/kontakt"}
	b := &Contact{Method: MethodEmail, Value: "info@acme.de", SourceURL: "https://acme.de/kontakt"}
	c := &Contact{Method: MethodEmail, Value: "info@acme.de", SourceURL: "https://acme.de/impressum"}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical observations must share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different source URLs must produce different fingerprints")
	}
	if len(a.Fingerprint()) != 32 {
		t.Errorf("fingerprint length = %d, want 32 hex chars", len(a.Fingerprint()))
	}
}

func TestContactDomain(t *testing.T) {
	cases := []struct {
		name    string
		contact Contact
		want    string
	}{
		{"email", Contact{Method: MethodEmail, Value: "Info@Acme.DE"}, "acme.de"},
		{"form url", Contact{Method: MethodForm, Value: "https://www.acme.de/send"}, "www.acme.de"},
		{"social url", Contact{Method: MethodSocialMedia, Value: "https://xing.com/profile/acme"}, "xing.com"},
		{"phone has none", Contact{Method: MethodPhone, Value: "+4989123456"}, ""},
		{"broken email", Contact{Method: MethodEmail, Value: "not-an-address"}, ""},
	}
	for _, tc := range cases {
		if got := tc.contact.Domain(); got != tc.want {
			t.Errorf("%s: Domain() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestHashSignatureIgnoresSource(t *testing.T) {
	a := &Contact{Method: MethodEmail, Value: "info@acme.de", SourceURL: "https://acme.de/kontakt"}
	b := &Contact{Method: MethodEmail, Value: "info@acme.de", SourceURL: "https://other-listing.de/expose/42"}
	if a.HashSignature() != b.HashSignature() {
		t.Error("hash signature must be stable across source URLs")
	}
}

func TestMergeMetadata(t *testing.T) {
	c := &Contact{Metadata: map[string]string{"area_code": "089", "kept": "yes"}}
	c.MergeMetadata(map[string]string{"area_code": "030", "added": "1"})

	if c.Metadata["area_code"] != "030" {
		t.Errorf("new keys must win, got %q", c.Metadata["area_code"])
	}
	if c.Metadata["kept"] != "yes" {
		t.Error("existing keys must be preserved")
	}
	if c.Metadata["added"] != "1" {
		t.Error("added keys must appear")
	}

	var empty Contact
	empty.MergeMetadata(map[string]string{"k": "v"})
	if empty.Metadata["k"] != "v" {
		t.Error("merge into nil map must allocate")
	}
}

func TestFormToContact(t *testing.T) {
	f := &ContactForm{
		ActionURL:       "https://acme.de/send",
		Method:          "POST",
		Fields:          []string{"name", "email", "message"},
		CSRFToken:       "T",
		SourceURL:       "https://acme.de/contact",
		ConfidenceScore: 0.9,
	}
	c := f.ToContact()
	if c.Method != MethodForm || c.Value != "https://acme.de/send" {
		t.Fatalf("unexpected contact: %+v", c)
	}
	if c.ExtractionMethod != ExtractionFormDetection {
		t.Errorf("extraction method = %s", c.ExtractionMethod)
	}
	if c.Metadata["has_csrf"] != "true" || c.Metadata["field_count"] != "3" {
		t.Errorf("metadata = %v", c.Metadata)
	}
}

func TestSocialProfileToContact(t *testing.T) {
	p := &SocialMediaProfile{
		Platform:        PlatformXING,
		Username:        "acme_immobilien",
		ProfileURL:      "https://www.xing.com/profile/acme_immobilien",
		IsBusiness:      true,
		SourceURL:       "https://acme.de",
		ConfidenceScore: 0.75,
	}
	c := p.ToContact()
	if c.Method != MethodSocialMedia {
		t.Fatalf("method = %s", c.Method)
	}
	if c.Metadata["platform"] != "xing" || c.Metadata["is_business"] != "true" {
		t.Errorf("metadata = %v", c.Metadata)
	}
}
