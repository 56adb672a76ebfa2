package domain

import (
	"strings"
	"testing"
)

func TestGermanAreaCodesShape(t *testing.T) {
	for code, city := range GermanAreaCodes {
		if !strings.HasPrefix(code, "0") {
			t.Errorf("area code %q must carry the leading zero", code)
		}
		if len(code) < 3 || len(code) > 5 {
			t.Errorf("area code %q has length %d, want 3..5", code, len(code))
		}
		if city == "" {
			t.Errorf("area code %q has no city", code)
		}
	}
	for code, want := range map[string]string{
		"089":  "München",
		"030":  "Berlin",
		"040":  "Hamburg",
		"069":  "Frankfurt am Main",
		"0221": "Köln",
	} {
		if got := GermanAreaCodes[code]; got != want {
			t.Errorf("GermanAreaCodes[%q] = %q, want %q", code, got, want)
		}
	}
}

func TestGermanMobilePrefixes(t *testing.T) {
	for _, p := range []string{"15", "16", "17"} {
		if !GermanMobilePrefixes[p] {
			t.Errorf("prefix %q must be a mobile block", p)
		}
	}
	if GermanMobilePrefixes["14"] {
		t.Error("014x is not an assigned mobile block")
	}
}

func TestRejectedDomainTables(t *testing.T) {
	for _, dom := range []string{"example.com", "test.com", "domain.com", "localhost"} {
		if !PlaceholderEmailDomains[dom] {
			t.Errorf("%q must be a placeholder domain", dom)
		}
	}
	for _, dom := range []string{"mailinator.com", "10minutemail.com", "wegwerfmail.de"} {
		if !ThrowawayEmailDomains[dom] {
			t.Errorf("%q must be a throwaway domain", dom)
		}
	}
	// Real consumer providers are verification-blocked, never rejected.
	for _, dom := range []string{"gmx.de", "web.de", "t-online.de", "gmail.com"} {
		if PlaceholderEmailDomains[dom] || ThrowawayEmailDomains[dom] {
			t.Errorf("%q must not be in a reject table", dom)
		}
		if !BlockedVerificationDomains[dom] {
			t.Errorf("%q must skip SMTP probing", dom)
		}
	}
}

func TestSuspiciousTLDs(t *testing.T) {
	if !SuspiciousTLDs["tk"] {
		t.Error(".tk must be suspicious")
	}
	for _, tld := range []string{"de", "com", "net", "org", "at", "ch"} {
		if SuspiciousTLDs[tld] {
			t.Errorf(".%s must not be suspicious", tld)
		}
	}
	for tld := range SuspiciousTLDs {
		if strings.HasPrefix(tld, ".") {
			t.Errorf("TLD %q keyed with a dot", tld)
		}
	}
}

func TestKeywordTablesAreLowercase(t *testing.T) {
	check := func(name string, list []string) {
		for _, kw := range list {
			if kw == "" {
				t.Errorf("%s contains an empty entry", name)
			}
			if kw != strings.ToLower(kw) {
				t.Errorf("%s entry %q must be lowercase, matching is case-folded upstream", name, kw)
			}
		}
	}
	check("ContactKeywords", ContactKeywords)
	check("GermanContactKeywords", GermanContactKeywords)
	check("ContactURLPatterns", ContactURLPatterns)
	check("RealEstateKeywords", RealEstateKeywords)

	for _, p := range ContactURLPatterns {
		if !strings.HasPrefix(p, "/") {
			t.Errorf("URL pattern %q must be path-anchored", p)
		}
	}
	for _, want := range []string{"/kontakt", "/impressum", "/ansprechpartner"} {
		found := false
		for _, p := range ContactURLPatterns {
			if p == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("ContactURLPatterns missing %q", want)
		}
	}
}
