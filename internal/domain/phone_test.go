package domain

import "testing"

func TestCanonicalizePhone(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"089 12345678", "08912345678"},
		{"(089) 123 456 78", "08912345678"},
		{"+49 89 12345678", "+498912345678"},
		{"+49 (0)89 12345678", "+498912345678"},
		{"0049 89 12345678", "+498912345678"},
		{"0151 234 5678", "01512345678"},
		{"089/12 34 56 78", "08912345678"},
		{"+43 1 5320788", "+4315320788"},
	}
	for _, tc := range cases {
		if got := CanonicalizePhone(tc.raw); got != tc.want {
			t.Errorf("CanonicalizePhone(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, raw := range []string{"+49 89 12345678", "089 12345678", "0049 151 2345678"} {
		once := CanonicalizePhone(raw)
		if twice := CanonicalizePhone(once); twice != once {
			t.Errorf("not idempotent: %q -> %q -> %q", raw, once, twice)
		}
	}
}

func TestGermanAreaCode(t *testing.T) {
	cases := []struct {
		number   string
		wantCode string
		wantCity string
		wantOK   bool
	}{
		{"08912345678", "089", "München", true},
		{"+498912345678", "089", "München", true},
		{"02211234567", "0221", "Köln", true},
		{"03012345678", "030", "Berlin", true},
		{"01512345678", "", "", false},
		{"+12125551234", "", "", false},
	}
	for _, tc := range cases {
		code, city, ok := GermanAreaCode(tc.number)
		if code != tc.wantCode || city != tc.wantCity || ok != tc.wantOK {
			t.Errorf("GermanAreaCode(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.number, code, city, ok, tc.wantCode, tc.wantCity, tc.wantOK)
		}
	}
}

func TestIsGermanMobile(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"01512345678", true},
		{"01601234567", true},
		{"01761234567", true},
		{"+491512345678", true},
		{"08912345678", false},
		{"01412345678", false},
		{"+12125551234", false},
	}
	for _, tc := range cases {
		if got := IsGermanMobile(tc.number); got != tc.want {
			t.Errorf("IsGermanMobile(%q) = %v, want %v", tc.number, got, tc.want)
		}
	}
}

func TestIsValidGermanNational(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"08912345678", true},
		{"01512345678", true},
		{"+498912345678", true},
		{"00891234", false},     // double zero is international, not national
		{"08912", false},        // too short
		{"01412345678", false},  // 014x is not a mobile family
		{"089123456789012345", false}, // too long
	}
	for _, tc := range cases {
		if got := IsValidGermanNational(tc.number); got != tc.want {
			t.Errorf("IsValidGermanNational(%q) = %v, want %v", tc.number, got, tc.want)
		}
	}
}

func TestPlausibleCountryCode(t *testing.T) {
	if !PlausibleCountryCode("+4989123456") {
		t.Error("+49 must be plausible")
	}
	if PlausibleCountryCode("+0891234") {
		t.Error("country codes never start with zero")
	}
	if PlausibleCountryCode("0891234567") {
		t.Error("national numbers have no country code")
	}
}
