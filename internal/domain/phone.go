package domain

import "strings"

// CanonicalizePhone reduces a raw phone match to its canonical form: a
// leading "+" with digits for international numbers, a leading "0" with
// digits for national ones. The international "00" prefix becomes "+", and a
// trunk zero written after the German country code ("+49 (0)89 …") is
// dropped.
func CanonicalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	hasPlus := strings.HasPrefix(s, "+")
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	d := b.String()
	if !hasPlus && strings.HasPrefix(d, "00") {
		hasPlus = true
		d = d[2:]
	}
	if hasPlus {
		if strings.HasPrefix(d, "490") && len(d) > 3 {
			d = "49" + d[3:]
		}
		return "+" + d
	}
	return d
}

// PhoneDigitCount counts the digits of a canonical phone value.
func PhoneDigitCount(canonical string) int {
	n := 0
	for i := 0; i < len(canonical); i++ {
		if canonical[i] >= '0' && canonical[i] <= '9' {
			n++
		}
	}
	return n
}

// ValidPhoneLength applies the E.164-ish digit bound of 8 to 15.
func ValidPhoneLength(canonical string) bool {
	n := PhoneDigitCount(canonical)
	return n >= 8 && n <= 15
}

// IsGermanPhone reports whether the canonical value is a German number in
// either international or national form.
func IsGermanPhone(canonical string) bool {
	return strings.HasPrefix(canonical, "+49") ||
		(strings.HasPrefix(canonical, "0") && !strings.HasPrefix(canonical, "00"))
}

// germanNational rewrites a canonical German number to national form.
func germanNational(canonical string) string {
	if strings.HasPrefix(canonical, "+49") {
		return "0" + canonical[3:]
	}
	return canonical
}

// IsGermanMobile reports whether the canonical value is a German mobile
// number (prefixes 015x, 016x, 017x).
func IsGermanMobile(canonical string) bool {
	n := germanNational(canonical)
	if len(n) < 3 || n[0] != '0' {
		return false
	}
	return GermanMobilePrefixes[n[1:3]]
}

// GermanAreaCode resolves the dialing prefix of a canonical German number
// against the area-code table, longest prefix first. ok is false for mobile
// numbers and for codes outside the table.
func GermanAreaCode(canonical string) (code, city string, ok bool) {
	n := germanNational(canonical)
	if len(n) < 3 || n[0] != '0' {
		return "", "", false
	}
	for l := 5; l >= 3; l-- {
		if len(n) < l {
			continue
		}
		if city, found := GermanAreaCodes[n[:l]]; found {
			return n[:l], city, true
		}
	}
	return "", "", false
}

// IsValidGermanNational checks the structural shape of a German number:
// leading zero, a subscriber root of 1-9, mobile prefixes restricted to the
// 15/16/17 families, and the overall digit bound.
func IsValidGermanNational(canonical string) bool {
	n := germanNational(canonical)
	if len(n) < 2 || n[0] != '0' || n[1] == '0' {
		return false
	}
	if !ValidPhoneLength(n) {
		return false
	}
	if n[1] == '1' {
		return IsGermanMobile(n)
	}
	return n[1] >= '2' && n[1] <= '9'
}

// PlausibleCountryCode reports whether an international canonical value
// starts with a plausible 1-3 digit country code.
func PlausibleCountryCode(canonical string) bool {
	if !strings.HasPrefix(canonical, "+") || len(canonical) < 2 {
		return false
	}
	return canonical[1] >= '1' && canonical[1] <= '9'
}
