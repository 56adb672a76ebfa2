// Package normalize undoes the common obfuscations found on listing pages
// before the extractors run: HTML entity escapes, "[at]"/"[dot]" word forms,
// and irregular whitespace. Normalization is pure and idempotent.
package normalize

import (
	"html"
	"regexp"
	"strings"
)

var (
	atWordPattern  = regexp.MustCompile(`(?i)\s*(?:\[\s*at\s*\]|\(\s*at\s*\))\s*|\s+at\s+`)
	dotWordPattern = regexp.MustCompile(`(?i)\s*(?:\[\s*dot\s*\]|\(\s*dot\s*\))\s*|\s+dot\s+`)

	// Entity escapes that hide address punctuation. &commat; is the named
	// form of @; numeric forms cover both decimal and hex.
	entityMarkerPattern = regexp.MustCompile(`(?i)&(?:#0*(?:64|46)|#x0*(?:40|2e)|commat|period);`)

	trackingTokenPattern = regexp.MustCompile(`(?i)(?:^|\s)(?:no-?reply|do-?not-?reply|donotreply)(?:\s|$)`)

	atBracketPattern = regexp.MustCompile(`(?i)\[\s*at\s*\]|\(\s*at\s*\)`)
	atSpacedPattern  = regexp.MustCompile(`(?i)\s+at\s+`)
	dotSpacedPattern = regexp.MustCompile(`(?i)\s+dot\s+`)
)

// Text runs the full normalization pass: entity decoding to a fixpoint,
// obfuscation words replaced by their punctuation, tracking tokens dropped,
// and whitespace collapsed to single spaces.
func Text(s string) string {
	s = DecodeEntities(s)
	s = ReplaceObfuscations(s)
	s = StripTrackingTokens(s)
	return CollapseWhitespace(s)
}

// DecodeEntities unescapes HTML entities until the string stops changing.
// Double-escaped input ("&amp;#64;") needs more than one pass; the fixpoint
// keeps Text idempotent.
func DecodeEntities(s string) string {
	for i := 0; i < 4; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			return s
		}
		s = decoded
	}
	return s
}

// ReplaceObfuscations rewrites "[at]", "(at)", and the spaced word "at" to
// "@" and the dot equivalents to ".". Surrounding whitespace is consumed so
// the rewritten address is contiguous.
func ReplaceObfuscations(s string) string {
	s = atWordPattern.ReplaceAllString(s, "@")
	return dotWordPattern.ReplaceAllString(s, ".")
}

// StripTrackingTokens removes standalone no-reply markers. Tokens embedded
// in a real address ("noreply@acme.de") are left alone; the scorer penalizes
// those instead.
func StripTrackingTokens(s string) string {
	return trackingTokenPattern.ReplaceAllString(s, " ")
}

// CollapseWhitespace folds every run of Unicode whitespace into one space
// and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HasObfuscationMarkers reports whether the raw text contains word-form
// address obfuscations. The email extractor uses this to tag matches that
// only became visible after normalization. Bracketed forms count on their
// own; the bare spaced words "at" and "dot" must both appear, otherwise
// ordinary prose ("located at Marienplatz") would trip it.
func HasObfuscationMarkers(s string) bool {
	if atBracketPattern.MatchString(s) {
		return true
	}
	return atSpacedPattern.MatchString(s) && dotSpacedPattern.MatchString(s)
}

// HasEntityEscapes reports whether the raw text hides address punctuation
// behind HTML entities.
func HasEntityEscapes(s string) bool {
	return entityMarkerPattern.MatchString(s)
}
