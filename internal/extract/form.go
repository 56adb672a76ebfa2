package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/normalize"
)

var (
	csrfNamePattern = regexp.MustCompile(`(?i)(csrf|token|_token|authenticity_token)`)

	// Field names that identify a contact form when two or more appear.
	contactFieldNames = map[string]bool{
		"name":      true,
		"email":     true,
		"message":   true,
		"subject":   true,
		"phone":     true,
		"telefon":   true,
		"nachricht": true,
		"betreff":   true,
		"comment":   true,
	}

	complexFieldTypes = map[string]bool{
		"file":           true,
		"date":           true,
		"datetime":       true,
		"datetime-local": true,
		"select":         true,
		"radio":          true,
		"checkbox":       true,
	}
)

// FormExtractor detects contact forms in a page: action target, field
// inventory, CSRF token, and the complexity and friendliness heuristics.
type FormExtractor struct{}

// NewFormExtractor returns the form extractor.
func NewFormExtractor() *FormExtractor { return &FormExtractor{} }

// Kind implements Extractor.
func (e *FormExtractor) Kind() domain.ExtractorKind { return domain.ExtractorForm }

// Extract implements Extractor by converting detected forms to contacts of
// method=form. The richer ContactForm records come from ExtractForms.
func (e *FormExtractor) Extract(ctx context.Context, page *Page, dctx *domain.DiscoveryContext) []*domain.Contact {
	forms := e.ExtractForms(ctx, page, dctx)
	out := make([]*domain.Contact, 0, len(forms))
	for _, f := range forms {
		c := f.ToContact()
		if dctx != nil {
			c.Language = dctx.Language
			c.CulturalContext = dctx.CulturalContext
		}
		out = append(out, c)
	}
	return dedupeContacts(out)
}

// ExtractForms walks every <form> element and keeps the ones that look like
// contact channels. Forms deduplicate on their resolved action URL.
func (e *FormExtractor) ExtractForms(_ context.Context, page *Page, _ *domain.DiscoveryContext) []*domain.ContactForm {
	if page.Doc == nil {
		return nil
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		base = nil
	}

	var out []*domain.ContactForm
	seen := make(map[string]bool)

	page.Doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		f := e.parseForm(form, base, page.URL)
		if f == nil || seen[f.ActionURL] {
			return
		}
		seen[f.ActionURL] = true
		out = append(out, f)
	})
	return out
}

func (e *FormExtractor) parseForm(form *goquery.Selection, base *url.URL, pageURL string) *domain.ContactForm {
	labels := labelTexts(form)

	var fields, required []string
	fieldSeen := make(map[string]bool)
	csrfToken := ""
	complexCount := 0
	hasEmailField, hasMessageField := false, false
	hasPlaceholder := false

	form.Find("input, select, textarea").Each(func(_ int, el *goquery.Selection) {
		name, ok := el.Attr("name")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return
		}

		fieldType := strings.ToLower(el.AttrOr("type", ""))
		if goquery.NodeName(el) == "select" {
			fieldType = "select"
		}

		if !fieldSeen[name] {
			fieldSeen[name] = true
			fields = append(fields, name)
		}

		if fieldType == "hidden" {
			if csrfToken == "" && csrfNamePattern.MatchString(name) {
				csrfToken = el.AttrOr("value", "")
			}
			return
		}

		lower := strings.ToLower(name)
		if fieldType == "email" || strings.Contains(lower, "email") || strings.Contains(lower, "mail") {
			hasEmailField = true
		}
		if goquery.NodeName(el) == "textarea" || lower == "message" || lower == "nachricht" || lower == "comment" {
			hasMessageField = true
		}
		if complexFieldTypes[fieldType] {
			complexCount++
		}
		if el.AttrOr("placeholder", "") != "" {
			hasPlaceholder = true
		}

		if isRequiredField(el, labels) {
			required = append(required, name)
		}
	})

	if len(fields) == 0 {
		return nil
	}

	formText := normalize.CollapseWhitespace(form.Text())
	if !e.isContactForm(formText, fields, hasEmailField, hasMessageField) {
		return nil
	}

	action := strings.TrimSpace(form.AttrOr("action", ""))
	actionURL := pageURL
	if action != "" && base != nil {
		if ref, err := url.Parse(action); err == nil {
			actionURL = base.ResolveReference(ref).String()
		}
	}

	method := strings.ToUpper(strings.TrimSpace(form.AttrOr("method", "")))
	if method == "" {
		method = "POST"
	}

	f := &domain.ContactForm{
		ActionURL:      actionURL,
		Method:         method,
		Fields:         fields,
		RequiredFields: required,
		CSRFToken:      csrfToken,
		Complexity:     formComplexity(len(fields), len(required), complexCount),
		Friendliness:   formFriendliness(form, len(labels) > 0, hasPlaceholder),
		SourceURL:      pageURL,
		CreatedAt:      time.Now().UTC(),
	}
	f.ConfidenceScore = formConfidence(f, formText, hasEmailField, hasMessageField)
	return f
}

// isContactForm applies the three alternative tests: a contact keyword in
// the form text, two or more known contact field names, or the email plus
// message field combination.
func (e *FormExtractor) isContactForm(formText string, fields []string, hasEmail, hasMessage bool) bool {
	if containsAny(formText, domain.ContactKeywords) {
		return true
	}
	hits := 0
	for _, f := range fields {
		if contactFieldNames[strings.ToLower(f)] {
			hits++
		}
	}
	if hits >= 2 {
		return true
	}
	return hasEmail && hasMessage
}

// labelTexts maps label "for" targets to their text.
func labelTexts(form *goquery.Selection) map[string]string {
	labels := make(map[string]string)
	form.Find("label").Each(func(_ int, l *goquery.Selection) {
		text := normalize.CollapseWhitespace(l.Text())
		if target, ok := l.Attr("for"); ok && target != "" {
			labels[target] = text
		}
	})
	return labels
}

func isRequiredField(el *goquery.Selection, labels map[string]string) bool {
	if _, ok := el.Attr("required"); ok {
		return true
	}
	if strings.EqualFold(el.AttrOr("aria-required", ""), "true") {
		return true
	}
	if id, ok := el.Attr("id"); ok {
		if strings.Contains(labels[id], "*") {
			return true
		}
	}
	// wrapping <label>name *<input></label>
	if parent := el.ParentsFiltered("label").First(); parent.Length() > 0 {
		if strings.Contains(parent.Text(), "*") {
			return true
		}
	}
	return false
}

// formComplexity is the mean of three ratios: field count against ten,
// required share, and complex field types against three. Clamped to [0,1].
func formComplexity(fieldCount, requiredCount, complexCount int) float64 {
	if fieldCount == 0 {
		return 0
	}
	score := (clamp01(float64(fieldCount)/10) +
		clamp01(float64(requiredCount)/float64(fieldCount)) +
		clamp01(float64(complexCount)/3)) / 3
	return clamp01(score)
}

// formFriendliness starts at 0.5 and rewards labels, placeholders,
// fieldsets, and help text.
func formFriendliness(form *goquery.Selection, hasLabels, hasPlaceholder bool) float64 {
	score := 0.5
	if hasLabels || form.Find("label").Length() > 0 {
		score += 0.2
	}
	if hasPlaceholder {
		score += 0.1
	}
	if form.Find("fieldset").Length() > 0 {
		score += 0.1
	}
	if form.Find(".help, .hint, [class*=help], [class*=hint], small").Length() > 0 {
		score += 0.1
	}
	return clamp01(score)
}

func formConfidence(f *domain.ContactForm, formText string, hasEmail, hasMessage bool) float64 {
	score := 0.55
	if hasEmail {
		score += 0.10
	}
	if hasMessage {
		score += 0.10
	}
	for _, name := range f.Fields {
		if strings.EqualFold(name, "name") {
			score += 0.05
			break
		}
	}
	if f.Method == "POST" {
		score += 0.05
	}
	if f.CSRFToken != "" {
		score += 0.05
	}
	if containsAny(formText, domain.ContactKeywords) {
		score += 0.05
	}
	if score > 0.95 {
		score = 0.95
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
