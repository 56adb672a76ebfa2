package validate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// maxProbeBytes caps a comprehensive GET; we only need enough to find a
// form element or confirm the content type.
const maxProbeBytes = 256 << 10

// validateURL checks form and website contacts. Basic stops at URL syntax;
// standard adds a HEAD reachability check; comprehensive GETs the page and,
// for forms, verifies a form element is present.
func (v *Validator) validateURL(ctx context.Context, value string, level domain.ValidationLevel, expectForm bool) *domain.ValidationRecord {
	rec := newRecord(domain.ValidationSyntax, false, 0.2)

	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		rec.Errors = append(rec.Errors, "not an http(s) URL")
		return rec
	}
	rec.IsValid = true
	rec.ConfidenceScore = confSyntaxNormal
	if level == domain.LevelBasic {
		return rec
	}

	rec = newRecord(domain.ValidationReachability, false, confReachability)
	if err := v.wait(ctx); err != nil {
		rec.ConfidenceScore = 0.3
		rec.Errors = append(rec.Errors, "validation cancelled: "+err.Error())
		return rec
	}

	status, err := v.head(ctx, value)
	if err != nil {
		rec.ConfidenceScore = 0.3
		rec.Errors = append(rec.Errors, "unreachable: "+err.Error())
		return rec
	}
	rec.Metadata["status"] = fmt.Sprintf("%d", status)
	if status >= 400 {
		rec.ConfidenceScore = 0.2
		rec.Errors = append(rec.Errors, fmt.Sprintf("target returned status %d", status))
		return rec
	}
	rec.IsValid = true
	if level == domain.LevelStandard {
		return rec
	}

	// Comprehensive: fetch content and verify it matches the contact kind.
	body, contentType, err := v.get(ctx, value)
	if err != nil {
		rec.Warnings = append(rec.Warnings, "content check failed: "+err.Error())
		return rec
	}
	rec.Metadata["content_type"] = contentType
	if expectForm {
		if !strings.Contains(strings.ToLower(body), "<form") {
			rec.IsValid = false
			rec.ConfidenceScore = 0.4
			rec.Errors = append(rec.Errors, "page no longer contains a form element")
			return rec
		}
		rec.ConfidenceScore = 0.9
	} else if !strings.Contains(contentType, "text/html") && contentType != "" {
		rec.Warnings = append(rec.Warnings, "unexpected content type "+contentType)
	}
	return rec
}

// validateSocial HEADs the profile URL. A 404 is a hard invalid; other 4xx
// statuses only warn, because most platforms reject logged-out HEADs.
// Comprehensive additionally GETs the page and looks for the handle, since
// platforms tend to soft-404 dead profiles with a 200.
func (v *Validator) validateSocial(ctx context.Context, value string, level domain.ValidationLevel) *domain.ValidationRecord {
	rec := newRecord(domain.ValidationSyntax, false, 0.2)

	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		rec.Errors = append(rec.Errors, "not an http(s) URL")
		return rec
	}
	rec.IsValid = true
	rec.ConfidenceScore = confSyntaxNormal
	if level == domain.LevelBasic {
		return rec
	}

	rec = newRecord(domain.ValidationReachability, true, confReachability)
	if err := v.wait(ctx); err != nil {
		rec.IsValid = false
		rec.ConfidenceScore = 0.3
		rec.Errors = append(rec.Errors, "validation cancelled: "+err.Error())
		return rec
	}

	status, err := v.head(ctx, value)
	if err != nil {
		rec.Warnings = append(rec.Warnings, "profile unreachable: "+err.Error())
		rec.ConfidenceScore = 0.5
		return rec
	}
	rec.Metadata["status"] = fmt.Sprintf("%d", status)
	switch {
	case status == http.StatusNotFound:
		rec.IsValid = false
		rec.ConfidenceScore = 0.2
		rec.Errors = append(rec.Errors, "profile does not exist (404)")
		return rec
	case status >= 400:
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("platform returned %d to anonymous HEAD", status))
		rec.ConfidenceScore = 0.6
		return rec
	}
	if level == domain.LevelStandard {
		return rec
	}

	body, _, err := v.get(ctx, value)
	if err != nil {
		rec.Warnings = append(rec.Warnings, "content check failed: "+err.Error())
		return rec
	}
	handle := strings.ToLower(path.Base(u.Path))
	if handle == "" || handle == "/" || handle == "." {
		return rec
	}
	if strings.Contains(strings.ToLower(body), handle) {
		rec.ConfidenceScore = 0.85
	} else {
		rec.ConfidenceScore = 0.5
		rec.Warnings = append(rec.Warnings, "profile page does not mention "+handle)
	}
	return rec
}

func (v *Validator) head(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (v *Validator) get(ctx context.Context, target string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBytes))
	if err != nil {
		return "", "", err
	}
	return string(body), resp.Header.Get("Content-Type"), nil
}
