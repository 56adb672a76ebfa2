package domain

import (
	"net"
	"regexp"
	"strings"
)

const maxEmailLength = 254

var (
	emailLocalPattern  = regexp.MustCompile(`^[A-Za-z0-9_%+\-](?:[A-Za-z0-9._%+\-]*[A-Za-z0-9_%+\-])?$`)
	emailDomainPattern = regexp.MustCompile(`^(?:[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?\.)+[A-Za-z]{2,}$`)
)

// CanonicalizeEmail lowercases and trims an email candidate. Mailto query
// strings must be stripped by the caller before canonicalization.
func CanonicalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidEmailSyntax checks the strict address shape: a 1-64 char local part
// that does not start or end with a dot, a dotted domain, a TLD of at least
// two letters, and a total length within the RFC bound.
func ValidEmailSyntax(email string) bool {
	if len(email) == 0 || len(email) > maxEmailLength {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	local, dom := email[:at], email[at+1:]
	if len(local) > 64 {
		return false
	}
	return emailLocalPattern.MatchString(local) && emailDomainPattern.MatchString(dom)
}

// EmailDomain returns the lowercased domain part, or "" when the value does
// not look like an address.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// IsRejectedEmailDomain reports whether the domain can never belong to a
// reachable business contact: localhost, raw IPs, single-label hosts,
// placeholder domains, and throwaway providers.
func IsRejectedEmailDomain(dom string) bool {
	dom = strings.ToLower(strings.TrimSuffix(dom, "."))
	if dom == "" || PlaceholderEmailDomains[dom] || ThrowawayEmailDomains[dom] {
		return true
	}
	if net.ParseIP(strings.Trim(dom, "[]")) != nil {
		return true
	}
	return !strings.Contains(dom, ".")
}

// TLD returns the last label of a domain, lowercased.
func TLD(dom string) string {
	i := strings.LastIndex(dom, ".")
	if i < 0 || i == len(dom)-1 {
		return ""
	}
	return strings.ToLower(dom[i+1:])
}

// HasSuspiciousTLD reports whether the domain sits on a TLD that hosts
// mostly disposable registrations. Suspicious TLDs lower the score but do
// not reject the contact.
func HasSuspiciousTLD(dom string) bool {
	return SuspiciousTLDs[TLD(dom)]
}
