package validate

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/domain"
)

var (
	standardEmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`)
	lenientEmailPattern  = regexp.MustCompile(`^\S+@\S+$`)
)

// validateEmail walks syntax → DNS/MX → SMTP, stopping at the requested
// level or at the first hard failure. The value is never rewritten between
// stages.
func (v *Validator) validateEmail(ctx context.Context, email string, level domain.ValidationLevel) *domain.ValidationRecord {
	rec := v.emailSyntax(email)
	if !rec.IsValid || level == domain.LevelBasic {
		return rec
	}

	dom := domain.EmailDomain(email)
	mxHosts, dnsRec := v.emailDNS(ctx, dom, rec)
	if !dnsRec.IsValid || level == domain.LevelStandard {
		return dnsRec
	}

	return v.emailSMTP(ctx, email, dom, mxHosts, dnsRec)
}

// emailSyntax tries the strict, standard, and lenient patterns in order.
// Lenient-only matches stay valid but carry a warning.
func (v *Validator) emailSyntax(email string) *domain.ValidationRecord {
	dom := domain.EmailDomain(email)

	switch {
	case domain.ValidEmailSyntax(email):
		rec := newRecord(domain.ValidationSyntax, true, confSyntaxStrict)
		rec.Metadata["pattern"] = "strict"
		return v.checkDomainTables(rec, dom)
	case standardEmailPattern.MatchString(email):
		rec := newRecord(domain.ValidationSyntax, true, confSyntaxNormal)
		rec.Metadata["pattern"] = "standard"
		rec.Warnings = append(rec.Warnings, "address fails strict syntax; accepted by standard pattern")
		return v.checkDomainTables(rec, dom)
	case lenientEmailPattern.MatchString(email):
		rec := newRecord(domain.ValidationSyntax, true, confSyntaxLenient)
		rec.Metadata["pattern"] = "lenient"
		rec.Warnings = append(rec.Warnings, "address only matches the lenient pattern")
		return v.checkDomainTables(rec, dom)
	default:
		rec := newRecord(domain.ValidationSyntax, false, 0.1)
		rec.Errors = append(rec.Errors, "not an email address")
		return rec
	}
}

// checkDomainTables rejects throwaway and placeholder domains and warns on
// suspicious TLDs.
func (v *Validator) checkDomainTables(rec *domain.ValidationRecord, dom string) *domain.ValidationRecord {
	if domain.IsRejectedEmailDomain(dom) {
		rec.IsValid = false
		rec.ConfidenceScore = 0.1
		rec.Errors = append(rec.Errors, fmt.Sprintf("domain %q is disposable or a placeholder", dom))
		return rec
	}
	if domain.HasSuspiciousTLD(dom) {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("TLD of %q is commonly disposable", dom))
	}
	return rec
}

// emailDNS resolves MX records with A/AAAA fallback. Returns the MX hosts
// by ascending preference for the SMTP stage.
func (v *Validator) emailDNS(ctx context.Context, dom string, syntaxRec *domain.ValidationRecord) ([]string, *domain.ValidationRecord) {
	rec := newRecord(domain.ValidationDNS, true, confDNS)
	rec.Warnings = syntaxRec.Warnings

	if err := v.wait(ctx); err != nil {
		rec.IsValid = false
		rec.ConfidenceScore = 0.3
		rec.Errors = append(rec.Errors, "validation cancelled: "+err.Error())
		return nil, rec
	}

	mxs, err := v.resolver.LookupMX(ctx, dom)
	if err == nil && len(mxs) > 0 {
		sort.Slice(mxs, func(i, j int) bool { return mxs[i].Pref < mxs[j].Pref })
		hosts := make([]string, 0, len(mxs))
		for _, mx := range mxs {
			hosts = append(hosts, strings.TrimSuffix(mx.Host, "."))
		}
		rec.Metadata["mx"] = strings.Join(hosts, ",")
		return hosts, rec
	}

	// No MX: fall back to A/AAAA, as delivery would.
	if addrs, aerr := v.resolver.LookupHost(ctx, dom); aerr == nil && len(addrs) > 0 {
		rec.ConfidenceScore = 0.7
		rec.Metadata["fallback"] = "a_record"
		rec.Warnings = append(rec.Warnings, "no MX record; domain resolves via A/AAAA only")
		return []string{dom}, rec
	}

	rec.IsValid = false
	rec.ConfidenceScore = 0.2
	rec.Errors = append(rec.Errors, "no_mx: domain has neither MX nor address records")
	return nil, rec
}

// emailSMTP probes the best MX with RCPT TO. Blocked consumer providers
// skip the probe and keep the DNS verdict.
func (v *Validator) emailSMTP(ctx context.Context, email, dom string, mxHosts []string, dnsRec *domain.ValidationRecord) *domain.ValidationRecord {
	if domain.BlockedVerificationDomains[dom] {
		dnsRec.Metadata["smtp_probe"] = "skipped_blocked_provider"
		return dnsRec
	}
	if v.prober == nil || len(mxHosts) == 0 {
		dnsRec.Metadata["smtp_probe"] = "unavailable"
		return dnsRec
	}

	rec := newRecord(domain.ValidationSMTP, false, confSMTP)
	rec.Warnings = dnsRec.Warnings
	rec.Metadata["mx"] = mxHosts[0]

	if err := v.wait(ctx); err != nil {
		rec.ConfidenceScore = 0.3
		rec.Errors = append(rec.Errors, "validation cancelled: "+err.Error())
		return rec
	}

	code, err := v.prober.Probe(ctx, mxHosts[0], v.opts.ProbeFrom, email)
	if err != nil {
		// Tarpits and greylisting are common; keep the DNS verdict instead
		// of flagging the address.
		v.log.Debug("smtp probe inconclusive",
			zap.String("mx", mxHosts[0]),
			zap.Error(err))
		dnsRec.Metadata["smtp_probe"] = "inconclusive"
		dnsRec.Warnings = append(dnsRec.Warnings, "smtp probe inconclusive: "+err.Error())
		return dnsRec
	}

	rec.Metadata["smtp_code"] = fmt.Sprintf("%d", code)
	if code == 250 || code == 251 {
		rec.IsValid = true
		return rec
	}
	rec.ConfidenceScore = 0.2
	rec.Errors = append(rec.Errors, fmt.Sprintf("mailbox rejected by server (code %d)", code))
	return rec
}
