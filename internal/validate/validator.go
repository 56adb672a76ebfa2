// Package validate checks contacts against external reality in three
// increasing levels: basic (syntax only), standard (DNS/MX for email, HEAD
// reachability for URLs), comprehensive (SMTP probe, GET content checks).
// Validators never fail with an error for bad input; they return a
// ValidationRecord with IsValid=false and the reasons listed.
package validate

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/metrics"
)

// Confidence assigned per evidence level.
const (
	confSyntaxStrict  = 0.90
	confSyntaxNormal  = 0.80
	confSyntaxLenient = 0.70
	confDNS           = 0.80
	confSMTP          = 0.95
	confReachability  = 0.85
)

// Resolver is the DNS surface the email validator needs. Satisfied by
// *net.Resolver; tests substitute a fake.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Prober performs the SMTP RCPT handshake against one MX host. It never
// sends message data.
type Prober interface {
	Probe(ctx context.Context, mxHost, from, to string) (code int, err error)
}

// Options tune the validator.
type Options struct {
	// RateLimit is the global minimum interval between external checks,
	// regardless of target. Zero disables the limiter (tests).
	RateLimit time.Duration

	// ProbeFrom is the MAIL FROM address of SMTP probes.
	ProbeFrom string

	// HTTPTimeout bounds reachability requests.
	HTTPTimeout time.Duration
}

// Validator validates single contacts and batches. Safe for concurrent use;
// concurrent external checks serialize through the global limiter.
type Validator struct {
	opts     Options
	resolver Resolver
	prober   Prober
	http     *http.Client
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// New builds a validator with live DNS, SMTP, and HTTP backends. metrics
// may be nil.
func New(opts Options, m *metrics.Metrics, log *zap.Logger) *Validator {
	v := NewWithBackends(opts, net.DefaultResolver, nil, nil, m, log)
	v.prober = &smtpProber{timeout: v.opts.HTTPTimeout}
	return v
}

// NewWithBackends builds a validator over explicit backends. Tests use this
// to avoid the live network. A nil prober disables SMTP probing.
func NewWithBackends(opts Options, resolver Resolver, prober Prober, httpClient *http.Client, m *metrics.Metrics, log *zap.Logger) *Validator {
	if opts.ProbeFrom == "" {
		opts.ProbeFrom = "validation@immoleads.example"
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.HTTPTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RateLimit), 1)
	}

	return &Validator{
		opts:     opts,
		resolver: resolver,
		prober:   prober,
		http:     httpClient,
		limiter:  limiter,
		metrics:  m,
		log:      log,
	}
}

// Validate runs one contact through the requested level. The contact is
// never mutated; the caller applies status changes from the record.
func (v *Validator) Validate(ctx context.Context, c *domain.Contact, level domain.ValidationLevel) *domain.ValidationRecord {
	start := time.Now()

	var rec *domain.ValidationRecord
	switch c.Method {
	case domain.MethodEmail, domain.MethodMailto:
		rec = v.validateEmail(ctx, c.Value, level)
	case domain.MethodPhone:
		rec = v.validatePhone(c.Value)
	case domain.MethodForm:
		rec = v.validateURL(ctx, c.Value, level, true)
	case domain.MethodWebsite:
		rec = v.validateURL(ctx, c.Value, level, false)
	case domain.MethodSocialMedia:
		rec = v.validateSocial(ctx, c.Value, level)
	default:
		rec = &domain.ValidationRecord{
			Method:          domain.ValidationSyntax,
			IsValid:         c.Value != "",
			ConfidenceScore: 0.5,
		}
	}

	rec.ContactID = c.ID
	rec.ValidatedAt = time.Now().UTC()
	v.metrics.ObserveValidation(string(rec.Method), rec.IsValid, time.Since(start))
	return rec
}

// wait honors the global min-interval limit before any external check.
// Syntax-only work never calls this.
func (v *Validator) wait(ctx context.Context) error {
	if v.limiter == nil {
		return nil
	}
	return v.limiter.Wait(ctx)
}

func newRecord(method domain.ValidationMethod, valid bool, confidence float64) *domain.ValidationRecord {
	return &domain.ValidationRecord{
		Method:          method,
		IsValid:         valid,
		ConfidenceScore: confidence,
		Metadata:        map[string]string{},
	}
}
