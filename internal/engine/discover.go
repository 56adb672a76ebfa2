package engine

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/immoleads/contact-discovery/internal/cache"
	"github.com/immoleads/contact-discovery/internal/crawl"
	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/extract"
	"github.com/immoleads/contact-discovery/internal/validate"
)

// Discover runs the full pipeline for one URL. Invalid input is the only
// error path; network trouble during the run produces a result with Error
// set so batch callers never lose entries.
func (e *Engine) Discover(ctx context.Context, rawURL string, opts domain.DiscoveryOptions) (*domain.ExtractionResult, error) {
	start := time.Now()

	dctx, runOpts, err := e.buildContext(rawURL, opts)
	if err != nil {
		return nil, err
	}

	key := cache.Key{URL: dctx.SeedURL, Language: dctx.Language, Crawling: enabled(runOpts.EnableCrawling)}
	if e.cache != nil {
		cached, ok, cerr := e.cache.Get(ctx, key)
		if cerr != nil {
			e.log.Warn("cache read failed", zap.String("url", dctx.SeedURL), zap.Error(cerr))
		} else if ok {
			if e.metrics != nil {
				e.metrics.CacheHits.Inc()
			}
			e.recordRun(cached, nil, true)
			return cached, nil
		}
		if e.metrics != nil {
			e.metrics.CacheMisses.Inc()
		}
	}

	result, crawlStats := e.run(ctx, dctx, runOpts)
	result.Elapsed = time.Since(start)

	if e.metrics != nil {
		e.metrics.DiscoverDuration.Observe(result.Elapsed.Seconds())
		for _, c := range result.Contacts {
			e.metrics.ContactsExtracted.WithLabelValues(string(c.Method)).Inc()
		}
		e.metrics.FormsExtracted.Add(float64(len(result.Forms)))
	}

	if e.cache != nil && result.Error == "" {
		if cerr := e.cache.Set(ctx, key, result); cerr != nil {
			e.log.Warn("cache write failed", zap.String("url", dctx.SeedURL), zap.Error(cerr))
		}
	}

	e.recordRun(result, crawlStats, false)
	e.log.Info("discovery finished",
		zap.String("url", dctx.SeedURL),
		zap.Int("contacts", len(result.Contacts)),
		zap.Int("forms", len(result.Forms)),
		zap.Duration("elapsed", result.Elapsed),
		zap.String("error", result.Error))
	return result, nil
}

// run executes extraction and post-processing for an already validated
// context.
func (e *Engine) run(ctx context.Context, dctx *domain.DiscoveryContext, opts *domain.DiscoveryOptions) (*domain.ExtractionResult, *crawl.Stats) {
	result := &domain.ExtractionResult{
		SourceURL: dctx.SeedURL,
		Metadata:  map[string]string{},
	}

	var (
		contacts   []*domain.Contact
		forms      []*domain.ContactForm
		profiles   []*domain.SocialMediaProfile
		crawlStats *crawl.Stats
	)

	onPage := func(ctx context.Context, page *extract.Page, path []string) {
		for _, ex := range e.extractors {
			if !dctx.ExtractorEnabled(ex.Kind()) {
				continue
			}
			for _, c := range ex.Extract(ctx, page, dctx) {
				if len(c.DiscoveryPath) == 0 {
					c.DiscoveryPath = path
				}
				contacts = append(contacts, c)
			}
			switch typed := ex.(type) {
			case *extract.FormExtractor:
				forms = append(forms, typed.ExtractForms(ctx, page, dctx)...)
			case *extract.SocialExtractor:
				profiles = append(profiles, typed.ExtractProfiles(ctx, page, dctx)...)
			}
		}
	}

	if enabled(opts.EnableCrawling) {
		crawlStats = e.crawler.Run(ctx, dctx, onPage)
		result.Metadata["pages_visited"] = strconv.Itoa(crawlStats.PagesVisited)
		result.Metadata["pages_failed"] = strconv.Itoa(crawlStats.PagesFailed)
		result.Metadata["robots_blocked"] = strconv.Itoa(crawlStats.RobotsBlocked)
		if crawlStats.PagesVisited == 0 {
			if crawlStats.RobotsBlocked > 0 {
				result.Error = "seed blocked by robots.txt"
			} else {
				result.Error = "no page could be fetched"
			}
			return result, crawlStats
		}
	} else {
		res, err := e.fetcher.Fetch(ctx, dctx.SeedURL, dctx)
		if err != nil {
			result.Error = err.Error()
			return result, nil
		}
		page, err := extract.NewPage(res.FinalURL, res.Body)
		if err != nil {
			result.Error = fmt.Sprintf("parsing page: %v", err)
			return result, nil
		}
		onPage(ctx, page, []string{res.FinalURL})
	}

	contacts = dedupeContacts(contacts)
	result.Forms = dedupeForms(forms)
	result.SocialProfiles = dedupeProfiles(profiles)

	e.scorer.ScoreAll(contacts, dctx)

	if enabled(opts.EnableValidation) && e.validator != nil {
		records, summary := e.validator.ValidateBatch(ctx, contacts, e.opts.ValidationLevel)
		for i, rec := range records {
			contacts[i].VerificationStatus = validate.StatusFromRecord(rec)
			at := rec.ValidatedAt
			contacts[i].ValidatedAt = &at
		}
		// Verification changed an input factor; scores may only rise.
		e.scorer.ScoreAll(contacts, dctx)
		result.Metadata["validation_success_rate"] = fmt.Sprintf("%.2f", summary.SuccessRate)
	}

	minScore := domain.MinScoreForLevel(dctx.ConfidenceThreshold)
	for _, c := range contacts {
		if c.ConfidenceScore >= minScore {
			result.Contacts = append(result.Contacts, c)
		}
	}
	sort.SliceStable(result.Contacts, func(i, j int) bool {
		return result.Contacts[i].ConfidenceScore > result.Contacts[j].ConfidenceScore
	})
	return result, crawlStats
}

// buildContext validates the seed URL and folds request options over the
// engine defaults into the immutable per-run context.
func (e *Engine) buildContext(rawURL string, opts domain.DiscoveryOptions) (*domain.DiscoveryContext, *domain.DiscoveryOptions, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, nil, fmt.Errorf("invalid url %q: not an absolute http(s) url", rawURL)
	}

	defaults := e.opts.Defaults
	merged := opts
	merged.EnableCrawling = resolveFlag(opts.EnableCrawling, defaults.EnableCrawling, false)
	merged.EnableValidation = resolveFlag(opts.EnableValidation, defaults.EnableValidation, false)
	merged.RespectRobots = resolveFlag(opts.RespectRobots, defaults.RespectRobots, false)
	if merged.Language == "" {
		merged.Language = defaults.Language
	}
	if merged.Language == "" {
		merged.Language = "de"
	}
	if merged.CulturalContext == "" {
		merged.CulturalContext = defaults.CulturalContext
	}
	if merged.CulturalContext == "" {
		merged.CulturalContext = "german"
	}
	if merged.MaxDepth <= 0 {
		merged.MaxDepth = defaults.MaxDepth
	}
	if merged.MaxDepth <= 0 {
		merged.MaxDepth = 2
	}
	if merged.Timeout <= 0 {
		merged.Timeout = defaults.Timeout
	}
	if merged.UserAgent == "" {
		merged.UserAgent = defaults.UserAgent
	}
	if len(merged.Methods) == 0 {
		merged.Methods = defaults.Methods
	}
	if len(merged.Methods) == 0 {
		merged.Methods = domain.DefaultExtractors
	}
	if merged.ConfidenceThreshold == "" {
		merged.ConfidenceThreshold = defaults.ConfidenceThreshold
	}

	host := u.Hostname()
	registered, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// IPs and exotic hosts fall back to exact-host matching.
		registered = host
	}

	maxDepth := merged.MaxDepth
	if !enabled(merged.EnableCrawling) {
		maxDepth = 0
	}

	return &domain.DiscoveryContext{
		SeedURL:             u.String(),
		RegisteredDomain:    registered,
		AllowedDomains:      []string{registered},
		MaxDepth:            maxDepth,
		RespectRobots:       enabled(merged.RespectRobots),
		Timeout:             merged.Timeout,
		UserAgent:           merged.UserAgent,
		Language:            merged.Language,
		CulturalContext:     merged.CulturalContext,
		EnabledExtractors:   merged.Methods,
		ConfidenceThreshold: merged.ConfidenceThreshold,
	}, &merged, nil
}

// resolveFlag folds a tri-state request flag over the engine default: the
// request wins when set, then the default, then the fallback. The result is
// always non-nil so downstream code reads a settled value.
func resolveFlag(req, def *bool, fallback bool) *bool {
	switch {
	case req != nil:
		return domain.Bool(*req)
	case def != nil:
		return domain.Bool(*def)
	default:
		return domain.Bool(fallback)
	}
}

// enabled reads a tri-state flag, treating nil as false.
func enabled(v *bool) bool { return v != nil && *v }

// dedupeContacts collapses duplicates on (method, value) across pages,
// keeping the highest confidence and folding metadata together.
func dedupeContacts(contacts []*domain.Contact) []*domain.Contact {
	seen := make(map[string]*domain.Contact, len(contacts))
	out := make([]*domain.Contact, 0, len(contacts))
	for _, c := range contacts {
		key := string(c.Method) + "|" + c.Value
		prev, ok := seen[key]
		if !ok {
			seen[key] = c
			out = append(out, c)
			continue
		}
		if c.ConfidenceScore > prev.ConfidenceScore {
			prev.ConfidenceScore = c.ConfidenceScore
			prev.ExtractionMethod = c.ExtractionMethod
			prev.SourceURL = c.SourceURL
		}
		prev.MergeMetadata(c.Metadata)
	}
	return out
}

func dedupeForms(forms []*domain.ContactForm) []*domain.ContactForm {
	seen := make(map[string]bool, len(forms))
	out := make([]*domain.ContactForm, 0, len(forms))
	for _, f := range forms {
		if seen[f.ActionURL] {
			continue
		}
		seen[f.ActionURL] = true
		out = append(out, f)
	}
	return out
}

func dedupeProfiles(profiles []*domain.SocialMediaProfile) []*domain.SocialMediaProfile {
	seen := make(map[string]bool, len(profiles))
	out := make([]*domain.SocialMediaProfile, 0, len(profiles))
	for _, p := range profiles {
		key := string(p.Platform) + "|" + p.Username
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
