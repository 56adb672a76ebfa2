package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/cache"
	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/engine"
	"github.com/immoleads/contact-discovery/internal/pkg/httputil"
	"github.com/immoleads/contact-discovery/internal/service/contacts"
	"github.com/immoleads/contact-discovery/internal/validate"
)

// Engine is the discovery surface the handlers need.
type Engine interface {
	Discover(ctx context.Context, url string, opts domain.DiscoveryOptions) (*domain.ExtractionResult, error)
	DiscoverBatch(ctx context.Context, urls []string, opts domain.DiscoveryOptions) []*domain.ExtractionResult
	Stats() engine.Stats
}

// Validator validates a single contact on demand.
type Validator interface {
	Validate(ctx context.Context, c *domain.Contact, level domain.ValidationLevel) *domain.ValidationRecord
}

// Handlers carries the handler dependencies.
type Handlers struct {
	engine    Engine
	svc       *contacts.Service
	validator Validator
	cache     cache.Cache
	log       *zap.Logger
	startTime time.Time
}

// DiscoverRequest is the body of POST /api/discover. Exactly one of URL and
// URLs must be set.
type DiscoverRequest struct {
	URL     string                  `json:"url,omitempty"`
	URLs    []string                `json:"urls,omitempty"`
	Options domain.DiscoveryOptions `json:"options"`
	Listing *struct {
		URL   string `json:"url"`
		Title string `json:"title,omitempty"`
	} `json:"listing,omitempty"`
	Store bool `json:"store"`
}

// DiscoverResponse wraps one or many extraction results.
type DiscoverResponse struct {
	Results []*domain.ExtractionResult `json:"results"`
	Stored  []*contacts.SaveOutcome    `json:"stored,omitempty"`
}

// Discover runs discovery for one URL or a batch.
//
//	POST /api/discover
func (h *Handlers) Discover(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if (req.URL == "") == (len(req.URLs) == 0) {
		httputil.BadRequest(w, "exactly one of url and urls must be given")
		return
	}

	var results []*domain.ExtractionResult
	if req.URL != "" {
		result, err := h.engine.Discover(r.Context(), req.URL, req.Options)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		results = []*domain.ExtractionResult{result}
	} else {
		results = h.engine.DiscoverBatch(r.Context(), req.URLs, req.Options)
	}

	resp := DiscoverResponse{Results: results}
	if req.Store && h.svc != nil {
		var listing *domain.Listing
		if req.Listing != nil && req.Listing.URL != "" {
			listing = &domain.Listing{URL: req.Listing.URL, Title: req.Listing.Title}
		}
		for _, result := range results {
			if result.Error != "" {
				resp.Stored = append(resp.Stored, &contacts.SaveOutcome{})
				continue
			}
			outcome, err := h.svc.StoreResult(r.Context(), listing, result)
			if err != nil {
				httputil.InternalError(w, err)
				return
			}
			resp.Stored = append(resp.Stored, outcome)
		}
	}
	httputil.OK(w, resp)
}

// ListContacts returns stored contacts with filtering and pagination.
//
//	GET /api/contacts
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "no contact store configured")
		return
	}

	q := r.URL.Query()
	filter := contacts.ListFilter{
		Method:    q.Get("method"),
		Status:    q.Get("status"),
		ListingID: q.Get("listing_id"),
		Search:    q.Get("search"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	if v := q.Get("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.BadRequest(w, "min_confidence must be a number")
			return
		}
		filter.MinConfidence = f
	}

	list, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"contacts": list,
		"total":    total,
	})
}

// GetContact returns one contact with its validation history.
//
//	GET /api/contacts/{id}
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "no contact store configured")
		return
	}
	id := chi.URLParam(r, "id")

	c, err := h.svc.Get(r.Context(), id)
	if err == contacts.ErrNotFound {
		httputil.NotFound(w, "contact not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	history, err := h.svc.Validations(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"contact":     c,
		"validations": history,
	})
}

// ValidateContact validates a stored contact at the requested level and
// records the outcome.
//
//	POST /api/contacts/{id}/validate
func (h *Handlers) ValidateContact(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil || h.validator == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "validation not configured")
		return
	}

	var req struct {
		Level domain.ValidationLevel `json:"level"`
	}
	if r.ContentLength > 0 && !httputil.Decode(w, r, &req) {
		return
	}
	switch req.Level {
	case "":
		req.Level = domain.LevelStandard
	case domain.LevelBasic, domain.LevelStandard, domain.LevelComprehensive:
	default:
		httputil.BadRequest(w, "level must be basic, standard, or comprehensive")
		return
	}

	id := chi.URLParam(r, "id")
	c, err := h.svc.Get(r.Context(), id)
	if err == contacts.ErrNotFound {
		httputil.NotFound(w, "contact not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	rec := h.validator.Validate(r.Context(), c, req.Level)
	status := validate.StatusFromRecord(rec)
	if err := h.svc.RecordValidation(r.Context(), rec, status); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"record": rec,
		"status": status,
	})
}

// Stats reports store aggregates and engine counters.
//
//	GET /api/stats
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"engine": h.engine.Stats(),
	}
	if h.svc != nil {
		stats, err := h.svc.Statistics(r.Context())
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		resp["store"] = stats
	}
	httputil.OK(w, resp)
}

// Cleanup removes contacts older than the given retention.
//
//	POST /api/cleanup
func (h *Handlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "no contact store configured")
		return
	}

	var req struct {
		RetentionDays int `json:"retention_days"`
		BatchSize     int `json:"batch_size"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.RetentionDays <= 0 {
		httputil.BadRequest(w, "retention_days must be positive")
		return
	}

	n, err := h.svc.Cleanup(r.Context(), time.Duration(req.RetentionDays)*24*time.Hour, req.BatchSize)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"contacts_removed": n})
}

// PurgeCache drops every cached discovery result.
//
//	POST /api/cache/purge
func (h *Handlers) PurgeCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "no cache configured")
		return
	}
	if err := h.cache.Purge(r.Context()); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"purged": true})
}

// Health reports liveness.
//
//	GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "healthy",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}
