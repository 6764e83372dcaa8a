// Package chi exposes the search and document services over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/search/filter"
	"github.com/kailas-cloud/semindex/internal/domain/search/query"
	domusage "github.com/kailas-cloud/semindex/internal/domain/usage"
	"github.com/kailas-cloud/semindex/internal/metrics"
	"github.com/kailas-cloud/semindex/internal/usecase/autoindex"
	healthuc "github.com/kailas-cloud/semindex/internal/usecase/health"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 1 << 20

// Server implements the HTTP handlers.
type Server struct {
	search        SearchService
	documents     DocumentService
	health        HealthService
	usage         UsageService
	errorHandlers []errorHandler
	logger        *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	search SearchService, documents DocumentService, health HealthService, usage UsageService, logger *zap.Logger,
) *Server {
	return &Server{
		search:        search,
		documents:     documents,
		health:        health,
		usage:         usage,
		errorHandlers: defaultErrorHandlers(),
		logger:        logger,
	}
}

// Router builds the full middleware chain and route table. An empty
// apiKeys list disables authentication.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(JSONRecoverer(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/search/multi", s.MultiSearch)
		r.Get("/stats", s.Stats)
		r.Get("/usage", s.Usage)
		r.Route("/collections/{collection}", func(r chi.Router) {
			r.Use(collectionScope)
			r.Post("/documents", s.CreateDocument)
			r.Put("/documents/{id}", s.UpsertDocument)
			r.Get("/documents/{id}", s.GetDocument)
			r.Post("/reindex", s.Reindex)
		})
	})
	return r
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	q, err := query.NewSingle(req.Query, req.CollectionID, query.Params{
		Limit:            derefInt(req.Limit),
		Threshold:        req.Threshold,
		Filter:           filter.Filter(req.Filters),
		Locale:           req.Locale,
		IncludeEmbedding: req.IncludeEmbedding,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.search.Search(ctx, q)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse(&res))
}

// MultiSearch handles POST /api/v1/search/multi. Per-collection failures are
// reported in the body; the status is 200 unless the shared query failed.
func (s *Server) MultiSearch(w http.ResponseWriter, r *http.Request) {
	var req MultiSearchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	q, err := query.NewMulti(req.Query, req.CollectionIDs, query.Params{
		Limit:            derefInt(req.Limit),
		Threshold:        req.Threshold,
		Filter:           filter.Filter(req.Filters),
		Locale:           req.Locale,
		IncludeEmbedding: req.IncludeEmbedding,
	}, req.AggregateResults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.search.MultiSearch(ctx, q)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, multiSearchResponse(&res))
}

// Stats handles GET /api/v1/stats?collectionId=.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	var collectionID *string
	if err := runtime.BindQueryParameter("form", true, false, "collectionId", r.URL.Query(), &collectionID); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("invalid collectionId: %v", err))
		return
	}

	stats, err := s.search.Stats(r.Context(), derefString(collectionID))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse(stats))
}

// Usage handles GET /api/v1/usage.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	var period *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &period); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("invalid period: %v", err))
		return
	}
	p, err := domusage.ParsePeriod(derefString(period))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	report := s.usage.GetReport(r.Context(), p)
	writeJSON(w, http.StatusOK, usageResponse(&report))
}

// UpsertDocument handles PUT /api/v1/collections/{collection}/documents/{id}.
func (s *Server) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !s.decodeJSON(w, r, &fields) {
		return
	}
	collectionID := chi.URLParam(r, "collection")

	ctx, usage := writeContext(r)
	doc, created, err := s.documents.Upsert(ctx, collectionID, chi.URLParam(r, "id"), fields)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, documentResponse(collectionID, &doc, false))
}

// CreateDocument handles POST /api/v1/collections/{collection}/documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !s.decodeJSON(w, r, &fields) {
		return
	}
	collectionID := chi.URLParam(r, "collection")

	ctx, usage := writeContext(r)
	doc, err := s.documents.Create(ctx, collectionID, fields)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentResponse(collectionID, &doc, false))
}

// GetDocument handles GET /api/v1/collections/{collection}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	var includeEmbedding *bool
	if err := runtime.BindQueryParameter("form", true, false, "includeEmbedding", r.URL.Query(), &includeEmbedding); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("invalid includeEmbedding: %v", err))
		return
	}
	collectionID := chi.URLParam(r, "collection")

	doc, err := s.documents.Get(r.Context(), collectionID, chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(collectionID, &doc, derefBool(includeEmbedding)))
}

// Reindex handles POST /api/v1/collections/{collection}/reindex. A run that
// stops early still reports its counters next to the error.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.documents.Reindex(ctx, chi.URLParam(r, "collection"))
	setEmbeddingHeaders(w, usage)
	if err != nil && report.Scanned == 0 {
		s.handleDomainError(w, r, err)
		return
	}

	resp := reindexResponse(&report)
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		resp.Error = &ErrorResponse{Code: string(domain.KindOf(err)), Message: domain.SafeMessage(err)}
		s.logger.Warn("reindex stopped early",
			zap.String("collection", report.CollectionID),
			zap.Int("embedded", report.Embedded),
			zap.Int("failed", report.Failed),
			zap.Error(err),
		)
	}
	writeJSON(w, status, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse(&report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// writeContext scopes one provider-failure breaker and one usage counter to a
// write request.
func writeContext(r *http.Request) (context.Context, *domain.EmbeddingUsage) {
	return domain.NewContextWithUsage(autoindex.WithCycle(r.Context()))
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if tokens, used := usage.Snapshot(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefBool(p *bool) bool {
	return p != nil && *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
