package chi

import (
	"github.com/kailas-cloud/semindex/internal/domain"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/search/result"
	domusage "github.com/kailas-cloud/semindex/internal/domain/usage"
	documentuc "github.com/kailas-cloud/semindex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/semindex/internal/usecase/health"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query            string         `json:"query"`
	CollectionID     string         `json:"collectionId"`
	Limit            *int           `json:"limit,omitempty"`
	Threshold        *float64       `json:"threshold,omitempty"`
	Filters          map[string]any `json:"filters,omitempty"`
	Locale           string         `json:"locale,omitempty"`
	IncludeEmbedding bool           `json:"includeEmbedding,omitempty"`
}

// MultiSearchRequest is the body of POST /api/v1/search/multi.
type MultiSearchRequest struct {
	Query            string         `json:"query"`
	CollectionIDs    []string       `json:"collectionIds"`
	Limit            *int           `json:"limit,omitempty"`
	Threshold        *float64       `json:"threshold,omitempty"`
	Filters          map[string]any `json:"filters,omitempty"`
	Locale           string         `json:"locale,omitempty"`
	IncludeEmbedding bool           `json:"includeEmbedding,omitempty"`
	AggregateResults *bool          `json:"aggregateResults,omitempty"`
}

// ResultItem is one ranked document.
type ResultItem struct {
	ID         string                    `json:"id"`
	Score      float64                   `json:"score"`
	Collection string                    `json:"collectionId,omitempty"`
	Fields     map[string]any            `json:"fields"`
	Vector     []float32                 `json:"vector,omitempty"`
	Metadata   *domain.EmbeddingMetadata `json:"metadata,omitempty"`
}

// SearchMetadata describes how a result set was produced.
type SearchMetadata struct {
	Query          string   `json:"query"`
	CollectionID   string   `json:"collectionId"`
	Count          int      `json:"count"`
	Dimensions     int      `json:"dimensions"`
	FiltersApplied []string `json:"filtersApplied"`
	Limit          int      `json:"limit"`
	Threshold      float64  `json:"threshold"`
}

// SearchResponse is the body of a successful single-collection search.
type SearchResponse struct {
	Results  []ResultItem   `json:"results"`
	Metadata SearchMetadata `json:"metadata"`
}

// CollectionErrorItem reports one failed collection of a multi-search.
type CollectionErrorItem struct {
	CollectionID string `json:"collectionId"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// CollectionBlock is one collection's results in separate mode.
type CollectionBlock struct {
	CollectionID string               `json:"collectionId"`
	Results      []ResultItem         `json:"results"`
	Count        int                  `json:"count"`
	Error        *CollectionErrorItem `json:"error,omitempty"`
}

// MultiSearchResponse is the body of a multi-collection search. Results is
// always present in aggregated mode, Collections in separate mode.
type MultiSearchResponse struct {
	Query              string                `json:"query"`
	Aggregated         bool                  `json:"aggregated"`
	Results            *[]ResultItem         `json:"results,omitempty"`
	Collections        []CollectionBlock     `json:"collections,omitempty"`
	Errors             []CollectionErrorItem `json:"errors"`
	SuccessfulSearches int                   `json:"successfulSearches"`
	FailedSearches     int                   `json:"failedSearches"`
	Limit              int                   `json:"limit"`
	Threshold          float64               `json:"threshold"`
	Dimensions         int                   `json:"dimensions"`
}

// StatsItem is the embedding coverage of one collection.
type StatsItem struct {
	Total         int    `json:"total"`
	WithEmbedding int    `json:"withEmbedding"`
	Coverage      string `json:"coverage"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Collections map[string]StatsItem `json:"collections"`
}

// DocumentResponse is a stored document.
type DocumentResponse struct {
	ID           string                    `json:"id"`
	CollectionID string                    `json:"collectionId"`
	Fields       map[string]any            `json:"fields"`
	HasEmbedding bool                      `json:"hasEmbedding"`
	Vector       []float32                 `json:"vector,omitempty"`
	Metadata     *domain.EmbeddingMetadata `json:"metadata,omitempty"`
}

// ReindexResponse summarizes a reindex run. Error is set when the run stopped early.
type ReindexResponse struct {
	CollectionID string         `json:"collectionId"`
	Scanned      int            `json:"scanned"`
	Embedded     int            `json:"embedded"`
	Skipped      int            `json:"skipped"`
	Failed       int            `json:"failed"`
	Error        *ErrorResponse `json:"error,omitempty"`
}

// UsageResponse is the body of GET /api/v1/usage. TokensLimit 0 and
// TokensRemaining -1 mean no budget is configured.
type UsageResponse struct {
	Period          string `json:"period"`
	PeriodStart     int64  `json:"periodStart"`
	ResetsAt        int64  `json:"resetsAt"`
	TokensUsed      int64  `json:"tokensUsed"`
	TokensLimit     int64  `json:"tokensLimit"`
	TokensRemaining int64  `json:"tokensRemaining"`
	Exhausted       bool   `json:"exhausted"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Errors map[string]string `json:"errors,omitempty"`
}

func resultItem(s *result.Scored) ResultItem {
	doc := s.Document()
	item := ResultItem{
		ID:         doc.ID(),
		Score:      s.Score(),
		Collection: s.Collection(),
		Fields:     doc.Fields(),
		Vector:     doc.Vector(),
		Metadata:   doc.Metadata(),
	}
	if item.Fields == nil {
		item.Fields = map[string]any{}
	}
	return item
}

func resultItems(in []result.Scored) []ResultItem {
	out := make([]ResultItem, 0, len(in))
	for i := range in {
		out = append(out, resultItem(&in[i]))
	}
	return out
}

func searchResponse(r *result.Search) SearchResponse {
	applied := r.Metadata.FiltersApplied
	if applied == nil {
		applied = []string{}
	}
	return SearchResponse{
		Results: resultItems(r.Results),
		Metadata: SearchMetadata{
			Query:          r.Metadata.Query,
			CollectionID:   r.Metadata.CollectionID,
			Count:          r.Metadata.Count,
			Dimensions:     r.Metadata.Dimensions,
			FiltersApplied: applied,
			Limit:          r.Metadata.Limit,
			Threshold:      r.Metadata.Threshold,
		},
	}
}

func collectionErrorItem(e *result.CollectionError) CollectionErrorItem {
	return CollectionErrorItem{CollectionID: e.CollectionID, Code: string(e.Kind), Message: e.Message}
}

func multiSearchResponse(m *result.Multi) MultiSearchResponse {
	resp := MultiSearchResponse{
		Query:              m.Query,
		Aggregated:         m.Aggregated,
		Errors:             make([]CollectionErrorItem, 0, len(m.Errors)),
		SuccessfulSearches: m.Successful,
		FailedSearches:     m.Failed,
		Limit:              m.Limit,
		Threshold:          m.Threshold,
		Dimensions:         m.Dimensions,
	}
	for i := range m.Errors {
		resp.Errors = append(resp.Errors, collectionErrorItem(&m.Errors[i]))
	}

	if m.Aggregated {
		items := resultItems(m.Results)
		resp.Results = &items
		return resp
	}

	resp.Collections = make([]CollectionBlock, 0, len(m.Blocks))
	for i := range m.Blocks {
		b := &m.Blocks[i]
		block := CollectionBlock{
			CollectionID: b.CollectionID,
			Results:      resultItems(b.Results),
			Count:        b.Count,
		}
		if b.Err != nil {
			e := collectionErrorItem(b.Err)
			block.Error = &e
		}
		resp.Collections = append(resp.Collections, block)
	}
	return resp
}

func statsResponse(stats map[string]result.Stats) StatsResponse {
	resp := StatsResponse{Collections: make(map[string]StatsItem, len(stats))}
	for id, st := range stats {
		resp.Collections[id] = StatsItem{Total: st.Total, WithEmbedding: st.WithEmbedding, Coverage: st.Coverage}
	}
	return resp
}

func documentResponse(collectionID string, doc *domdoc.Document, includeEmbedding bool) DocumentResponse {
	resp := DocumentResponse{
		ID:           doc.ID(),
		CollectionID: collectionID,
		Fields:       doc.Fields(),
		HasEmbedding: doc.HasVector(),
	}
	if resp.Fields == nil {
		resp.Fields = map[string]any{}
	}
	if includeEmbedding {
		resp.Vector = doc.Vector()
		resp.Metadata = doc.Metadata()
	}
	return resp
}

func reindexResponse(r *documentuc.ReindexReport) ReindexResponse {
	return ReindexResponse{
		CollectionID: r.CollectionID,
		Scanned:      r.Scanned,
		Embedded:     r.Embedded,
		Skipped:      r.Skipped,
		Failed:       r.Failed,
	}
}

func healthResponse(r *healthuc.Report) HealthResponse {
	resp := HealthResponse{Status: string(r.Status), Checks: make(map[string]string, len(r.Checks))}
	for name, c := range r.Checks {
		resp.Checks[name] = string(c)
	}
	if len(r.Kinds) > 0 {
		resp.Errors = make(map[string]string, len(r.Kinds))
		for name, k := range r.Kinds {
			resp.Errors[name] = string(k)
		}
	}
	return resp
}

func usageResponse(r *domusage.Report) UsageResponse {
	return UsageResponse{
		Period:          string(r.Period()),
		PeriodStart:     r.Start().UnixMilli(),
		ResetsAt:        r.ResetsAt().UnixMilli(),
		TokensUsed:      r.Used(),
		TokensLimit:     r.Limit(),
		TokensRemaining: r.Remaining(),
		Exhausted:       r.Exhausted(),
	}
}
