// Package query holds validated search requests.
package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes. It sits well
	// above the normalizer cut, so long queries are truncated rather than refused.
	MaxQueryLength   = 64 << 10
	DefaultLimit     = 10
	MaxLimit         = 50
	DefaultThreshold = 0.1
	// MaxCollections bounds the fan-out of one multi-collection search.
	MaxCollections = 32
)

// Params are the caller-supplied knobs shared by single and multi search.
// Zero Limit and nil Threshold select the defaults.
type Params struct {
	Limit            int
	Threshold        *float64
	Filter           filter.Filter
	Locale           string
	IncludeEmbedding bool
}

// Single is a validated single-collection search.
type Single struct {
	text         string
	collectionID string
	params       resolved
}

// Multi is a validated multi-collection search.
type Multi struct {
	text          string
	collectionIDs []string
	params        resolved
	aggregate     bool
}

type resolved struct {
	limit            int
	threshold        float64
	filter           filter.Filter
	locale           string
	includeEmbedding bool
}

// NewSingle validates a single-collection search.
func NewSingle(text, collectionID string, p Params) (Single, error) {
	if err := validateText(text); err != nil {
		return Single{}, err
	}
	if strings.TrimSpace(collectionID) == "" {
		return Single{}, fmt.Errorf("collectionId is required: %w", domain.ErrInvalidInput)
	}
	r, err := resolve(p)
	if err != nil {
		return Single{}, err
	}
	return Single{text: text, collectionID: collectionID, params: r}, nil
}

// NewMulti validates a multi-collection search. A nil aggregate means true.
// Duplicate collection ids are collapsed, first occurrence wins.
func NewMulti(text string, collectionIDs []string, p Params, aggregate *bool) (Multi, error) {
	if err := validateText(text); err != nil {
		return Multi{}, err
	}
	ids := make([]string, 0, len(collectionIDs))
	seen := make(map[string]bool, len(collectionIDs))
	for _, id := range collectionIDs {
		if strings.TrimSpace(id) == "" {
			return Multi{}, fmt.Errorf("collectionIds must not contain empty values: %w", domain.ErrInvalidInput)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return Multi{}, fmt.Errorf("collectionIds is required: %w", domain.ErrInvalidInput)
	}
	if len(ids) > MaxCollections {
		return Multi{}, fmt.Errorf("too many collections (max %d): %w", MaxCollections, domain.ErrInvalidInput)
	}
	r, err := resolve(p)
	if err != nil {
		return Multi{}, err
	}
	agg := true
	if aggregate != nil {
		agg = *aggregate
	}
	return Multi{text: text, collectionIDs: ids, params: r, aggregate: agg}, nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}
	if len(text) > MaxQueryLength {
		return fmt.Errorf("query too long (max %d bytes): %w", MaxQueryLength, domain.ErrInvalidInput)
	}
	return nil
}

func resolve(p Params) (resolved, error) {
	limit := p.Limit
	switch {
	case limit < 0:
		return resolved{}, fmt.Errorf("limit must be positive: %w", domain.ErrInvalidInput)
	case limit == 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		return resolved{}, fmt.Errorf("limit must be at most %d: %w", MaxLimit, domain.ErrInvalidInput)
	}

	threshold := DefaultThreshold
	if p.Threshold != nil {
		threshold = *p.Threshold
		if threshold < -1 || threshold > 1 {
			return resolved{}, fmt.Errorf("threshold must be between -1 and 1: %w", domain.ErrInvalidInput)
		}
	}

	return resolved{
		limit:            limit,
		threshold:        threshold,
		filter:           p.Filter,
		locale:           p.Locale,
		includeEmbedding: p.IncludeEmbedding,
	}, nil
}

// Text returns the query text.
func (q *Single) Text() string { return q.text }

// CollectionID returns the target collection.
func (q *Single) CollectionID() string { return q.collectionID }

// Limit returns the maximum number of results.
func (q *Single) Limit() int { return q.params.limit }

// Threshold returns the minimum accepted score.
func (q *Single) Threshold() float64 { return q.params.threshold }

// Filter returns the caller filter, without the embedding predicate.
func (q *Single) Filter() filter.Filter { return q.params.filter }

// Locale returns the requested locale.
func (q *Single) Locale() string { return q.params.locale }

// IncludeEmbedding reports whether vector and metadata stay on results.
func (q *Single) IncludeEmbedding() bool { return q.params.includeEmbedding }

// Text returns the query text.
func (q *Multi) Text() string { return q.text }

// CollectionIDs returns the target collections in request order.
func (q *Multi) CollectionIDs() []string { return q.collectionIDs }

// Limit returns the global result limit.
func (q *Multi) Limit() int { return q.params.limit }

// Threshold returns the minimum accepted score.
func (q *Multi) Threshold() float64 { return q.params.threshold }

// Filter returns the caller filter applied to every collection.
func (q *Multi) Filter() filter.Filter { return q.params.filter }

// Locale returns the requested locale.
func (q *Multi) Locale() string { return q.params.locale }

// IncludeEmbedding reports whether vector and metadata stay on results.
func (q *Multi) IncludeEmbedding() bool { return q.params.includeEmbedding }

// Aggregate reports whether results are merged into one ranked list.
func (q *Multi) Aggregate() bool { return q.aggregate }

// ForCollection derives the per-collection sub-search with the given limit.
// The limit may exceed MaxLimit (over-fetch for aggregation).
func (q *Multi) ForCollection(collectionID string, limit int) Single {
	p := q.params
	p.limit = limit
	return Single{text: q.text, collectionID: collectionID, params: p}
}
