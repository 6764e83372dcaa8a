package result

import (
	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/document"
)

// Scored is a single search hit. Never persisted.
type Scored struct {
	doc        document.Document
	score      float64
	collection string
}

// NewScored creates a hit without an origin collection.
func NewScored(doc document.Document, score float64) Scored {
	return Scored{doc: doc, score: score}
}

// Document returns the matched document.
func (s *Scored) Document() document.Document { return s.doc }

// Score returns the cosine score in [-1, 1].
func (s *Scored) Score() float64 { return s.score }

// Collection returns the origin collection (set by multi-collection search).
func (s *Scored) Collection() string { return s.collection }

// WithCollection returns a copy tagged with its origin collection.
func (s *Scored) WithCollection(id string) Scored {
	return Scored{doc: s.doc, score: s.score, collection: id}
}

// WithoutEmbedding returns a copy whose document has vector and metadata stripped.
func (s *Scored) WithoutEmbedding() Scored {
	return Scored{doc: s.doc.WithoutEmbedding(), score: s.score, collection: s.collection}
}

// Metadata describes how a single-collection result set was produced.
type Metadata struct {
	Query          string
	CollectionID   string
	Count          int
	Dimensions     int
	FiltersApplied []string
	Limit          int
	Threshold      float64
	// Candidates is the number of stored documents scanned.
	Candidates int
}

// Search is the outcome of a single-collection search.
type Search struct {
	Results  []Scored
	Metadata Metadata
}

// CollectionError records a failed per-collection sub-search.
type CollectionError struct {
	CollectionID string
	Kind         domain.Kind
	Message      string
}

// Block is one collection's outcome in separate mode.
type Block struct {
	CollectionID string
	Results      []Scored
	Count        int
	Err          *CollectionError
}

// Multi is the outcome of a multi-collection search. In aggregated mode
// Results holds the merged ranking; otherwise Blocks holds one entry per
// requested collection in request order.
type Multi struct {
	Query      string
	Aggregated bool
	Results    []Scored
	Blocks     []Block
	Errors     []CollectionError
	Successful int
	Failed     int
	Limit      int
	// PerCollectionLimit is the result limit each sub-search ran with.
	PerCollectionLimit int
	Threshold          float64
	Dimensions         int
}

// Stats is the embedding coverage of one collection.
type Stats struct {
	Total         int
	WithEmbedding int
	// Coverage is a percentage with two decimals, e.g. "70.00%".
	Coverage string
}
