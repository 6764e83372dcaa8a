package semindex

import (
	"context"

	"github.com/kailas-cloud/semindex/internal/domain/search/filter"
	"github.com/kailas-cloud/semindex/internal/domain/search/query"
	"github.com/kailas-cloud/semindex/internal/domain/search/result"
)

// Hit is one ranked document.
type Hit struct {
	ID         string
	Collection string
	Score      float64
	Fields     map[string]any
	Vector     []float32
}

// Stats is the embedding coverage of one collection.
type Stats struct {
	Total         int
	WithEmbedding int
	Coverage      string
}

// SearchOption tunes a search.
type SearchOption func(*query.Params)

// Limit caps the number of hits (1-50, default 10).
func Limit(n int) SearchOption {
	return func(p *query.Params) { p.Limit = n }
}

// Threshold drops hits scoring below t (default 0.1).
func Threshold(t float64) SearchOption {
	return func(p *query.Params) { p.Threshold = &t }
}

// Where restricts candidates to documents whose field equals value.
func Where(field string, value any) SearchOption {
	return func(p *query.Params) {
		if p.Filter == nil {
			p.Filter = filter.Filter{}
		}
		p.Filter[field] = value
	}
}

// Locale selects per-locale field variants.
func Locale(locale string) SearchOption {
	return func(p *query.Params) { p.Locale = locale }
}

// WithVectors includes stored vectors in hits.
func WithVectors() SearchOption {
	return func(p *query.Params) { p.IncludeEmbedding = true }
}

func buildParams(opts []SearchOption) query.Params {
	var p query.Params
	for _, o := range opts {
		o(&p)
	}
	return p
}

// Search ranks one collection's documents against text.
func (c *Client) Search(ctx context.Context, collectionID, text string, opts ...SearchOption) ([]Hit, error) {
	q, err := query.NewSingle(text, collectionID, buildParams(opts))
	if err != nil {
		return nil, err
	}
	res, err := c.search.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return toHits(res.Results, collectionID), nil
}

// SearchAll ranks documents across collections into one merged list.
// Collections that fail are skipped; their errors are returned by collection id.
func (c *Client) SearchAll(
	ctx context.Context, collectionIDs []string, text string, opts ...SearchOption,
) ([]Hit, map[string]error, error) {
	q, err := query.NewMulti(text, collectionIDs, buildParams(opts), nil)
	if err != nil {
		return nil, nil, err
	}
	res, err := c.search.MultiSearch(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	var failed map[string]error
	if len(res.Errors) > 0 {
		failed = make(map[string]error, len(res.Errors))
		for i := range res.Errors {
			failed[res.Errors[i].CollectionID] = &CollectionError{
				CollectionID: res.Errors[i].CollectionID,
				Kind:         string(res.Errors[i].Kind),
				Message:      res.Errors[i].Message,
			}
		}
	}
	return toHits(res.Results, ""), failed, nil
}

// Stats reports embedding coverage. An empty collectionID covers every collection.
func (c *Client) Stats(ctx context.Context, collectionID string) (map[string]Stats, error) {
	stats, err := c.search.Stats(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Stats, len(stats))
	for id, s := range stats {
		out[id] = Stats{Total: s.Total, WithEmbedding: s.WithEmbedding, Coverage: s.Coverage}
	}
	return out, nil
}

// CollectionError is the failure of one collection in SearchAll.
type CollectionError struct {
	CollectionID string
	Kind         string
	Message      string
}

func (e *CollectionError) Error() string {
	return e.CollectionID + ": " + e.Message
}

// toHits converts scored results; collectionID fills in untagged results.
func toHits(in []result.Scored, collectionID string) []Hit {
	out := make([]Hit, 0, len(in))
	for i := range in {
		doc := in[i].Document()
		coll := in[i].Collection()
		if coll == "" {
			coll = collectionID
		}
		out = append(out, Hit{
			ID:         doc.ID(),
			Collection: coll,
			Score:      in[i].Score(),
			Fields:     doc.Fields(),
			Vector:     doc.Vector(),
		})
	}
	return out
}
