package search

import (
	"context"

	"github.com/kailas-cloud/semindex/internal/domain"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/search/filter"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	FindMany(ctx context.Context, collectionID string, opts domdoc.FindOptions) ([]domdoc.Document, error)
	Count(ctx context.Context, collectionID string, f filter.Filter) (int, error)
}

// Collections reports which collections are configured.
type Collections interface {
	Has(name string) bool
	Names() []string
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.Embedding, error)
}
