package document

import (
	"context"

	"github.com/kailas-cloud/semindex/internal/domain"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Save(ctx context.Context, collectionID, id string, payload map[string]any) (domdoc.Document, bool, error)
	Get(ctx context.Context, collectionID, id string) (domdoc.Document, error)
	Update(ctx context.Context, collectionID, id string, data map[string]any) (domdoc.Document, error)
	FindMany(ctx context.Context, collectionID string, opts domdoc.FindOptions) ([]domdoc.Document, error)
}

// Collections resolves configured collections and their embedding fields.
type Collections interface {
	Has(name string) bool
	Indexable(name string) bool
	Fields(name string) ([]string, bool)
}

// WriteHook rewrites a payload right before it is persisted.
type WriteHook interface {
	BeforeWrite(ctx context.Context, collectionID string, payload map[string]any) map[string]any
}

// BatchEmbedder vectorizes many texts, preserving order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error)
}
