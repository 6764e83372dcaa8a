package semindex

import (
	"context"
	"time"

	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/usecase/autoindex"
	documentuc "github.com/kailas-cloud/semindex/internal/usecase/document"
)

// EmbeddingMetadata describes how a stored vector was produced.
type EmbeddingMetadata struct {
	Provider        string
	Model           string
	GeneratedAt     time.Time
	Dimensions      int
	Text            string
	OriginalLength  int
	ProcessedLength int
}

// Document is a stored document.
type Document struct {
	ID       string
	Fields   map[string]any
	Vector   []float32
	Metadata *EmbeddingMetadata
}

// ReindexReport summarizes a reindex run.
type ReindexReport = documentuc.ReindexReport

// Upsert stores fields under id, embedding them first when the collection is
// indexed. Embedding failures never fail the write. Returns true if created.
func (c *Client) Upsert(ctx context.Context, collectionID, id string, fields map[string]any) (Document, bool, error) {
	doc, created, err := c.documents.Upsert(autoindex.WithCycle(ctx), collectionID, id, fields)
	if err != nil {
		return Document{}, false, err
	}
	return documentFromDomain(&doc), created, nil
}

// Create stores fields under a generated id.
func (c *Client) Create(ctx context.Context, collectionID string, fields map[string]any) (Document, error) {
	doc, err := c.documents.Create(autoindex.WithCycle(ctx), collectionID, fields)
	if err != nil {
		return Document{}, err
	}
	return documentFromDomain(&doc), nil
}

// Get returns a stored document including its vector.
func (c *Client) Get(ctx context.Context, collectionID, id string) (Document, error) {
	doc, err := c.documents.Get(ctx, collectionID, id)
	if err != nil {
		return Document{}, err
	}
	return documentFromDomain(&doc), nil
}

// Reindex embeds every document of the collection that has no vector yet.
func (c *Client) Reindex(ctx context.Context, collectionID string) (ReindexReport, error) {
	return c.documents.Reindex(ctx, collectionID)
}

func documentFromDomain(d *domdoc.Document) Document {
	out := Document{ID: d.ID(), Fields: d.Fields(), Vector: d.Vector()}
	if m := d.Metadata(); m != nil {
		out.Metadata = &EmbeddingMetadata{
			Provider:        m.Provider,
			Model:           m.Model,
			GeneratedAt:     m.GeneratedAt,
			Dimensions:      m.Dimensions,
			Text:            m.Text,
			OriginalLength:  m.OriginalLength,
			ProcessedLength: m.ProcessedLength,
		}
	}
	return out
}
