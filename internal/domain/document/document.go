package document

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/search/filter"
)

// Reserved payload keys. Everything else in a stored object is a user field.
const (
	FieldVector   = "vector"
	FieldMetadata = "metadata"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Document is a stored record: user fields plus an optional vector and its
// embedding metadata.
type Document struct {
	id       string
	fields   map[string]any
	vector   []float32
	metadata *domain.EmbeddingMetadata
}

// New validates the id and creates a Document without a vector.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars.
func New(id string, fields map[string]any) (Document, error) {
	if err := ValidateID(id); err != nil {
		return Document{}, err
	}
	return Document{id: id, fields: cloneFields(fields)}, nil
}

// ValidateID checks a document identifier.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID is required: %w", domain.ErrInvalidInput)
	}
	if len(id) > 256 {
		return fmt.Errorf("document ID too long (max 256): %w", domain.ErrInvalidInput)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("document ID must be alphanumeric with underscores and hyphens: %w", domain.ErrInvalidInput)
	}
	return nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id string, fields map[string]any, vector []float32, metadata *domain.EmbeddingMetadata) Document {
	return Document{id: id, fields: fields, vector: vector, metadata: metadata}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Fields returns the user fields, without vector and metadata.
func (d *Document) Fields() map[string]any { return d.fields }

// Field returns a single user field.
func (d *Document) Field(name string) (any, bool) {
	v, ok := d.fields[name]
	return v, ok
}

// Vector returns the embedding vector, nil when absent.
func (d *Document) Vector() []float32 { return d.vector }

// HasVector reports whether the document carries a non-empty vector.
func (d *Document) HasVector() bool { return len(d.vector) > 0 }

// Metadata returns the embedding metadata, nil when absent.
func (d *Document) Metadata() *domain.EmbeddingMetadata { return d.metadata }

// WithEmbedding returns a copy carrying the given vector and metadata.
// Metadata replaces any previous value wholesale.
func (d *Document) WithEmbedding(vector []float32, metadata domain.EmbeddingMetadata) Document {
	return Document{id: d.id, fields: d.fields, vector: vector, metadata: &metadata}
}

// WithoutEmbedding returns a copy with vector and metadata stripped.
func (d *Document) WithoutEmbedding() Document {
	return Document{id: d.id, fields: d.fields}
}

// FindOptions is the store query shape used by the search path.
type FindOptions struct {
	Filter filter.Filter
	Limit  int
	// Locale is passed through to stores that keep per-locale field variants.
	Locale string
}

func cloneFields(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		if k == FieldVector || k == FieldMetadata {
			continue
		}
		c[k] = v
	}
	return c
}
