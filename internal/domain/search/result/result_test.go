package result

import (
	"testing"

	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/document"
)

func TestScored_WithCollection(t *testing.T) {
	doc := document.Reconstruct("d1", map[string]any{"title": "x"}, []float32{1, 0}, nil)
	s := NewScored(doc, 0.75)
	tagged := s.WithCollection("articles")

	if tagged.Collection() != "articles" {
		t.Errorf("Collection() = %q", tagged.Collection())
	}
	if s.Collection() != "" {
		t.Error("original must stay untagged")
	}
	if tagged.Score() != 0.75 {
		t.Errorf("Score() = %v", tagged.Score())
	}
}

func TestScored_WithoutEmbedding(t *testing.T) {
	doc := document.Reconstruct("d1", nil, []float32{1, 0}, &domain.EmbeddingMetadata{Model: "m"})
	s := NewScored(doc, 0.5)
	s = s.WithCollection("a")
	stripped := s.WithoutEmbedding()

	d := stripped.Document()
	if d.Vector() != nil || d.Metadata() != nil {
		t.Error("embedding must be stripped")
	}
	if stripped.Collection() != "a" || stripped.Score() != 0.5 {
		t.Errorf("stripped = %+v", stripped)
	}
	orig := s.Document()
	if orig.Vector() == nil {
		t.Error("original must keep its vector")
	}
}
