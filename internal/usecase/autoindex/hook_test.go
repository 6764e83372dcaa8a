package autoindex

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

type mockEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.Embedding, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.Embedding{}, m.err
	}
	return domain.Embedding{
		Vector:   m.vec,
		Metadata: domain.EmbeddingMetadata{Model: "m", Text: text, Dimensions: len(m.vec)},
	}, nil
}

func testHook(t *testing.T, emb *mockEmbedder, enabled bool) *Hook {
	t.Helper()
	colls, err := collection.NewFieldMap(map[string][]string{
		"articles": {"title", "body"},
		"pages":    nil,
		"_system":  nil,
		"private":  nil,
	}, []string{"private"})
	if err != nil {
		t.Fatalf("NewFieldMap: %v", err)
	}
	return New(emb, colls, Config{Enabled: enabled}, zap.NewNop())
}

func TestBeforeWrite_Embeds(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0.1, 0.2}}
	h := testHook(t, emb, true)

	payload := map[string]any{
		"title":  "Semantic search",
		"body":   "Vectors all the way down",
		"author": "ignored",
	}
	out := h.BeforeWrite(context.Background(), "articles", payload)

	if len(emb.texts) != 1 || emb.texts[0] != "Semantic search Vectors all the way down" {
		t.Fatalf("embedded texts = %q", emb.texts)
	}
	vec, ok := out[domdoc.FieldVector].([]float32)
	if !ok || len(vec) != 2 {
		t.Errorf("vector = %v", out[domdoc.FieldVector])
	}
	md, ok := out[domdoc.FieldMetadata].(domain.EmbeddingMetadata)
	if !ok || md.Model != "m" {
		t.Errorf("metadata = %v", out[domdoc.FieldMetadata])
	}
	if _, mutated := payload[domdoc.FieldVector]; mutated {
		t.Error("input payload must not be mutated")
	}
	if out["author"] != "ignored" {
		t.Error("other fields must be kept")
	}
}

func TestBeforeWrite_ReplacesMetadataWholesale(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1}}
	h := testHook(t, emb, true)

	payload := map[string]any{
		"title":              "Updated title text",
		domdoc.FieldMetadata: map[string]any{"stale": true},
		domdoc.FieldVector:   []float32{9, 9, 9},
	}
	out := h.BeforeWrite(context.Background(), "articles", payload)

	if _, ok := out[domdoc.FieldMetadata].(domain.EmbeddingMetadata); !ok {
		t.Errorf("metadata not replaced: %v", out[domdoc.FieldMetadata])
	}
	if vec := out[domdoc.FieldVector].([]float32); len(vec) != 1 {
		t.Errorf("vector not replaced: %v", vec)
	}
}

func TestBeforeWrite_DefaultFields(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1}}
	h := testHook(t, emb, true)

	payload := map[string]any{
		"content": []any{"first paragraph", "second paragraph"},
		"name":    "Page name",
		"summary": map[string]any{"en": "English", "de": "Deutsch"},
	}
	h.BeforeWrite(context.Background(), "pages", payload)

	want := "Page name first paragraph second paragraph Deutsch English"
	if len(emb.texts) != 1 || emb.texts[0] != want {
		t.Errorf("embedded %q, want %q", emb.texts, want)
	}
}

func TestBeforeWrite_Skips(t *testing.T) {
	cases := []struct {
		name       string
		enabled    bool
		collection string
		payload    map[string]any
	}{
		{"disabled", false, "articles", map[string]any{"title": "long enough title"}},
		{"unknown collection", true, "unknown", map[string]any{"title": "long enough title"}},
		{"internal prefix", true, "_system", map[string]any{"title": "long enough title"}},
		{"excluded", true, "private", map[string]any{"title": "long enough title"}},
		{"short text", true, "articles", map[string]any{"title": "short"}},
		{"no fields", true, "articles", map[string]any{"other": "long enough value"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			emb := &mockEmbedder{vec: []float32{1}}
			h := testHook(t, emb, tc.enabled)

			out := h.BeforeWrite(context.Background(), tc.collection, tc.payload)
			if len(emb.texts) != 0 {
				t.Errorf("provider called with %q", emb.texts)
			}
			if _, ok := out[domdoc.FieldVector]; ok {
				t.Error("payload must be unchanged")
			}
		})
	}
}

func TestBeforeWrite_FailOpen(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrProviderUnavailable}
	h := testHook(t, emb, true)

	payload := map[string]any{"title": "long enough title"}
	before := testutil.ToFloat64(metrics.AutoIndexTotal.WithLabelValues("failed"))
	out := h.BeforeWrite(context.Background(), "articles", payload)

	if _, ok := out[domdoc.FieldVector]; ok {
		t.Error("payload must be unchanged on failure")
	}
	if out["title"] != "long enough title" {
		t.Error("payload fields lost")
	}
	if got := testutil.ToFloat64(metrics.AutoIndexTotal.WithLabelValues("failed")); got != before+1 {
		t.Errorf("failed counter = %v, want %v", got, before+1)
	}
}

func TestBeforeWrite_CycleBreaker(t *testing.T) {
	for _, fatal := range []error{domain.ErrQuotaExceeded, domain.ErrInvalidCredentials} {
		t.Run(string(domain.KindOf(fatal)), func(t *testing.T) {
			emb := &mockEmbedder{err: fatal}
			h := testHook(t, emb, true)
			ctx := WithCycle(context.Background())

			for range 3 {
				h.BeforeWrite(ctx, "articles", map[string]any{"title": "long enough title"})
			}
			if len(emb.texts) != 1 {
				t.Errorf("provider calls = %d, want 1", len(emb.texts))
			}

			// A new cycle tries again.
			h.BeforeWrite(WithCycle(context.Background()), "articles", map[string]any{"title": "long enough title"})
			if len(emb.texts) != 2 {
				t.Errorf("provider calls after new cycle = %d, want 2", len(emb.texts))
			}
		})
	}
}

func TestBeforeWrite_RateLimitDoesNotTrip(t *testing.T) {
	emb := &mockEmbedder{err: fmt.Errorf("provider said slow down: %w", domain.ErrRateLimited)}
	h := testHook(t, emb, true)
	ctx := WithCycle(context.Background())

	for range 3 {
		h.BeforeWrite(ctx, "articles", map[string]any{"title": "long enough title"})
	}
	if len(emb.texts) != 3 {
		t.Errorf("provider calls = %d, want 3", len(emb.texts))
	}
}

func TestBeforeWrite_NoCycleNeverTrips(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrQuotaExceeded}
	h := testHook(t, emb, true)

	for range 2 {
		h.BeforeWrite(context.Background(), "articles", map[string]any{"title": "long enough title"})
	}
	if len(emb.texts) != 2 {
		t.Errorf("provider calls = %d, want 2", len(emb.texts))
	}
}

func TestExtractText(t *testing.T) {
	payload := map[string]any{
		"title": "  Title  ",
		"tags":  []any{"go", "", 42.0},
		"empty": "",
		"meta":  map[string]any{"b": "second", "a": "first"},
	}
	got := ExtractText(payload, []string{"title", "missing", "empty", "tags", "meta"})
	want := "Title go 42 first second"
	if got != want {
		t.Errorf("ExtractText = %q, want %q", got, want)
	}
}
