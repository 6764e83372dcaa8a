package search

import (
	"context"
	"math"
	"os"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/search/filter"
	"github.com/kailas-cloud/semindex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockRepo struct {
	mu       sync.Mutex
	docs     map[string][]domdoc.Document
	findErr  map[string]error
	countErr error
	lastOpts map[string]domdoc.FindOptions
	finds    int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		docs:     make(map[string][]domdoc.Document),
		findErr:  make(map[string]error),
		lastOpts: make(map[string]domdoc.FindOptions),
	}
}

func (m *mockRepo) FindMany(_ context.Context, collectionID string, opts domdoc.FindOptions) ([]domdoc.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	m.lastOpts[collectionID] = opts
	if err := m.findErr[collectionID]; err != nil {
		return nil, err
	}
	var out []domdoc.Document
	for _, d := range m.docs[collectionID] {
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
		if opts.Filter.Matches(d.Fields(), d.HasVector()) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockRepo) Count(_ context.Context, collectionID string, f filter.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, d := range m.docs[collectionID] {
		if f.Matches(d.Fields(), d.HasVector()) {
			n++
		}
	}
	return n, nil
}

type mockEmbedder struct {
	mu    sync.Mutex
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.Embedding{}, m.err
	}
	return domain.Embedding{
		Vector:   m.vec,
		Metadata: domain.EmbeddingMetadata{Text: text, Dimensions: len(m.vec)},
	}, nil
}

// --- Helpers ---

// scoredDoc builds a document whose cosine against [1, 0] equals score.
func scoredDoc(id string, score float64, fields map[string]any) domdoc.Document {
	vec := []float32{float32(score), float32(math.Sqrt(1 - score*score))}
	md := &domain.EmbeddingMetadata{Model: "m", Dimensions: 2}
	return domdoc.Reconstruct(id, fields, vec, md)
}

func plainDoc(id string) domdoc.Document {
	return domdoc.Reconstruct(id, map[string]any{"title": id}, nil, nil)
}

func testCollections(t *testing.T, names ...string) collection.FieldMap {
	t.Helper()
	cfg := make(map[string][]string, len(names))
	for _, n := range names {
		cfg[n] = nil
	}
	fm, err := collection.NewFieldMap(cfg, nil)
	if err != nil {
		t.Fatalf("NewFieldMap: %v", err)
	}
	return fm
}

func newTestService(t *testing.T, repo *mockRepo, emb *mockEmbedder, names ...string) *Service {
	t.Helper()
	return newTestServiceWithConfig(t, repo, emb, Config{}, names...)
}

func newTestServiceWithConfig(t *testing.T, repo *mockRepo, emb *mockEmbedder, cfg Config, names ...string) *Service {
	t.Helper()
	svc, err := New(repo, testCollections(t, names...), emb, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func ptr[T any](v T) *T { return &v }
