package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
)

func newTestClient(t *testing.T, cfg Config, provider domain.Embedder) *Client {
	t.Helper()
	c, err := NewClient(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(c.Close)
	if provider != nil {
		if err := c.Init(provider, "openai", "text-embedding-3-small"); err != nil {
			t.Fatalf("Init: %v", err)
		}
	}
	return c
}

// lengthVector encodes the text length so order can be checked after a batch.
func lengthVector(s string) []float32 { return []float32{float32(len(s)), 1} }

func TestClient_NotConfigured(t *testing.T) {
	c := newTestClient(t, Config{}, nil)

	if _, err := c.Embed(context.Background(), "some long enough text"); !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Errorf("Embed: expected ErrProviderNotConfigured, got %v", err)
	}
	if _, err := c.EmbedBatch(context.Background(), []string{"some long enough text"}); !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Errorf("EmbedBatch: expected ErrProviderNotConfigured, got %v", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Errorf("HealthCheck: expected ErrProviderNotConfigured, got %v", err)
	}
	if c.Ready() {
		t.Error("client must not be ready before Init")
	}
}

func TestClient_InitOnce(t *testing.T) {
	c := newTestClient(t, Config{}, &mockEmbedder{})
	if err := c.Init(&mockEmbedder{}, "other", "m"); err == nil {
		t.Fatal("second Init must fail")
	}
	if err := newTestClient(t, Config{}, nil).Init(nil, "p", "m"); !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Errorf("nil provider: got %v", err)
	}
}

func TestClient_Embed_Metadata(t *testing.T) {
	provider := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3},
		TotalTokens: 5,
	}}
	c := newTestClient(t, Config{}, provider)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	raw := "<p>Hello   <b>semantic</b>\n world</p>"
	emb, err := c.Embed(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.texts[0] != "Hello semantic world" {
		t.Errorf("provider received %q", provider.texts[0])
	}
	md := emb.Metadata
	if md.Text != "Hello semantic world" || md.ProcessedLength != 20 || md.OriginalLength != len(raw) {
		t.Errorf("unexpected text metadata: %+v", md)
	}
	if md.Provider != "openai" || md.Model != "text-embedding-3-small" || md.Dimensions != 3 {
		t.Errorf("unexpected provider metadata: %+v", md)
	}
	if !md.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v", md.GeneratedAt)
	}
	if emb.Tokens != 5 {
		t.Errorf("Tokens = %d", emb.Tokens)
	}
}

func TestClient_Embed_TooShort(t *testing.T) {
	provider := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	c := newTestClient(t, Config{}, provider)

	_, err := c.Embed(context.Background(), "<b>hi</b>")
	if !errors.Is(err, domain.ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}
	if provider.calls() != 0 {
		t.Error("provider must not be called for short text")
	}
}

func TestClient_Embed_Truncates(t *testing.T) {
	provider := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	c := newTestClient(t, Config{}, provider)

	emb, err := c.Embed(context.Background(), strings.Repeat("a", 9000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.NormalizedLength() != 8003 || !strings.HasSuffix(emb.NormalizedText(), "...") {
		t.Errorf("processed length = %d", emb.NormalizedLength())
	}
	if emb.OriginalLength() != 9000 {
		t.Errorf("original length = %d", emb.OriginalLength())
	}
}

func TestClient_Embed_EmptyVector(t *testing.T) {
	c := newTestClient(t, Config{}, &mockEmbedder{})

	_, err := c.Embed(context.Background(), "long enough text here")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_Embed_ProviderErrorPassesThrough(t *testing.T) {
	c := newTestClient(t, Config{}, &mockEmbedder{err: domain.ErrRateLimited})

	_, err := c.Embed(context.Background(), "long enough text here")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestClient_Embed_RecordsUsage(t *testing.T) {
	provider := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 4}}
	c := newTestClient(t, Config{}, provider)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	for range 2 {
		if _, err := c.Embed(ctx, "long enough text here"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	tokens, used := usage.Snapshot()
	if tokens != 8 || !used {
		t.Errorf("usage = %d/%v, want 8/true", tokens, used)
	}
}

func TestClient_EmbedBatch_PreservesOrder(t *testing.T) {
	provider := &mockEmbedder{vectorFn: lengthVector, delay: time.Millisecond}
	c := newTestClient(t, Config{BatchSize: 10}, provider)

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = "document " + strings.Repeat("x", i+1)
	}

	out, err := c.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(texts) {
		t.Fatalf("len = %d, want %d", len(out), len(texts))
	}
	for i, emb := range out {
		if int(emb.Vector[0]) != len(texts[i]) {
			t.Errorf("out[%d] belongs to another input: %v", i, emb.Vector)
		}
		if emb.Metadata.Text != texts[i] {
			t.Errorf("out[%d].Text = %q", i, emb.Metadata.Text)
		}
	}
	if provider.maxInFlight > 10 {
		t.Errorf("max in flight = %d, want <= 10", provider.maxInFlight)
	}
}

func TestClient_EmbedBatch_LowestFailingIndexWins(t *testing.T) {
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("document number %02d", i)
	}
	provider := &mockEmbedder{
		vectorFn: lengthVector,
		errFor: map[string]error{
			texts[7]: domain.ErrQuotaExceeded,
			texts[3]: domain.ErrRateLimited,
		},
	}
	c := newTestClient(t, Config{BatchSize: 10}, provider)

	out, err := c.EmbedBatch(context.Background(), texts)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected the error of item 3, got %v", err)
	}
	if out != nil {
		t.Error("no partial results on failure")
	}
	if provider.calls() != 10 {
		t.Errorf("second group must not start, calls = %d", provider.calls())
	}
}

func TestClient_EmbedBatch_Empty(t *testing.T) {
	c := newTestClient(t, Config{}, &mockEmbedder{})
	out, err := c.EmbedBatch(context.Background(), nil)
	if err != nil || out != nil {
		t.Errorf("got %v, %v", out, err)
	}
}

func TestClient_EmbedBatch_DelayHonoursContext(t *testing.T) {
	provider := &mockEmbedder{vectorFn: lengthVector}
	c := newTestClient(t, Config{BatchSize: 2, BatchDelay: time.Hour}, provider)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	texts := []string{"first long text", "second long text", "third long text"}
	_, err := c.EmbedBatch(ctx, texts)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if provider.calls() != 2 {
		t.Errorf("calls = %d, want 2", provider.calls())
	}
}

func TestClient_HealthCheck(t *testing.T) {
	c := newTestClient(t, Config{}, &mockEmbedder{})
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("provider without health check: %v", err)
	}

	sick := &healthyEmbedder{healthErr: domain.ErrInvalidCredentials}
	c = newTestClient(t, Config{}, sick)
	if err := c.HealthCheck(context.Background()); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
