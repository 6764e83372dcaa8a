package semindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/db"
	"github.com/kailas-cloud/semindex/internal/db/memory"
	dbredis "github.com/kailas-cloud/semindex/internal/db/redis"
	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/collection"
	"github.com/kailas-cloud/semindex/internal/domain/text"
	"github.com/kailas-cloud/semindex/internal/metrics"
	documentrepo "github.com/kailas-cloud/semindex/internal/repository/document"
	"github.com/kailas-cloud/semindex/internal/usecase/autoindex"
	documentuc "github.com/kailas-cloud/semindex/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/semindex/internal/usecase/embedding"
	searchuc "github.com/kailas-cloud/semindex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Embedder is the provider contract: one text in, one vector out.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one provider response.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Client is the semindex SDK entry point.
type Client struct {
	store     db.Store
	embedding *embeddinguc.Client
	search    *searchuc.Service
	documents *documentuc.Service
}

// New creates a Client, connects to the store and installs the embedder.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:   "semindex:",
		collections: make(map[string][]string),
		autoIndex:   true,
		batchSize:   embeddinguc.DefaultBatchSize,
		batchDelay:  embeddinguc.DefaultBatchDelay,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.driver == "" {
		return nil, errors.New("semindex: store required (use WithValkey, WithRedis or WithMemory)")
	}

	colls, err := collection.NewFieldMap(cfg.collections, cfg.excluded)
	if err != nil {
		return nil, fmt.Errorf("semindex: %w", err)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("semindex: database not ready: %w", err)
	}

	c, err := wireClient(store, colls, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbredis.NewStore(dbredis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("semindex: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("semindex: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, colls collection.FieldMap, cfg *clientConfig) (*Client, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	normalizer := text.Normalizer{MaxLength: cfg.maxText, MinLength: cfg.minText}
	emb, err := embeddinguc.NewClient(embeddinguc.Config{
		BatchSize:  cfg.batchSize,
		BatchDelay: cfg.batchDelay,
		Normalizer: normalizer,
	}, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("semindex: embedding client: %w", err)
	}
	if cfg.embedder != nil {
		if err := emb.Init(&embedderAdapter{inner: cfg.embedder}, cfg.providerName, cfg.model); err != nil {
			emb.Close()
			return nil, fmt.Errorf("semindex: %w", err)
		}
	}

	docRepo := documentrepo.New(store, cfg.keyPrefix)
	searchSvc, err := searchuc.New(docRepo, colls, emb, searchuc.Config{}, cfg.logger)
	if err != nil {
		emb.Close()
		return nil, fmt.Errorf("semindex: search service: %w", err)
	}

	hook := autoindex.New(emb, colls, autoindex.Config{Enabled: cfg.autoIndex, MinTextLength: cfg.minText}, cfg.logger)
	docSvc := documentuc.New(docRepo, colls, hook, emb, documentuc.Config{Normalizer: normalizer}, cfg.logger)

	return &Client{store: store, embedding: emb, search: searchSvc, documents: docSvc}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	c.search.Close()
	c.embedding.Close()
	c.store.Close()
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
