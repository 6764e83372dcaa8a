package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/text"
	"github.com/kailas-cloud/semindex/internal/metrics"
)

// Batch defaults.
const (
	DefaultBatchSize  = 10
	DefaultBatchDelay = time.Second
)

var errAlreadyInitialized = errors.New("embedding client already initialized")

// Config controls batching and text normalization.
type Config struct {
	// BatchSize is the number of texts embedded concurrently per group.
	BatchSize int
	// BatchDelay is the pause between consecutive groups. Zero disables it.
	BatchDelay time.Duration
	Normalizer text.Normalizer
}

// Client turns raw text into embeddings through the installed provider chain.
type Client struct {
	mu       sync.RWMutex
	provider domain.Embedder
	name     string
	model    string

	cfg    Config
	pool   *ants.Pool
	now    func() time.Time
	logger *zap.Logger
}

// NewClient creates a client without a provider. Call Init before use.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	pool, err := ants.NewPool(cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("create batch pool: %w", err)
	}
	return &Client{cfg: cfg, pool: pool, now: time.Now, logger: logger}, nil
}

// Init installs the provider handle. It can be called once.
func (c *Client) Init(provider domain.Embedder, providerName, model string) error {
	if provider == nil {
		return domain.ErrProviderNotConfigured
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		return errAlreadyInitialized
	}
	c.provider = provider
	c.name = providerName
	c.model = model
	return nil
}

// Close releases the batch pool.
func (c *Client) Close() {
	c.pool.Release()
}

func (c *Client) handle() (domain.Embedder, string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.provider, c.name, c.model
}

// Ready reports whether a provider is installed.
func (c *Client) Ready() bool {
	p, _, _ := c.handle()
	return p != nil
}

// HealthCheck probes the provider when it supports health checks.
func (c *Client) HealthCheck(ctx context.Context) error {
	p, _, _ := c.handle()
	if p == nil {
		return domain.ErrProviderNotConfigured
	}
	hc, ok := p.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("provider health: %w", err)
	}
	return nil
}

// Embed normalizes raw and embeds it with a single provider call.
func (c *Client) Embed(ctx context.Context, raw string) (domain.Embedding, error) {
	provider, name, model := c.handle()
	if provider == nil {
		return domain.Embedding{}, domain.ErrProviderNotConfigured
	}

	norm, err := c.cfg.Normalizer.Normalize(raw)
	if err != nil {
		return domain.Embedding{}, fmt.Errorf("normalize: %w", err)
	}

	res, err := provider.Embed(ctx, norm.Text)
	if err != nil {
		return domain.Embedding{}, fmt.Errorf("embed: %w", err)
	}
	if len(res.Embedding) == 0 {
		return domain.Embedding{}, fmt.Errorf("provider returned empty vector: %w", domain.ErrProviderUnavailable)
	}

	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	return domain.Embedding{
		Vector: res.Embedding,
		Metadata: domain.EmbeddingMetadata{
			Provider:        name,
			Model:           model,
			GeneratedAt:     c.now().UTC(),
			Dimensions:      len(res.Embedding),
			Text:            norm.Text,
			OriginalLength:  norm.OriginalLength,
			ProcessedLength: norm.Length,
		},
		Tokens: res.TotalTokens,
	}, nil
}

// EmbedBatch embeds texts in groups of BatchSize. Items inside a group run
// concurrently, groups run sequentially with BatchDelay between them.
// The first failing item (lowest index) fails the whole call.
// Output order equals input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if !c.Ready() {
		return nil, domain.ErrProviderNotConfigured
	}
	if len(texts) == 0 {
		return nil, nil
	}
	metrics.EmbeddingBatchSize.Observe(float64(len(texts)))

	out := make([]domain.Embedding, len(texts))
	errs := make([]error, len(texts))

	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		if start > 0 {
			if err := c.wait(ctx); err != nil {
				return nil, fmt.Errorf("batch delay: %w", err)
			}
		}
		end := min(start+c.cfg.BatchSize, len(texts))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			submitErr := c.pool.Submit(func() {
				defer wg.Done()
				out[i], errs[i] = c.Embed(ctx, texts[i])
			})
			if submitErr != nil {
				wg.Done()
				errs[i] = fmt.Errorf("submit: %w", submitErr)
			}
		}
		wg.Wait()

		for i := start; i < end; i++ {
			if errs[i] != nil {
				c.logger.Warn("Batch embedding failed",
					zap.Int("index", i),
					zap.Int("batch_size", len(texts)),
					zap.Error(errs[i]),
				)
				return nil, fmt.Errorf("batch item %d: %w", i, errs[i])
			}
		}
	}

	return out, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.cfg.BatchDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.cfg.BatchDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
