package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/config"
	"github.com/kailas-cloud/semindex/internal/db"
	"github.com/kailas-cloud/semindex/internal/db/memory"
	dbredis "github.com/kailas-cloud/semindex/internal/db/redis"
	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/collection"
	"github.com/kailas-cloud/semindex/internal/domain/text"
	"github.com/kailas-cloud/semindex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/semindex/internal/repository/budget"
	documentrepo "github.com/kailas-cloud/semindex/internal/repository/document"
	"github.com/kailas-cloud/semindex/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/semindex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/semindex/internal/transport/openai"
	"github.com/kailas-cloud/semindex/internal/usecase/autoindex"
	documentuc "github.com/kailas-cloud/semindex/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/semindex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/semindex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/semindex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/semindex/internal/usecase/usage"
)

// app is the composition root shared by the serve and reindex commands.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	store     db.Store
	embedding *embeddinguc.Client
	search    *searchuc.Service
	documents *documentuc.Service
	health    *healthuc.Service
	usage     *usageuc.Service
}

// newApp wires every component. The caller must Close the result.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	colls, err := collection.NewFieldMap(cfg.Index.Collections, cfg.Index.Excluded)
	if err != nil {
		return nil, fmt.Errorf("index.collections: %w", err)
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	normalizer := text.Normalizer{MaxLength: cfg.Embedding.MaxTextLength, MinLength: cfg.Embedding.MinTextLength}
	client, err := embeddinguc.NewClient(embeddinguc.Config{
		BatchSize:  cfg.Embedding.BatchSize,
		BatchDelay: cfg.Embedding.BatchDelay(),
		Normalizer: normalizer,
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	// Stays an untyped nil without a budget so usage reports show no limit.
	var budget usageuc.BudgetReader
	if cfg.Embedding.APIKey == "" {
		logger.Warn("Embedding provider not configured; search is disabled and writes are stored without vectors")
	} else {
		provider, tracker := buildProvider(ctx, &cfg, store, logger)
		if tracker != nil {
			budget = tracker
		}
		if err := client.Init(provider, cfg.Embedding.Provider, cfg.Embedding.Model); err != nil {
			client.Close()
			store.Close()
			return nil, fmt.Errorf("init embedding client: %w", err)
		}
		logger.Info("Embedding provider ready",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
			zap.Bool("cache", cfg.Embedding.Cache.Enabled),
		)
	}

	docRepo := documentrepo.New(store, cfg.Database.KeyPrefix)

	searchSvc, err := searchuc.New(docRepo, colls, client, searchuc.Config{
		RetrievalLimit:  cfg.Search.RetrievalLimit,
		OverfetchFactor: cfg.Search.OverfetchFactor,
		MaxParallel:     cfg.Search.MaxParallel,
	}, logger)
	if err != nil {
		client.Close()
		store.Close()
		return nil, fmt.Errorf("search service: %w", err)
	}

	hook := autoindex.New(client, colls, autoindex.Config{
		Enabled:       cfg.Index.AutoIndexEnabled(),
		MinTextLength: cfg.Embedding.MinTextLength,
	}, logger)
	docSvc := documentuc.New(docRepo, colls, hook, client, documentuc.Config{
		ReindexChunk: cfg.Index.ReindexChunk,
		Normalizer:   normalizer,
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		embedding: client,
		search:    searchSvc,
		documents: docSvc,
		health:    healthuc.New(store, client, logger),
		usage:     usageuc.New(budget),
	}, nil
}

// handler builds the HTTP router.
func (a *app) handler() http.Handler {
	return chiTransport.NewServer(a.search, a.documents, a.health, a.usage, a.logger).Router(a.cfg.Auth.APIKeys)
}

// Close releases pools and the store connection.
func (a *app) Close() {
	a.search.Close()
	a.embedding.Close()
	a.store.Close()
}

func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		return dbredis.NewStore(dbredis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildProvider assembles the provider chain: OpenAI -> Guarded (budget) -> Cached.
// The cache is outermost so hits never consume budget. The tracker is nil
// when no token limit is configured.
func buildProvider(
	ctx context.Context, cfg *config.Config, store db.Store, logger *zap.Logger,
) (domain.Embedder, *embeddinguc.BudgetTracker) {
	emb := &cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     emb.APIKey,
		BaseURL:    emb.BaseURL,
		Model:      emb.Model,
		Dimensions: emb.Dimensions,
		Provider:   emb.Provider,
		Timeout:    emb.Timeout(),
		Logger:     logger,
	})

	// A typed nil *BudgetTracker inside the interface would defeat the nil check in GuardedEmbedder.
	var (
		budget  embeddinguc.BudgetChecker
		tracker *embeddinguc.BudgetTracker
	)
	if emb.Budget.DailyTokenLimit > 0 || emb.Budget.MonthlyTokenLimit > 0 {
		tracker = embeddinguc.NewBudgetTracker(embeddinguc.BudgetConfig{
			Provider:     emb.Provider,
			KeyPrefix:    cfg.Database.KeyPrefix,
			DailyLimit:   emb.Budget.DailyTokenLimit,
			MonthlyLimit: emb.Budget.MonthlyTokenLimit,
			Action:       embeddinguc.BudgetAction(emb.Budget.Action),
		}, logger).WithStore(ctx, budgetrepo.New(store, 0, 0))
		budget = tracker
	}

	var provider domain.Embedder = embeddinguc.NewGuardedEmbedder(base, emb.Provider, emb.Model, budget, logger)
	if emb.Cache.Enabled {
		provider = embcache.New(provider, store, embcache.Config{
			KeyPrefix: cfg.Database.KeyPrefix,
			Model:     emb.Model,
			TTL:       emb.CacheTTL(),
		}, metrics.EmbeddingCacheTotal, logger)
	}
	return provider, tracker
}
