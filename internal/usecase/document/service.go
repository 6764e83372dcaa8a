package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/search/filter"
	"github.com/kailas-cloud/semindex/internal/domain/text"
	"github.com/kailas-cloud/semindex/internal/metrics"
	"github.com/kailas-cloud/semindex/internal/usecase/autoindex"
)

// DefaultReindexChunk is the number of documents embedded per EmbedBatch call.
const DefaultReindexChunk = 50

// Config tunes reindexing.
type Config struct {
	ReindexChunk int
	// Normalizer must match the embedding client's limits so skipped
	// documents are decided before any provider call.
	Normalizer text.Normalizer
}

// Service is the document write path. Every save passes through the write hook.
type Service struct {
	repo   Repository
	colls  Collections
	hook   WriteHook
	batch  BatchEmbedder
	cfg    Config
	newID  func() string
	logger *zap.Logger
}

// New creates a document service.
func New(repo Repository, colls Collections, hook WriteHook, batch BatchEmbedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.ReindexChunk <= 0 {
		cfg.ReindexChunk = DefaultReindexChunk
	}
	return &Service{
		repo:   repo,
		colls:  colls,
		hook:   hook,
		batch:  batch,
		cfg:    cfg,
		newID:  uuid.NewString,
		logger: logger,
	}
}

// Upsert writes the document under id. Returns true if it was created.
// Reserved keys (vector, metadata) in fields are ignored; the hook sets them.
func (s *Service) Upsert(
	ctx context.Context, collectionID, id string, fields map[string]any,
) (domdoc.Document, bool, error) {
	if !s.colls.Has(collectionID) {
		return domdoc.Document{}, false, fmt.Errorf("collection %q: %w", collectionID, domain.ErrCollectionNotFound)
	}

	doc, err := domdoc.New(id, fields)
	if err != nil {
		return domdoc.Document{}, false, fmt.Errorf("validate document: %w", err)
	}

	payload := s.hook.BeforeWrite(ctx, collectionID, doc.Fields())

	saved, created, err := s.repo.Save(ctx, collectionID, id, payload)
	if err != nil {
		return domdoc.Document{}, false, fmt.Errorf("save document: %w", err)
	}
	return saved, created, nil
}

// Create writes a new document under a generated id.
func (s *Service) Create(ctx context.Context, collectionID string, fields map[string]any) (domdoc.Document, error) {
	doc, _, err := s.Upsert(ctx, collectionID, s.newID(), fields)
	return doc, err
}

// Get retrieves a document by collection and ID.
func (s *Service) Get(ctx context.Context, collectionID, id string) (domdoc.Document, error) {
	if !s.colls.Has(collectionID) {
		return domdoc.Document{}, fmt.Errorf("collection %q: %w", collectionID, domain.ErrCollectionNotFound)
	}

	doc, err := s.repo.Get(ctx, collectionID, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ReindexReport summarizes one reindex run.
type ReindexReport struct {
	CollectionID string
	// Scanned is the number of documents found without a vector.
	Scanned  int
	Embedded int
	// Skipped documents have too little text to embed.
	Skipped int
	// Failed documents were not embedded because the run stopped.
	Failed int
}

type pending struct {
	id   string
	text string
}

// Reindex embeds every document of the collection that has no vector yet.
// It stops at the first failed chunk and returns the counts so far with the error.
func (s *Service) Reindex(ctx context.Context, collectionID string) (ReindexReport, error) {
	report := ReindexReport{CollectionID: collectionID}

	if !s.colls.Has(collectionID) {
		return report, fmt.Errorf("collection %q: %w", collectionID, domain.ErrCollectionNotFound)
	}
	if !s.colls.Indexable(collectionID) {
		return report, fmt.Errorf("collection %q is not indexed: %w", collectionID, domain.ErrInvalidInput)
	}
	fields, _ := s.colls.Fields(collectionID)

	docs, err := s.repo.FindMany(ctx, collectionID, domdoc.FindOptions{
		Filter: filter.Filter{}.WithEmbedding(false),
	})
	if err != nil {
		return report, fmt.Errorf("find documents without embedding: %w", err)
	}
	report.Scanned = len(docs)

	todo := make([]pending, 0, len(docs))
	for i := range docs {
		raw := autoindex.ExtractText(docs[i].Fields(), fields)
		if _, err := s.cfg.Normalizer.Normalize(raw); err != nil {
			report.Skipped++
			metrics.ReindexDocumentsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		todo = append(todo, pending{id: docs[i].ID(), text: raw})
	}

	for start := 0; start < len(todo); start += s.cfg.ReindexChunk {
		chunk := todo[start:min(start+s.cfg.ReindexChunk, len(todo))]
		texts := make([]string, len(chunk))
		for i, p := range chunk {
			texts[i] = p.text
		}

		embs, err := s.batch.EmbedBatch(ctx, texts)
		if err != nil {
			report.Failed = len(todo) - start
			metrics.ReindexDocumentsTotal.WithLabelValues("failed").Add(float64(report.Failed))
			s.logger.Error("Reindex stopped",
				zap.String("collection", collectionID),
				zap.Int("embedded", report.Embedded),
				zap.Int("remaining", report.Failed),
				zap.String("kind", string(domain.KindOf(err))),
				zap.Error(err),
			)
			return report, fmt.Errorf("embed chunk at %d: %w", start, err)
		}

		for i, emb := range embs {
			_, err := s.repo.Update(ctx, collectionID, chunk[i].id, map[string]any{
				domdoc.FieldVector:   emb.Vector,
				domdoc.FieldMetadata: emb.Metadata,
			})
			if err != nil {
				report.Failed = len(todo) - start - i
				metrics.ReindexDocumentsTotal.WithLabelValues("failed").Add(float64(report.Failed))
				return report, fmt.Errorf("store embedding for %q: %w", chunk[i].id, err)
			}
			report.Embedded++
			metrics.ReindexDocumentsTotal.WithLabelValues("embedded").Inc()
		}
	}

	s.logger.Info("Reindex completed",
		zap.String("collection", collectionID),
		zap.Int("scanned", report.Scanned),
		zap.Int("embedded", report.Embedded),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}
