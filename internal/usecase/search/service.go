package search

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/search/filter"
	"github.com/kailas-cloud/semindex/internal/domain/search/query"
	"github.com/kailas-cloud/semindex/internal/domain/search/result"
	"github.com/kailas-cloud/semindex/internal/domain/similarity"
	"github.com/kailas-cloud/semindex/internal/metrics"
)

// Defaults for Config zero values.
const (
	DefaultRetrievalLimit  = 1000
	DefaultOverfetchFactor = 1.5
	DefaultMaxParallel     = 8
)

// Config tunes candidate retrieval and multi-collection fan-out.
type Config struct {
	// RetrievalLimit caps the documents loaded per collection, independent of the result limit.
	RetrievalLimit int
	// OverfetchFactor multiplies the per-collection limit in aggregated multi-search.
	OverfetchFactor float64
	// MaxParallel bounds concurrent per-collection searches.
	MaxParallel int
}

// Service runs single- and multi-collection semantic search and coverage stats.
type Service struct {
	repo   Repository
	colls  Collections
	embed  Embedder
	cfg    Config
	pool   *ants.Pool
	logger *zap.Logger
}

// New creates a search service. Call Close to release the fan-out pool.
func New(repo Repository, colls Collections, embed Embedder, cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.RetrievalLimit <= 0 {
		cfg.RetrievalLimit = DefaultRetrievalLimit
	}
	if cfg.OverfetchFactor < 1 {
		cfg.OverfetchFactor = DefaultOverfetchFactor
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	pool, err := ants.NewPool(cfg.MaxParallel)
	if err != nil {
		return nil, fmt.Errorf("create search pool: %w", err)
	}
	return &Service{
		repo:   repo,
		colls:  colls,
		embed:  embed,
		cfg:    cfg,
		pool:   pool,
		logger: logger,
	}, nil
}

// Close releases the fan-out pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Search embeds the query and ranks one collection against it.
// Embedding failures fail the call unchanged; there is no keyword fallback.
func (s *Service) Search(ctx context.Context, q query.Single) (result.Search, error) {
	start := time.Now()
	res, err := s.search(ctx, &q)
	observe("single", start, err)
	return res, err
}

func (s *Service) search(ctx context.Context, q *query.Single) (result.Search, error) {
	if !s.colls.Has(q.CollectionID()) {
		return result.Search{}, fmt.Errorf("collection %q: %w", q.CollectionID(), domain.ErrCollectionNotFound)
	}

	emb, err := s.embed.Embed(ctx, q.Text())
	if err != nil {
		return result.Search{}, fmt.Errorf("vectorize query: %w", err)
	}

	return s.searchCollection(ctx, q, emb.Vector)
}

// searchCollection loads candidates holding a vector and ranks them.
func (s *Service) searchCollection(ctx context.Context, q *query.Single, vector []float32) (result.Search, error) {
	f := q.Filter().WithEmbedding(true)

	docs, err := s.repo.FindMany(ctx, q.CollectionID(), domdoc.FindOptions{
		Filter: f,
		Limit:  s.cfg.RetrievalLimit,
		Locale: q.Locale(),
	})
	if err != nil {
		return result.Search{}, fmt.Errorf("find documents in %q: %w", q.CollectionID(), err)
	}
	metrics.SearchCandidatesScanned.Observe(float64(len(docs)))

	ranked := similarity.Rank(vector, docs, similarity.Options{
		Limit:     q.Limit(),
		Threshold: q.Threshold(),
		Logger:    s.logger.With(zap.String("collection", q.CollectionID())),
	})
	if !q.IncludeEmbedding() {
		for i := range ranked {
			ranked[i] = ranked[i].WithoutEmbedding()
		}
	}

	return result.Search{
		Results: ranked,
		Metadata: result.Metadata{
			Query:          q.Text(),
			CollectionID:   q.CollectionID(),
			Count:          len(ranked),
			Dimensions:     len(vector),
			FiltersApplied: f.Keys(),
			Limit:          q.Limit(),
			Threshold:      q.Threshold(),
			Candidates:     len(docs),
		},
	}, nil
}

type collectionOutcome struct {
	res result.Search
	err error
}

// MultiSearch embeds the query once and searches every collection concurrently.
// A failing collection is reported in Errors and never aborts the others.
// A provider failure while embedding the shared query fails the whole call and
// is never reported as a per-collection error.
func (s *Service) MultiSearch(ctx context.Context, q query.Multi) (result.Multi, error) {
	start := time.Now()
	mode := "separate"
	if q.Aggregate() {
		mode = "aggregated"
	}

	emb, err := s.embed.Embed(ctx, q.Text())
	if err != nil {
		observe(mode, start, err)
		return result.Multi{}, fmt.Errorf("vectorize query: %w", err)
	}

	perCollection := s.perCollectionLimit(&q)

	ids := q.CollectionIDs()
	outcomes := s.fanOut(ctx, &q, ids, perCollection, emb.Vector)

	out := result.Multi{
		Query:              q.Text(),
		Aggregated:         q.Aggregate(),
		Limit:              q.Limit(),
		PerCollectionLimit: perCollection,
		Threshold:          q.Threshold(),
		Dimensions:         len(emb.Vector),
	}

	for i, id := range ids {
		o := outcomes[i]
		var block result.Block
		block.CollectionID = id

		if o.err != nil {
			ce := result.CollectionError{
				CollectionID: id,
				Kind:         domain.KindOf(o.err),
				Message:      domain.SafeMessage(o.err),
			}
			s.logger.Warn("Collection search failed",
				zap.String("collection", id),
				zap.String("kind", string(ce.Kind)),
				zap.Error(o.err),
			)
			metrics.SearchCollectionErrorsTotal.WithLabelValues(string(ce.Kind)).Inc()
			out.Errors = append(out.Errors, ce)
			out.Failed++
			block.Err = &ce
		} else {
			out.Successful++
			tagged := make([]result.Scored, len(o.res.Results))
			for j := range o.res.Results {
				tagged[j] = o.res.Results[j].WithCollection(id)
			}
			block.Results = tagged
			block.Count = len(tagged)
			if q.Aggregate() {
				out.Results = append(out.Results, tagged...)
			}
		}

		if !q.Aggregate() {
			out.Blocks = append(out.Blocks, block)
		}
	}

	if q.Aggregate() {
		similarity.SortByScore(out.Results)
		if len(out.Results) > q.Limit() {
			out.Results = out.Results[:q.Limit()]
		}
		if out.Results == nil {
			out.Results = []result.Scored{}
		}
	}

	observe(mode, start, nil)
	return out, nil
}

// perCollectionLimit over-fetches in aggregated mode so the global cut
// has candidates from every collection.
func (s *Service) perCollectionLimit(q *query.Multi) int {
	if !q.Aggregate() {
		return q.Limit()
	}
	return int(math.Ceil(float64(q.Limit()) * s.cfg.OverfetchFactor))
}

// fanOut runs one sub-search per collection on the pool. Outcomes are indexed like ids.
func (s *Service) fanOut(
	ctx context.Context, q *query.Multi, ids []string, limit int, vector []float32,
) []collectionOutcome {
	outcomes := make([]collectionOutcome, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if !s.colls.Has(id) {
				outcomes[i].err = fmt.Errorf("collection %q: %w", id, domain.ErrCollectionNotFound)
				return
			}
			sub := q.ForCollection(id, limit)
			outcomes[i].res, outcomes[i].err = s.searchCollection(ctx, &sub, vector)
		})
		if err != nil {
			wg.Done()
			outcomes[i].err = fmt.Errorf("submit search for %q: %w", id, err)
		}
	}
	wg.Wait()

	return outcomes
}

// Stats returns embedding coverage for one collection, or for every configured
// collection when collectionID is empty.
func (s *Service) Stats(ctx context.Context, collectionID string) (map[string]result.Stats, error) {
	ids := s.colls.Names()
	if collectionID != "" {
		if !s.colls.Has(collectionID) {
			return nil, fmt.Errorf("collection %q: %w", collectionID, domain.ErrCollectionNotFound)
		}
		ids = []string{collectionID}
	}

	withEmbedding := filter.Filter{}.WithEmbedding(true)
	stats := make(map[string]result.Stats, len(ids))
	for _, id := range ids {
		total, err := s.repo.Count(ctx, id, nil)
		if err != nil {
			return nil, fmt.Errorf("count %q: %w", id, err)
		}
		embedded, err := s.repo.Count(ctx, id, withEmbedding)
		if err != nil {
			return nil, fmt.Errorf("count embedded %q: %w", id, err)
		}
		stats[id] = result.Stats{
			Total:         total,
			WithEmbedding: embedded,
			Coverage:      Coverage(embedded, total),
		}
	}
	return stats, nil
}

// Coverage formats embedded/total as a percentage with two decimals.
func Coverage(embedded, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(embedded)/float64(total)*100)
}

func observe(mode string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	metrics.SearchRequestsTotal.WithLabelValues(mode, outcome).Inc()
	metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
