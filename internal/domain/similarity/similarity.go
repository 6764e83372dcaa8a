// Package similarity scores and ranks stored vectors against a query vector.
// Brute-force linear scan; no index is built or cached.
package similarity

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/search/result"
)

// Cosine returns dot(a,b) / (|a|*|b|), or 0 when either magnitude is zero.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("empty vector: %w", domain.ErrDimensionMismatch)
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%d != %d: %w", len(a), len(b), domain.ErrDimensionMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Options bound a ranking pass.
type Options struct {
	Limit     int
	Threshold float64
	// Logger receives one warning per dropped candidate. Nil means no logging.
	Logger *zap.Logger
}

// Rank scores every candidate that holds a vector, keeps scores >= Threshold,
// sorts descending (stable on input order) and truncates to Limit.
// A candidate whose score cannot be computed is dropped, not propagated.
func Rank(query []float32, candidates []document.Document, opts Options) []result.Scored {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	scored := make([]result.Scored, 0, len(candidates))
	for i := range candidates {
		doc := candidates[i]
		if !doc.HasVector() {
			continue
		}
		score, err := Cosine(query, doc.Vector())
		if err != nil {
			logger.Warn("Skipping candidate with unusable vector",
				zap.String("document_id", doc.ID()),
				zap.Int("query_dim", len(query)),
				zap.Int("vector_dim", len(doc.Vector())),
				zap.Error(err),
			)
			continue
		}
		if score < opts.Threshold {
			continue
		}
		scored = append(scored, result.NewScored(doc, score))
	}

	SortByScore(scored)

	if opts.Limit > 0 && len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}
	return scored
}

// SortByScore sorts descending by score, preserving input order for ties.
func SortByScore(results []result.Scored) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})
}
