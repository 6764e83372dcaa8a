package chi

import (
	"context"

	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/search/query"
	"github.com/kailas-cloud/semindex/internal/domain/search/result"
	domusage "github.com/kailas-cloud/semindex/internal/domain/usage"
	documentuc "github.com/kailas-cloud/semindex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/semindex/internal/usecase/health"
)

// SearchService runs semantic searches and coverage stats.
type SearchService interface {
	Search(ctx context.Context, q query.Single) (result.Search, error)
	MultiSearch(ctx context.Context, q query.Multi) (result.Multi, error)
	Stats(ctx context.Context, collectionID string) (map[string]result.Stats, error)
}

// DocumentService writes, reads and reindexes documents.
type DocumentService interface {
	Upsert(ctx context.Context, collectionID, id string, fields map[string]any) (domdoc.Document, bool, error)
	Create(ctx context.Context, collectionID string, fields map[string]any) (domdoc.Document, error)
	Get(ctx context.Context, collectionID, id string) (domdoc.Document, error)
	Reindex(ctx context.Context, collectionID string) (documentuc.ReindexReport, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageService reports token consumption against the local budget.
type UsageService interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}
