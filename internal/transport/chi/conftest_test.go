package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/search/query"
	"github.com/kailas-cloud/semindex/internal/domain/search/result"
	domusage "github.com/kailas-cloud/semindex/internal/domain/usage"
	documentuc "github.com/kailas-cloud/semindex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/semindex/internal/usecase/health"
)

// --- Mock SearchService ---

type mockSearch struct {
	searchFn func(ctx context.Context, q query.Single) (result.Search, error)
	multiFn  func(ctx context.Context, q query.Multi) (result.Multi, error)
	statsFn  func(ctx context.Context, collectionID string) (map[string]result.Stats, error)
	calls    int
}

func (m *mockSearch) Search(ctx context.Context, q query.Single) (result.Search, error) {
	m.calls++
	return m.searchFn(ctx, q)
}

func (m *mockSearch) MultiSearch(ctx context.Context, q query.Multi) (result.Multi, error) {
	m.calls++
	return m.multiFn(ctx, q)
}

func (m *mockSearch) Stats(ctx context.Context, collectionID string) (map[string]result.Stats, error) {
	m.calls++
	return m.statsFn(ctx, collectionID)
}

// --- Mock DocumentService ---

type mockDocuments struct {
	upsertFn  func(ctx context.Context, collectionID, id string, fields map[string]any) (domdoc.Document, bool, error)
	createFn  func(ctx context.Context, collectionID string, fields map[string]any) (domdoc.Document, error)
	getFn     func(ctx context.Context, collectionID, id string) (domdoc.Document, error)
	reindexFn func(ctx context.Context, collectionID string) (documentuc.ReindexReport, error)
}

func (m *mockDocuments) Upsert(
	ctx context.Context, collectionID, id string, fields map[string]any,
) (domdoc.Document, bool, error) {
	return m.upsertFn(ctx, collectionID, id, fields)
}

func (m *mockDocuments) Create(ctx context.Context, collectionID string, fields map[string]any) (domdoc.Document, error) {
	return m.createFn(ctx, collectionID, fields)
}

func (m *mockDocuments) Get(ctx context.Context, collectionID, id string) (domdoc.Document, error) {
	return m.getFn(ctx, collectionID, id)
}

func (m *mockDocuments) Reindex(ctx context.Context, collectionID string) (documentuc.ReindexReport, error) {
	return m.reindexFn(ctx, collectionID)
}

// --- Mock HealthService ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- Mock UsageService ---

type mockUsage struct {
	period domusage.Period
	report domusage.Report
}

func (m *mockUsage) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	m.period = period
	return m.report
}

// --- Helpers ---

type testServer struct {
	search    *mockSearch
	documents *mockDocuments
	health    *mockHealth
	usage     *mockUsage
	handler   http.Handler
}

func newTestServer(t *testing.T, apiKeys ...string) *testServer {
	t.Helper()
	ts := &testServer{
		search:    &mockSearch{},
		documents: &mockDocuments{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}},
		usage: &mockUsage{},
	}
	srv := NewServer(ts.search, ts.documents, ts.health, ts.usage, zap.NewNop())
	ts.handler = srv.Router(apiKeys)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func scored(id, collection string, score float64, fields map[string]any) result.Scored {
	s := result.NewScored(domdoc.Reconstruct(id, fields, nil, nil), score)
	return s.WithCollection(collection)
}
