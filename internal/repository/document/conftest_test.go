package document

import (
	"context"

	"github.com/kailas-cloud/semindex/internal/db/memory"
)

// mockStore delegates to an in-memory store unless a hook overrides a call.
type mockStore struct {
	*memory.Store
	getFn    func(ctx context.Context, key string) ([]byte, error)
	mgetFn   func(ctx context.Context, keys []string) ([][]byte, error)
	zrangeFn func(ctx context.Context, key string, start, stop int64) ([]string, error)
	setCalls int
	mgetKeys [][]string
}

func newMockStore() *mockStore {
	return &mockStore{Store: memory.NewStore()}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return m.Store.Get(ctx, key)
}

func (m *mockStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	m.mgetKeys = append(m.mgetKeys, keys)
	if m.mgetFn != nil {
		return m.mgetFn(ctx, keys)
	}
	return m.Store.MGet(ctx, keys)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	m.setCalls++
	return m.Store.Set(ctx, key, value)
}

func (m *mockStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if m.zrangeFn != nil {
		return m.zrangeFn(ctx, key, start, stop)
	}
	return m.Store.ZRange(ctx, key, start, stop)
}
