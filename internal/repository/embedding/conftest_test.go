package embedding

import (
	"context"
	"time"

	"github.com/kailas-cloud/talentrag/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hsetWithTTLFn func(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	hmgetMultiFn  func(ctx context.Context, keys []string, fields ...string) ([]map[string]string, error)
	delFn         func(ctx context.Context, keys ...string) (int, error)
	existsFn      func(ctx context.Context, key string) (bool, error)
	scanFn        func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if m.hsetWithTTLFn != nil {
		return m.hsetWithTTLFn(ctx, key, fields, ttl)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HMGetMulti(ctx context.Context, keys []string, fields ...string) ([]map[string]string, error) {
	if m.hmgetMultiFn != nil {
		return m.hmgetMultiFn(ctx, keys, fields...)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) (int, error) {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return len(keys), nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return true, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func knnEntry(id string, score float64) db.SearchEntry {
	return db.SearchEntry{
		Key:    "talent:emb:profile:" + id,
		Score:  score,
		Fields: map[string]string{"entity_id": id},
	}
}

func newTestRepo(ms *mockStore, dim int) *Repo {
	r := New(ms, Config{Dimensions: dim, SearchRetention: 30 * 24 * time.Hour})
	r.now = func() time.Time { return time.UnixMilli(1700000000000) }
	r.newID = func() string { return "search-1" }
	return r
}
