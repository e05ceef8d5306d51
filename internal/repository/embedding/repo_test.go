package embedding

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/talentrag/internal/db"
	"github.com/kailas-cloud/talentrag/internal/domain"
	domemb "github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/search"
)

func sampleInput() domemb.UpsertInput {
	return domemb.UpsertInput{
		EntityID:   "p-1",
		Type:       domemb.TypeProfile,
		Vector:     []float32{0.1, 0.2, 0.3},
		SourceText: "ada lovelace go expert 7",
		Model:      "text-embedding-3-small",
		TokensUsed: 12,
		Cost:       0.00024,
		Metadata:   domemb.Metadata{Name: "Ada", SkillCount: 1},
	}
}

// --- Upsert ---

func TestUpsert_CreatesRecord(t *testing.T) {
	var gotKey string
	var gotFields map[string]string
	ms := &mockStore{
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			gotKey, gotFields = key, fields
			return nil
		},
	}
	r := newTestRepo(ms, 3)

	created, err := r.Upsert(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if gotKey != "talent:emb:profile:p-1" {
		t.Errorf("key = %q", gotKey)
	}
	if gotFields["created_at"] != "1700000000000" || gotFields["updated_at"] != "1700000000000" {
		t.Errorf("timestamps = %q/%q", gotFields["created_at"], gotFields["updated_at"])
	}
	if gotFields["dimension"] != "3" || gotFields["tokens_used"] != "12" {
		t.Errorf("fields = %v", gotFields)
	}
	if !strings.Contains(gotFields["metadata"], `"skill_count":1`) {
		t.Errorf("metadata = %q", gotFields["metadata"])
	}
	if len(gotFields["vector"]) != 12 {
		t.Errorf("vector blob length = %d, want 12", len(gotFields["vector"]))
	}
}

func TestUpsert_ReplaceKeepsCreatedAt(t *testing.T) {
	var gotFields map[string]string
	ms := &mockStore{
		existsFn: func(context.Context, string) (bool, error) { return true, nil },
		hsetFn: func(_ context.Context, _ string, fields map[string]string) error {
			gotFields = fields
			return nil
		},
	}
	r := newTestRepo(ms, 3)

	created, err := r.Upsert(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false on replace")
	}
	if _, ok := gotFields["created_at"]; ok {
		t.Error("replace must not overwrite created_at")
	}
	if gotFields["updated_at"] == "" {
		t.Error("replace must set updated_at")
	}
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	r := newTestRepo(&mockStore{}, 4)
	_, err := r.Upsert(context.Background(), sampleInput())
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestUpsert_InvalidInput(t *testing.T) {
	r := newTestRepo(&mockStore{}, 3)
	in := sampleInput()
	in.EntityID = ""
	_, err := r.Upsert(context.Background(), in)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestUpsert_StoreError(t *testing.T) {
	ms := &mockStore{
		hsetFn: func(context.Context, string, map[string]string) error {
			return &db.Error{Op: db.OpHSet, Err: context.DeadlineExceeded}
		},
	}
	r := newTestRepo(ms, 3)
	_, err := r.Upsert(context.Background(), sampleInput())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	var se *domain.StoreError
	if !errors.As(err, &se) || se.Key != "talent:emb:profile:p-1" {
		t.Errorf("expected StoreError with key, got %v", err)
	}
}

func TestUpsert_SecondWriteReplacesFirst(t *testing.T) {
	hashes := map[string]map[string]string{}
	ms := &mockStore{
		existsFn: func(_ context.Context, key string) (bool, error) {
			_, ok := hashes[key]
			return ok, nil
		},
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			h, ok := hashes[key]
			if !ok {
				h = map[string]string{}
				hashes[key] = h
			}
			for k, v := range fields {
				h[k] = v
			}
			return nil
		},
		hgetAllFn: func(_ context.Context, key string) (map[string]string, error) {
			return hashes[key], nil
		},
	}
	r := newTestRepo(ms, 3)
	ctx := context.Background()

	if _, err := r.Upsert(ctx, sampleInput()); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	r.now = func() time.Time { return time.UnixMilli(1700000005000) }
	second := sampleInput()
	second.Vector = []float32{0.9, 0.8, 0.7}
	second.SourceText = "ada lovelace rust expert 9"
	second.Metadata = domemb.Metadata{Name: "Ada L.", SkillCount: 2}
	created, err := r.Upsert(ctx, second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("second upsert must replace, not create")
	}
	if len(hashes) != 1 {
		t.Fatalf("stored records = %d, want 1", len(hashes))
	}

	rec, err := r.Get(ctx, "p-1", domemb.TypeProfile)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.SourceText() != second.SourceText || rec.Vector()[0] != 0.9 || rec.Metadata() != second.Metadata {
		t.Errorf("second payload did not win: %+v", rec)
	}
	if rec.CreatedAt() != 1700000000000 || rec.UpdatedAt() != 1700000005000 {
		t.Errorf("created/updated = %d/%d", rec.CreatedAt(), rec.UpdatedAt())
	}
	if rec.Dimension() != 3 {
		t.Errorf("dimension = %d, want 3", rec.Dimension())
	}
}

// --- Get / Delete ---

func TestGet_RoundTrip(t *testing.T) {
	in := sampleInput()
	fields, err := buildHashFields(&in, 1000, true)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	fields["updated_at"] = "2000"

	ms := &mockStore{
		hgetAllFn: func(context.Context, string) (map[string]string, error) { return fields, nil },
	}
	r := newTestRepo(ms, 3)

	rec, err := r.Get(context.Background(), "p-1", domemb.TypeProfile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.EntityID() != "p-1" || rec.Type() != domemb.TypeProfile {
		t.Errorf("identity = %q/%q", rec.EntityID(), rec.Type())
	}
	if rec.Dimension() != 3 || rec.Vector()[2] != 0.3 {
		t.Errorf("vector = %v", rec.Vector())
	}
	if rec.Metadata().Name != "Ada" {
		t.Errorf("metadata = %+v", rec.Metadata())
	}
	if rec.CreatedAt() != 1000 || rec.UpdatedAt() != 2000 {
		t.Errorf("timestamps = %d/%d", rec.CreatedAt(), rec.UpdatedAt())
	}
	if rec.Cost() != 0.00024 {
		t.Errorf("cost = %v", rec.Cost())
	}
}

func TestGet_NotFound(t *testing.T) {
	r := newTestRepo(&mockStore{}, 3)
	_, err := r.Get(context.Background(), "ghost", domemb.TypeProfile)
	if !errors.Is(err, domain.ErrEmbeddingNotFound) {
		t.Errorf("expected ErrEmbeddingNotFound, got %v", err)
	}
}

func TestDelete_Absent(t *testing.T) {
	ms := &mockStore{delFn: func(context.Context, ...string) (int, error) { return 0, nil }}
	r := newTestRepo(ms, 3)
	err := r.Delete(context.Background(), "ghost", domemb.TypeProfile)
	if !errors.Is(err, domain.ErrEmbeddingNotFound) {
		t.Errorf("expected ErrEmbeddingNotFound, got %v", err)
	}
}

func TestDeleteByEntity_AllTypes(t *testing.T) {
	var gotKeys []string
	ms := &mockStore{delFn: func(_ context.Context, keys ...string) (int, error) {
		gotKeys = keys
		return 1, nil
	}}
	r := newTestRepo(ms, 3)

	n, err := r.DeleteByEntity(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	want := []string{"talent:emb:profile:p-1", "talent:emb:skills:p-1"}
	if strings.Join(gotKeys, ",") != strings.Join(want, ",") {
		t.Errorf("keys = %v, want %v", gotKeys, want)
	}
}

// --- NearestNeighbors ---

func TestNearestNeighbors_Threshold(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
				knnEntry("p-2", 0.9), knnEntry("p-3", 0.7),
			}}, nil
		},
	}
	r := newTestRepo(ms, 3)

	got, err := r.NearestNeighbors(context.Background(), domemb.NeighborQuery{
		Vector: []float32{1, 0, 0}, Type: domemb.TypeProfile, Limit: 5, Threshold: 0.75,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].EntityID != "p-2" {
		t.Fatalf("expected only p-2, got %+v", got)
	}
}

func TestNearestNeighbors_ThresholdAroundSingleNeighbor(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{knnEntry("p-2", 0.75)}}, nil
		},
	}
	r := newTestRepo(ms, 3)

	tests := []struct {
		threshold float64
		want      int
	}{
		{0.9, 0},
		{0.7, 1},
	}
	for _, tt := range tests {
		got, err := r.NearestNeighbors(context.Background(), domemb.NeighborQuery{
			Vector: []float32{1, 0, 0}, Limit: 5, Threshold: tt.threshold, ExcludeEntityID: "p-1",
		})
		if err != nil {
			t.Fatalf("threshold %v: %v", tt.threshold, err)
		}
		if got == nil || len(got) != tt.want {
			t.Errorf("threshold %v: got %+v, want %d results", tt.threshold, got, tt.want)
		}
		if tt.want == 1 && (got[0].EntityID != "p-2" || got[0].Similarity != 0.75) {
			t.Errorf("threshold %v: got %+v", tt.threshold, got[0])
		}
	}
}

func TestNearestNeighbors_HugeLimitCapsK(t *testing.T) {
	var gotK int
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			gotK = q.K
			return &db.SearchResult{Entries: []db.SearchEntry{knnEntry("p-2", 0.9)}}, nil
		},
	}
	r := newTestRepo(ms, 3)

	got, err := r.NearestNeighbors(context.Background(), domemb.NeighborQuery{
		Vector: []float32{1, 0, 0}, Limit: math.MaxInt, ExcludeEntityID: "self",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotK != maxKNN {
		t.Errorf("K = %d, want %d", gotK, maxKNN)
	}
	if len(got) != 1 || got[0].EntityID != "p-2" {
		t.Errorf("got %+v", got)
	}
}

func TestOverFetch(t *testing.T) {
	tests := []struct{ limit, want int }{
		{1, 11},
		{3, 13},
		{10, 20},
		{1000, 2000},
		{maxKNN / 2, maxKNN},
		{math.MaxInt, maxKNN},
	}
	for _, tt := range tests {
		if got := overFetch(tt.limit); got != tt.want {
			t.Errorf("overFetch(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestNearestNeighbors_OrderingAndLimit(t *testing.T) {
	var gotQuery *db.KNNQuery
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			gotQuery = q
			return &db.SearchResult{Entries: []db.SearchEntry{
				knnEntry("c", 0.8), knnEntry("b", 0.8), knnEntry("x", 0.95), knnEntry("a", 0.8),
			}}, nil
		},
	}
	r := newTestRepo(ms, 3)

	got, err := r.NearestNeighbors(context.Background(), domemb.NeighborQuery{
		Vector: []float32{1, 0, 0}, Limit: 3, Threshold: 0.5, ExcludeEntityID: "self",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := make([]string, len(got))
	for i, n := range got {
		ids[i] = n.EntityID
	}
	if strings.Join(ids, ",") != "x,a,b" {
		t.Errorf("order = %v, want x,a,b", ids)
	}

	if gotQuery.K != 13 {
		t.Errorf("K = %d, want over-fetch of 13", gotQuery.K)
	}
	if len(gotQuery.Filters) != 2 || !gotQuery.Filters[1].Negate || gotQuery.Filters[1].Value != "self" {
		t.Errorf("filters = %+v", gotQuery.Filters)
	}
	if gotQuery.Filters[0].Value != "profile" {
		t.Errorf("type filter should default to profile, got %+v", gotQuery.Filters[0])
	}
}

func TestNearestNeighbors_NeverReturnsExcluded(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			return &db.SearchResult{Entries: []db.SearchEntry{knnEntry("self", 1), knnEntry("p-9", 0.9)}}, nil
		},
	}
	r := newTestRepo(ms, 3)

	got, err := r.NearestNeighbors(context.Background(), domemb.NeighborQuery{
		Vector: []float32{1, 0, 0}, Limit: 5, ExcludeEntityID: "self",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range got {
		if n.EntityID == "self" {
			t.Fatal("excluded entity returned")
		}
	}
}

func TestNearestNeighbors_ZeroLimit(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			t.Fatal("store must not be queried")
			return nil, nil
		},
	}
	got, err := newTestRepo(ms, 3).NearestNeighbors(context.Background(), domemb.NeighborQuery{Vector: []float32{1}})
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty result, got %v, %v", got, err)
	}
}

func TestNearestNeighbors_StoreError(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			return nil, &db.Error{Op: db.OpSearch, Err: context.DeadlineExceeded}
		},
	}
	_, err := newTestRepo(ms, 3).NearestNeighbors(context.Background(), domemb.NeighborQuery{
		Vector: []float32{1, 0, 0}, Limit: 3,
	})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

// --- RecordSearch ---

func TestRecordSearch_WritesWithTTL(t *testing.T) {
	var gotKey string
	var gotTTL time.Duration
	var gotFields map[string]string
	ms := &mockStore{
		hsetWithTTLFn: func(_ context.Context, key string, fields map[string]string, ttl time.Duration) error {
			gotKey, gotFields, gotTTL = key, fields, ttl
			return nil
		},
	}
	r := newTestRepo(ms, 3)

	err := r.RecordSearch(context.Background(), search.Record{
		QueryVector:   []float32{1, 2, 3},
		Type:          domemb.TypeProfile,
		Results:       []search.Hit{{EntityID: "p-2", Similarity: 0.9}},
		Limit:         3,
		Threshold:     0.7,
		ExecutionTime: 15 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "talent:search:search-1" {
		t.Errorf("key = %q", gotKey)
	}
	if gotTTL != 30*24*time.Hour {
		t.Errorf("ttl = %v", gotTTL)
	}
	if gotFields["result_count"] != "1" || gotFields["execution_ms"] != "15" {
		t.Errorf("fields = %v", gotFields)
	}
	if gotFields["created_at"] != "1700000000000" {
		t.Errorf("created_at = %q", gotFields["created_at"])
	}
}

func TestRecordSearch_StoreError(t *testing.T) {
	ms := &mockStore{
		hsetWithTTLFn: func(context.Context, string, map[string]string, time.Duration) error {
			return errors.New("connection refused")
		},
	}
	err := newTestRepo(ms, 3).RecordSearch(context.Background(), search.Record{})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

// --- Stats ---

func TestStats_Aggregates(t *testing.T) {
	ms := &mockStore{
		scanFn: func(_ context.Context, pattern string) ([]string, error) {
			if pattern != "talent:emb:*" {
				t.Errorf("pattern = %q", pattern)
			}
			return []string{"k1", "k2", "k3"}, nil
		},
		hmgetMultiFn: func(_ context.Context, keys []string, _ ...string) ([]map[string]string, error) {
			return []map[string]string{
				{"type": "profile", "tokens_used": "100", "cost": "0.5"},
				nil,
				{"type": "skills", "tokens_used": "20", "cost": "0.25"},
			}, nil
		},
	}

	stats, err := newTestRepo(ms, 3).Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.CountByType[domemb.TypeProfile] != 1 || stats.CountByType[domemb.TypeSkills] != 1 {
		t.Errorf("CountByType = %v", stats.CountByType)
	}
	if stats.TotalTokens != 120 || stats.TotalCost != 0.75 {
		t.Errorf("totals = %d/%f", stats.TotalTokens, stats.TotalCost)
	}
}

// --- EnsureIndex ---

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	var created *db.IndexDefinition
	var meta map[string]string
	ms := &mockStore{
		indexExistsFn: func(context.Context, string) (bool, error) { return false, nil },
		createIndexFn: func(_ context.Context, def *db.IndexDefinition) error {
			created = def
			return nil
		},
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			if key == "talent:meta:emb:idx" {
				meta = fields
			}
			return nil
		},
	}
	status, err := newTestRepo(ms, 1536).EnsureIndex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Created || status.Rebuilt {
		t.Errorf("status = %+v", status)
	}
	if created == nil || created.Name != "talent:emb:idx" {
		t.Fatalf("index not created: %+v", created)
	}
	if created.VectorDim() != 1536 {
		t.Errorf("dim = %d", created.VectorDim())
	}
	if meta["dimension"] != "1536" || meta["algorithm"] != "HNSW" {
		t.Errorf("meta = %v", meta)
	}
}

func TestEnsureIndex_FlatAlgorithm(t *testing.T) {
	var created *db.IndexDefinition
	ms := &mockStore{
		indexExistsFn: func(context.Context, string) (bool, error) { return false, nil },
		createIndexFn: func(_ context.Context, def *db.IndexDefinition) error {
			created = def
			return nil
		},
	}
	r := newTestRepo(ms, 8)
	r.cfg.Algorithm = db.VectorFlat

	if _, err := r.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec := created.Fields[len(created.Fields)-1]
	if vec.VectorAlgo != db.VectorFlat || vec.VectorDim != 8 {
		t.Errorf("vector field = %+v", vec)
	}
}

func TestEnsureIndex_UnknownAlgorithm(t *testing.T) {
	r := newTestRepo(&mockStore{}, 8)
	r.cfg.Algorithm = "IVF"
	if _, err := r.EnsureIndex(context.Background()); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestEnsureIndex_ToleratesConcurrentCreate(t *testing.T) {
	ms := &mockStore{
		indexExistsFn: func(context.Context, string) (bool, error) { return false, nil },
		createIndexFn: func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists },
	}
	if _, err := newTestRepo(ms, 8).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_Exists(t *testing.T) {
	ms := &mockStore{
		hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return map[string]string{"dimension": "8", "algorithm": "HNSW"}, nil
		},
		createIndexFn: func(context.Context, *db.IndexDefinition) error {
			t.Fatal("must not create existing index")
			return nil
		},
		dropIndexFn: func(context.Context, string) error {
			t.Fatal("must not drop a matching index")
			return nil
		},
	}
	status, err := newTestRepo(ms, 8).EnsureIndex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != (IndexStatus{}) {
		t.Errorf("status = %+v, want zero", status)
	}
}

func TestEnsureIndex_AdoptsIndexWithoutMeta(t *testing.T) {
	var metaWritten bool
	ms := &mockStore{
		hsetFn: func(_ context.Context, key string, _ map[string]string) error {
			metaWritten = key == "talent:meta:emb:idx"
			return nil
		},
		dropIndexFn: func(context.Context, string) error {
			t.Fatal("must not drop an index without meta")
			return nil
		},
	}
	if _, err := newTestRepo(ms, 8).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !metaWritten {
		t.Error("meta not recorded for existing index")
	}
}

func TestEnsureIndex_DimensionChangeRebuilds(t *testing.T) {
	var dropped, createdDim int
	var deleted []string
	ms := &mockStore{
		hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return map[string]string{"dimension": "1536", "algorithm": "HNSW"}, nil
		},
		dropIndexFn: func(_ context.Context, name string) error {
			if name != "talent:emb:idx" {
				t.Errorf("dropped %q", name)
			}
			dropped++
			return nil
		},
		scanFn: func(_ context.Context, pattern string) ([]string, error) {
			if pattern != "talent:emb:*" {
				t.Errorf("scan pattern = %q", pattern)
			}
			return []string{"talent:emb:profile:p-1", "talent:emb:skills:p-1"}, nil
		},
		delFn: func(_ context.Context, keys ...string) (int, error) {
			deleted = append(deleted, keys...)
			return len(keys), nil
		},
		createIndexFn: func(_ context.Context, def *db.IndexDefinition) error {
			createdDim = def.VectorDim()
			return nil
		},
	}
	status, err := newTestRepo(ms, 3).EnsureIndex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Rebuilt || !status.Created || status.Purged != 2 {
		t.Errorf("status = %+v", status)
	}
	if dropped != 1 || createdDim != 3 || len(deleted) != 2 {
		t.Errorf("dropped=%d createdDim=%d deleted=%v", dropped, createdDim, deleted)
	}
}

func TestEnsureIndex_DropError(t *testing.T) {
	ms := &mockStore{
		hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return map[string]string{"dimension": "1536", "algorithm": "HNSW"}, nil
		},
		dropIndexFn: func(context.Context, string) error { return errors.New("LOADING") },
	}
	_, err := newTestRepo(ms, 3).EnsureIndex(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store error, got %v", err)
	}
}
