package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/talentrag/internal/db"
	"github.com/kailas-cloud/talentrag/internal/domain"
	domemb "github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/search"
)

const (
	// statsChunk bounds the number of keys per pipelined HMGET batch.
	statsChunk = 500
	// maxKNN caps the K sent to FT.SEARCH.
	maxKNN = 10000
)

// store is the consumer interface for embeddings (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HMGetMulti(ctx context.Context, keys []string, fields ...string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Config holds store-level settings.
type Config struct {
	Dimensions      int           // vector length the index was created with
	SearchRetention time.Duration // TTL for search analytics records; 0 keeps them forever
	Algorithm       db.VectorAlgorithm // HNSW (default) or FLAT
	HNSWM           int
	HNSWEFConstruct int
}

// IndexStatus reports what EnsureIndex did.
type IndexStatus struct {
	Created bool // the index did not exist or was rebuilt
	Rebuilt bool // an index with another dimension or algorithm was dropped
	Purged  int  // stale embedding records removed by a rebuild
}

// Repo implements the embedding store on hashes plus an FT vector index.
type Repo struct {
	store store
	cfg   Config
	now   func() time.Time
	newID func() string
}

// New creates an embedding repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg, now: time.Now, newID: uuid.NewString}
}

// EnsureIndex creates the vector index when it is missing. An index built for
// another dimension or algorithm is dropped and recreated, and the records
// embedded for it are purged so they get regenerated.
func (r *Repo) EnsureIndex(ctx context.Context) (IndexStatus, error) {
	var status IndexStatus

	def, err := indexDefinition(r.cfg)
	if err != nil {
		return status, fmt.Errorf("build index definition: %w", err)
	}
	want := indexMeta(r.cfg)

	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return status, storeErr("index info", indexName, err)
	}
	if exists {
		have, err := r.store.HGetAll(ctx, indexMetaKey)
		if err != nil {
			return status, storeErr("index meta", indexMetaKey, err)
		}
		if len(have) == 0 || sameIndex(have, want) {
			return status, r.writeIndexMeta(ctx, want)
		}

		if err := r.store.DropIndex(ctx, indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return status, storeErr("drop index", indexName, err)
		}
		status.Rebuilt = true
		if status.Purged, err = r.purgeRecords(ctx); err != nil {
			return status, err
		}
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return status, storeErr("create index", indexName, err)
	}
	status.Created = true
	return status, r.writeIndexMeta(ctx, want)
}

func (r *Repo) writeIndexMeta(ctx context.Context, meta map[string]string) error {
	if err := r.store.HSet(ctx, indexMetaKey, meta); err != nil {
		return storeErr("index meta", indexMetaKey, err)
	}
	return nil
}

// purgeRecords deletes every embedding record hash. Search analytics are kept.
func (r *Repo) purgeRecords(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, recordPrefix+"*")
	if err != nil {
		return 0, storeErr("scan", recordPrefix, err)
	}

	purged := 0
	for start := 0; start < len(keys); start += statsChunk {
		end := min(start+statsChunk, len(keys))
		n, err := r.store.Del(ctx, keys[start:end]...)
		if err != nil {
			return purged, storeErr("purge", recordPrefix, err)
		}
		purged += n
	}
	return purged, nil
}

// Upsert creates or replaces the record for (entity, type). Returns true if created.
// A replaced record keeps its original created_at.
func (r *Repo) Upsert(ctx context.Context, in domemb.UpsertInput) (bool, error) {
	if err := in.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if r.cfg.Dimensions > 0 && len(in.Vector) != r.cfg.Dimensions {
		return false, fmt.Errorf("%w: got %d, want %d",
			domain.ErrVectorDimMismatch, len(in.Vector), r.cfg.Dimensions)
	}

	key := recordKey(in.Type, in.EntityID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, storeErr("exists", key, err)
	}

	fields, err := buildHashFields(&in, r.now().UnixMilli(), !exists)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return false, storeErr("upsert", key, err)
	}

	return !exists, nil
}

// Get returns the record for (entity, type).
func (r *Repo) Get(ctx context.Context, entityID string, t domemb.Type) (domemb.Record, error) {
	key := recordKey(t, entityID)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domemb.Record{}, storeErr("get", key, err)
	}
	if len(m) == 0 {
		return domemb.Record{}, domain.ErrEmbeddingNotFound
	}

	rec, err := parseHashFields(m)
	if err != nil {
		return domemb.Record{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return rec, nil
}

// Delete removes the record for (entity, type).
func (r *Repo) Delete(ctx context.Context, entityID string, t domemb.Type) error {
	key := recordKey(t, entityID)
	n, err := r.store.Del(ctx, key)
	if err != nil {
		return storeErr("delete", key, err)
	}
	if n == 0 {
		return domain.ErrEmbeddingNotFound
	}
	return nil
}

// DeleteByEntity removes every embedding type of one entity and returns how many existed.
func (r *Repo) DeleteByEntity(ctx context.Context, entityID string) (int, error) {
	keys := make([]string, 0, len(allTypes))
	for _, t := range allTypes {
		keys = append(keys, recordKey(t, entityID))
	}
	n, err := r.store.Del(ctx, keys...)
	if err != nil {
		return 0, storeErr("delete entity", entityID, err)
	}
	return n, nil
}

// overFetch is the KNN K for a result limit: max(2*limit, limit+10), capped at maxKNN.
func overFetch(limit int) int {
	if limit >= maxKNN/2 {
		return maxKNN
	}
	return max(limit*2, limit+10)
}

// NearestNeighbors returns up to q.Limit records of q.Type closest to q.Vector with
// similarity >= q.Threshold, ordered by similarity desc then entity id asc.
// The KNN query over-fetches so ties at the limit boundary resolve by entity id.
func (r *Repo) NearestNeighbors(ctx context.Context, q domemb.NeighborQuery) ([]domemb.Neighbor, error) {
	if q.Limit <= 0 {
		return []domemb.Neighbor{}, nil
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is required", domain.ErrInvalidRequest)
	}
	if r.cfg.Dimensions > 0 && len(q.Vector) != r.cfg.Dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d",
			domain.ErrVectorDimMismatch, len(q.Vector), r.cfg.Dimensions)
	}
	t := q.Type
	if t == "" {
		t = domemb.TypeProfile
	}

	filters := []db.TagFilter{{Field: fieldType, Value: string(t)}}
	if q.ExcludeEntityID != "" {
		filters = append(filters, db.TagFilter{Field: fieldEntityID, Value: q.ExcludeEntityID, Negate: true})
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		VectorField:  fieldVector,
		Filters:      filters,
		Vector:       q.Vector,
		K:            overFetch(q.Limit),
		ReturnFields: []string{fieldEntityID},
	})
	if err != nil {
		return nil, storeErr("knn", indexName, err)
	}

	out := make([]domemb.Neighbor, 0, len(res.Entries))
	for _, e := range res.Entries {
		id := e.Fields[fieldEntityID]
		if id == "" {
			id = entityIDFromKey(e.Key, t)
		}
		if id == "" || id == q.ExcludeEntityID || e.Score < q.Threshold {
			continue
		}
		out = append(out, domemb.Neighbor{EntityID: id, Similarity: e.Score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].EntityID < out[j].EntityID
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// RecordSearch writes one search analytics record. Callers treat failures as non-fatal.
func (r *Repo) RecordSearch(ctx context.Context, rec search.Record) error {
	if rec.ID == "" {
		rec.ID = r.newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}

	key := searchKey(rec.ID)
	fields, err := buildSearchFields(&rec)
	if err != nil {
		return fmt.Errorf("encode search record: %w", err)
	}

	if r.cfg.SearchRetention > 0 {
		err = r.store.HSetWithTTL(ctx, key, fields, r.cfg.SearchRetention)
	} else {
		err = r.store.HSet(ctx, key, fields)
	}
	if err != nil {
		return storeErr("record search", key, err)
	}
	return nil
}

// Stats aggregates counts, tokens and cost over all stored embeddings.
func (r *Repo) Stats(ctx context.Context) (domemb.Stats, error) {
	keys, err := r.store.Scan(ctx, recordPrefix+"*")
	if err != nil {
		return domemb.Stats{}, storeErr("scan", recordPrefix, err)
	}

	stats := domemb.Stats{CountByType: make(map[domemb.Type]int, len(allTypes))}
	for start := 0; start < len(keys); start += statsChunk {
		end := min(start+statsChunk, len(keys))
		rows, err := r.store.HMGetMulti(ctx, keys[start:end], fieldType, fieldTokensUsed, fieldCost)
		if err != nil {
			return domemb.Stats{}, storeErr("stats", recordPrefix, err)
		}
		for _, row := range rows {
			if row == nil {
				continue // deleted between SCAN and HMGET
			}
			stats.CountByType[domemb.Type(row[fieldType])]++
			stats.Total++
			if n, err := strconv.Atoi(row[fieldTokensUsed]); err == nil {
				stats.TotalTokens += n
			}
			if c, err := strconv.ParseFloat(row[fieldCost], 64); err == nil {
				stats.TotalCost += c
			}
		}
	}
	return stats, nil
}

func storeErr(op, key string, err error) error {
	return &domain.StoreError{Op: op, Key: key, Err: err}
}
