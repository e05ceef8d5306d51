package embedding

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/db"
	"github.com/kailas-cloud/talentrag/internal/domain"
	domemb "github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/search"
)

var (
	recordPrefix = domain.KeyPrefix + "emb:"
	searchPrefix = domain.KeyPrefix + "search:"
	indexName    = domain.KeyPrefix + "emb:idx"
	// Outside recordPrefix so the index never covers it.
	indexMetaKey = domain.KeyPrefix + "meta:emb:idx"

	allTypes = []domemb.Type{domemb.TypeProfile, domemb.TypeSkills}
)

// Hash field names.
const (
	fieldEntityID   = "entity_id"
	fieldType       = "type"
	fieldModel      = "model"
	fieldDimension  = "dimension"
	fieldVector     = "vector"
	fieldSourceText = "source_text"
	fieldTokensUsed = "tokens_used"
	fieldCost       = "cost"
	fieldMetadata   = "metadata"
	fieldCreatedAt  = "created_at"
	fieldUpdatedAt  = "updated_at"
)

func recordKey(t domemb.Type, entityID string) string {
	return recordPrefix + string(t) + ":" + entityID
}

func searchKey(id string) string {
	return searchPrefix + id
}

func entityIDFromKey(key string, t domemb.Type) string {
	return strings.TrimPrefix(key, recordPrefix+string(t)+":")
}

func indexDefinition(cfg Config) (*db.IndexDefinition, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	b := db.NewIndex(indexName).
		Prefix(recordPrefix).
		Tag(fieldEntityID).
		Tag(fieldType).
		Tag(fieldModel).
		Numeric(fieldUpdatedAt)

	switch indexAlgorithm(cfg) {
	case db.VectorFlat:
		b.VectorFlat(fieldVector, cfg.Dimensions, db.DistanceCosine)
	case db.VectorHNSW:
		b.VectorHNSW(fieldVector, cfg.Dimensions, db.DistanceCosine, cfg.HNSWM, cfg.HNSWEFConstruct)
	default:
		return nil, fmt.Errorf("unknown vector algorithm %q", cfg.Algorithm)
	}
	return b.Build()
}

func indexAlgorithm(cfg Config) db.VectorAlgorithm {
	if cfg.Algorithm == "" {
		return db.VectorHNSW
	}
	return cfg.Algorithm
}

// indexMeta describes the index shape the stored vectors were written for.
func indexMeta(cfg Config) map[string]string {
	return map[string]string{
		fieldDimension: strconv.Itoa(cfg.Dimensions),
		"algorithm":    string(indexAlgorithm(cfg)),
	}
}

func sameIndex(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

// buildHashFields flattens an upsert into HSET fields. created_at is only
// written for new records so a replace keeps the original value.
func buildHashFields(in *domemb.UpsertInput, nowMillis int64, created bool) (map[string]string, error) {
	meta, err := json.Marshal(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	now := strconv.FormatInt(nowMillis, 10)
	m := map[string]string{
		fieldEntityID:   in.EntityID,
		fieldType:       string(in.Type),
		fieldModel:      in.Model,
		fieldDimension:  strconv.Itoa(len(in.Vector)),
		fieldVector:     db.EncodeVector(in.Vector),
		fieldSourceText: in.SourceText,
		fieldTokensUsed: strconv.Itoa(in.TokensUsed),
		fieldCost:       strconv.FormatFloat(in.Cost, 'f', -1, 64),
		fieldMetadata:   string(meta),
		fieldUpdatedAt:  now,
	}
	if created {
		m[fieldCreatedAt] = now
	}
	return m, nil
}

func parseHashFields(m map[string]string) (domemb.Record, error) {
	vec, err := db.DecodeVector(m[fieldVector])
	if err != nil {
		return domemb.Record{}, err
	}

	var meta domemb.Metadata
	if raw := m[fieldMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return domemb.Record{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	tokens, _ := strconv.Atoi(m[fieldTokensUsed])
	cost, _ := strconv.ParseFloat(m[fieldCost], 64)
	createdAt, _ := strconv.ParseInt(m[fieldCreatedAt], 10, 64)
	updatedAt, _ := strconv.ParseInt(m[fieldUpdatedAt], 10, 64)

	return domemb.Reconstruct(
		m[fieldEntityID], domemb.Type(m[fieldType]), m[fieldModel], vec, m[fieldSourceText],
		tokens, cost, meta, createdAt, updatedAt,
	), nil
}

func buildSearchFields(rec *search.Record) (map[string]string, error) {
	hits := rec.Results
	if hits == nil {
		hits = []search.Hit{}
	}
	results, err := json.Marshal(hits)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}

	return map[string]string{
		"query_vector": db.EncodeVector(rec.QueryVector),
		"type":         string(rec.Type),
		"model":        rec.Model,
		"results":      string(results),
		"result_count": strconv.Itoa(len(hits)),
		"limit":        strconv.Itoa(rec.Limit),
		"threshold":    strconv.FormatFloat(rec.Threshold, 'f', -1, 64),
		"execution_ms": strconv.FormatInt(rec.ExecutionTime.Milliseconds(), 10),
		"tokens_used":  strconv.Itoa(rec.TokensUsed),
		"cost":         strconv.FormatFloat(rec.Cost, 'f', -1, 64),
		"created_at":   strconv.FormatInt(rec.CreatedAt.UnixMilli(), 10),
	}, nil
}
