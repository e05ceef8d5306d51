package similarity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/search"
	"github.com/kailas-cloud/talentrag/internal/domain/similarity"
	"github.com/kailas-cloud/talentrag/internal/metrics"
)

// DefaultRecordTimeout bounds the analytics write after a search.
const DefaultRecordTimeout = 2 * time.Second

// Service finds similar entities around a vector. It never fails: store errors degrade to no results.
type Service struct {
	store         neighborStore
	logger        *zap.Logger
	recordTimeout time.Duration
	now           func() time.Time
}

// New creates a similarity finder.
func New(s neighborStore, logger *zap.Logger) *Service {
	return &Service{
		store:         s,
		logger:        logger,
		recordTimeout: DefaultRecordTimeout,
		now:           time.Now,
	}
}

// FindSimilar returns at most q.Limit entities with similarity >= q.Threshold,
// most similar first, never including q.ExcludeEntityID. The result is never nil.
func (s *Service) FindSimilar(ctx context.Context, q similarity.Query) []similarity.Result {
	if q.Limit <= 0 {
		return []similarity.Result{}
	}
	q.Limit = min(q.Limit, similarity.MaxLimit)
	if q.Type == "" {
		q.Type = embedding.TypeProfile
	}

	fetch := q.Limit
	if q.ExcludeEntityID != "" {
		fetch++
	}

	start := s.now()
	neighbors, err := s.store.NearestNeighbors(ctx, embedding.NeighborQuery{
		Vector:          q.Vector,
		Type:            q.Type,
		Limit:           fetch,
		Threshold:       q.Threshold,
		ExcludeEntityID: q.ExcludeEntityID,
	})
	elapsed := s.now().Sub(start)

	if err != nil {
		metrics.SimilaritySearchTotal.WithLabelValues(string(q.Type), "degraded").Inc()
		s.logger.Warn("Similarity search failed, returning no results",
			zap.String("embedding_type", string(q.Type)),
			zap.String("exclude_entity_id", q.ExcludeEntityID),
			zap.Error(err),
		)
		return []similarity.Result{}
	}

	results := make([]similarity.Result, 0, min(len(neighbors), q.Limit))
	for _, n := range neighbors {
		if n.EntityID == q.ExcludeEntityID {
			continue
		}
		if len(results) == q.Limit {
			break
		}
		results = append(results, similarity.Result{EntityID: n.EntityID, Similarity: n.Similarity})
	}

	metrics.SimilaritySearchTotal.WithLabelValues(string(q.Type), "ok").Inc()
	metrics.SimilaritySearchDuration.WithLabelValues(string(q.Type)).Observe(elapsed.Seconds())
	metrics.SimilarityResultsCount.WithLabelValues(string(q.Type)).Observe(float64(len(results)))

	s.recordSearch(ctx, q, results, elapsed)
	return results
}

// recordSearch writes the analytics record detached from the caller's cancellation.
func (s *Service) recordSearch(ctx context.Context, q similarity.Query, results []similarity.Result, elapsed time.Duration) {
	hits := make([]search.Hit, len(results))
	for i, r := range results {
		hits[i] = search.Hit{EntityID: r.EntityID, Similarity: r.Similarity}
	}

	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.recordTimeout)
	defer cancel()

	err := s.store.RecordSearch(recCtx, search.Record{
		QueryVector:   q.Vector,
		Type:          q.Type,
		Model:         q.Model,
		Results:       hits,
		Limit:         q.Limit,
		Threshold:     q.Threshold,
		ExecutionTime: elapsed,
		TokensUsed:    q.TokensUsed,
		Cost:          q.Cost,
		CreatedAt:     s.now(),
	})
	if err != nil {
		metrics.SearchRecordErrorsTotal.Inc()
		s.logger.Warn("Failed to record similarity search", zap.Error(err))
	}
}
