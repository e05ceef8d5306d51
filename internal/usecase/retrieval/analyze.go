package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/analysis"
	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/profile"
	"github.com/kailas-cloud/talentrag/internal/domain/similarity"
	"github.com/kailas-cloud/talentrag/internal/metrics"
)

// Analyze runs the full retrieval pipeline for one entity and delegates to the analysis tool.
// Steps run sequentially: embedding, similar entities, skills context, analysis.
// Similar entities and skills context are optional and never fail the request.
func (s *Service) Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error) {
	if err := req.Normalize(); err != nil {
		return analysis.Result{}, &domain.RetrievalError{
			Op: "analyze", EntityID: req.EntityID, AnalysisType: string(req.Type),
			Err: fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err),
		}
	}

	start := time.Now()
	res, err := s.analyze(ctx, &req)
	metrics.AnalysisDuration.WithLabelValues(string(req.Type)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(string(req.Type), "error").Inc()
		s.logger.Error("Analysis failed",
			zap.String("entity_id", req.EntityID),
			zap.String("analysis_type", string(req.Type)),
			zap.Error(err),
		)
		return analysis.Result{}, err
	}

	metrics.AnalysisRequestsTotal.WithLabelValues(string(req.Type), "ok").Inc()
	s.logger.Info("Analysis completed",
		zap.String("entity_id", req.EntityID),
		zap.String("analysis_type", string(req.Type)),
		zap.Int("similar_entities", len(res.SimilarEntities)),
		zap.Bool("embedding_cached", res.EmbeddingCached),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (s *Service) analyze(ctx context.Context, req *analysis.Request) (analysis.Result, error) {
	fail := func(op string, err error) error {
		return &domain.RetrievalError{Op: op, EntityID: req.EntityID, AnalysisType: string(req.Type), Err: err}
	}

	p, err := s.profiles.FetchProfile(ctx, req.EntityID)
	if err != nil {
		return analysis.Result{}, fail("fetch_profile", err)
	}

	bundle := analysis.Bundle{
		AnalysisType:    req.Type,
		Entity:          p,
		SimilarEntities: []similarity.Result{},
	}

	emb, err := s.ensureEmbedding(ctx, &p, false)
	if err != nil {
		return analysis.Result{}, fail("ensure_embedding", err)
	}

	if req.IncludeSimilar {
		limit, threshold := s.cfg.SimilarLimit, s.cfg.SimilarThreshold
		if req.SimilarLimit > 0 {
			limit = req.SimilarLimit
		}
		if req.SimilarThreshold > 0 {
			threshold = req.SimilarThreshold
		}

		bundle.SimilarEntities = s.finder.FindSimilar(ctx, similarity.Query{
			Vector:          emb.Vector,
			Type:            embedding.TypeProfile,
			Limit:           limit,
			Threshold:       threshold,
			ExcludeEntityID: p.ID,
			Model:           emb.Model,
			TokensUsed:      emb.TokensUsed,
			Cost:            emb.Cost,
		})
		s.enrich(ctx, bundle.SimilarEntities)
	}

	if req.IncludeSkillsContext {
		bundle.SkillsContext = profile.SkillsContext(p)
	}

	payload, err := json.Marshal(bundle)
	if err != nil {
		return analysis.Result{}, fail("serialize_context", err)
	}

	out, err := s.analyzer.Analyze(ctx, analysis.ToolRequest{
		Context:         string(payload),
		AnalysisType:    req.Type,
		CallerRole:      req.CallerRole,
		Urgency:         req.Urgency,
		Confidentiality: req.Confidentiality,
	})
	if err != nil {
		return analysis.Result{}, fail("analysis_tool", fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err))
	}

	return analysis.Result{
		EntityID:        p.ID,
		AnalysisType:    req.Type,
		Text:            out.Text,
		Usage:           out.Usage,
		SimilarEntities: bundle.SimilarEntities,
		EmbeddingCached: emb.Cached,
	}, nil
}
