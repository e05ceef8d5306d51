package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/similarity"
)

// FindSimilarByText embeds free text (not cached) and returns enriched similar profiles.
// Zero limit or threshold fall back to the configured search defaults.
func (s *Service) FindSimilarByText(
	ctx context.Context, queryText string, limit int, threshold float64,
) ([]similarity.Result, error) {
	text := strings.TrimSpace(queryText)
	if text == "" {
		return nil, &domain.RetrievalError{
			Op: "find_similar_by_text", Err: fmt.Errorf("%w: query text is required", domain.ErrInvalidRequest),
		}
	}
	if err := checkLimit(limit); err != nil {
		return nil, &domain.RetrievalError{Op: "find_similar_by_text", Err: err}
	}
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}
	if threshold <= 0 {
		threshold = s.cfg.SearchThreshold
	}

	res, err := s.queries.Embed(ctx, strings.ToLower(text))
	if err != nil {
		return nil, &domain.RetrievalError{Op: "find_similar_by_text", Err: fmt.Errorf("embed query: %w", err)}
	}

	results := s.finder.FindSimilar(ctx, similarity.Query{
		Vector:     res.Embedding,
		Type:       embedding.TypeProfile,
		Limit:      limit,
		Threshold:  threshold,
		Model:      res.Model,
		TokensUsed: res.TotalTokens,
		Cost:       res.Cost,
	})
	s.enrich(ctx, results)
	return results, nil
}

// FindSimilarToProfile returns profiles similar to an existing one, excluding itself.
// Zero limit or threshold fall back to the configured similar-entity defaults.
func (s *Service) FindSimilarToProfile(
	ctx context.Context, entityID string, limit int, threshold float64,
) ([]similarity.Result, error) {
	if err := checkLimit(limit); err != nil {
		return nil, &domain.RetrievalError{Op: "find_similar_to_profile", EntityID: entityID, Err: err}
	}
	p, err := s.fetchProfile(ctx, "find_similar_to_profile", entityID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.SimilarLimit
	}
	if threshold <= 0 {
		threshold = s.cfg.SimilarThreshold
	}

	emb, err := s.ensureEmbedding(ctx, &p, false)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "find_similar_to_profile", EntityID: entityID, Err: err}
	}

	results := s.finder.FindSimilar(ctx, similarity.Query{
		Vector:          emb.Vector,
		Type:            embedding.TypeProfile,
		Limit:           limit,
		Threshold:       threshold,
		ExcludeEntityID: entityID,
		Model:           emb.Model,
		TokensUsed:      emb.TokensUsed,
		Cost:            emb.Cost,
	})
	s.enrich(ctx, results)
	return results, nil
}

func checkLimit(limit int) error {
	if limit > similarity.MaxLimit {
		return fmt.Errorf("%w: limit %d exceeds %d", domain.ErrInvalidRequest, limit, similarity.MaxLimit)
	}
	return nil
}

// enrich fills name, skills and technologies in place. A failed lookup leaves the hit as is.
func (s *Service) enrich(ctx context.Context, results []similarity.Result) {
	for i := range results {
		p, err := s.profiles.FetchProfile(ctx, results[i].EntityID)
		if err != nil {
			s.logger.Warn("Similar entity enrichment failed",
				zap.String("entity_id", results[i].EntityID),
				zap.Error(err),
			)
			continue
		}
		results[i].Name = p.Name
		results[i].Skills = p.SkillNames()
		results[i].Technologies = p.TechnologyNames()
	}
}
