package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/profile"
	"github.com/kailas-cloud/talentrag/internal/metrics"
)

// Defaults for Config zero values.
const (
	DefaultSimilarLimit     = 3
	DefaultSimilarThreshold = 0.7
	DefaultSearchLimit      = 10
	DefaultSearchThreshold  = 0.5
	DefaultBatchConcurrency = 4
	DefaultBatchSize        = 32
)

// Config tunes retrieval defaults. Per-request values override them.
type Config struct {
	SimilarLimit     int
	SimilarThreshold float64
	SearchLimit      int
	SearchThreshold  float64
	BatchConcurrency int
	// BatchSize is the number of profiles embedded per provider call during
	// GenerateAllEmbeddings when the embedder supports batching.
	BatchSize int
	// QueryInstruction is prepended to free-text queries for instruction-tuned
	// models, e.g. "query: ". Stored profile embeddings are never prefixed.
	QueryInstruction string
}

func (c *Config) applyDefaults() {
	if c.SimilarLimit <= 0 {
		c.SimilarLimit = DefaultSimilarLimit
	}
	if c.SimilarThreshold <= 0 {
		c.SimilarThreshold = DefaultSimilarThreshold
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = DefaultSearchLimit
	}
	if c.SearchThreshold <= 0 {
		c.SearchThreshold = DefaultSearchThreshold
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = DefaultBatchConcurrency
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// Service orchestrates embedding, similarity retrieval and analysis for person profiles.
type Service struct {
	store    EmbeddingStore
	embedder Embedder
	batcher  BatchEmbedder // nil when embedder has no batch call
	queries  Embedder
	finder   SimilarityFinder
	profiles ProfileReader
	analyzer Analyzer
	cfg      Config
	logger   *zap.Logger
}

// New creates a retrieval orchestrator.
func New(
	store EmbeddingStore, embedder Embedder, finder SimilarityFinder,
	profiles ProfileReader, analyzer Analyzer, cfg Config, logger *zap.Logger,
) *Service {
	cfg.applyDefaults()
	queries := embedder
	if cfg.QueryInstruction != "" {
		queries = domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	batcher, _ := embedder.(BatchEmbedder)
	return &Service{
		store:    store,
		embedder: embedder,
		batcher:  batcher,
		queries:  queries,
		finder:   finder,
		profiles: profiles,
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Embedding is the vector available for an entity after EnsureEmbedding.
type Embedding struct {
	EntityID   string
	Vector     []float32
	Model      string
	Cached     bool
	Created    bool
	TokensUsed int
	Cost       float64
}

// EnsureEmbedding returns the stored profile embedding, generating and storing it on a miss.
func (s *Service) EnsureEmbedding(ctx context.Context, entityID string) (Embedding, error) {
	p, err := s.fetchProfile(ctx, "ensure_embedding", entityID)
	if err != nil {
		return Embedding{}, err
	}
	emb, err := s.ensureEmbedding(ctx, &p, false)
	if err != nil {
		return Embedding{}, &domain.RetrievalError{Op: "ensure_embedding", EntityID: entityID, Err: err}
	}
	return emb, nil
}

// RegenerateEmbedding re-embeds the profile and replaces the stored record in place.
func (s *Service) RegenerateEmbedding(ctx context.Context, entityID string) (Embedding, error) {
	p, err := s.fetchProfile(ctx, "regenerate_embedding", entityID)
	if err != nil {
		return Embedding{}, err
	}
	emb, err := s.ensureEmbedding(ctx, &p, true)
	if err != nil {
		return Embedding{}, &domain.RetrievalError{Op: "regenerate_embedding", EntityID: entityID, Err: err}
	}
	return emb, nil
}

// DeleteEmbeddings removes every embedding type of an entity. Returns the number removed.
func (s *Service) DeleteEmbeddings(ctx context.Context, entityID string) (int, error) {
	n, err := s.store.DeleteByEntity(ctx, entityID)
	if err != nil {
		return 0, &domain.RetrievalError{Op: "delete_embeddings", EntityID: entityID, Err: err}
	}
	s.logger.Info("Embeddings deleted", zap.String("entity_id", entityID), zap.Int("count", n))
	return n, nil
}

func (s *Service) fetchProfile(ctx context.Context, op, entityID string) (profile.Profile, error) {
	p, err := s.profiles.FetchProfile(ctx, entityID)
	if err != nil {
		return profile.Profile{}, &domain.RetrievalError{Op: op, EntityID: entityID, Err: fmt.Errorf("fetch profile: %w", err)}
	}
	return p, nil
}

// ensureEmbedding is the cache-or-generate step. A lookup failure other than
// not-found is logged and treated as a miss; provider and upsert failures are fatal.
func (s *Service) ensureEmbedding(ctx context.Context, p *profile.Profile, force bool) (Embedding, error) {
	if !force {
		if emb, ok := s.lookupEmbedding(ctx, p.ID); ok {
			return emb, nil
		}
	}

	text := profile.CanonicalText(*p)
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return Embedding{}, fmt.Errorf("embed profile: %w", err)
	}
	return s.storeEmbedding(ctx, p, text, res)
}

// lookupEmbedding returns the stored profile embedding. Any failure counts as a miss.
func (s *Service) lookupEmbedding(ctx context.Context, entityID string) (Embedding, bool) {
	rec, err := s.store.Get(ctx, entityID, embedding.TypeProfile)
	switch {
	case err == nil:
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return Embedding{EntityID: entityID, Vector: rec.Vector(), Model: rec.Model(), Cached: true}, true
	case !errors.Is(err, domain.ErrEmbeddingNotFound):
		s.logger.Warn("Embedding lookup failed, regenerating",
			zap.String("entity_id", entityID),
			zap.String("embedding_type", string(embedding.TypeProfile)),
			zap.Error(err),
		)
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
	return Embedding{}, false
}

// storeEmbedding upserts a freshly generated profile vector.
func (s *Service) storeEmbedding(
	ctx context.Context, p *profile.Profile, text string, res domain.EmbeddingResult,
) (Embedding, error) {
	created, err := s.store.Upsert(ctx, embedding.UpsertInput{
		EntityID:   p.ID,
		Type:       embedding.TypeProfile,
		Vector:     res.Embedding,
		SourceText: text,
		Model:      res.Model,
		TokensUsed: res.TotalTokens,
		Cost:       res.Cost,
		Metadata: embedding.Metadata{
			Name:            p.Name,
			Email:           p.Email,
			SkillCount:      len(p.Skills),
			TechnologyCount: len(p.Technologies),
			EducationCount:  len(p.Education),
		},
	})
	if err != nil {
		return Embedding{}, fmt.Errorf("store embedding: %w", err)
	}

	s.logger.Debug("Embedding generated",
		zap.String("entity_id", p.ID),
		zap.String("model", res.Model),
		zap.Bool("created", created),
		zap.Int("tokens", res.TotalTokens),
	)

	return Embedding{
		EntityID:   p.ID,
		Vector:     res.Embedding,
		Model:      res.Model,
		Created:    created,
		TokensUsed: res.TotalTokens,
		Cost:       res.Cost,
	}, nil
}
