package retrieval

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/analysis"
	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/profile"
	"github.com/kailas-cloud/talentrag/internal/domain/similarity"
)

// EmbeddingStore persists one embedding per (entity, type).
type EmbeddingStore interface {
	Get(ctx context.Context, entityID string, t embedding.Type) (embedding.Record, error)
	Upsert(ctx context.Context, in embedding.UpsertInput) (created bool, err error)
	DeleteByEntity(ctx context.Context, entityID string) (int, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// BatchEmbedder vectorizes many texts in one provider call. Optional on Embedder.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// SimilarityFinder returns similar entities around a vector. Never fails.
type SimilarityFinder interface {
	FindSimilar(ctx context.Context, q similarity.Query) []similarity.Result
}

// ProfileReader reads person profiles from the upstream service.
type ProfileReader interface {
	FetchProfile(ctx context.Context, id string) (profile.Profile, error)
	ListProfileIDs(ctx context.Context) ([]string, error)
}

// Analyzer is the external analysis tool.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.ToolRequest) (analysis.ToolResult, error)
}
