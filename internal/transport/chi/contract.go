package chi

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain/analysis"
	"github.com/kailas-cloud/talentrag/internal/domain/batch"
	"github.com/kailas-cloud/talentrag/internal/domain/similarity"
	domusage "github.com/kailas-cloud/talentrag/internal/domain/usage"
	healthuc "github.com/kailas-cloud/talentrag/internal/usecase/health"
	"github.com/kailas-cloud/talentrag/internal/usecase/retrieval"
)

// retriever is the orchestrator surface exposed over HTTP.
type retriever interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error)
	EnsureEmbedding(ctx context.Context, entityID string) (retrieval.Embedding, error)
	RegenerateEmbedding(ctx context.Context, entityID string) (retrieval.Embedding, error)
	DeleteEmbeddings(ctx context.Context, entityID string) (int, error)
	FindSimilarToProfile(ctx context.Context, entityID string, limit int, threshold float64) ([]similarity.Result, error)
	FindSimilarByText(ctx context.Context, queryText string, limit int, threshold float64) ([]similarity.Result, error)
	GenerateAllEmbeddings(ctx context.Context) (batch.Summary, error)
}

type usageReporter interface {
	GetReport(ctx context.Context) (domusage.Report, error)
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
