package usage

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/usage/budget"
)

// StatsReader aggregates stored-embedding statistics.
type StatsReader interface {
	Stats(ctx context.Context) (embedding.Stats, error)
}

// BudgetReader provides read-only access to token budget windows.
type BudgetReader interface {
	Daily() budget.Budget
	Monthly() budget.Budget
}
