package usage

import (
	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
	"github.com/kailas-cloud/talentrag/internal/domain/usage/budget"
)

// Report combines stored-embedding statistics with the provider budget state.
type Report struct {
	stats       embedding.Stats
	daily       budget.Budget
	monthly     budget.Budget
	generatedAt int64
}

// NewReport creates a usage report.
func NewReport(stats embedding.Stats, daily, monthly budget.Budget, generatedAt int64) Report {
	return Report{stats: stats, daily: daily, monthly: monthly, generatedAt: generatedAt}
}

// Stats returns embedding store statistics.
func (r *Report) Stats() embedding.Stats { return r.stats }

// Daily returns the daily budget window.
func (r *Report) Daily() budget.Budget { return r.daily }

// Monthly returns the monthly budget window.
func (r *Report) Monthly() budget.Budget { return r.monthly }

// GeneratedAt returns the report timestamp (unix millis).
func (r *Report) GeneratedAt() int64 { return r.generatedAt }
