package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/talentrag/internal/domain/embedding"
	domusage "github.com/kailas-cloud/talentrag/internal/domain/usage"
	"github.com/kailas-cloud/talentrag/internal/domain/usage/budget"
)

// Service handles usage reporting.
type Service struct {
	stats StatsReader
	br    BudgetReader
	now   func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(stats StatsReader, br BudgetReader) *Service {
	return &Service{stats: stats, br: br, now: time.Now}
}

// GetReport combines embedding store statistics with the current budget windows.
func (s *Service) GetReport(ctx context.Context) (domusage.Report, error) {
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return domusage.Report{}, fmt.Errorf("embedding stats: %w", err)
	}
	if stats.CountByType == nil {
		stats.CountByType = map[embedding.Type]int{}
	}

	now := s.now().UTC()
	var daily, monthly budget.Budget
	if s.br != nil {
		daily = s.br.Daily()
		monthly = s.br.Monthly()
	} else {
		dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		monthEnd := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		daily = budget.New(budget.PeriodDaily, 0, 0, 0, dayEnd.UnixMilli())
		monthly = budget.New(budget.PeriodMonthly, 0, 0, 0, monthEnd.UnixMilli())
	}

	return domusage.NewReport(stats, daily, monthly, now.UnixMilli()), nil
}
