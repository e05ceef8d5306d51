package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/usage/budget"
)

// BudgetAction defines behavior when the token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists budget counters. IncrBy may be called repeatedly.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

const microsPerUSD = 1_000_000

// window is one budget period (day or month) with its counters.
type window struct {
	period      budget.Period
	layout      string
	limit       int64
	tokens      int64
	costMicros  int64
	start       time.Time
	truncate    func(time.Time) time.Time
	advanceNext func(time.Time) time.Time
}

func (w *window) rollover(now time.Time) {
	if cur := w.truncate(now); cur.After(w.start) {
		w.start = cur
		w.tokens = 0
		w.costMicros = 0
	}
}

func (w *window) exceeded() bool {
	return w.limit > 0 && w.tokens >= w.limit
}

func (w *window) snapshot() budget.Budget {
	return budget.New(w.period, w.limit, w.tokens,
		float64(w.costMicros)/microsPerUSD, w.advanceNext(w.start).UnixMilli())
}

// BudgetTracker enforces daily and monthly token limits for one provider.
// Check is in-memory only; Record updates memory first, then writes behind to the store.
type BudgetTracker struct {
	mu       sync.Mutex
	daily    window
	monthly  window
	action   BudgetAction
	provider string
	store    BudgetStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewBudgetTracker creates a budget tracker. A zero limit disables that window.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		action:   action,
		provider: provider,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		daily: window{
			period:      budget.PeriodDaily,
			layout:      "2006-01-02",
			limit:       dailyLimit,
			truncate:    truncateToDay,
			advanceNext: func(t time.Time) time.Time { return t.AddDate(0, 0, 1) },
		},
		monthly: window{
			period:      budget.PeriodMonthly,
			layout:      "2006-01",
			limit:       monthlyLimit,
			truncate:    truncateToMonth,
			advanceNext: func(t time.Time) time.Time { return t.AddDate(0, 1, 0) },
		},
	}
	now := b.now()
	b.daily.start = truncateToDay(now)
	b.monthly.start = truncateToMonth(now)
	return b
}

// WithStore attaches a persistence store and loads the current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.store = store
	b.loadFromStore(ctx)
	return b
}

func (b *BudgetTracker) loadFromStore(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for _, w := range []*window{&b.daily, &b.monthly} {
		if val, err := b.store.Get(ctx, b.key(w, now, "tokens")); err == nil {
			w.tokens = val
		} else {
			b.logger.Warn("Failed to load budget tokens", zap.String("period", string(w.period)), zap.Error(err))
		}
		if val, err := b.store.Get(ctx, b.key(w, now, "cost_micros")); err == nil {
			w.costMicros = val
		} else {
			b.logger.Warn("Failed to load budget cost", zap.String("period", string(w.period)), zap.Error(err))
		}
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.tokens),
		zap.Int64("monthly_used", b.monthly.tokens),
	)
}

func (b *BudgetTracker) key(w *window, t time.Time, counter string) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s:%s", domain.KeyPrefix, b.provider, w.period, t.Format(w.layout), counter)
}

// Check verifies the budget allows a new request.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.daily.rollover(now)
	b.monthly.rollover(now)

	if !b.daily.exceeded() && !b.monthly.exceeded() {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.tokens),
		zap.Int64("daily_limit", b.daily.limit),
		zap.Int64("monthly_used", b.monthly.tokens),
		zap.Int64("monthly_limit", b.monthly.limit),
	)
	return nil
}

// Record registers consumed tokens and their USD cost.
func (b *BudgetTracker) Record(tokens int64, cost float64) {
	micros := int64(math.Round(cost * microsPerUSD))

	b.mu.Lock()
	now := b.now()
	type write struct {
		key string
		val int64
	}
	var writes []write
	for _, w := range []*window{&b.daily, &b.monthly} {
		w.rollover(now)
		w.tokens += tokens
		w.costMicros += micros
		writes = append(writes, write{b.key(w, now, "tokens"), tokens})
		if micros > 0 {
			writes = append(writes, write{b.key(w, now, "cost_micros"), micros})
		}
	}
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Persistence runs on a detached context; failures are logged, never returned.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, w := range writes {
		if err := store.IncrBy(ctx, w.key, w.val); err != nil {
			b.logger.Warn("Failed to persist budget counter", zap.String("key", w.key), zap.Error(err))
		}
	}
}

// Daily returns a snapshot of the daily window.
func (b *BudgetTracker) Daily() budget.Budget {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.daily.rollover(b.now())
	return b.daily.snapshot()
}

// Monthly returns a snapshot of the monthly window.
func (b *BudgetTracker) Monthly() budget.Budget {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.monthly.rollover(b.now())
	return b.monthly.snapshot()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
