package budget

// Period names a budget window.
type Period string

// Budget windows.
const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
)

// Budget is a point-in-time view of one budget window.
type Budget struct {
	period          Period
	tokensLimit     int64
	tokensUsed      int64
	tokensRemaining int64
	costUSD         float64
	resetsAt        int64 // unix millis
}

// New creates a Budget snapshot. A zero limit means unlimited; remaining is then -1.
func New(period Period, limit, used int64, costUSD float64, resetsAt int64) Budget {
	remaining := int64(-1)
	if limit > 0 {
		remaining = max(limit-used, 0)
	}
	return Budget{
		period:          period,
		tokensLimit:     limit,
		tokensUsed:      used,
		tokensRemaining: remaining,
		costUSD:         costUSD,
		resetsAt:        resetsAt,
	}
}

// Period returns the window name.
func (b Budget) Period() Period { return b.period }

// TokensLimit returns the token cap (0 = unlimited).
func (b Budget) TokensLimit() int64 { return b.tokensLimit }

// TokensUsed returns tokens consumed in the window.
func (b Budget) TokensUsed() int64 { return b.tokensUsed }

// TokensRemaining returns tokens left (-1 = unlimited).
func (b Budget) TokensRemaining() int64 { return b.tokensRemaining }

// CostUSD returns the spend recorded in the window.
func (b Budget) CostUSD() float64 { return b.costUSD }

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return b.tokensLimit > 0 && b.tokensRemaining == 0 }

// ResetsAt returns the reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }
