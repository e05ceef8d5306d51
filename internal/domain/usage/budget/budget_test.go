package budget

import "testing"

func TestNew(t *testing.T) {
	b := New(PeriodDaily, 1000000, 384200, 0.75, 1700000000000)
	if b.Period() != PeriodDaily {
		t.Errorf("Period() = %q", b.Period())
	}
	if b.TokensLimit() != 1000000 {
		t.Errorf("TokensLimit() = %d", b.TokensLimit())
	}
	if b.TokensRemaining() != 615800 {
		t.Errorf("TokensRemaining() = %d", b.TokensRemaining())
	}
	if b.IsExhausted() {
		t.Error("IsExhausted() = true, want false")
	}
	if b.CostUSD() != 0.75 {
		t.Errorf("CostUSD() = %f", b.CostUSD())
	}
	if b.ResetsAt() != 1700000000000 {
		t.Errorf("ResetsAt() = %d", b.ResetsAt())
	}
}

func TestNew_Exhausted(t *testing.T) {
	b := New(PeriodMonthly, 1000, 1500, 0, 0)
	if !b.IsExhausted() {
		t.Error("IsExhausted() = false, want true")
	}
	if b.TokensRemaining() != 0 {
		t.Errorf("TokensRemaining() = %d", b.TokensRemaining())
	}
}

func TestNew_Unlimited(t *testing.T) {
	b := New(PeriodDaily, 0, 5000, 0, 0)
	if b.TokensRemaining() != -1 {
		t.Errorf("TokensRemaining() = %d, want -1", b.TokensRemaining())
	}
	if b.IsExhausted() {
		t.Error("unlimited budget cannot be exhausted")
	}
}
