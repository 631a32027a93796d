package performance

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Result holds the figures derived from one challenge snapshot.
// Progress values are 0-100 gauges for rule proximity, not raw percentages.
type Result struct {
	TotalPnL          decimal.Decimal
	TotalPnLPercent   decimal.Decimal
	DailyPnL          decimal.Decimal
	DailyPnLPercent   decimal.Decimal
	ProfitProgress    decimal.Decimal
	DailyLossProgress decimal.Decimal
	TotalLossProgress decimal.Decimal
}

// Calculator derives P&L and rule progress from a challenge snapshot.
// It holds no state and is safe for concurrent use.
type Calculator struct{}

// NewCalculator creates a new Calculator instance
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute calculates the performance of a snapshot
// Logic:
//   - TotalPnL = Current - Initial, TotalPnLPercent = TotalPnL / Initial * 100
//   - DailyPnL = Current - DailyStart, DailyPnLPercent = DailyPnL / DailyStart * 100
//   - ProfitProgress = clamp(TotalPnLPercent / ProfitTarget * 100)
//   - DailyLossProgress = clamp(|DailyPnLPercent| / MaxDailyLoss * 100)
//   - TotalLossProgress = clamp(|TotalPnLPercent| / MaxTotalLoss * 100)
//
// The loss gauges use the absolute move, so gains fill them too.
// A zero or negative divisor is a contract violation and returns an error.
func (c *Calculator) Compute(snapshot domain.ChallengeSnapshot) (Result, error) {
	if err := snapshot.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid challenge snapshot: %w", err)
	}

	totalPnL := snapshot.CurrentBalance.Sub(snapshot.InitialBalance)
	totalPnLPercent := percentOf(totalPnL, snapshot.InitialBalance)

	dailyPnL := snapshot.CurrentBalance.Sub(snapshot.DailyStartBalance)
	dailyPnLPercent := percentOf(dailyPnL, snapshot.DailyStartBalance)

	return Result{
		TotalPnL:          totalPnL,
		TotalPnLPercent:   totalPnLPercent,
		DailyPnL:          dailyPnL,
		DailyPnLPercent:   dailyPnLPercent,
		ProfitProgress:    progress(totalPnLPercent, snapshot.ProfitTargetPct),
		DailyLossProgress: progress(dailyPnLPercent.Abs(), snapshot.MaxDailyLossPct),
		TotalLossProgress: progress(totalPnLPercent.Abs(), snapshot.MaxTotalLossPct),
	}, nil
}

// percentOf returns part / whole * 100; whole must be non-zero
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	return part.Div(whole).Mul(hundred)
}

// progress returns value / limit * 100 clamped into [0, 100]
func progress(value, limit decimal.Decimal) decimal.Decimal {
	return clamp(percentOf(value, limit), decimal.Zero, hundred)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(lo, decimal.Min(hi, v))
}
