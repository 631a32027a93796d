// Package position values open simulated trades against the latest quote.
package position

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Valuation is the unrealized result of one open position
type Valuation struct {
	Position   domain.Position
	PnL        decimal.Decimal
	PnLPercent decimal.Decimal
}

// PnL returns (Current - Entry) * Quantity, negated for SELL positions
func PnL(p domain.Position) (decimal.Decimal, error) {
	if err := p.Validate(); err != nil {
		return decimal.Zero, err
	}

	pnl := p.CurrentPrice.Sub(p.EntryPrice).Mul(p.Quantity)
	if p.Side == domain.SideSell {
		pnl = pnl.Neg()
	}
	return pnl, nil
}

// Value computes the P&L of p and its percentage of the cost basis
// (Entry * Quantity). A zero cost basis returns ErrInvalidBalance.
func Value(p domain.Position) (Valuation, error) {
	pnl, err := PnL(p)
	if err != nil {
		return Valuation{}, err
	}

	cost := p.EntryPrice.Mul(p.Quantity)
	if cost.IsZero() {
		return Valuation{}, fmt.Errorf("position %s cost basis: %w", p.Symbol, domain.ErrInvalidBalance)
	}

	return Valuation{
		Position:   p,
		PnL:        pnl,
		PnLPercent: pnl.Div(cost).Mul(hundred),
	}, nil
}

// ValueAll values every position and returns the summed unrealized P&L.
// The first invalid position aborts the computation.
func ValueAll(positions []domain.Position) ([]Valuation, decimal.Decimal, error) {
	valuations := make([]Valuation, 0, len(positions))
	total := decimal.Zero
	for _, p := range positions {
		v, err := Value(p)
		if err != nil {
			return nil, decimal.Zero, err
		}
		valuations = append(valuations, v)
		total = total.Add(v.PnL)
	}
	return valuations, total, nil
}
