package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is the direction of an open position
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Position is an open simulated trade priced at the latest quote
type Position struct {
	Symbol       string
	Side         Side
	Quantity     decimal.Decimal
	EntryPrice   decimal.Decimal
	CurrentPrice decimal.Decimal
}

// Validate ensures the position can be valued
func (p *Position) Validate() error {
	if p.Side != SideBuy && p.Side != SideSell {
		return fmt.Errorf("%w: side must be BUY or SELL", ErrInvalidPosition)
	}
	if p.Quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidPosition)
	}
	if p.EntryPrice.IsNegative() || p.CurrentPrice.IsNegative() {
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidPosition)
	}
	return nil
}
