package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rule thresholds applied when a plan does not define its own
var (
	DefaultProfitTargetPct = decimal.NewFromInt(10)
	DefaultMaxDailyLossPct = decimal.NewFromInt(5)
	DefaultMaxTotalLossPct = decimal.NewFromInt(10)
)

// Plan represents a purchasable challenge offer
type Plan struct {
	ID              uuid.UUID
	Name            string
	Price           decimal.Decimal // in the reference currency
	StartingBalance decimal.Decimal
	ProfitTargetPct decimal.Decimal
	MaxDailyLossPct decimal.Decimal
	MaxTotalLossPct decimal.Decimal
}

// Validate ensures the plan adheres to domain rules
func (p *Plan) Validate() error {
	if p.Name == "" {
		return errors.New("plan name cannot be empty")
	}
	if p.Price.LessThanOrEqual(decimal.Zero) {
		return errors.New("plan price must be positive")
	}
	if p.StartingBalance.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("plan starting balance: %w", ErrInvalidBalance)
	}
	for _, th := range []decimal.Decimal{p.ProfitTargetPct, p.MaxDailyLossPct, p.MaxTotalLossPct} {
		if th.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("plan %s: %w", p.Name, ErrInvalidThreshold)
		}
	}
	return nil
}
