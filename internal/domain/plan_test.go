package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPlan_Validate(t *testing.T) {
	valid := func() Plan {
		return Plan{
			ID:              uuid.New(),
			Name:            "Pro",
			Price:           decimal.RequireFromString("39.90"),
			StartingBalance: decimal.NewFromInt(10000),
			ProfitTargetPct: DefaultProfitTargetPct,
			MaxDailyLossPct: DefaultMaxDailyLossPct,
			MaxTotalLossPct: DefaultMaxTotalLossPct,
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *Plan)
		wantErr bool
		errMsg  string
	}{
		{name: "Valid plan should pass", mutate: func(p *Plan) {}},
		{name: "Empty name should fail", mutate: func(p *Plan) { p.Name = "" }, wantErr: true, errMsg: "plan name cannot be empty"},
		{name: "Free plan should fail", mutate: func(p *Plan) { p.Price = decimal.Zero }, wantErr: true, errMsg: "plan price must be positive"},
		{name: "Zero starting balance should fail", mutate: func(p *Plan) { p.StartingBalance = decimal.Zero }, wantErr: true, errMsg: "balance must be positive"},
		{name: "Zero daily loss should fail", mutate: func(p *Plan) { p.MaxDailyLossPct = decimal.Zero }, wantErr: true, errMsg: "rule threshold must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := valid()
			tt.mutate(&plan)

			err := plan.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPosition_Validate(t *testing.T) {
	position := Position{
		Symbol:       "AAPL",
		Side:         SideBuy,
		Quantity:     decimal.NewFromInt(3),
		EntryPrice:   decimal.NewFromInt(190),
		CurrentPrice: decimal.NewFromInt(195),
	}
	assert.NoError(t, position.Validate())

	badSide := position
	badSide.Side = "HOLD"
	assert.EqualError(t, badSide.Validate(), "invalid position: side must be BUY or SELL")

	noQty := position
	noQty.Quantity = decimal.Zero
	assert.EqualError(t, noQty.Validate(), "invalid position: quantity must be positive")

	negPrice := position
	negPrice.CurrentPrice = decimal.NewFromInt(-1)
	assert.EqualError(t, negPrice.Validate(), "invalid position: prices cannot be negative")
}
