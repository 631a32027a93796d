package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
)

// StatsResult represents the platform wide challenge statistics
type StatsResult struct {
	TotalChallenges int
	ByStatus        map[domain.ChallengeStatus]int
	ByPlan          map[string]int // keyed by plan name

	// Financial figures cover active challenges only
	ActiveChallenges     int
	TotalEquity          decimal.Decimal
	TotalStartingBalance decimal.Decimal
	TotalProfit          decimal.Decimal
	TotalLoss            decimal.Decimal // positive amount
}

// DashboardService handles dashboard-related operations
type DashboardService struct {
	ChallengeRepo domain.ChallengeRepository
	PlanRepo      domain.PlanRepository
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(challengeRepo domain.ChallengeRepository, planRepo domain.PlanRepository) *DashboardService {
	return &DashboardService{
		ChallengeRepo: challengeRepo,
		PlanRepo:      planRepo,
	}
}

// GetStats aggregates every challenge
// Logic:
//   - Count challenges per status and per plan name
//   - For ACTIVE challenges sum Equity and StartingBalance
//   - PnL = Equity - StartingBalance, positive values add to TotalProfit,
//     negative ones add their absolute value to TotalLoss
func (s *DashboardService) GetStats(ctx context.Context) (*StatsResult, error) {
	plans, err := s.PlanRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	planNames := make(map[string]string, len(plans))
	for _, p := range plans {
		planNames[p.ID.String()] = p.Name
	}

	challenges, err := s.ChallengeRepo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	result := &StatsResult{
		TotalChallenges:      len(challenges),
		ByStatus:             make(map[domain.ChallengeStatus]int),
		ByPlan:               make(map[string]int),
		TotalEquity:          decimal.Zero,
		TotalStartingBalance: decimal.Zero,
		TotalProfit:          decimal.Zero,
		TotalLoss:            decimal.Zero,
	}

	for _, ch := range challenges {
		result.ByStatus[ch.Status]++

		name, ok := planNames[ch.PlanID.String()]
		if !ok {
			name = ch.PlanID.String()
		}
		result.ByPlan[name]++

		if ch.Status != domain.ChallengeStatusActive {
			continue
		}
		result.ActiveChallenges++
		result.TotalEquity = result.TotalEquity.Add(ch.Equity)
		result.TotalStartingBalance = result.TotalStartingBalance.Add(ch.StartingBalance)

		pnl := ch.Equity.Sub(ch.StartingBalance)
		if pnl.IsPositive() {
			result.TotalProfit = result.TotalProfit.Add(pnl)
		} else {
			result.TotalLoss = result.TotalLoss.Add(pnl.Abs())
		}
	}

	return result, nil
}
