package performance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/tradesense-backend/internal/domain"
	"go.uber.org/zap"
)

// ChallengePerformance bundles a challenge, its plan and the computed figures
type ChallengePerformance struct {
	Challenge *domain.Challenge
	Plan      *domain.Plan
	Result    Result
}

// PerformanceService loads challenges and computes their performance
type PerformanceService struct {
	ChallengeRepo domain.ChallengeRepository
	PlanRepo      domain.PlanRepository
	Calculator    *Calculator
	logger        *zap.Logger
}

// NewPerformanceService creates a new PerformanceService instance
func NewPerformanceService(
	challengeRepo domain.ChallengeRepository,
	planRepo domain.PlanRepository,
	calculator *Calculator,
	logger *zap.Logger,
) *PerformanceService {
	return &PerformanceService{
		ChallengeRepo: challengeRepo,
		PlanRepo:      planRepo,
		Calculator:    calculator,
		logger:        logger,
	}
}

// GetChallengePerformance computes the performance of a stored challenge
// using the rule thresholds of its plan
func (s *PerformanceService) GetChallengePerformance(ctx context.Context, challengeID uuid.UUID) (*ChallengePerformance, error) {
	challenge, err := s.ChallengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	plan, err := s.PlanRepo.GetByID(ctx, challenge.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan for challenge %s: %w", challengeID, err)
	}

	result, err := s.Calculator.Compute(challenge.Snapshot(plan))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("computed challenge performance",
		zap.Stringer("challenge_id", challengeID),
		zap.String("total_pnl_percent", result.TotalPnLPercent.StringFixed(2)),
		zap.String("status", string(challenge.Status)))

	return &ChallengePerformance{
		Challenge: challenge,
		Plan:      plan,
		Result:    result,
	}, nil
}
