package challenge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
	"go.uber.org/zap"
)

// ChallengeService handles the lifecycle of a challenge outside rule evaluation
type ChallengeService struct {
	ChallengeRepo domain.ChallengeRepository
	PlanRepo      domain.PlanRepository
	logger        *zap.Logger
}

// NewChallengeService creates a new ChallengeService instance
func NewChallengeService(challengeRepo domain.ChallengeRepository, planRepo domain.PlanRepository, logger *zap.Logger) *ChallengeService {
	return &ChallengeService{
		ChallengeRepo: challengeRepo,
		PlanRepo:      planRepo,
		logger:        logger,
	}
}

// Start opens an active challenge for userID on planID.
// Logic: StartingBalance, Equity and DayStartEquity all begin at the plan's
// starting balance, the trading day starts at now.
func (s *ChallengeService) Start(ctx context.Context, userID, planID uuid.UUID, now time.Time) (*domain.Challenge, error) {
	plan, err := s.PlanRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	ch := &domain.Challenge{
		ID:              uuid.New(),
		UserID:          userID,
		PlanID:          plan.ID,
		Status:          domain.ChallengeStatusActive,
		StartingBalance: plan.StartingBalance,
		Equity:          plan.StartingBalance,
		DayStartEquity:  plan.StartingBalance,
		DayStartDate:    domain.TruncateToDay(now),
		CreatedAt:       now,
	}
	if err := ch.Validate(); err != nil {
		return nil, err
	}

	if err := s.ChallengeRepo.Create(ctx, ch); err != nil {
		return nil, err
	}

	s.logger.Info("challenge started",
		zap.Stringer("challenge_id", ch.ID),
		zap.Stringer("user_id", userID),
		zap.String("plan", plan.Name),
		zap.Stringer("starting_balance", ch.StartingBalance))

	return ch, nil
}

// UpdateEquity records the latest equity reported by the trading engine.
// It does not apply the rules; callers run the evaluation afterwards.
func (s *ChallengeService) UpdateEquity(ctx context.Context, challengeID uuid.UUID, equity decimal.Decimal) (*domain.Challenge, error) {
	if equity.IsNegative() {
		return nil, domain.ErrNegativeEquity
	}

	ch, err := s.ChallengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if ch.Status != domain.ChallengeStatusActive {
		return nil, fmt.Errorf("challenge %s is %s: %w", ch.ID, ch.Status, domain.ErrChallengeClosed)
	}

	if err := s.ChallengeRepo.UpdateEquity(ctx, ch.ID, equity); err != nil {
		return nil, err
	}
	ch.Equity = equity

	s.logger.Debug("equity updated",
		zap.Stringer("challenge_id", ch.ID),
		zap.Stringer("equity", equity))

	return ch, nil
}

// SetStatus overrides the status of a challenge, e.g. to reactivate it.
// Unlike ParseStatus an empty status is rejected.
func (s *ChallengeService) SetStatus(ctx context.Context, challengeID uuid.UUID, raw string) (*domain.Challenge, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty", domain.ErrInvalidStatus)
	}
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	ch, err := s.ChallengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	previous := ch.Status
	if err := s.ChallengeRepo.UpdateStatus(ctx, ch.ID, status); err != nil {
		return nil, err
	}
	ch.Status = status

	s.logger.Info("challenge status set",
		zap.Stringer("challenge_id", ch.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))

	return ch, nil
}
