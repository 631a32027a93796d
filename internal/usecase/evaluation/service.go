package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
	"go.uber.org/zap"
)

// Rule names the check that decided a status transition
type Rule string

const (
	RuleNone         Rule = ""
	RuleDailyLoss    Rule = "max_daily_loss"
	RuleTotalLoss    Rule = "max_total_loss"
	RuleProfitTarget Rule = "profit_target"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Outcome describes the result of evaluating one challenge
type Outcome struct {
	Challenge      *domain.Challenge
	PreviousStatus domain.ChallengeStatus
	RolledOver     bool // day start equity was reset
	Rule           Rule // rule that changed the status, if any
}

// Changed reports whether the challenge needs to be persisted
func (o Outcome) Changed() bool {
	return o.RolledOver || o.Challenge.Status != o.PreviousStatus
}

// EvaluateRules applies the day rollover and the plan rules to a copy of
// challenge. Only active challenges are evaluated.
// Rules are checked in order and the first match wins:
//   - Equity <= DayStartEquity * (1 - MaxDailyLoss%)  -> failed
//   - Equity <= StartingBalance * (1 - MaxTotalLoss%) -> failed
//   - Equity >= StartingBalance * (1 + ProfitTarget%) -> passed
func EvaluateRules(challenge domain.Challenge, plan *domain.Plan, today time.Time) Outcome {
	outcome := Outcome{
		Challenge:      &challenge,
		PreviousStatus: challenge.Status,
	}
	if challenge.Status != domain.ChallengeStatusActive {
		return outcome
	}

	if !sameDay(challenge.DayStartDate, today) {
		challenge.DayStartDate = domain.TruncateToDay(today)
		challenge.DayStartEquity = challenge.Equity
		outcome.RolledOver = true
	}

	dailyFloor := challenge.DayStartEquity.Mul(one.Sub(plan.MaxDailyLossPct.Div(hundred)))
	totalFloor := challenge.StartingBalance.Mul(one.Sub(plan.MaxTotalLossPct.Div(hundred)))
	target := challenge.StartingBalance.Mul(one.Add(plan.ProfitTargetPct.Div(hundred)))

	switch {
	case challenge.Equity.LessThanOrEqual(dailyFloor):
		challenge.Status = domain.ChallengeStatusFailed
		outcome.Rule = RuleDailyLoss
	case challenge.Equity.LessThanOrEqual(totalFloor):
		challenge.Status = domain.ChallengeStatusFailed
		outcome.Rule = RuleTotalLoss
	case challenge.Equity.GreaterThanOrEqual(target):
		challenge.Status = domain.ChallengeStatusPassed
		outcome.Rule = RuleProfitTarget
	}

	return outcome
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EvaluationService runs the challenge rules against stored challenges
type EvaluationService struct {
	ChallengeRepo domain.ChallengeRepository
	PlanRepo      domain.PlanRepository
	logger        *zap.Logger
}

// NewEvaluationService creates a new EvaluationService instance
func NewEvaluationService(challengeRepo domain.ChallengeRepository, planRepo domain.PlanRepository, logger *zap.Logger) *EvaluationService {
	return &EvaluationService{
		ChallengeRepo: challengeRepo,
		PlanRepo:      planRepo,
		logger:        logger,
	}
}

// Evaluate loads a challenge, applies the rules as of now and persists any change.
// Challenges that are not active are returned untouched.
func (s *EvaluationService) Evaluate(ctx context.Context, challengeID uuid.UUID, now time.Time) (*Outcome, error) {
	challenge, err := s.ChallengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	return s.evaluate(ctx, challenge, now)
}

// EvaluateActive evaluates every active challenge. A failure on one challenge
// does not stop the others; all failures are returned joined.
func (s *EvaluationService) EvaluateActive(ctx context.Context, now time.Time) ([]*Outcome, error) {
	challenges, err := s.ChallengeRepo.List(ctx, domain.ChallengeStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active challenges: %w", err)
	}

	outcomes := make([]*Outcome, 0, len(challenges))
	var errs []error
	for _, challenge := range challenges {
		outcome, err := s.evaluate(ctx, challenge, now)
		if err != nil {
			s.logger.Error("challenge evaluation failed",
				zap.Stringer("challenge_id", challenge.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("challenge %s: %w", challenge.ID, err))
			continue
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, errors.Join(errs...)
}

// maxApplyAttempts bounds re-evaluation after ErrStaleChallenge
const maxApplyAttempts = 3

func (s *EvaluationService) evaluate(ctx context.Context, challenge *domain.Challenge, now time.Time) (*Outcome, error) {
	var outcome Outcome
	for attempt := 1; ; attempt++ {
		if challenge.Status != domain.ChallengeStatusActive {
			return &Outcome{Challenge: challenge, PreviousStatus: challenge.Status}, nil
		}

		plan, err := s.PlanRepo.GetByID(ctx, challenge.PlanID)
		if err != nil {
			return nil, fmt.Errorf("failed to get plan for challenge %s: %w", challenge.ID, err)
		}

		outcome = EvaluateRules(*challenge, plan, now)
		if !outcome.Changed() {
			return &outcome, nil
		}

		err = s.ChallengeRepo.ApplyEvaluation(ctx, outcome.Challenge)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrStaleChallenge) || attempt == maxApplyAttempts {
			return nil, fmt.Errorf("failed to update challenge: %w", err)
		}

		s.logger.Debug("challenge changed during evaluation, reloading",
			zap.Stringer("challenge_id", challenge.ID),
			zap.Int("attempt", attempt))
		challenge, err = s.ChallengeRepo.GetByID(ctx, challenge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload challenge: %w", err)
		}
	}

	if outcome.RolledOver {
		s.logger.Info("challenge day rolled over",
			zap.Stringer("challenge_id", challenge.ID),
			zap.String("day_start_equity", outcome.Challenge.DayStartEquity.String()))
	}
	if outcome.Rule != RuleNone {
		s.logger.Info("challenge status changed",
			zap.Stringer("challenge_id", challenge.ID),
			zap.String("from", string(outcome.PreviousStatus)),
			zap.String("to", string(outcome.Challenge.Status)),
			zap.String("rule", string(outcome.Rule)),
			zap.String("equity", outcome.Challenge.Equity.String()))
	}

	return &outcome, nil
}
