package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
	"go.uber.org/zap"
)

// Fixed UUIDs for the default plans so every environment shares them
var (
	PLAN_STARTER = uuid.MustParse("00000000-0000-0000-0000-000000000101")
	PLAN_PRO     = uuid.MustParse("00000000-0000-0000-0000-000000000102")
	PLAN_ELITE   = uuid.MustParse("00000000-0000-0000-0000-000000000103")
)

// DefaultPlans returns the plans offered out of the box.
// Prices are in the reference currency (199/399/799 DH at the MAD rate).
func DefaultPlans() []domain.Plan {
	plan := func(id uuid.UUID, name, price string, balance int64) domain.Plan {
		return domain.Plan{
			ID:              id,
			Name:            name,
			Price:           decimal.RequireFromString(price),
			StartingBalance: decimal.NewFromInt(balance),
			ProfitTargetPct: domain.DefaultProfitTargetPct,
			MaxDailyLossPct: domain.DefaultMaxDailyLossPct,
			MaxTotalLossPct: domain.DefaultMaxTotalLossPct,
		}
	}

	return []domain.Plan{
		plan(PLAN_STARTER, "Starter", "19.90", 5000),
		plan(PLAN_PRO, "Pro", "39.90", 10000),
		plan(PLAN_ELITE, "Elite", "79.90", 20000),
	}
}

// PlanSeeder handles seeding of the default plans
type PlanSeeder struct {
	repo   domain.PlanRepository
	logger *zap.Logger
}

// NewPlanSeeder creates a new PlanSeeder instance
func NewPlanSeeder(repo domain.PlanRepository, logger *zap.Logger) *PlanSeeder {
	return &PlanSeeder{
		repo:   repo,
		logger: logger,
	}
}

// Seed ensures all default plans exist, matching them by name.
// Existing plans are left as they are.
func (s *PlanSeeder) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, p := range DefaultPlans() {
		_, err := s.repo.GetByName(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return created, fmt.Errorf("failed to look up plan %s: %w", p.Name, err)
		}

		plan := p
		if err := plan.Validate(); err != nil {
			return created, err
		}
		if err := s.repo.Create(ctx, &plan); err != nil {
			return created, fmt.Errorf("failed to create plan %s: %w", p.Name, err)
		}
		created++

		s.logger.Info("seeded plan",
			zap.String("name", plan.Name),
			zap.Stringer("plan_id", plan.ID))
	}

	return created, nil
}
