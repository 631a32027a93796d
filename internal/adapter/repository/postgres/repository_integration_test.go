//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simaogato/tradesense-backend/internal/config"
	"github.com/simaogato/tradesense-backend/internal/domain"
	"github.com/simaogato/tradesense-backend/internal/usecase/challenge"
	"github.com/simaogato/tradesense-backend/internal/usecase/evaluation"
	"github.com/simaogato/tradesense-backend/internal/usecase/leaderboard"
	"github.com/simaogato/tradesense-backend/internal/usecase/performance"
	"github.com/simaogato/tradesense-backend/internal/usecase/seeder"
)

var db *DB

// TestMain connects to the database described by the usual DB_* variables
func TestMain(m *testing.M) {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err = NewDB(ctx, cfg.DBConnStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := db.Migrate(ctx); err != nil {
		panic(fmt.Sprintf("Failed to migrate: %v", err))
	}

	// Self-healing setup: the default plans must exist
	if _, err := seeder.NewPlanSeeder(NewPlanRepository(db), zap.NewNop()).Seed(ctx); err != nil {
		panic(fmt.Sprintf("Failed to seed plans: %v", err))
	}

	code := m.Run()
	db.Close()
	os.Exit(code)
}

func TestMigrate_Idempotent(t *testing.T) {
	require.NoError(t, db.Migrate(context.Background()))
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepository(db)

	t.Run("Seeded plans are listed by price", func(t *testing.T) {
		plans, err := repo.List(ctx)
		require.NoError(t, err)

		names := make([]string, 0, len(plans))
		for _, p := range plans {
			names = append(names, p.Name)
		}
		assert.Subset(t, names, []string{"Starter", "Pro", "Elite"})

		for i := 1; i < len(plans); i++ {
			assert.True(t, plans[i-1].Price.LessThanOrEqual(plans[i].Price))
		}
	})

	t.Run("Round trip keeps decimals", func(t *testing.T) {
		plan, err := repo.GetByID(ctx, seeder.PLAN_PRO)
		require.NoError(t, err)
		assert.Equal(t, "Pro", plan.Name)
		assert.True(t, plan.Price.Equal(decimal.RequireFromString("39.90")))
		assert.True(t, plan.StartingBalance.Equal(decimal.NewFromInt(10000)))
		assert.True(t, plan.MaxDailyLossPct.Equal(domain.DefaultMaxDailyLossPct))

		byName, err := repo.GetByName(ctx, "Pro")
		require.NoError(t, err)
		assert.Equal(t, plan.ID, byName.ID)
	})

	t.Run("Missing plan", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.GetByName(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Seeding twice creates nothing", func(t *testing.T) {
		created, err := seeder.NewPlanSeeder(repo, zap.NewNop()).Seed(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, created)
	})
}

func TestChallengeLifecycle(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()
	planRepo := NewPlanRepository(db)
	challengeRepo := NewChallengeRepository(db)

	challengeService := challenge.NewChallengeService(challengeRepo, planRepo, log)
	evaluationService := evaluation.NewEvaluationService(challengeRepo, planRepo, log)
	performanceService := performance.NewPerformanceService(challengeRepo, planRepo, performance.NewCalculator(), log)

	day1 := time.Now().UTC()
	ch, err := challengeService.Start(ctx, uuid.New(), seeder.PLAN_STARTER, day1)
	require.NoError(t, err)

	stored, err := challengeRepo.GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeStatusActive, stored.Status)
	assert.True(t, stored.Equity.Equal(decimal.NewFromInt(5000)))

	// +3% on day one
	_, err = challengeService.UpdateEquity(ctx, ch.ID, decimal.NewFromInt(5150))
	require.NoError(t, err)

	perf, err := performanceService.GetChallengePerformance(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "150", perf.Result.TotalPnL.String())
	assert.Equal(t, "30.00", perf.Result.ProfitProgress.StringFixed(2))

	// Next day the start equity rolls over, then a 6% drop breaches the daily limit
	day2 := day1.Add(24 * time.Hour)
	outcome, err := evaluationService.Evaluate(ctx, ch.ID, day2)
	require.NoError(t, err)
	assert.True(t, outcome.RolledOver)
	assert.Equal(t, domain.ChallengeStatusActive, outcome.Challenge.Status)

	_, err = challengeService.UpdateEquity(ctx, ch.ID, decimal.RequireFromString("4841"))
	require.NoError(t, err)

	outcome, err = evaluationService.Evaluate(ctx, ch.ID, day2)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeStatusFailed, outcome.Challenge.Status)
	assert.Equal(t, evaluation.RuleDailyLoss, outcome.Rule)

	stored, err = challengeRepo.GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeStatusFailed, stored.Status)
	assert.True(t, stored.DayStartEquity.Equal(decimal.NewFromInt(5150)))

	_, err = challengeService.UpdateEquity(ctx, ch.ID, decimal.NewFromInt(6000))
	assert.ErrorIs(t, err, domain.ErrChallengeClosed)

	failed, err := challengeRepo.List(ctx, domain.ChallengeStatusFailed)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(failed))
	for _, c := range failed {
		ids = append(ids, c.ID)
	}
	assert.Contains(t, ids, ch.ID)
}

func TestLeaderboard_FromDatabase(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()
	planRepo := NewPlanRepository(db)
	challengeRepo := NewChallengeRepository(db)
	challengeService := challenge.NewChallengeService(challengeRepo, planRepo, log)

	ch, err := challengeService.Start(ctx, uuid.New(), seeder.PLAN_ELITE, time.Now().UTC())
	require.NoError(t, err)
	// grows with each run so the newest challenge always leads
	equity := decimal.NewFromInt(1000000 + time.Now().Unix())
	_, err = challengeService.UpdateEquity(ctx, ch.ID, equity)
	require.NoError(t, err)

	entries, err := leaderboard.NewLeaderboardService(challengeRepo, log).Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ch.ID, entries[0].ChallengeID)
	assert.Equal(t, 1, entries[0].Rank)
}

func TestChallengeRepository_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewChallengeRepository(db)
	id := uuid.New()

	assert.ErrorIs(t, repo.UpdateEquity(ctx, id, decimal.NewFromInt(1)), domain.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, id, domain.ChallengeStatusPassed), domain.ErrNotFound)
	assert.ErrorIs(t, repo.ApplyEvaluation(ctx, &domain.Challenge{
		ID:             id,
		Status:         domain.ChallengeStatusActive,
		Equity:         decimal.NewFromInt(1),
		DayStartEquity: decimal.NewFromInt(1),
		DayStartDate:   time.Now(),
	}), domain.ErrStaleChallenge)
}

func TestChallengeRepository_ApplyEvaluationKeepsNewerEquity(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()
	challengeRepo := NewChallengeRepository(db)
	challengeService := challenge.NewChallengeService(challengeRepo, NewPlanRepository(db), log)

	ch, err := challengeService.Start(ctx, uuid.New(), seeder.PLAN_STARTER, time.Now().UTC())
	require.NoError(t, err)

	// evaluation computed from 5000 while the engine reports 5300
	evaluated, err := challengeRepo.GetByID(ctx, ch.ID)
	require.NoError(t, err)
	require.NoError(t, challengeRepo.UpdateEquity(ctx, ch.ID, decimal.NewFromInt(5300)))

	evaluated.DayStartEquity = evaluated.Equity
	evaluated.DayStartDate = evaluated.DayStartDate.Add(24 * time.Hour)
	err = challengeRepo.ApplyEvaluation(ctx, evaluated)
	assert.ErrorIs(t, err, domain.ErrStaleChallenge)

	stored, err := challengeRepo.GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.True(t, stored.Equity.Equal(decimal.NewFromInt(5300)))

	// a fresh read applies
	stored.Status = domain.ChallengeStatusPassed
	require.NoError(t, challengeRepo.ApplyEvaluation(ctx, stored))

	stored, err = challengeRepo.GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeStatusPassed, stored.Status)
	assert.True(t, stored.Equity.Equal(decimal.NewFromInt(5300)))

	assert.ErrorIs(t, challengeRepo.UpdateEquity(ctx, ch.ID, decimal.NewFromInt(5400)), domain.ErrChallengeClosed)
}
