package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultLimit is the number of rows returned when no limit is given
const DefaultLimit = 10

var hundred = decimal.NewFromInt(100)

// Entry represents one ranked challenge
type Entry struct {
	Rank          int
	ChallengeID   uuid.UUID
	UserID        uuid.UUID
	Status        domain.ChallengeStatus
	Equity        decimal.Decimal
	ProfitPercent decimal.Decimal
}

// LeaderboardService ranks challenges by total return
type LeaderboardService struct {
	ChallengeRepo domain.ChallengeRepository
	logger        *zap.Logger
}

// NewLeaderboardService creates a new LeaderboardService instance
func NewLeaderboardService(challengeRepo domain.ChallengeRepository, logger *zap.Logger) *LeaderboardService {
	return &LeaderboardService{
		ChallengeRepo: challengeRepo,
		logger:        logger,
	}
}

// Top returns the best challenges of every status, ordered by profit percent.
// Logic:
//   - ProfitPercent = (Equity - StartingBalance) / StartingBalance * 100
//   - Sorted descending, ties keep the oldest challenge first
//   - limit <= 0 means DefaultLimit
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	challenges, err := s.ChallengeRepo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	type ranked struct {
		challenge *domain.Challenge
		pct       decimal.Decimal
	}
	rows := make([]ranked, 0, len(challenges))
	for _, ch := range challenges {
		if !ch.StartingBalance.IsPositive() {
			// no divisor, cannot be ranked
			s.logger.Warn("skipping challenge with non-positive starting balance",
				zap.Stringer("challenge_id", ch.ID),
				zap.String("starting_balance", ch.StartingBalance.String()))
			continue
		}
		pct := ch.Equity.Sub(ch.StartingBalance).Div(ch.StartingBalance).Mul(hundred)
		rows = append(rows, ranked{challenge: ch, pct: pct})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].pct.Equal(rows[j].pct) {
			return rows[i].pct.GreaterThan(rows[j].pct)
		}
		return rows[i].challenge.CreatedAt.Before(rows[j].challenge.CreatedAt)
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, Entry{
			Rank:          i + 1,
			ChallengeID:   row.challenge.ID,
			UserID:        row.challenge.UserID,
			Status:        row.challenge.Status,
			Equity:        row.challenge.Equity,
			ProfitPercent: row.pct,
		})
	}

	return entries, nil
}
