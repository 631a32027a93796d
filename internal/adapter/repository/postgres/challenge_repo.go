package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
)

// challengeRepository implements domain.ChallengeRepository
type challengeRepository struct {
	db *DB
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *DB) domain.ChallengeRepository {
	return &challengeRepository{db: db}
}

const challengeColumns = `id, user_id, plan_id, status, starting_balance, equity, day_start_equity, day_start_date, created_at`

func scanChallenge(row rowScanner) (*domain.Challenge, error) {
	var challenge domain.Challenge
	var status, balance, equity, dayStart string

	err := row.Scan(
		&challenge.ID,
		&challenge.UserID,
		&challenge.PlanID,
		&status,
		&balance,
		&equity,
		&dayStart,
		&challenge.DayStartDate,
		&challenge.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	challenge.Status, err = domain.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", challenge.ID, err)
	}

	if challenge.StartingBalance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("failed to parse starting_balance: %w", err)
	}
	if challenge.Equity, err = decimal.NewFromString(equity); err != nil {
		return nil, fmt.Errorf("failed to parse equity: %w", err)
	}
	if challenge.DayStartEquity, err = decimal.NewFromString(dayStart); err != nil {
		return nil, fmt.Errorf("failed to parse day_start_equity: %w", err)
	}

	return &challenge, nil
}

// GetByID retrieves a challenge by its ID
func (r *challengeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`

	challenge, err := scanChallenge(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("challenge %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get challenge by ID: %w", err)
	}
	return challenge, nil
}

// List retrieves challenges, optionally filtered by status.
// If statusFilter is empty, returns all challenges
func (r *challengeRepository) List(ctx context.Context, statusFilter domain.ChallengeStatus) ([]*domain.Challenge, error) {
	var query string
	var args []interface{}

	if statusFilter != "" {
		query = `SELECT ` + challengeColumns + ` FROM challenges WHERE status = $1 ORDER BY created_at ASC`
		args = []interface{}{string(statusFilter)}
	} else {
		query = `SELECT ` + challengeColumns + ` FROM challenges ORDER BY created_at ASC`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*domain.Challenge
	for rows.Next() {
		challenge, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, challenge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}

	return challenges, nil
}

// Create creates a new challenge
func (r *challengeRepository) Create(ctx context.Context, challenge *domain.Challenge) error {
	query := `
		INSERT INTO challenges (` + challengeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		challenge.ID,
		challenge.UserID,
		challenge.PlanID,
		string(challenge.Status),
		challenge.StartingBalance.String(),
		challenge.Equity.String(),
		challenge.DayStartEquity.String(),
		challenge.DayStartDate,
		challenge.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	return nil
}

// UpdateEquity sets the equity of an active challenge
func (r *challengeRepository) UpdateEquity(ctx context.Context, id uuid.UUID, equity decimal.Decimal) error {
	query := `
		UPDATE challenges
		SET equity = $2
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, id, equity.String(), string(domain.ChallengeStatusActive))
	if err != nil {
		return fmt.Errorf("failed to update challenge equity: %w", err)
	}

	updated, err := rowUpdated(result)
	if err != nil || updated {
		return err
	}

	// Missing or no longer active
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("challenge %s is %s: %w", id, current.Status, domain.ErrChallengeClosed)
}

// UpdateStatus overrides the status of a challenge
func (r *challengeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ChallengeStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE challenges SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update challenge status: %w", err)
	}

	updated, err := rowUpdated(result)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("challenge %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ApplyEvaluation writes status and day start fields, guarded by the equity
// and status the evaluation was computed from
func (r *challengeRepository) ApplyEvaluation(ctx context.Context, challenge *domain.Challenge) error {
	query := `
		UPDATE challenges
		SET status = $2, day_start_equity = $3, day_start_date = $4
		WHERE id = $1 AND equity = $5 AND status = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		challenge.ID,
		string(challenge.Status),
		challenge.DayStartEquity.String(),
		challenge.DayStartDate,
		challenge.Equity.String(),
		string(domain.ChallengeStatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to apply evaluation: %w", err)
	}

	updated, err := rowUpdated(result)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("challenge %s: %w", challenge.ID, domain.ErrStaleChallenge)
	}
	return nil
}

func rowUpdated(result sql.Result) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}
