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

// planRepository implements domain.PlanRepository
type planRepository struct {
	db *DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *DB) domain.PlanRepository {
	return &planRepository{db: db}
}

const planColumns = `id, name, price, starting_balance, profit_target_pct, max_daily_loss_pct, max_total_loss_pct`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlan(row rowScanner) (*domain.Plan, error) {
	var plan domain.Plan
	var price, balance, target, dailyLoss, totalLoss string

	if err := row.Scan(&plan.ID, &plan.Name, &price, &balance, &target, &dailyLoss, &totalLoss); err != nil {
		return nil, err
	}

	// NUMERIC columns arrive as text
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"price", price, &plan.Price},
		{"starting_balance", balance, &plan.StartingBalance},
		{"profit_target_pct", target, &plan.ProfitTargetPct},
		{"max_daily_loss_pct", dailyLoss, &plan.MaxDailyLossPct},
		{"max_total_loss_pct", totalLoss, &plan.MaxTotalLossPct},
	}
	for _, f := range fields {
		value, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
		*f.dst = value
	}

	return &plan, nil
}

// GetByID retrieves a plan by its ID
func (r *planRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plan %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get plan by ID: %w", err)
	}
	return plan, nil
}

// GetByName retrieves a plan by its unique name
func (r *planRepository) GetByName(ctx context.Context, name string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE name = $1`

	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plan %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get plan by name: %w", err)
	}
	return plan, nil
}

// List retrieves all plans ordered by price
func (r *planRepository) List(ctx context.Context) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY price ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// Create creates a new plan
func (r *planRepository) Create(ctx context.Context, plan *domain.Plan) error {
	query := `
		INSERT INTO plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		plan.ID,
		plan.Name,
		plan.Price.String(),
		plan.StartingBalance.String(),
		plan.ProfitTargetPct.String(),
		plan.MaxDailyLossPct.String(),
		plan.MaxTotalLossPct.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}
