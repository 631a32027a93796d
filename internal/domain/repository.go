package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanRepository defines the interface for plan persistence operations
type PlanRepository interface {
	// GetByID retrieves a plan by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// GetByName retrieves a plan by its unique name
	GetByName(ctx context.Context, name string) (*Plan, error)

	// List retrieves all plans ordered by price
	List(ctx context.Context) ([]*Plan, error)

	// Create creates a new plan
	Create(ctx context.Context, plan *Plan) error
}

// ChallengeRepository defines the interface for challenge persistence operations
type ChallengeRepository interface {
	// GetByID retrieves a challenge by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Challenge, error)

	// List retrieves challenges, optionally filtered by status.
	// If statusFilter is empty, returns all challenges
	List(ctx context.Context, statusFilter ChallengeStatus) ([]*Challenge, error)

	// Create creates a new challenge
	Create(ctx context.Context, challenge *Challenge) error

	// UpdateEquity sets the equity of an active challenge.
	// Returns ErrChallengeClosed when the challenge is not active
	UpdateEquity(ctx context.Context, id uuid.UUID, equity decimal.Decimal) error

	// UpdateStatus overrides the status of a challenge
	UpdateStatus(ctx context.Context, id uuid.UUID, status ChallengeStatus) error

	// ApplyEvaluation persists the status and day start fields decided by the
	// rule engine. Equity is never written: the update only lands while the
	// stored equity still equals challenge.Equity and the challenge is active,
	// otherwise ErrStaleChallenge is returned
	ApplyEvaluation(ctx context.Context, challenge *Challenge) error
}
