package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChallengeStatus represents the lifecycle state of a challenge.
// Status is set by the rule engine or an admin, never by the calculator.
type ChallengeStatus string

const (
	ChallengeStatusActive  ChallengeStatus = "active"
	ChallengeStatusPassed  ChallengeStatus = "passed"
	ChallengeStatusFailed  ChallengeStatus = "failed"
	ChallengeStatusPending ChallengeStatus = "pending"
)

// ParseStatus converts a raw status into a ChallengeStatus.
// An empty string is treated as pending.
func ParseStatus(s string) (ChallengeStatus, error) {
	switch status := ChallengeStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case ChallengeStatusActive, ChallengeStatusPassed, ChallengeStatusFailed, ChallengeStatusPending:
		return status, nil
	case "":
		return ChallengeStatusPending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// ChallengeSnapshot is the read-only input of a performance computation.
// Balances are in the reference currency, thresholds are percents (5 means 5%).
type ChallengeSnapshot struct {
	InitialBalance    decimal.Decimal
	CurrentBalance    decimal.Decimal
	DailyStartBalance decimal.Decimal
	MaxDailyLossPct   decimal.Decimal
	MaxTotalLossPct   decimal.Decimal
	ProfitTargetPct   decimal.Decimal
	Status            ChallengeStatus
}

// Validate ensures the snapshot satisfies the input contract of the calculator
func (s ChallengeSnapshot) Validate() error {
	if !s.InitialBalance.IsPositive() {
		return fmt.Errorf("initial balance %s: %w", s.InitialBalance, ErrInvalidBalance)
	}
	if !s.DailyStartBalance.IsPositive() {
		return fmt.Errorf("daily start balance %s: %w", s.DailyStartBalance, ErrInvalidBalance)
	}

	thresholds := []struct {
		name  string
		value decimal.Decimal
	}{
		{"profit target", s.ProfitTargetPct},
		{"max daily loss", s.MaxDailyLossPct},
		{"max total loss", s.MaxTotalLossPct},
	}
	for _, th := range thresholds {
		if !th.value.IsPositive() {
			return fmt.Errorf("%s %s: %w", th.name, th.value, ErrInvalidThreshold)
		}
	}

	return nil
}

// SnapshotPayload is the float-typed challenge shape served by the REST backend
type SnapshotPayload struct {
	StartingBalance float64 `json:"starting_balance"`
	Equity          float64 `json:"equity"`
	DayStartEquity  float64 `json:"day_start_equity"`
	ProfitTarget    float64 `json:"profit_target"`
	MaxDailyLoss    float64 `json:"max_daily_loss"`
	MaxTotalLoss    float64 `json:"max_total_loss"`
	Status          string  `json:"status"`
}

// ToSnapshot validates the payload numbers and converts them to a snapshot.
// NaN and infinities are rejected here so they never reach the calculator.
func (p SnapshotPayload) ToSnapshot() (ChallengeSnapshot, error) {
	fields := []struct {
		name  string
		value float64
	}{
		{"starting_balance", p.StartingBalance},
		{"equity", p.Equity},
		{"day_start_equity", p.DayStartEquity},
		{"profit_target", p.ProfitTarget},
		{"max_daily_loss", p.MaxDailyLoss},
		{"max_total_loss", p.MaxTotalLoss},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return ChallengeSnapshot{}, fmt.Errorf("%s: %w", f.name, ErrNonFinite)
		}
	}

	status, err := ParseStatus(p.Status)
	if err != nil {
		return ChallengeSnapshot{}, err
	}

	return ChallengeSnapshot{
		InitialBalance:    decimal.NewFromFloat(p.StartingBalance),
		CurrentBalance:    decimal.NewFromFloat(p.Equity),
		DailyStartBalance: decimal.NewFromFloat(p.DayStartEquity),
		ProfitTargetPct:   decimal.NewFromFloat(p.ProfitTarget),
		MaxDailyLossPct:   decimal.NewFromFloat(p.MaxDailyLoss),
		MaxTotalLossPct:   decimal.NewFromFloat(p.MaxTotalLoss),
		Status:            status,
	}, nil
}

// Challenge represents a simulated trading account bought through a plan
type Challenge struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	PlanID          uuid.UUID
	Status          ChallengeStatus
	StartingBalance decimal.Decimal
	Equity          decimal.Decimal // live value, open position P&L included
	DayStartEquity  decimal.Decimal
	DayStartDate    time.Time // date part only
	CreatedAt       time.Time
}

// Validate ensures the challenge adheres to domain rules
func (c *Challenge) Validate() error {
	if c.PlanID == uuid.Nil {
		return errors.New("challenge must reference a plan")
	}
	if _, err := ParseStatus(string(c.Status)); err != nil {
		return err
	}
	if !c.StartingBalance.IsPositive() {
		return fmt.Errorf("starting balance %s: %w", c.StartingBalance, ErrInvalidBalance)
	}
	return nil
}

// Snapshot combines the challenge balances with the rules of its plan
func (c *Challenge) Snapshot(plan *Plan) ChallengeSnapshot {
	return ChallengeSnapshot{
		InitialBalance:    c.StartingBalance,
		CurrentBalance:    c.Equity,
		DailyStartBalance: c.DayStartEquity,
		ProfitTargetPct:   plan.ProfitTargetPct,
		MaxDailyLossPct:   plan.MaxDailyLossPct,
		MaxTotalLossPct:   plan.MaxTotalLossPct,
		Status:            c.Status,
	}
}

// TruncateToDay drops the clock part of t, keeping its location
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
