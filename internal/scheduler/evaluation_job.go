package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/simaogato/tradesense-backend/internal/usecase/evaluation"
)

// ActiveEvaluator evaluates every active challenge as of now
type ActiveEvaluator interface {
	EvaluateActive(ctx context.Context, now time.Time) ([]*evaluation.Outcome, error)
}

// StatusObserver is told about every status transition a sweep applies
type StatusObserver interface {
	ObserveStatusChange(status, rule string)
}

// EvaluationJob sweeps active challenges through the rule engine so day
// rollovers and breaches are applied even when no equity update arrives.
type EvaluationJob struct {
	evaluator ActiveEvaluator
	timeout   time.Duration
	now       func() time.Time
	observer  StatusObserver
	logger    *zap.Logger
}

// NewEvaluationJob creates a job bounded by timeout per run.
// observer may be nil.
func NewEvaluationJob(evaluator ActiveEvaluator, timeout time.Duration, observer StatusObserver, logger *zap.Logger) *EvaluationJob {
	return &EvaluationJob{
		evaluator: evaluator,
		timeout:   timeout,
		now:       time.Now,
		observer:  observer,
		logger:    logger,
	}
}

// Name returns the job name
func (j *EvaluationJob) Name() string {
	return "evaluate_active_challenges"
}

// Run evaluates all active challenges and logs the status changes
func (j *EvaluationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	outcomes, err := j.evaluator.EvaluateActive(ctx, j.now())

	transitions := 0
	for _, outcome := range outcomes {
		if outcome.Challenge.Status == outcome.PreviousStatus {
			continue
		}
		transitions++
		if j.observer != nil {
			j.observer.ObserveStatusChange(string(outcome.Challenge.Status), string(outcome.Rule))
		}
	}

	j.logger.Info("active challenges evaluated",
		zap.Int("evaluated", len(outcomes)),
		zap.Int("transitions", transitions))

	return err
}
