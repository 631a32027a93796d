package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of background work
type Job interface {
	Run() error
	Name() string
}

// JobObserver is told about every finished job run
type JobObserver interface {
	ObserveJob(job string, err error)
}

// Scheduler runs jobs on six-field cron schedules (seconds first).
// Scheduled and immediate runs go through the same path, so both are
// logged and observed alike.
type Scheduler struct {
	cron     *cron.Cron
	observer JobObserver
	logger   *zap.Logger
}

// New creates a scheduler. observer may be nil.
func New(logger *zap.Logger, observer JobObserver) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		observer: observer,
		logger:   logger.With(zap.String("component", "scheduler")),
	}
}

// AddJob registers job on schedule, e.g. "0 */5 * * * *" or "@every 30s"
func (s *Scheduler) AddJob(schedule string, job Job) error {
	if _, err := s.cron.AddFunc(schedule, func() { _ = s.run(job) }); err != nil {
		return err
	}

	s.logger.Info("job registered",
		zap.String("schedule", schedule),
		zap.String("job", job.Name()))
	return nil
}

// RunNow executes job immediately, outside its schedule
func (s *Scheduler) RunNow(job Job) error {
	return s.run(job)
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(job Job) error {
	start := time.Now()
	err := job.Run()

	if s.observer != nil {
		s.observer.ObserveJob(job.Name(), err)
	}
	if err != nil {
		s.logger.Error("job failed",
			zap.String("job", job.Name()),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return err
	}

	s.logger.Debug("job completed",
		zap.String("job", job.Name()),
		zap.Duration("took", time.Since(start)))
	return nil
}
