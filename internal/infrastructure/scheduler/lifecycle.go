package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/courtage/backend/internal/application/contract"
	"go.uber.org/zap"
)

// LifecycleJobName is the job that activates and expires contracts
const LifecycleJobName = "contract-lifecycle"

// LifecycleRunner is implemented by the contract service
type LifecycleRunner interface {
	RunLifecycle(ctx context.Context, day time.Time) (*contract.LifecycleResult, error)
}

// NewLifecycleExecutor sweeps contracts for the job's day. Contracts that
// fail one by one are reported by the runner; the job fails only when the
// sweep itself could not complete.
func NewLifecycleExecutor(runner LifecycleRunner, logger *zap.Logger) JobExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return JobExecutorFunc(func(ctx context.Context, job *Job) error {
		result, err := runner.RunLifecycle(ctx, job.Day)
		if err != nil {
			return err
		}
		logger.Debug("Contract lifecycle swept",
			zap.String("job_id", job.ID.String()),
			zap.Int("activated", result.Activated),
			zap.Int("expired", result.Expired),
			zap.Int("failed", result.Failed),
		)
		return nil
	})
}

// Trigger submits a job for the current day on start and then every interval
type Trigger struct {
	service
	name       string
	interval   time.Duration
	maxRetries int
	target     *Scheduler
	logger     *zap.Logger
	now        func() time.Time
}

func NewTrigger(name string, interval time.Duration, maxRetries int, target *Scheduler, logger *zap.Logger) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		name:       name,
		interval:   interval,
		maxRetries: maxRetries,
		target:     target,
		logger:     logger,
		now:        time.Now,
	}
}

func (t *Trigger) Start(ctx context.Context) error {
	if t.interval <= 0 {
		return ErrInvalidConfig
	}
	t.launch(ctx, 1, func(ctx context.Context, _ int) { t.tick(ctx) })
	return nil
}

func (t *Trigger) Stop(ctx context.Context) error { return t.halt(ctx) }

func (t *Trigger) tick(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		t.Fire()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Fire submits today's job now. A run still in flight is not an error.
func (t *Trigger) Fire() {
	job := NewJob(t.name, t.now(), t.maxRetries)
	err := t.target.Submit(job)
	switch {
	case err == nil:
	case errors.Is(err, ErrJobAlreadyQueued):
		t.logger.Debug("Previous run still in flight", zap.String("job", job.Key()))
	default:
		t.logger.Error("Job submission failed", zap.String("job", job.Key()), zap.Error(err))
	}
}
