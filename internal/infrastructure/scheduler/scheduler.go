// Package scheduler runs the background jobs of the API process: the daily
// contract lifecycle sweep and its retries.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrJobQueueFull        = errors.New("job queue is full")
	// ErrJobAlreadyQueued refuses a job whose key is pending, running or
	// waiting for a retry
	ErrJobAlreadyQueued = errors.New("job already queued")
	ErrInvalidConfig    = errors.New("invalid scheduler configuration")
)

type SchedulerConfig struct {
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrentJobs: 2,
		QueueSize:         32,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
	}
}

func (c SchedulerConfig) Validate() error {
	switch {
	case c.MaxConcurrentJobs <= 0, c.QueueSize <= 0, c.JobTimeout <= 0:
		return fmt.Errorf("%w: workers, queue size and job timeout must be positive", ErrInvalidConfig)
	case c.RetryAttempts < 0, c.RetryDelay < 0:
		return fmt.Errorf("%w: retries must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Scheduler feeds submitted jobs to a fixed set of workers. Register an
// executor for a name before submitting jobs of that name.
type Scheduler struct {
	service
	config SchedulerConfig
	logger *zap.Logger
	now    func() time.Time
	queue  chan *Job

	mu        sync.Mutex
	executors map[string]JobExecutor
	inFlight  map[string]struct{}
}

func NewScheduler(config SchedulerConfig, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:    config,
		logger:    logger.Named("scheduler"),
		now:       time.Now,
		queue:     make(chan *Job, config.QueueSize),
		executors: make(map[string]JobExecutor),
		inFlight:  make(map[string]struct{}),
	}, nil
}

func (s *Scheduler) Register(name string, executor JobExecutor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executors[name] = executor
}

// Start launches the workers; starting twice is a no-op
func (s *Scheduler) Start(ctx context.Context) error {
	if s.launch(ctx, s.config.MaxConcurrentJobs, s.work) {
		s.logger.Info("Scheduler started",
			zap.Int("workers", s.config.MaxConcurrentJobs),
			zap.Duration("job_timeout", s.config.JobTimeout),
		)
	}
	return nil
}

// Stop cancels running jobs and waits for the workers until ctx expires.
// Retries not yet due are dropped.
func (s *Scheduler) Stop(ctx context.Context) error {
	if err := s.halt(ctx); err != nil {
		s.logger.Warn("Scheduler stop timed out")
		return err
	}
	return nil
}

// Submit queues job unless a job with the same key is still in flight, so a
// slow sweep never stacks up behind itself
func (s *Scheduler) Submit(job *Job) error {
	if !s.running() {
		return ErrSchedulerNotRunning
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.executors[job.Name]; !ok {
		return fmt.Errorf("no executor registered for job %q", job.Name)
	}
	if _, ok := s.inFlight[job.Key()]; ok {
		return ErrJobAlreadyQueued
	}
	select {
	case s.queue <- job:
		s.inFlight[job.Key()] = struct{}{}
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.run(ctx, job, s.logger.With(zap.Int("worker", worker), zap.String("job", job.Key())))
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job *Job, log *zap.Logger) {
	s.mu.Lock()
	executor := s.executors[job.Name]
	s.mu.Unlock()

	job.begin(s.now())
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := executor.Execute(jobCtx, job)
	cancel()
	job.finish(err, s.now())

	if err == nil {
		log.Info("Job completed", zap.Duration("took", job.FinishedAt.Sub(job.StartedAt)))
		s.release(job)
		return
	}
	log.Error("Job failed", zap.Int("attempt", job.Attempts), zap.Error(err))
	if !job.retriable() || ctx.Err() != nil {
		s.release(job)
		return
	}
	time.AfterFunc(s.config.RetryDelay, func() { s.retry(job, log) })
}

// retry puts a failed job back on the queue; the key stays in flight
func (s *Scheduler) retry(job *Job, log *zap.Logger) {
	if !s.running() {
		s.release(job)
		return
	}
	job.Status = JobStatusPending
	select {
	case s.queue <- job:
	default:
		log.Warn("Retry dropped, queue is full")
		s.release(job)
	}
}

func (s *Scheduler) release(job *Job) {
	s.mu.Lock()
	delete(s.inFlight, job.Key())
	s.mu.Unlock()
}
