package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one run of a named task for a business day. A failed job is run
// again up to MaxRetries times.
type Job struct {
	ID         uuid.UUID
	Name       string
	Day        time.Time
	Status     JobStatus
	Error      string
	Attempts   int
	MaxRetries int
	StartedAt  time.Time
	FinishedAt time.Time
}

func NewJob(name string, day time.Time, maxRetries int) *Job {
	return &Job{ID: uuid.New(), Name: name, Day: day, Status: JobStatusPending, MaxRetries: maxRetries}
}

// Key is name@day; two jobs with the same key never overlap
func (j *Job) Key() string {
	return j.Name + "@" + j.Day.Format(time.DateOnly)
}

func (j *Job) begin(now time.Time) {
	j.Attempts++
	j.Status = JobStatusRunning
	j.StartedAt = now
	j.Error = ""
}

func (j *Job) finish(err error, now time.Time) {
	j.FinishedAt = now
	if err != nil {
		j.Status = JobStatusFailed
		j.Error = err.Error()
		return
	}
	j.Status = JobStatusSuccess
}

// retriable is false once the first run and every retry have failed
func (j *Job) retriable() bool {
	return j.Status == JobStatusFailed && j.Attempts <= j.MaxRetries
}

// JobExecutor runs the jobs of one name
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

type JobExecutorFunc func(ctx context.Context, job *Job) error

func (f JobExecutorFunc) Execute(ctx context.Context, job *Job) error { return f(ctx, job) }
