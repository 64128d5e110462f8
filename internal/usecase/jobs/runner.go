package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/metrics"
	"github.com/jaevor/go-nanoid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type JobID string

const (
	JobPayment JobID = "payment"
	JobOrder   JobID = "order"
	JobRetry   JobID = "retry"
)

// InvalidJobMessage is returned to callers that name no known job.
const InvalidJobMessage = "cron id not supplied. valid values = ['payment', 'order', 'retry']"

var JobIDs = []JobID{JobPayment, JobOrder, JobRetry}

func ParseJobID(id string) (JobID, error) {
	for _, j := range JobIDs {
		if string(j) == id {
			return j, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownJob, id)
}

// Job is one reconciliation pass.
type Job interface {
	Run(ctx context.Context) error
}

// Locker keeps two runs of the same job from overlapping. Acquire returns
// an error wrapping domain.ErrJobLocked while the job is held.
type Locker interface {
	Acquire(ctx context.Context, job string) (release func(), err error)
}

// LocalLocker serializes runs inside one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

func (l *LocalLocker) Acquire(_ context.Context, job string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[job] {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobLocked, job)
	}
	l.held[job] = true
	return func() {
		l.mu.Lock()
		delete(l.held, job)
		l.mu.Unlock()
	}, nil
}

// Runner runs exactly one job per call.
type Runner struct {
	jobs    map[JobID]Job
	Locker  Locker
	Metrics *metrics.ReconMetrics
	newID   func() string
}

func NewRunner(order, payment, retry Job, locker Locker, m *metrics.ReconMetrics) (*Runner, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Runner{
		jobs: map[JobID]Job{
			JobOrder:   order,
			JobPayment: payment,
			JobRetry:   retry,
		},
		Locker:  locker,
		Metrics: m,
		newID:   idGenerator,
	}, nil
}

// Run executes the job named id. An unknown id runs nothing and fails with
// domain.ErrUnknownJob; a job already running fails with domain.ErrJobLocked.
func (r *Runner) Run(ctx context.Context, id string) error {
	jobID, err := ParseJobID(id)
	if err != nil {
		slog.Warn(InvalidJobMessage, "id", id)
		return err
	}
	job := r.jobs[jobID]
	if job == nil {
		return fmt.Errorf("%w: %q has no engine", domain.ErrUnknownJob, id)
	}

	release, err := r.Locker.Acquire(ctx, string(jobID))
	if err != nil {
		if errors.Is(err, domain.ErrJobLocked) {
			slog.Info("job already running, skipping", "job", jobID)
		}
		return err
	}
	defer release()

	runID := r.newID()
	ctx, span := otel.Tracer("jobs").Start(ctx, "cron."+string(jobID))
	span.SetAttributes(attribute.String("run_id", runID))
	defer span.End()

	logger := slog.With("job", jobID, "run_id", runID)
	logger.Info("cron run started")
	started := time.Now()

	err = job.Run(ctx)
	elapsed := time.Since(started)
	r.Metrics.RecordJobRun(string(jobID), err == nil, elapsed.Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("cron run failed", "duration", elapsed, "error", err.Error())
		return fmt.Errorf("%s job: %w", jobID, err)
	}
	logger.Info("cron run finished", "duration", elapsed)
	return nil
}
