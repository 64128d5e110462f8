package background

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/config"
	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/jobs"
	"github.com/go-co-op/gocron"
)

type JobRunner interface {
	Run(ctx context.Context, id string) error
}

// BackgroundTasks triggers the reconciliation jobs in-process on their
// configured intervals.
type BackgroundTasks struct {
	Runner    JobRunner
	Cron      config.Cron
	scheduler *gocron.Scheduler
}

func NewBackgroundTasks(runner JobRunner, cron config.Cron) *BackgroundTasks {
	scheduler := gocron.NewScheduler(time.UTC)
	// A tick that finds its job still running is dropped.
	scheduler.SingletonModeAll()
	return &BackgroundTasks{
		Runner:    runner,
		Cron:      cron,
		scheduler: scheduler,
	}
}

func (bt *BackgroundTasks) intervals() map[jobs.JobID]time.Duration {
	return map[jobs.JobID]time.Duration{
		jobs.JobOrder:   bt.Cron.OrdersInterval,
		jobs.JobPayment: bt.Cron.PaymentsInterval,
		jobs.JobRetry:   bt.Cron.RetryInterval,
	}
}

// StartAll schedules every job and returns; ctx bounds each run.
func (bt *BackgroundTasks) StartAll(ctx context.Context) error {
	for id, interval := range bt.intervals() {
		if interval <= 0 {
			slog.Info("cron job disabled", "job", id)
			continue
		}
		_, err := bt.scheduler.Every(interval).
			WaitForSchedule().
			Tag(string(id)).
			Do(bt.run, ctx, string(id))
		if err != nil {
			return err
		}
		slog.Info("cron job scheduled", "job", id, "interval", interval)
	}
	bt.scheduler.StartAsync()
	return nil
}

func (bt *BackgroundTasks) run(ctx context.Context, id string) {
	err := bt.Runner.Run(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrJobLocked):
		slog.Info("scheduled run skipped, job is held elsewhere", "job", id)
	default:
		slog.Error("scheduled run failed", "job", id, "error", err.Error())
	}
}

// Stop waits for running jobs to finish.
func (bt *BackgroundTasks) Stop() {
	bt.scheduler.Stop()
}

// Jobs lists the scheduled job tags.
func (bt *BackgroundTasks) Jobs() []string {
	var tags []string
	for _, job := range bt.scheduler.Jobs() {
		tags = append(tags, job.Tags()...)
	}
	return tags
}
