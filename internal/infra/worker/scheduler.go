// Package worker runs the publish job on a cron schedule and serves the health
// and metrics endpoints of the long-running schedule command.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"itoi-daily/internal/observability/logging"
)

// Job is one scheduled unit of work. result summarises a successful run.
type Job func(ctx context.Context) (result string, err error)

// Scheduler triggers a Job on a cron schedule. Runs never overlap: a trigger that
// fires while the previous run is still active is skipped.
type Scheduler struct {
	cfg     Config
	job     Job
	metrics *WorkerMetrics
	health  *HealthServer
	logger  *slog.Logger

	cron    *cron.Cron
	entryID cron.EntryID
	running sync.Mutex
}

// NewScheduler creates a Scheduler. health may be nil.
func NewScheduler(cfg Config, job Job, metrics *WorkerMetrics, health *HealthServer, logger *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:     cfg,
		job:     job,
		metrics: metrics,
		health:  health,
		logger:  logger,
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.Recover(cronLogger{logger})),
		),
	}, nil
}

// Run starts the schedule and blocks until ctx is cancelled. It waits for an
// in-flight run to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.cfg.CronSchedule, func() { s.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	s.entryID = id
	s.cron.Start()
	s.recordNextRun()

	if s.health != nil {
		s.health.SetReady(true)
	}
	s.logger.Info("scheduler started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Location.String()),
		slog.Time("next_run", s.cron.Entry(id).Next))

	var wg sync.WaitGroup
	if s.cfg.RunOnStart {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunOnce(ctx)
		}()
	}

	<-ctx.Done()
	if s.health != nil {
		s.health.SetReady(false)
	}
	s.logger.Info("scheduler stopping, waiting for running job")
	<-s.cron.Stop().Done()
	wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// RunOnce executes the job now unless a run is already in progress.
// It reports whether the job was executed.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.running.TryLock() {
		s.metrics.RecordJobRun(StatusSkipped)
		s.logger.Warn("previous run still in progress, skipping trigger")
		return false
	}
	defer s.running.Unlock()

	start := time.Now()
	s.metrics.RecordJobRun(StatusStarted)
	s.logger.Info("scheduled run started")

	jobCtx := ctx
	if s.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.cfg.JobTimeout)
		defer cancel()
	}

	result, err := s.job(jobCtx)
	duration := time.Since(start)
	s.metrics.RecordJobDuration(duration.Seconds())

	summary := RunSummary{Status: StatusSuccess, Result: result, FinishedAt: time.Now().UTC()}
	if err != nil {
		summary.Status = StatusFailure
		s.metrics.RecordJobRun(StatusFailure)
		s.logger.Error("scheduled run failed",
			slog.Duration("duration", duration),
			slog.String("error", logging.SanitizeError(err)))
	} else {
		s.metrics.RecordJobRun(StatusSuccess)
		s.metrics.RecordLastSuccess()
		s.logger.Info("scheduled run completed",
			slog.String("result", result),
			slog.Duration("duration", duration))
	}
	if s.health != nil {
		s.health.SetLastRun(summary)
	}
	s.recordNextRun()
	return true
}

func (s *Scheduler) recordNextRun() {
	if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
		s.metrics.RecordNextRun(next.Unix())
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
