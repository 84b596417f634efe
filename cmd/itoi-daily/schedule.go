package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"itoi-daily/internal/infra/worker"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the publish job on a cron schedule",
	Long: "Keeps running and triggers the publish job on the configured cron schedule. " +
		"Serves /health and /health/ready on the health address and /metrics on the " +
		"metrics address. A trigger that fires while a run is in progress is skipped.",
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false, true)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := worker.DefaultConfig()
	cfg.CronSchedule = a.cfg.Schedule.Cron
	cfg.Location = a.cfg.Schedule.Location()
	cfg.RunOnStart = a.cfg.Schedule.RunOnStart

	health := worker.NewHealthServer(a.cfg.Schedule.HealthAddr, a.logger)
	scheduler, err := worker.NewScheduler(cfg, func(ctx context.Context) (string, error) {
		res, err := a.service.Run(ctx)
		if err != nil {
			return "", err
		}
		return string(res.Status), nil
	}, worker.NewWorkerMetrics(), health, a.logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return ignoreClosed(health.Start(ctx)) })
	g.Go(func() error {
		return ignoreClosed(worker.NewMetricsServer(a.cfg.Schedule.MetricsAddr, a.logger).Start(ctx))
	})
	g.Go(func() error { return scheduler.Run(ctx) })
	return g.Wait()
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
