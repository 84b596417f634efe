package worker

import (
	"fmt"
	"time"

	pkgconfig "itoi-daily/internal/pkg/config"
)

// Config controls when the scheduled job runs.
type Config struct {
	// CronSchedule is a five-field cron expression evaluated in Location.
	CronSchedule string
	Location     *time.Location
	// RunOnStart triggers one run immediately after the scheduler starts.
	RunOnStart bool
	// JobTimeout bounds a single run. Zero disables the bound.
	JobTimeout time.Duration
}

// DefaultConfig runs daily at 07:00 Japan time, shortly after the essay is posted.
func DefaultConfig() Config {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.FixedZone("JST", 9*60*60)
	}
	return Config{
		CronSchedule: "0 7 * * *",
		Location:     loc,
		JobTimeout:   15 * time.Minute,
	}
}

// Validate checks the schedule and timeout.
func (c Config) Validate() error {
	if err := pkgconfig.ValidateCronSchedule(c.CronSchedule); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if c.Location == nil {
		return fmt.Errorf("schedule: location is required")
	}
	if c.JobTimeout < 0 {
		return fmt.Errorf("schedule: job timeout must not be negative, got %v", c.JobTimeout)
	}
	return nil
}
