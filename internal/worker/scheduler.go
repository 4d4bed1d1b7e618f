package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/agrinote/agrinote/internal/config"
)

// StartScheduler creates and starts an Asynq Scheduler that fires the daily
// digest fan-out on the configured cron spec. Returns a stop function for
// graceful shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	location, err := time.LoadLocation(cfg.DigestTimezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", cfg.DigestTimezone, "error", err)
		location = time.UTC
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: location,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	// Register the periodic fan-out task
	task := asynq.NewTask(
		TaskDigestScheduleAll,
		nil, // Empty payload - handler queries all organizations
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(24*time.Hour), // Prevent duplicate if scheduler runs twice
	)

	entryID, err := scheduler.Register(cfg.DigestSchedule, task)
	if err != nil {
		return nil, fmt.Errorf("failed to register digest schedule: %w", err)
	}

	// Start scheduler (non-blocking)
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	slog.Info(
		"Scheduler started",
		"schedule", cfg.DigestSchedule,
		"timezone", cfg.DigestTimezone,
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}
