package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/agrinote/agrinote/internal/config"
	"github.com/agrinote/agrinote/internal/digest"
	"github.com/agrinote/agrinote/internal/models"
	"github.com/agrinote/agrinote/internal/store"
)

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, db *gorm.DB, vault digest.Decrypter, sender digest.Sender) error {
	srv, mux, err := newServer(cfg, db, vault, sender)
	if err != nil {
		return err
	}

	// Run blocks and handles its own signal interception.
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop
// function. Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, db *gorm.DB, vault digest.Decrypter, sender digest.Sender) (stop func(), err error) {
	srv, mux, err := newServer(cfg, db, vault, sender)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, db *gorm.DB, vault digest.Decrypter, sender digest.Sender) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	// Dedicated Redis client for the fan-out's duplicate-send guard.
	// This is separate from the Asynq internal connection.
	rdb, err := newGuardRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create guard Redis client: %w", err)
	}

	dispatcher := digest.NewDispatcher(store.New(db), vault, sender, cfg.BaseURL, logger)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskDigestSend, handleSendDigest(logger, db, dispatcher))
	mux.HandleFunc(TaskDigestScheduleAll, handleScheduleAll(logger, db, rdb))

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// newGuardRedisClient creates the Redis client backing the SETNX guard that
// keeps a double-fired cron from sending the same digest twice.
func newGuardRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// handleSendDigest runs the digest pipeline for one organization and date and
// records the outcome. The dispatcher itself never raises; the task returns
// an error only to engage queue-level retries on a not-fully-successful run.
func handleSendDigest(logger *slog.Logger, db *gorm.DB, dispatcher *digest.Dispatcher) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload sendDigestPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		var org models.Organization
		if err := db.WithContext(ctx).First(&org, payload.OrganizationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Organization not found", "org_id", payload.OrganizationID)
				return fmt.Errorf("organization not found: %w", asynq.SkipRetry)
			}
			// Database error - retryable
			return fmt.Errorf("failed to fetch organization: %w", err)
		}

		channels, err := EligibleChannels(ctx, db, org.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch channels: %w", err)
		}

		runID := uuid.New().String()
		logger.Info(
			"Processing digest:send task",
			"run_id", runID,
			"org_id", org.ID,
			"date", payload.Date,
			"channels", len(channels),
		)

		result := dispatcher.Dispatch(ctx, digest.OrgInfo{
			ID:       org.ID,
			Name:     org.Name,
			Location: org.Location(),
		}, channels, payload.Date)

		if !result.OverallSuccess {
			logger.Error(
				"Digest dispatch incomplete",
				"run_id", runID,
				"org_id", org.ID,
				"date", payload.Date,
				"success_count", result.SuccessCount,
				"failure_count", result.FailureCount,
				"detail", result.ErrorDetail,
			)
			return fmt.Errorf("digest dispatch for org %d on %s: %s", org.ID, payload.Date, result.Summary)
		}

		logger.Info(
			"Digest dispatch completed",
			"run_id", runID,
			"org_id", org.ID,
			"date", payload.Date,
			"success_count", result.SuccessCount,
		)

		return nil
	}
}

// handleScheduleAll fans the daily cron out into one digest:send task per
// organization with at least one eligible channel. A Redis SETNX guard keyed
// by (organization, date) keeps a double-fired schedule from double-sending.
func handleScheduleAll(logger *slog.Logger, db *gorm.DB, rdb *redis.Client) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var orgs []models.Organization
		err := db.WithContext(ctx).
			Joins("JOIN channels ON channels.organization_id = organizations.id AND channels.deleted_at IS NULL").
			Where("channels.enabled = ?", true).
			Distinct().
			Find(&orgs).Error
		if err != nil {
			return fmt.Errorf("failed to list organizations: %w", err)
		}

		logger.Info("Processing digest:schedule_all task", "organizations", len(orgs))

		var enqueued, skipped, failed int
		for _, org := range orgs {
			// The digest covers "today" in the organization's own timezone.
			date := time.Now().In(org.Location()).Format("2006-01-02")

			guardKey := fmt.Sprintf("digest:sent:%d:%s", org.ID, date)
			ok, err := rdb.SetNX(ctx, guardKey, 1, 24*time.Hour).Result()
			if err != nil {
				logger.Error("Guard check failed", "org_id", org.ID, "error", err.Error())
				failed++
				continue
			}
			if !ok {
				skipped++
				continue
			}

			if err := EnqueueSendDigest(org.ID, date); err != nil {
				logger.Error("Failed to enqueue digest", "org_id", org.ID, "date", date, "error", err.Error())
				// Release the guard so the next schedule run can try again.
				rdb.Del(ctx, guardKey)
				failed++
				continue
			}
			enqueued++
		}

		logger.Info(
			"Digest fan-out finished",
			"enqueued", enqueued,
			"skipped", skipped,
			"failed", failed,
		)

		if failed > 0 {
			return fmt.Errorf("digest fan-out: %d organization(s) failed to enqueue", failed)
		}
		return nil
	}
}

// EligibleChannels loads the organization's channels that are enabled and
// subscribed to the daily digest, shaped for the dispatcher.
func EligibleChannels(ctx context.Context, db *gorm.DB, orgID uint) ([]digest.Channel, error) {
	var channels []models.Channel
	err := db.WithContext(ctx).
		Where("organization_id = ? AND enabled = ?", orgID, true).
		Find(&channels).Error
	if err != nil {
		return nil, err
	}

	eligible := make([]digest.Channel, 0, len(channels))
	for _, ch := range channels {
		if !ch.WantsDailyDigest() {
			continue
		}
		eligible = append(eligible, digest.Channel{
			ID:           ch.ID,
			Name:         ch.Name,
			EncryptedURL: ch.EncryptedWebhookURL,
		})
	}
	return eligible, nil
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		// Check if this is the final failure (task will move to dead letter queue)
		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
