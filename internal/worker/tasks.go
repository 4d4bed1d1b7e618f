package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskDigestSend        = "digest:send"
	TaskDigestScheduleAll = "digest:schedule_all"
)

// sendDigestPayload is the digest:send task body.
type sendDigestPayload struct {
	OrganizationID uint   `json:"organization_id"`
	Date           string `json:"date"` // YYYY-MM-DD
}

// Package-level Asynq client (singleton)
var client *asynq.Client

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// EnqueueSendDigest enqueues a digest dispatch for one organization and one
// calendar date. A digest run is idempotent, so the queue-level retry policy
// (up to 3 attempts) is safe; uniqueness prevents piling up duplicate sends
// for the same (organization, date) while one is still in flight.
func EnqueueSendDigest(orgID uint, date string) error {
	payload, err := json.Marshal(sendDigestPayload{
		OrganizationID: orgID,
		Date:           date,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskDigestSend,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(time.Hour),
	)

	_, err = client.Enqueue(task)
	return err
}
