// Package jobs carries the scheduled auto-release path over asynq. Delivery
// is at-least-once; the epoch guard downstream makes duplicates harmless.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

const TypeAutoRelease = "chat:auto_release"

type AutoReleasePayload struct {
	SessionID uuid.UUID `json:"session_id"`
	Epoch     uuid.UUID `json:"epoch"`
}

type SchedulerConfig struct {
	Client   *asynq.Client
	Queue    string
	MaxRetry int
}

// AsynqScheduler enqueues one auto-release task per takeover, delayed until
// the takeover deadline.
type AsynqScheduler struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

func NewAsynqScheduler(config SchedulerConfig) *AsynqScheduler {
	return &AsynqScheduler{
		client:   config.Client,
		queue:    config.Queue,
		maxRetry: config.MaxRetry,
	}
}

func (s *AsynqScheduler) Schedule(ctx context.Context, sessionID, epoch uuid.UUID, fireAt time.Time) error {
	payload, err := json.Marshal(&AutoReleasePayload{
		SessionID: sessionID,
		Epoch:     epoch,
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal auto release payload")
	}

	task := asynq.NewTask(TypeAutoRelease, payload)
	if _, err := s.client.EnqueueContext(
		ctx,
		task,
		asynq.ProcessAt(fireAt),
		asynq.Queue(s.queue),
		asynq.MaxRetry(s.maxRetry),
	); err != nil {
		return errors.Wrap(err, "failed to enqueue auto release task")
	}
	return nil
}

// AutoReleaser is what the worker needs from the takeover service.
type AutoReleaser interface {
	AutoRelease(ctx context.Context, sessionID, epoch uuid.UUID) error
}

// NewAutoReleaseHandler adapts the service call to an asynq handler. A
// malformed payload is dropped rather than retried; everything else retries
// on error and relies on the epoch guard for idempotence.
func NewAutoReleaseHandler(releaser AutoReleaser, logger *logrus.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload AutoReleasePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.WithError(err).Error("dropping malformed auto release task")
			return nil
		}
		if err := releaser.AutoRelease(ctx, payload.SessionID, payload.Epoch); err != nil {
			logger.WithFields(logrus.Fields{
				"session_id": payload.SessionID,
				"epoch":      payload.Epoch,
			}).WithError(err).Error("auto release failed")
			return err
		}
		return nil
	}
}
