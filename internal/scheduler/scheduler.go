package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/socialmatic/socialmatic/internal/models"
)

// Client registers deferred delivery jobs against the queue.
type Client interface {
	Register(ctx context.Context, platform models.Platform, userID, content string, fireAt time.Time) (string, error)
}

type asynqScheduler struct {
	client          *asynq.Client
	callbackBaseURL string
}

func NewClient(client *asynq.Client, callbackBaseURL string) Client {
	return &asynqScheduler{
		client:          client,
		callbackBaseURL: callbackBaseURL,
	}
}

// Register enqueues one delivery job firing at fireAt, targeting the
// platform's fixed callback endpoint. Returns the queue's opaque
// message id.
func (s *asynqScheduler) Register(ctx context.Context, platform models.Platform, userID, content string, fireAt time.Time) (string, error) {
	payload := DeliveryTaskPayload{
		Destination: s.callbackBaseURL + platform.CallbackPath(),
		UserID:      userID,
		Content:     content,
	}

	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TaskTypeDeliverPost, taskPayload)

	info, err := s.client.EnqueueContext(ctx, task, asynq.ProcessAt(fireAt))
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to register delivery job: %w", err)
	}

	slog.Info("delivery job registered", "platform", string(platform), "message_id", info.ID)
	return info.ID, nil
}
