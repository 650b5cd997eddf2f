package tasks

import (
	"encoding/json"
	"time"

	"tripnest/models"

	"github.com/hibiken/asynq"
)

const TypeSendConfirmation = "email:payment_confirmation"

// NewConfirmationTask builds the queued job for a payment confirmation
// email. Retries belong to the worker infrastructure, not the enqueuer.
func NewConfirmationTask(payload models.ConfirmationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendConfirmation, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(1 * time.Minute),
	}

	return task, opts, nil
}
