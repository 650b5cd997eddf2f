package notification

import (
	"fmt"

	"tripnest/models"
	"tripnest/services/tasks"

	"github.com/hibiken/asynq"
)

// AsynqEnqueuer implements ConfirmationEnqueuer on top of the redis-backed
// task queue.
type AsynqEnqueuer struct {
	client *asynq.Client
}

// NewAsynqEnqueuer creates an enqueuer bound to the given broker.
func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: asynq.NewClient(redisOpt)}
}

// EnqueueConfirmation durably queues one confirmation email job.
func (e *AsynqEnqueuer) EnqueueConfirmation(userEmail, bookingID, amount string) error {
	payload := models.ConfirmationPayload{
		UserEmail: userEmail,
		BookingID: bookingID,
		Amount:    amount,
	}
	task, opts, err := tasks.NewConfirmationTask(payload)
	if err != nil {
		return fmt.Errorf("failed to build confirmation task: %w", err)
	}
	if _, err := e.client.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue confirmation task: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (e *AsynqEnqueuer) Close() error {
	return e.client.Close()
}
