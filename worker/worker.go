package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tripnest/config"
	"tripnest/models"
	"tripnest/services/notification"
	"tripnest/services/tasks"

	"github.com/hibiken/asynq"
)

// InitConfirmationWorker runs the async email worker in background.
func InitConfirmationWorker(mailer notification.Mailer) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendConfirmation, handleConfirmationTask(mailer))

	// Start async worker with retry logic
	go func() {
		log.Println("[ConfirmationWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ConfirmationWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ConfirmationWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

// handleConfirmationTask delivers one confirmation email. Failures are
// logged and left to the queue's retry policy; they never reach the
// booking flow.
func handleConfirmationTask(mailer notification.Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ConfirmationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ConfirmationWorker] invalid payload: %v", err)
			return err
		}

		if err := mailer.SendConfirmation(p.UserEmail, p.BookingID, p.Amount); err != nil {
			log.Printf("[ConfirmationWorker] failed to send email for booking %s: %v", p.BookingID, err)
			return err
		}

		log.Printf("[ConfirmationWorker] confirmation sent to %s for booking %s", p.UserEmail, p.BookingID)
		return nil
	}
}
