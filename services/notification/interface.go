package notification

// ConfirmationEnqueuer is the reconciler's handle to the async delivery
// path. Enqueue must not block on, or fail with, mail-transport problems;
// the durable queue and its worker own retries.
type ConfirmationEnqueuer interface {
	EnqueueConfirmation(userEmail, bookingID, amount string) error
}

// Mailer sends a composed message to a single recipient.
type Mailer interface {
	SendConfirmation(userEmail, bookingID, amount string) error
}
