package paymentRepo

import (
	"context"
	"errors"
	"time"

	"tripnest/models"
)

// ErrActivePaymentExists is returned by Create when the booking already
// carries a non-failed payment. The storage layer enforces this through a
// partial unique index, so concurrent initiations cannot both insert.
var ErrActivePaymentExists = errors.New("an active payment already exists for this booking")

// PaymentRepository defines methods for payment data access. Status
// transitions are conditional writes so that duplicate webhook deliveries
// and concurrent verifications settle on exactly one winner.
type PaymentRepository interface {
	// Create inserts a new payment record. Returns ErrActivePaymentExists
	// if the booking already has a pending or completed payment.
	Create(ctx context.Context, payment *models.Payment) error
	// GetByID retrieves a payment by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	// GetByTxRef retrieves a payment by its gateway correlation reference.
	GetByTxRef(ctx context.Context, txRef string) (*models.Payment, error)
	// FindActiveByBooking retrieves the booking's non-failed payment, if any.
	FindActiveByBooking(ctx context.Context, bookingID string) (*models.Payment, error)
	// MarkCompleted transitions pending -> completed and records the payment
	// method. Reports whether this call performed the transition.
	MarkCompleted(ctx context.Context, txRef, method string) (bool, error)
	// MarkFailed transitions pending -> failed. Reports whether this call
	// performed the transition.
	MarkFailed(ctx context.Context, txRef string) (bool, error)
	// SupersedeStale fails the booking's pending payment if it has not been
	// touched since the cutoff. Reports whether a payment was superseded.
	SupersedeStale(ctx context.Context, bookingID string, cutoff time.Time) (bool, error)
}
