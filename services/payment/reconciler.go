package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paymentRepo "tripnest/database/repository/payment"
	userRepo "tripnest/database/repository/user"
	"tripnest/models"
	"tripnest/services/booking"
	"tripnest/services/notification"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// stalePendingWindow is how long an unresolved pending payment blocks
// re-initiation before a new attempt may supersede it.
const stalePendingWindow = 30 * time.Minute

// Service reconciles the payment lifecycle: it initiates charge attempts
// against the gateway and settles booking/payment state from verification
// results.
type Service interface {
	Initiate(ctx context.Context, bookingID, userID string) (*InitiateResult, error)
	Verify(ctx context.Context, txRef string) (*VerifyOutcome, error)
	Status(ctx context.Context, paymentID, userID string) (*models.Payment, error)
}

// InitiateResult is returned to the caller after a checkout session is
// created; the money movement happens out-of-band at the gateway.
type InitiateResult struct {
	PaymentID   string
	CheckoutURL string
	TxRef       string
}

// VerifyOutcome summarizes a settled verification.
type VerifyOutcome struct {
	Completed bool
	Status    string
	BookingID string
	Amount    float64
	Details   json.RawMessage // gateway diagnostic payload on failure
}

// DefaultReconciler implements Service. Booking reads and status writes go
// through the ledger; payments are its own table.
type DefaultReconciler struct {
	Ledger        booking.Service
	Payments      paymentRepo.PaymentRepository
	Users         userRepo.UserRepository
	Gateway       GatewayClient
	Notifier      notification.ConfirmationEnqueuer
	PublicBaseURL string
	Logger        *zap.Logger
}

// Initiate creates a checkout session for the booking. At most one
// non-failed payment may exist per booking; the storage layer's partial
// unique index makes the check-then-create race-free, so concurrent calls
// settle on exactly one persisted payment.
func (s *DefaultReconciler) Initiate(ctx context.Context, bookingID, userID string) (*InitiateResult, error) {
	bk, err := s.Ledger.Find(ctx, bookingID, userID)
	if err != nil {
		return nil, fromLedgerError(err, "booking not found")
	}

	if err := s.checkActivePayment(ctx, bk.ID); err != nil {
		return nil, err
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to fetch user", err)
	}

	txRef := "tx-" + uuid.New().String()

	req := InitializeRequest{
		Amount:      fmt.Sprintf("%.2f", bk.TotalPrice),
		Currency:    models.PaymentCurrency,
		Email:       user.Email,
		FirstName:   user.DisplayFirstName(),
		LastName:    user.LastName,
		TxRef:       txRef,
		CallbackURL: s.PublicBaseURL + "/api/payments/verify",
		ReturnURL:   s.PublicBaseURL + "/bookings",
	}
	req.Customization.Title = "Travel Booking Payment"
	req.Customization.Description = fmt.Sprintf("Payment for booking %s", bk.ID)

	initRes, err := s.Gateway.Initialize(ctx, req)
	if err != nil {
		// Nothing persisted on gateway failure.
		return nil, err
	}

	now := time.Now()
	pay := &models.Payment{
		ID:          uuid.New().String(),
		BookingID:   bk.ID,
		TxRef:       txRef,
		Amount:      bk.TotalPrice,
		Currency:    models.PaymentCurrency,
		Status:      models.PaymentStatusPending,
		CheckoutURL: initRes.CheckoutURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Payments.Create(ctx, pay); err != nil {
		if errors.Is(err, paymentRepo.ErrActivePaymentExists) {
			// Lost the race against a concurrent initiation.
			return nil, s.activePaymentError(ctx, bk.ID)
		}
		return nil, NewInternalError("failed to persist payment", err)
	}

	s.Logger.Info("payment initiated",
		zap.String("bookingID", bk.ID),
		zap.String("paymentID", pay.ID),
		zap.String("txRef", txRef))

	return &InitiateResult{
		PaymentID:   pay.ID,
		CheckoutURL: initRes.CheckoutURL,
		TxRef:       txRef,
	}, nil
}

// checkActivePayment enforces the idempotency guard before the gateway is
// called. A completed payment always rejects; a pending one rejects inside
// the staleness window and is superseded past it.
func (s *DefaultReconciler) checkActivePayment(ctx context.Context, bookingID string) error {
	active, err := s.Payments.FindActiveByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		return NewInternalError("failed to check existing payments", err)
	}

	if active.Status == models.PaymentStatusCompleted {
		return NewDuplicatePaymentError("this booking already has a completed payment")
	}

	cutoff := time.Now().Add(-stalePendingWindow)
	if active.UpdatedAt.After(cutoff) {
		return NewConflictError("a payment for this booking is already in progress")
	}

	superseded, err := s.Payments.SupersedeStale(ctx, bookingID, cutoff)
	if err != nil {
		return NewInternalError("failed to supersede stale payment", err)
	}
	if !superseded {
		// A concurrent request resolved or replaced the stale payment first.
		return NewConflictError("a payment for this booking is already in progress")
	}

	s.Logger.Warn("superseded stale pending payment",
		zap.String("bookingID", bookingID),
		zap.String("txRef", active.TxRef))
	return nil
}

// activePaymentError classifies a duplicate-key insert failure by looking
// at the payment that blocked it.
func (s *DefaultReconciler) activePaymentError(ctx context.Context, bookingID string) error {
	active, err := s.Payments.FindActiveByBooking(ctx, bookingID)
	if err == nil && active.Status == models.PaymentStatusCompleted {
		return NewDuplicatePaymentError("this booking already has a completed payment")
	}
	return NewConflictError("a payment for this booking is already in progress")
}

// Verify settles a transaction from the gateway's reported state. The
// pending -> completed write is a compare-and-set, so duplicate webhook
// deliveries confirm the booking and enqueue the email at most once.
func (s *DefaultReconciler) Verify(ctx context.Context, txRef string) (*VerifyOutcome, error) {
	if txRef == "" {
		return nil, NewInvalidRequestError("transaction reference is required")
	}

	result, err := s.Gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, err
	}

	pay, err := s.Payments.GetByTxRef(ctx, txRef)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("payment record not found")
		}
		return nil, NewInternalError("failed to fetch payment", err)
	}

	if !result.Success() {
		return s.settleFailed(ctx, pay, result)
	}
	return s.settleCompleted(ctx, pay, result)
}

func (s *DefaultReconciler) settleCompleted(ctx context.Context, pay *models.Payment, result *VerifyResult) (*VerifyOutcome, error) {
	won, err := s.Payments.MarkCompleted(ctx, pay.TxRef, result.PaymentMethod)
	if err != nil {
		return nil, NewInternalError("failed to record completed payment", err)
	}

	outcome := &VerifyOutcome{
		Completed: true,
		Status:    models.PaymentStatusCompleted,
		BookingID: pay.BookingID,
		Amount:    pay.Amount,
	}

	if !won {
		// Already settled by an earlier verification; side effects were
		// performed exactly once back then.
		s.Logger.Debug("payment already settled", zap.String("txRef", pay.TxRef))
		return outcome, nil
	}

	if err := s.Ledger.Confirm(ctx, pay.BookingID); err != nil {
		return nil, NewInternalError("failed to confirm booking", err)
	}

	s.enqueueConfirmation(ctx, pay)

	s.Logger.Info("payment completed",
		zap.String("bookingID", pay.BookingID),
		zap.String("txRef", pay.TxRef),
		zap.Float64("amount", pay.Amount))
	return outcome, nil
}

func (s *DefaultReconciler) settleFailed(ctx context.Context, pay *models.Payment, result *VerifyResult) (*VerifyOutcome, error) {
	// Conditional on pending: a completed payment is never re-verified
	// into failed, and the booking is left alone.
	if _, err := s.Payments.MarkFailed(ctx, pay.TxRef); err != nil {
		return nil, NewInternalError("failed to record failed payment", err)
	}

	s.Logger.Warn("payment verification failed",
		zap.String("bookingID", pay.BookingID),
		zap.String("txRef", pay.TxRef))

	return &VerifyOutcome{
		Completed: false,
		Status:    models.PaymentStatusFailed,
		BookingID: pay.BookingID,
		Amount:    pay.Amount,
		Details:   result.Raw,
	}, nil
}

// enqueueConfirmation hands the email off to the task queue. Delivery is
// fire-and-forget: an unreachable broker is logged, never surfaced to the
// verification request.
func (s *DefaultReconciler) enqueueConfirmation(ctx context.Context, pay *models.Payment) {
	bk, err := s.Ledger.Find(ctx, pay.BookingID, "")
	if err != nil {
		s.Logger.Error("failed to load booking for confirmation email", zap.Error(err))
		return
	}
	user, err := s.Users.GetByID(ctx, bk.UserID)
	if err != nil {
		s.Logger.Error("failed to load user for confirmation email", zap.Error(err))
		return
	}

	amount := fmt.Sprintf("%.2f", pay.Amount)
	if err := s.Notifier.EnqueueConfirmation(user.Email, bk.ID, amount); err != nil {
		s.Logger.Error("failed to enqueue confirmation email",
			zap.String("bookingID", bk.ID), zap.Error(err))
	}
}

// Status returns a read-only projection of a payment to its owner.
func (s *DefaultReconciler) Status(ctx context.Context, paymentID, userID string) (*models.Payment, error) {
	pay, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("payment not found")
		}
		return nil, NewInternalError("failed to fetch payment", err)
	}

	bk, err := s.Ledger.Find(ctx, pay.BookingID, "")
	if err != nil {
		return nil, NewInternalError("failed to fetch booking", err)
	}
	if bk.UserID != userID {
		return nil, NewUnauthorizedError("you do not own this payment")
	}

	return pay, nil
}

// fromLedgerError translates a booking ledger error into the payment
// taxonomy.
func fromLedgerError(err error, notFoundMsg string) error {
	var be *booking.Error
	if errors.As(err, &be) && be.Code == booking.CodeNotFound {
		return NewNotFoundError(notFoundMsg)
	}
	return NewInternalError("booking lookup failed", err)
}
