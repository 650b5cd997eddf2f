package payment

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	paymentRepo "tripnest/database/repository/payment"
	"tripnest/models"
	"tripnest/services/booking"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// --- fakes ---

type fakeLedger struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newFakeLedger(bookings ...*models.Booking) *fakeLedger {
	l := &fakeLedger{bookings: make(map[string]*models.Booking)}
	for _, b := range bookings {
		l.bookings[b.ID] = b
	}
	return l
}

func (l *fakeLedger) Create(ctx context.Context, userID string, in booking.CreateInput) (*models.Booking, error) {
	panic("not used")
}

func (l *fakeLedger) Find(ctx context.Context, bookingID, ownerID string) (*models.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[bookingID]
	if !ok || (ownerID != "" && b.UserID != ownerID) {
		return nil, booking.NewNotFoundError("booking not found")
	}
	out := *b
	return &out, nil
}

func (l *fakeLedger) Confirm(ctx context.Context, bookingID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[bookingID]
	if !ok {
		return booking.NewNotFoundError("booking not found")
	}
	b.Status = models.BookingStatusConfirmed
	return nil
}

func (l *fakeLedger) Cancel(ctx context.Context, bookingID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[bookingID]
	if !ok {
		return booking.NewNotFoundError("booking not found")
	}
	b.Status = models.BookingStatusCancelled
	return nil
}

func (l *fakeLedger) status(bookingID string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bookings[bookingID].Status
}

// fakePaymentRepo mirrors the mongo repo's guarantees: a partial unique
// constraint on active payments per booking and compare-and-set status
// transitions.
type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*models.Payment // by tx_ref
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*models.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Active = p.Status != models.PaymentStatusFailed
	if p.Active {
		for _, existing := range r.payments {
			if existing.BookingID == p.BookingID && existing.Active {
				return paymentRepo.ErrActivePaymentExists
			}
		}
	}
	out := *p
	r.payments[p.TxRef] = &out
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			out := *p
			return &out, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakePaymentRepo) GetByTxRef(ctx context.Context, txRef string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txRef]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := *p
	return &out, nil
}

func (r *fakePaymentRepo) FindActiveByBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID == bookingID && p.Active {
			out := *p
			return &out, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakePaymentRepo) MarkCompleted(ctx context.Context, txRef, method string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txRef]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = models.PaymentStatusCompleted
	p.PaymentMethod = method
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakePaymentRepo) MarkFailed(ctx context.Context, txRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txRef]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = models.PaymentStatusFailed
	p.Active = false
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakePaymentRepo) SupersedeStale(ctx context.Context, bookingID string, cutoff time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID == bookingID && p.Status == models.PaymentStatusPending && p.UpdatedAt.Before(cutoff) {
			p.Status = models.PaymentStatusFailed
			p.Active = false
			p.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments)
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return u, nil
}

type fakeGateway struct {
	mu          sync.Mutex
	initCalls   int
	verifyCalls int

	initErr      error
	verifyStatus string
	verifyMethod string
}

func (g *fakeGateway) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	g.mu.Lock()
	g.initCalls++
	g.mu.Unlock()
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &InitializeResult{CheckoutURL: "https://checkout.example/" + req.TxRef}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	g.mu.Lock()
	g.verifyCalls++
	g.mu.Unlock()
	return &VerifyResult{
		Status:        g.verifyStatus,
		PaymentMethod: g.verifyMethod,
		Raw:           json.RawMessage(`{"status":"` + g.verifyStatus + `"}`),
	}, nil
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []models.ConfirmationPayload
}

func (e *fakeEnqueuer) EnqueueConfirmation(userEmail, bookingID, amount string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, models.ConfirmationPayload{
		UserEmail: userEmail,
		BookingID: bookingID,
		Amount:    amount,
	})
	return nil
}

func (e *fakeEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

// --- harness ---

type reconcilerFixture struct {
	ledger   *fakeLedger
	payments *fakePaymentRepo
	gateway  *fakeGateway
	enqueuer *fakeEnqueuer
	svc      *DefaultReconciler
}

func newFixture(t *testing.T, bookings ...*models.Booking) *reconcilerFixture {
	t.Helper()
	ledger := newFakeLedger(bookings...)
	payments := newFakePaymentRepo()
	gateway := &fakeGateway{verifyStatus: "success", verifyMethod: "telebirr"}
	enqueuer := &fakeEnqueuer{}
	users := &fakeUserRepo{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "guest@example.com", FirstName: "Abel", LastName: "Tesfaye"},
	}}

	svc := &DefaultReconciler{
		Ledger:        ledger,
		Payments:      payments,
		Users:         users,
		Gateway:       gateway,
		Notifier:      enqueuer,
		PublicBaseURL: "http://localhost:8080",
		Logger:        zap.NewNop(),
	}
	return &reconcilerFixture{ledger: ledger, payments: payments, gateway: gateway, enqueuer: enqueuer, svc: svc}
}

func testBooking() *models.Booking {
	now := time.Now()
	return &models.Booking{
		ID:         "booking-1",
		ListingID:  "listing-1",
		UserID:     "user-1",
		CheckIn:    "2026-10-01",
		CheckOut:   "2026-10-05",
		Guests:     2,
		TotalPrice: 200,
		Status:     models.BookingStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func paymentCode(t *testing.T, err error) string {
	t.Helper()
	pe, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *payment.Error, got %T: %v", err, err)
	}
	return pe.Code
}

// --- Initiate ---

func TestInitiate_Success(t *testing.T) {
	f := newFixture(t, testBooking())

	res, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if !strings.HasPrefix(res.TxRef, "tx-") {
		t.Errorf("TxRef = %q, want tx- prefix", res.TxRef)
	}
	if res.CheckoutURL == "" {
		t.Error("expected a checkout URL")
	}

	persisted, err := f.payments.GetByTxRef(context.Background(), res.TxRef)
	if err != nil {
		t.Fatalf("persisted payment not found: %v", err)
	}
	if persisted.Status != models.PaymentStatusPending {
		t.Errorf("payment status = %q, want pending", persisted.Status)
	}
	if persisted.Amount != 200 {
		t.Errorf("payment amount = %v, want 200", persisted.Amount)
	}
	if persisted.Currency != models.PaymentCurrency {
		t.Errorf("payment currency = %q, want %q", persisted.Currency, models.PaymentCurrency)
	}
}

func TestInitiate_BookingNotFound(t *testing.T) {
	f := newFixture(t, testBooking())

	tests := []struct {
		name      string
		bookingID string
		userID    string
	}{
		{"missing booking", "no-such-booking", "user-1"},
		{"not the owner", "booking-1", "user-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Initiate(context.Background(), tt.bookingID, tt.userID)
			if code := paymentCode(t, err); code != CodeNotFound {
				t.Errorf("error code = %q, want %q", code, CodeNotFound)
			}
		})
	}
	if f.gateway.initCalls != 0 {
		t.Errorf("gateway called %d times, want 0", f.gateway.initCalls)
	}
}

func TestInitiate_DuplicateCompletedPayment(t *testing.T) {
	f := newFixture(t, testBooking())

	res, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if _, err := f.payments.MarkCompleted(context.Background(), res.TxRef, "card"); err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if code := paymentCode(t, err); code != CodeDuplicatePayment {
		t.Errorf("error code = %q, want %q", code, CodeDuplicatePayment)
	}
}

func TestInitiate_PendingPaymentInProgress(t *testing.T) {
	f := newFixture(t, testBooking())

	if _, err := f.svc.Initiate(context.Background(), "booking-1", "user-1"); err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	_, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if code := paymentCode(t, err); code != CodeConflict {
		t.Errorf("error code = %q, want %q", code, CodeConflict)
	}
	if got := f.payments.count(); got != 1 {
		t.Errorf("persisted payments = %d, want 1", got)
	}
}

func TestInitiate_SupersedesStalePending(t *testing.T) {
	f := newFixture(t, testBooking())

	res, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	// Age the pending payment past the staleness window.
	f.payments.mu.Lock()
	f.payments.payments[res.TxRef].UpdatedAt = time.Now().Add(-time.Hour)
	f.payments.mu.Unlock()

	res2, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if err != nil {
		t.Fatalf("Initiate() after stale pending error = %v", err)
	}

	old, _ := f.payments.GetByTxRef(context.Background(), res.TxRef)
	if old.Status != models.PaymentStatusFailed {
		t.Errorf("superseded payment status = %q, want failed", old.Status)
	}
	fresh, _ := f.payments.GetByTxRef(context.Background(), res2.TxRef)
	if fresh.Status != models.PaymentStatusPending {
		t.Errorf("new payment status = %q, want pending", fresh.Status)
	}
}

func TestInitiate_GatewayFailurePersistsNothing(t *testing.T) {
	f := newFixture(t, testBooking())
	f.gateway.initErr = NewGatewayError("gateway rejected request (HTTP 400)", json.RawMessage(`{"status":"failed"}`), nil)

	_, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if code := paymentCode(t, err); code != CodeGateway {
		t.Errorf("error code = %q, want %q", code, CodeGateway)
	}
	if got := f.payments.count(); got != 0 {
		t.Errorf("persisted payments = %d, want 0", got)
	}
}

func TestInitiate_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t, testBooking())

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Initiate(context.Background(), "booking-1", "user-1")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		code := paymentCode(t, err)
		if code != CodeConflict && code != CodeDuplicatePayment {
			t.Errorf("unexpected error code %q", code)
		}
	}
	if succeeded != 1 {
		t.Errorf("successful initiations = %d, want exactly 1", succeeded)
	}
	if got := f.payments.count(); got != 1 {
		t.Errorf("persisted payments = %d, want 1", got)
	}
}

// --- Verify ---

func TestVerify_SuccessConfirmsAndNotifiesOnce(t *testing.T) {
	f := newFixture(t, testBooking())

	res, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	outcome, err := f.svc.Verify(context.Background(), res.TxRef)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !outcome.Completed || outcome.Status != models.PaymentStatusCompleted {
		t.Errorf("outcome = %+v, want completed", outcome)
	}
	if outcome.BookingID != "booking-1" || outcome.Amount != 200 {
		t.Errorf("outcome booking/amount = %s/%v, want booking-1/200", outcome.BookingID, outcome.Amount)
	}

	pay, _ := f.payments.GetByTxRef(context.Background(), res.TxRef)
	if pay.Status != models.PaymentStatusCompleted {
		t.Errorf("payment status = %q, want completed", pay.Status)
	}
	if pay.PaymentMethod != "telebirr" {
		t.Errorf("payment method = %q, want telebirr", pay.PaymentMethod)
	}
	if got := f.ledger.status("booking-1"); got != models.BookingStatusConfirmed {
		t.Errorf("booking status = %q, want confirmed", got)
	}
	if got := f.enqueuer.count(); got != 1 {
		t.Fatalf("enqueued notifications = %d, want 1", got)
	}

	job := f.enqueuer.jobs[0]
	if job.UserEmail != "guest@example.com" || job.BookingID != "booking-1" || job.Amount != "200.00" {
		t.Errorf("notification job = %+v", job)
	}

	// Duplicate webhook delivery: no second notification, same outcome.
	again, err := f.svc.Verify(context.Background(), res.TxRef)
	if err != nil {
		t.Fatalf("second Verify() error = %v", err)
	}
	if !again.Completed {
		t.Error("second Verify() should still report completed")
	}
	if got := f.enqueuer.count(); got != 1 {
		t.Errorf("enqueued notifications after re-verify = %d, want 1", got)
	}
}

func TestVerify_FailureLeavesBookingAlone(t *testing.T) {
	f := newFixture(t, testBooking())
	res, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	f.gateway.verifyStatus = "failed"
	outcome, err := f.svc.Verify(context.Background(), res.TxRef)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome.Completed {
		t.Error("outcome should not be completed")
	}
	if len(outcome.Details) == 0 {
		t.Error("failure outcome should carry the gateway payload")
	}

	pay, _ := f.payments.GetByTxRef(context.Background(), res.TxRef)
	if pay.Status != models.PaymentStatusFailed {
		t.Errorf("payment status = %q, want failed", pay.Status)
	}
	if got := f.ledger.status("booking-1"); got != models.BookingStatusPending {
		t.Errorf("booking status = %q, want pending", got)
	}
	if got := f.enqueuer.count(); got != 0 {
		t.Errorf("enqueued notifications = %d, want 0", got)
	}
}

func TestVerify_FailureNeverDowngradesCompleted(t *testing.T) {
	f := newFixture(t, testBooking())
	res, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if _, err := f.svc.Verify(context.Background(), res.TxRef); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	f.gateway.verifyStatus = "failed"
	if _, err := f.svc.Verify(context.Background(), res.TxRef); err != nil {
		t.Fatalf("re-Verify() error = %v", err)
	}

	pay, _ := f.payments.GetByTxRef(context.Background(), res.TxRef)
	if pay.Status != models.PaymentStatusCompleted {
		t.Errorf("payment status = %q, want completed to stick", pay.Status)
	}
}

func TestVerify_MissingTxRef(t *testing.T) {
	f := newFixture(t, testBooking())

	_, err := f.svc.Verify(context.Background(), "")
	if code := paymentCode(t, err); code != CodeInvalidRequest {
		t.Errorf("error code = %q, want %q", code, CodeInvalidRequest)
	}
	if f.gateway.verifyCalls != 0 {
		t.Errorf("gateway called %d times, want 0", f.gateway.verifyCalls)
	}
}

func TestVerify_UnknownTxRef(t *testing.T) {
	f := newFixture(t, testBooking())

	_, err := f.svc.Verify(context.Background(), "tx-unknown")
	if code := paymentCode(t, err); code != CodeNotFound {
		t.Errorf("error code = %q, want %q", code, CodeNotFound)
	}
}

// --- Status ---

func TestStatus_OwnershipEnforced(t *testing.T) {
	f := newFixture(t, testBooking())
	res, err := f.svc.Initiate(context.Background(), "booking-1", "user-1")
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	pay, err := f.svc.Status(context.Background(), res.PaymentID, "user-1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if pay.TxRef != res.TxRef {
		t.Errorf("payment tx_ref = %q, want %q", pay.TxRef, res.TxRef)
	}

	_, err = f.svc.Status(context.Background(), res.PaymentID, "user-2")
	if code := paymentCode(t, err); code != CodeUnauthorized {
		t.Errorf("error code = %q, want %q", code, CodeUnauthorized)
	}

	_, err = f.svc.Status(context.Background(), "no-such-payment", "user-1")
	if code := paymentCode(t, err); code != CodeNotFound {
		t.Errorf("error code = %q, want %q", code, CodeNotFound)
	}
}
