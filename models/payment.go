package models

import "time"

// Payment status values. Completed and failed are terminal.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// PaymentCurrency is the single currency all charges are made in.
const PaymentCurrency = "ETB"

// Payment is one charge attempt for a booking. A booking may accumulate
// several failed attempts but carries at most one active (non-failed)
// payment, enforced by a partial unique index on booking_id.
type Payment struct {
	ID            string    `bson:"id" json:"id"`           // Unique payment identifier (UUID)
	BookingID     string    `bson:"booking_id" json:"booking_id"`
	TxRef         string    `bson:"tx_ref" json:"tx_ref"`   // Gateway correlation reference, "tx-<uuid>"
	Amount        float64   `bson:"amount" json:"amount"`
	Currency      string    `bson:"currency" json:"currency"`
	Status        string    `bson:"status" json:"status"`
	CheckoutURL   string    `bson:"checkout_url" json:"checkout_url"`
	PaymentMethod string    `bson:"payment_method,omitempty" json:"payment_method,omitempty"` // Populated after verification
	Active        bool      `bson:"active" json:"-"`        // status != failed; backs the uniqueness guard
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}
