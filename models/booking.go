package models

import "time"

// Booking status values. A booking starts out pending and is confirmed by
// payment reconciliation; cancelled is terminal.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents a stay reservation against a listing.
type Booking struct {
	ID         string    `bson:"id" json:"id"`                   // Unique booking identifier (UUID)
	ListingID  string    `bson:"listing_id" json:"listing_id"`   // Listing being booked
	UserID     string    `bson:"user_id" json:"user_id"`         // User who made the booking
	CheckIn    string    `bson:"check_in" json:"check_in"`       // Check-in date in "YYYY-MM-DD" format
	CheckOut   string    `bson:"check_out" json:"check_out"`     // Check-out date in "YYYY-MM-DD" format
	Guests     int       `bson:"guests" json:"guests"`           // Number of guests (>= 1)
	TotalPrice float64   `bson:"total_price" json:"total_price"` // Fixed at creation, never recomputed
	Status     string    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
