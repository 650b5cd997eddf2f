package bookingRepo

import (
	"context"

	"tripnest/models"
)

// BookingRepository defines methods for booking data access.
type BookingRepository interface {
	// Create inserts a new booking record.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// UpdateStatus sets the booking status. The write is idempotent: a
	// booking already carrying the target status is left untouched.
	UpdateStatus(ctx context.Context, id, status string) error
}
