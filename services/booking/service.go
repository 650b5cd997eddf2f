package booking

import (
	"context"
	"errors"
	"time"

	bookingRepo "tripnest/database/repository/booking"
	listingRepo "tripnest/database/repository/listing"
	"tripnest/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CreateInput is a validated booking request.
type CreateInput struct {
	ListingID string
	CheckIn   string
	CheckOut  string
	Guests    int
}

// Service owns booking records and their status. Status transitions after
// creation are driven by payment reconciliation.
type Service interface {
	Create(ctx context.Context, userID string, in CreateInput) (*models.Booking, error)
	Find(ctx context.Context, bookingID, ownerID string) (*models.Booking, error)
	Confirm(ctx context.Context, bookingID string) error
	Cancel(ctx context.Context, bookingID string) error
}

// DefaultService implements Service.
type DefaultService struct {
	Bookings bookingRepo.BookingRepository
	Listings listingRepo.ListingRepository
	Logger   *zap.Logger
}

// Create prices and persists a new pending booking. The total price is
// fixed here and never recomputed once a payment attempt begins.
func (s *DefaultService) Create(ctx context.Context, userID string, in CreateInput) (*models.Booking, error) {
	if in.Guests < 1 {
		return nil, NewInvalidRequestError("guests must be at least 1")
	}

	listing, err := s.Listings.GetByID(ctx, in.ListingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("listing not found")
		}
		return nil, NewInternalError("failed to fetch listing", err)
	}

	now := time.Now()
	booking := &models.Booking{
		ID:         uuid.New().String(),
		ListingID:  listing.ID,
		UserID:     userID,
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		Guests:     in.Guests,
		TotalPrice: listing.PricePerNight * float64(in.Guests),
		Status:     models.BookingStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Bookings.Create(ctx, booking); err != nil {
		return nil, NewInternalError("failed to create booking", err)
	}

	s.Logger.Info("booking created",
		zap.String("bookingID", booking.ID),
		zap.String("listingID", listing.ID),
		zap.Float64("totalPrice", booking.TotalPrice))
	return booking, nil
}

// Find retrieves a booking. A non-empty ownerID must match the booking's
// user; a mismatch reads the same as a missing booking.
func (s *DefaultService) Find(ctx context.Context, bookingID, ownerID string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("booking not found")
		}
		return nil, NewInternalError("failed to fetch booking", err)
	}
	if ownerID != "" && booking.UserID != ownerID {
		return nil, NewNotFoundError("booking not found")
	}
	return booking, nil
}

// Confirm transitions the booking to confirmed. Safe to repeat.
func (s *DefaultService) Confirm(ctx context.Context, bookingID string) error {
	if err := s.Bookings.UpdateStatus(ctx, bookingID, models.BookingStatusConfirmed); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return NewNotFoundError("booking not found")
		}
		return NewInternalError("failed to confirm booking", err)
	}
	return nil
}

// Cancel transitions the booking to cancelled.
func (s *DefaultService) Cancel(ctx context.Context, bookingID string) error {
	if err := s.Bookings.UpdateStatus(ctx, bookingID, models.BookingStatusCancelled); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return NewNotFoundError("booking not found")
		}
		return NewInternalError("failed to cancel booking", err)
	}
	return nil
}
