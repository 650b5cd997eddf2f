package listingRepo

import (
	"context"

	"tripnest/models"
)

// ListingRepository defines the read access the booking flow needs from
// the listing catalog.
type ListingRepository interface {
	// GetByID retrieves a listing by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Listing, error)
}
