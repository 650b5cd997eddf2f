package userRepo

import (
	"context"

	"tripnest/models"
)

// UserRepository defines methods for user data access. Registration and
// profile management are owned by another service; the booking flow only
// reads users.
type UserRepository interface {
	// GetByID retrieves a user by its unique ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
