package repository

import (
	"context"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
)

// UserRepository defines the persistence operations for user accounts.
// The lifecycle service only consults it to validate actor existence and
// activity; authorization decisions come from the trip record itself.
type UserRepository interface {
	// Create adds a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
