package ports

import (
	"context"

	"github.com/rewear-app/exchange-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create persists a new user. Returns domain.ErrDuplicateEmail when the
	// email is already registered (enforced by a unique index).
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// AdjustPoints applies delta to the user's balance in a single guarded
	// update. A debit that would take the balance below zero fails with
	// domain.ErrInsufficientPoints and leaves the record untouched.
	AdjustPoints(ctx context.Context, id string, delta int) (*domain.User, error)

	// ListAll returns every user, most recent first. Admin views only.
	ListAll(ctx context.Context) ([]*domain.User, error)
}
