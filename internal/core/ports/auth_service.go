package ports

import (
	"context"

	"github.com/rewear-app/exchange-api/internal/core/domain"
)

// AuthService covers registration, login, and identity lookup. Register and
// Login return a signed session token alongside the user view.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}
