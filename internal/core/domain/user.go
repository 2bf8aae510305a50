package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// SignupBonus is the points balance granted to every new account.
const SignupBonus = 50

var ErrDuplicateEmail = errors.New("email already registered")
var ErrInvalidRegistration = errors.New("invalid registration details")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserNotFound = errors.New("user not found")
var ErrInsufficientPoints = errors.New("insufficient points")
var ErrForbidden = errors.New("access forbidden")

// User models an account holder. Points is the internal currency balance and
// is never allowed to go negative.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Points       int       `json:"points"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
