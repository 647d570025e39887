package repository

import (
	"context"

	"github.com/carlajeanne/plantpal-backend/internal/domain"
)

// UserRepository defines the interface for account persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns all users, newest first.
	List(ctx context.Context) ([]domain.User, error)

	// UpdateRefreshToken overwrites the single active refresh token for the
	// user and stamps last_login, in one statement.
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error

	// UpdatePassword overwrites the password hash for the account with the
	// given email.
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// ReadingRepository defines the interface for soil-moisture reading persistence.
type ReadingRepository interface {
	// Insert appends a reading with a server-assigned timestamp and returns
	// the stored row.
	Insert(ctx context.Context, moistureLevel float64) (*domain.Reading, error)

	// ListSince returns readings from the trailing window of the given number
	// of hours, newest first, capped at limit rows.
	ListSince(ctx context.Context, hours, limit int) ([]domain.Reading, error)

	// Latest returns the single most recent reading.
	Latest(ctx context.Context) (*domain.Reading, error)

	// Stats computes aggregate statistics over the trailing window in a
	// single pass.
	Stats(ctx context.Context, hours int) (*domain.Statistics, error)
}
