package ports

import (
	"context"

	"chemviz/domain/core"
	"chemviz/models"
)

// UserRepository defines the interface for user and token storage
type UserRepository interface {
	// CreateUser stores a new user; a taken username fails with a CONFLICT error
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by their ID
	GetUserByID(ctx context.Context, userID core.UserID) (*models.User, error)

	// GetUserByUsername retrieves a user by their unique username
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetOrCreateToken returns the user's token, issuing one with newKey if none exists
	GetOrCreateToken(ctx context.Context, userID core.UserID, newKey string) (*models.AuthToken, error)

	// GetUserByToken resolves a token key to its user
	GetUserByToken(ctx context.Context, key string) (*models.User, error)
}
