package memory

import (
	"context"
	"sync"
	"time"

	"chemviz/domain/core"
	apperrors "chemviz/internal/errors"
	"chemviz/models"
	"chemviz/ports"
)

// UserRepository keeps users and tokens in process memory
type UserRepository struct {
	mu         sync.RWMutex
	users      map[core.UserID]models.User
	byUsername map[string]core.UserID
	tokens     map[string]models.AuthToken
	tokenOf    map[core.UserID]string
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates an empty user store
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:      make(map[core.UserID]models.User),
		byUsername: make(map[string]core.UserID),
		tokens:     make(map[string]models.AuthToken),
		tokenOf:    make(map[core.UserID]string),
	}
}

// CreateUser stores a new user, assigning its ID and creation time
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return apperrors.Conflict("Username already taken.")
	}

	user.ID = core.UserID(core.NewID())
	user.CreatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	r.byUsername[user.Username] = user.ID
	return nil
}

// GetUserByID retrieves a user by their ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID core.UserID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, apperrors.NotFound("User")
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, apperrors.NotFound("User")
	}
	user := r.users[id]
	return &user, nil
}

// GetOrCreateToken returns the user's token, storing newKey when the user has none
func (r *UserRepository) GetOrCreateToken(ctx context.Context, userID core.UserID, newKey string) (*models.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return nil, apperrors.NotFound("User")
	}
	if key, ok := r.tokenOf[userID]; ok {
		token := r.tokens[key]
		return &token, nil
	}

	token := models.AuthToken{Key: newKey, UserID: userID, CreatedAt: time.Now().UTC()}
	r.tokens[newKey] = token
	r.tokenOf[userID] = newKey
	return &token, nil
}

// GetUserByToken resolves a token key to its owner
func (r *UserRepository) GetUserByToken(ctx context.Context, key string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[key]
	if !ok {
		return nil, apperrors.Unauthorized("Invalid token.")
	}
	user := r.users[token.UserID]
	return &user, nil
}
