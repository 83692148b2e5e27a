package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chemviz/domain/core"
	apperrors "chemviz/internal/errors"
	"chemviz/models"
	"chemviz/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint violation
const uniqueViolation = "23505"

// UserRepositoryImpl implements UserRepository for PostgreSQL
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// CreateUser inserts a new user, assigning its ID and creation time
func (r *UserRepositoryImpl) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = core.UserID(core.NewID())
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (:id, :username, :email, :password_hash, :created_at)
	`, user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.Conflict("Username already taken.")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID
func (r *UserRepositoryImpl) GetUserByID(ctx context.Context, userID core.UserID) (*models.User, error) {
	return r.getUser(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`, string(userID))
}

// GetUserByUsername retrieves a user by username
func (r *UserRepositoryImpl) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)
}

// GetOrCreateToken returns the user's token, inserting newKey when the user has none
func (r *UserRepositoryImpl) GetOrCreateToken(ctx context.Context, userID core.UserID, newKey string) (*models.AuthToken, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (key, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, newKey, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	var token models.AuthToken
	err = r.db.GetContext(ctx, &token, `
		SELECT key, user_id, created_at
		FROM auth_tokens
		WHERE user_id = $1
	`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return &token, nil
}

// GetUserByToken resolves a token key to its owner
func (r *UserRepositoryImpl) GetUserByToken(ctx context.Context, key string) (*models.User, error) {
	user, err := r.getUser(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at
		FROM users u
		JOIN auth_tokens t ON t.user_id = u.id
		WHERE t.key = $1
	`, key)
	if apperrors.Is(err, apperrors.CodeNotFound) {
		return nil, apperrors.Unauthorized("Invalid token.")
	}
	return user, err
}

func (r *UserRepositoryImpl) getUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("User")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
