package models

import (
	"time"

	"chemviz/domain/core"
)

// User represents an account that owns uploaded datasets
type User struct {
	ID           core.UserID `json:"id" db:"id"`
	Username     string      `json:"username" db:"username"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// AuthToken is the single API token issued to a user
type AuthToken struct {
	Key       string      `json:"token" db:"key"`
	UserID    core.UserID `json:"-" db:"user_id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
