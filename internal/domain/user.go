package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the caller identity resolved from an API key.
type User struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	Name       string    `json:"name" db:"name"`
	APIKeyHash string    `json:"-" db:"api_key_hash"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
