package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is a domain entity representing an account that owns conversations.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}
