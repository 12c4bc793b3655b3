package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User represents a user in the database. A user signs in either through
// Google (GoogleID set, HashedPassword empty) or with email/password
// (HashedPassword set, GoogleID empty).
type User struct {
	ID             uuid.UUID `db:"id"`
	GoogleID       string    `db:"google_id"` // Google OAuth subject, empty for password accounts
	Email          string    `db:"email"`
	Name           string    `db:"name"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Conversation represents a persisted chat in the database. The ordered
// message history lives in the Messages JSONB column as a []Message array.
type Conversation struct {
	ID        uuid.UUID       `db:"id"`
	UserID    uuid.UUID       `db:"user_id"`
	Name      string          `db:"name"`     // Display name derived from the first prompt
	Messages  json.RawMessage `db:"messages"` // Stored as JSONB
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// ConversationSummary is the list-view projection of a conversation.
type ConversationSummary struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
}
