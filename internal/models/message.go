package models

import (
	"time"
)

// Message roles. The system never persists any other role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation.
// The full ordered message history is stored in the JSONB 'messages' column
// of the 'conversations' table. Messages are immutable once written; the
// array only ever grows at the end.
type Message struct {
	ID        string    `json:"id"`      // ULID, time-ordered
	Role      string    `json:"role"`    // "user" or "assistant"
	Content   string    `json:"content"` // The text content of the message
	CreatedAt time.Time `json:"created_at"`
}
