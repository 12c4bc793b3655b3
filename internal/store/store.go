package store

import (
	"context"
	"errors"

	"novachat-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrForbidden is returned when a record exists but is owned by a different
// user than the caller. Every owner-scoped operation goes through the same
// fetch-and-compare check, so list/get/append/delete cannot diverge.
var ErrForbidden = errors.New("record owned by another user")

// CreateConversationParams contains parameters for creating a conversation.
// Messages holds the JSON-marshaled initial message array (user + assistant).
type CreateConversationParams struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Messages []byte
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	// UpsertGoogleUser creates the user on first sign-in and refreshes
	// email/name on subsequent ones, keyed by the Google subject.
	UpsertGoogleUser(ctx context.Context, googleID, email, name string) (*models.User, error)

	// Conversation operations. All reads and writes are scoped to the owning
	// user: ErrForbidden on owner mismatch, ErrNotFound when the row is absent.
	CreateConversation(ctx context.Context, arg CreateConversationParams) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Conversation, error)
	// AppendMessages replaces the conversation's message array with the given
	// JSON bytes. Callers fetch, append in memory, and write back; two
	// concurrent appends to the same conversation can lose one update.
	AppendMessages(ctx context.Context, id uuid.UUID, userID uuid.UUID, messages []byte) error
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error)
	DeleteConversation(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}
