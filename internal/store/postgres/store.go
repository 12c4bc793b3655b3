package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"novachat-backend/internal/models"
	"novachat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// --- User Methods ---

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, google_id, email, name, hashed_password, created_at, updated_at
FROM users
WHERE email = $1;
`

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx, getUserByEmail, email).Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

const getUserByGoogleID = `-- name: GetUserByGoogleID :one
SELECT id, google_id, email, name, hashed_password, created_at, updated_at
FROM users
WHERE google_id = $1;
`

// GetUserByGoogleID retrieves a user by their Google OAuth subject.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx, getUserByGoogleID, googleID).Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching user by google id: %w", err)
	}
	return user, nil
}

const createUser = `-- name: CreateUser :exec
INSERT INTO users (id, google_id, email, name, hashed_password)
VALUES ($1, $2, $3, $4, $5);
`

// CreateUser inserts a new user record into the database.
// created_at and updated_at have database defaults (NOW()).
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.Exec(ctx, createUser,
		user.ID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.HashedPassword,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// 23505 is unique_violation (duplicate email or google_id)
			log.Printf("ERROR [PostgresStore] CreateUser: Code=%s, Message=%s", pgErr.Code, pgErr.Message)
		}
		return fmt.Errorf("database error creating user: %w", err)
	}
	return nil
}

const upsertGoogleUser = `-- name: UpsertGoogleUser :one
INSERT INTO users (id, google_id, email, name, hashed_password)
VALUES ($1, $2, $3, $4, '')
ON CONFLICT (google_id) WHERE google_id <> ''
DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = NOW()
RETURNING id, google_id, email, name, hashed_password, created_at, updated_at;
`

// UpsertGoogleUser creates or refreshes a Google-backed user record and
// returns the stored row.
func (s *PostgresStore) UpsertGoogleUser(ctx context.Context, googleID, email, name string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx, upsertGoogleUser, uuid.New(), googleID, email, name).Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("database error upserting google user: %w", err)
	}
	return user, nil
}

// --- Conversation Methods ---

const getConversationOwner = `-- name: GetConversationOwner :one
SELECT user_id
FROM conversations
WHERE id = $1;
`

// authorize fetches the conversation's owner and compares it to the caller.
// Returns store.ErrNotFound when the row is absent and store.ErrForbidden on
// an owner mismatch. Every owner-scoped operation funnels through here.
func (s *PostgresStore) authorize(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	var owner uuid.UUID
	err := s.db.QueryRow(ctx, getConversationOwner, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("database error fetching conversation owner: %w", err)
	}
	if owner != userID {
		return store.ErrForbidden
	}
	return nil
}

const createConversation = `-- name: CreateConversation :one
INSERT INTO conversations (id, user_id, name, messages)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, name, messages, created_at, updated_at;
`

// CreateConversation inserts a new conversation row and returns it.
func (s *PostgresStore) CreateConversation(ctx context.Context, arg store.CreateConversationParams) (*models.Conversation, error) {
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	messages := arg.Messages
	if messages == nil {
		messages = []byte("[]")
	}

	conv := &models.Conversation{}
	err := s.db.QueryRow(ctx, createConversation, id, arg.UserID, arg.Name, messages).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Name,
		&conv.Messages,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}
	return conv, nil
}

const getConversation = `-- name: GetConversation :one
SELECT id, user_id, name, messages, created_at, updated_at
FROM conversations
WHERE id = $1;
`

// GetConversation retrieves a conversation by ID, enforcing ownership.
func (s *PostgresStore) GetConversation(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := s.db.QueryRow(ctx, getConversation, id).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Name,
		&conv.Messages,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, store.ErrForbidden
	}
	return conv, nil
}

const updateConversationMessages = `-- name: UpdateConversationMessages :exec
UPDATE conversations
SET messages = $3, updated_at = NOW()
WHERE id = $1 AND user_id = $2;
`

// AppendMessages writes back the full message array for a conversation.
// The caller is expected to have fetched the current array and appended to
// it in memory; two concurrent appends to the same conversation can race and
// silently drop one turn (accepted lost-update window, no transaction).
func (s *PostgresStore) AppendMessages(ctx context.Context, id uuid.UUID, userID uuid.UUID, messages []byte) error {
	if err := s.authorize(ctx, id, userID); err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, updateConversationMessages, id, userID, messages)
	if err != nil {
		return fmt.Errorf("error updating conversation messages: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Row vanished between the owner check and the write.
		return store.ErrNotFound
	}
	return nil
}

const listConversations = `-- name: ListConversations :many
SELECT id, name
FROM conversations
WHERE user_id = $1
ORDER BY updated_at DESC;
`

// ListConversations returns id/name summaries of the caller's conversations,
// most recently touched first.
func (s *PostgresStore) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	rows, err := s.db.Query(ctx, listConversations, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	var summaries []models.ConversationSummary
	for rows.Next() {
		var summary models.ConversationSummary
		if err := rows.Scan(&summary.ID, &summary.Name); err != nil {
			return nil, fmt.Errorf("error scanning conversation row: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}

	return summaries, nil
}

const deleteConversation = `-- name: DeleteConversation :exec
DELETE FROM conversations
WHERE id = $1 AND user_id = $2;
`

// DeleteConversation removes a conversation after verifying ownership.
// Deleting an already-deleted conversation returns store.ErrNotFound.
func (s *PostgresStore) DeleteConversation(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if err := s.authorize(ctx, id, userID); err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, deleteConversation, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
