package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"novachat-backend/internal/metrics"
	"novachat-backend/internal/models"
	"novachat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ErrEmptyInput is returned when a chat request carries no prompt text.
var ErrEmptyInput = errors.New("input text is required")

// Generator produces a complete answer for a prompt. Implemented by
// llm.Gateway; tests substitute a fake.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatService orchestrates one chat turn: generate the answer upstream, then
// persist the user/assistant message pair. It holds no cross-request state.
type ChatService struct {
	store     store.Store
	generator Generator
}

// NewChatService creates a new ChatService.
func NewChatService(s store.Store, generator Generator) *ChatService {
	return &ChatService{
		store:     s,
		generator: generator,
	}
}

// SendMessage runs the request lifecycle for POST /v1/chat. With no chat ID a
// new conversation is created from the first turn; with one, the pair is
// appended to the existing conversation after the ownership check. The
// upstream call happens before the store write, so a failed write loses the
// generated answer (no rollback, no retry).
func (s *ChatService) SendMessage(ctx context.Context, userID uuid.UUID, req models.ChatRequest) (*models.ChatResponse, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	answer, err := s.generator.Generate(ctx, input)
	if err != nil {
		metrics.InferenceFailures.Inc()
		return nil, err
	}
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())

	now := time.Now().UTC()
	turn := []models.Message{
		{ID: newMessageID(), Role: models.RoleUser, Content: input, CreatedAt: now},
		{ID: newMessageID(), Role: models.RoleAssistant, Content: answer, CreatedAt: now},
	}

	if req.ChatID == nil {
		messagesJSON, err := json.Marshal(turn)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal initial messages: %w", err)
		}

		conv, err := s.store.CreateConversation(ctx, store.CreateConversationParams{
			ID:       uuid.New(),
			UserID:   userID,
			Name:     deriveName(input),
			Messages: messagesJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}

		metrics.ChatTurns.WithLabelValues("create").Inc()
		return &models.ChatResponse{ChatID: conv.ID, Answer: answer}, nil
	}

	conv, err := s.store.GetConversation(ctx, *req.ChatID, userID)
	if err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := json.Unmarshal(conv.Messages, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse stored messages: %w", err)
	}
	messages = append(messages, turn...)

	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}
	if err := s.store.AppendMessages(ctx, conv.ID, userID, messagesJSON); err != nil {
		return nil, err
	}

	metrics.ChatTurns.WithLabelValues("append").Inc()
	return &models.ChatResponse{ChatID: conv.ID, Answer: answer}, nil
}

// GetConversation returns the full message history of one conversation.
func (s *ChatService) GetConversation(ctx context.Context, userID uuid.UUID, chatID uuid.UUID) (*models.ConversationResponse, error) {
	conv, err := s.store.GetConversation(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := json.Unmarshal(conv.Messages, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse stored messages: %w", err)
	}

	return &models.ConversationResponse{
		ChatID:   conv.ID,
		Name:     conv.Name,
		Messages: messages,
	}, nil
}

// ListConversations returns the caller's conversations as id/name pairs.
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ChatListItem, error) {
	summaries, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	// Always return an array, never null, so the client can map over it.
	items := make([]models.ChatListItem, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, models.ChatListItem{ChatID: summary.ID, Name: summary.Name})
	}
	return items, nil
}

// DeleteConversation removes one of the caller's conversations.
func (s *ChatService) DeleteConversation(ctx context.Context, userID uuid.UUID, chatID uuid.UUID) error {
	if err := s.store.DeleteConversation(ctx, chatID, userID); err != nil {
		return err
	}
	metrics.ConversationsDeleted.Inc()
	return nil
}

// newMessageID returns a ULID string. ULIDs are time-ordered, so message ids
// sort in creation order like the timestamp ids the web client generates.
func newMessageID() string {
	return ulid.Make().String()
}

const maxNameWords = 4

// deriveName builds a display name from the first words of the opening
// prompt, stripped of everything but letters and digits. A prompt with no
// usable words gets a randomized placeholder.
func deriveName(input string) string {
	var words []string
	for _, word := range strings.Fields(input) {
		cleaned := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, word)
		if cleaned == "" {
			continue
		}
		words = append(words, cleaned)
		if len(words) == maxNameWords {
			break
		}
	}

	if len(words) == 0 {
		return fmt.Sprintf("New chat %04d", rand.Intn(10000))
	}
	return strings.Join(words, " ")
}
