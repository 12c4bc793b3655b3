package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"novachat-backend/internal/llm"
	"novachat-backend/internal/models"
	"novachat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory store.Store used by the service tests.
type fakeStore struct {
	usersByEmail    map[string]*models.User
	usersByGoogleID map[string]*models.User
	conversations   map[uuid.UUID]*models.Conversation

	failAppend bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		usersByEmail:    make(map[string]*models.User),
		usersByGoogleID: make(map[string]*models.User),
		conversations:   make(map[uuid.UUID]*models.Conversation),
	}
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := f.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetUserByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	if user, ok := f.usersByGoogleID[googleID]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	if _, ok := f.usersByEmail[user.Email]; ok {
		return errors.New("duplicate email")
	}
	f.usersByEmail[user.Email] = user
	if user.GoogleID != "" {
		f.usersByGoogleID[user.GoogleID] = user
	}
	return nil
}

func (f *fakeStore) UpsertGoogleUser(_ context.Context, googleID, email, name string) (*models.User, error) {
	if user, ok := f.usersByGoogleID[googleID]; ok {
		user.Email = email
		user.Name = name
		return user, nil
	}
	user := &models.User{ID: uuid.New(), GoogleID: googleID, Email: email, Name: name}
	f.usersByGoogleID[googleID] = user
	f.usersByEmail[email] = user
	return user, nil
}

func (f *fakeStore) CreateConversation(_ context.Context, arg store.CreateConversationParams) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:       arg.ID,
		UserID:   arg.UserID,
		Name:     arg.Name,
		Messages: arg.Messages,
	}
	f.conversations[conv.ID] = conv
	return conv, nil
}

func (f *fakeStore) GetConversation(_ context.Context, id uuid.UUID, userID uuid.UUID) (*models.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if conv.UserID != userID {
		return nil, store.ErrForbidden
	}
	return conv, nil
}

func (f *fakeStore) AppendMessages(_ context.Context, id uuid.UUID, userID uuid.UUID, messages []byte) error {
	if f.failAppend {
		return errors.New("write failed")
	}
	conv, ok := f.conversations[id]
	if !ok {
		return store.ErrNotFound
	}
	if conv.UserID != userID {
		return store.ErrForbidden
	}
	conv.Messages = messages
	return nil
}

func (f *fakeStore) ListConversations(_ context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	var summaries []models.ConversationSummary
	for _, conv := range f.conversations {
		if conv.UserID == userID {
			summaries = append(summaries, models.ConversationSummary{ID: conv.ID, Name: conv.Name})
		}
	}
	return summaries, nil
}

func (f *fakeStore) DeleteConversation(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	conv, ok := f.conversations[id]
	if !ok {
		return store.ErrNotFound
	}
	if conv.UserID != userID {
		return store.ErrForbidden
	}
	delete(f.conversations, id)
	return nil
}

// fakeGenerator answers every prompt with a fixed prefix, or fails.
type fakeGenerator struct {
	err   error
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return "answer to: " + prompt, nil
}

func decodeMessages(t *testing.T, conv *models.Conversation) []models.Message {
	t.Helper()
	var messages []models.Message
	require.NoError(t, json.Unmarshal(conv.Messages, &messages))
	return messages
}

func TestSendMessage_CreatesConversation(t *testing.T) {
	fs := newFakeStore()
	gen := &fakeGenerator{}
	svc := NewChatService(fs, gen)
	userID := uuid.New()

	resp, err := svc.SendMessage(context.Background(), userID, models.ChatRequest{Input: "Explain recursion"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, resp.ChatID)
	assert.Equal(t, "answer to: Explain recursion", resp.Answer)

	conv, err := fs.GetConversation(context.Background(), resp.ChatID, userID)
	require.NoError(t, err)
	assert.Equal(t, "Explain recursion", conv.Name)

	messages := decodeMessages(t, conv)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "Explain recursion", messages[0].Content)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, resp.Answer, messages[1].Content)
	assert.NotEmpty(t, messages[0].ID)
	assert.NotEqual(t, messages[0].ID, messages[1].ID)
}

func TestSendMessage_AppendsToExisting(t *testing.T) {
	fs := newFakeStore()
	gen := &fakeGenerator{}
	svc := NewChatService(fs, gen)
	userID := uuid.New()

	first, err := svc.SendMessage(context.Background(), userID, models.ChatRequest{Input: "Explain recursion"})
	require.NoError(t, err)

	second, err := svc.SendMessage(context.Background(), userID, models.ChatRequest{
		Input:  "Give an example",
		ChatID: &first.ChatID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ChatID, second.ChatID)

	conv, err := fs.GetConversation(context.Background(), first.ChatID, userID)
	require.NoError(t, err)
	messages := decodeMessages(t, conv)
	require.Len(t, messages, 4)

	// Prior messages stay intact and in order; the new turn lands at the end.
	assert.Equal(t, "Explain recursion", messages[0].Content)
	assert.Equal(t, "answer to: Explain recursion", messages[1].Content)
	assert.Equal(t, "Give an example", messages[2].Content)
	assert.Equal(t, "answer to: Give an example", messages[3].Content)
}

func TestSendMessage_EmptyInput(t *testing.T) {
	fs := newFakeStore()
	gen := &fakeGenerator{}
	svc := NewChatService(fs, gen)

	_, err := svc.SendMessage(context.Background(), uuid.New(), models.ChatRequest{Input: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyInput))
	assert.Zero(t, gen.calls, "upstream must not be called for empty input")
}

func TestSendMessage_ForbiddenOnForeignChat(t *testing.T) {
	fs := newFakeStore()
	gen := &fakeGenerator{}
	svc := NewChatService(fs, gen)
	owner := uuid.New()
	intruder := uuid.New()

	first, err := svc.SendMessage(context.Background(), owner, models.ChatRequest{Input: "mine"})
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), intruder, models.ChatRequest{
		Input:  "yours now",
		ChatID: &first.ChatID,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrForbidden))

	// The record must be left unmodified.
	conv, err := fs.GetConversation(context.Background(), first.ChatID, owner)
	require.NoError(t, err)
	assert.Len(t, decodeMessages(t, conv), 2)
}

func TestSendMessage_UnknownChat(t *testing.T) {
	fs := newFakeStore()
	svc := NewChatService(fs, &fakeGenerator{})
	missing := uuid.New()

	_, err := svc.SendMessage(context.Background(), uuid.New(), models.ChatRequest{
		Input:  "hello",
		ChatID: &missing,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSendMessage_UpstreamFailureWritesNothing(t *testing.T) {
	fs := newFakeStore()
	gen := &fakeGenerator{err: fmt.Errorf("%w: boom", llm.ErrUpstream)}
	svc := NewChatService(fs, gen)

	_, err := svc.SendMessage(context.Background(), uuid.New(), models.ChatRequest{Input: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrUpstream))
	assert.Empty(t, fs.conversations)
}

func TestSendMessage_StoreFailureLosesAnswer(t *testing.T) {
	fs := newFakeStore()
	gen := &fakeGenerator{}
	svc := NewChatService(fs, gen)
	userID := uuid.New()

	first, err := svc.SendMessage(context.Background(), userID, models.ChatRequest{Input: "hello"})
	require.NoError(t, err)

	fs.failAppend = true
	_, err = svc.SendMessage(context.Background(), userID, models.ChatRequest{
		Input:  "again",
		ChatID: &first.ChatID,
	})
	require.Error(t, err)
	// No rollback and no retry: the generated answer is simply gone.
	assert.Equal(t, 2, gen.calls)
}

func TestListConversations_ScopedToOwner(t *testing.T) {
	fs := newFakeStore()
	svc := NewChatService(fs, &fakeGenerator{})
	alice := uuid.New()
	bob := uuid.New()

	_, err := svc.SendMessage(context.Background(), alice, models.ChatRequest{Input: "alice topic"})
	require.NoError(t, err)
	_, err = svc.SendMessage(context.Background(), bob, models.ChatRequest{Input: "bob topic"})
	require.NoError(t, err)

	items, err := svc.ListConversations(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "alice topic", items[0].Name)
}

func TestListConversations_EmptyIsArray(t *testing.T) {
	svc := NewChatService(newFakeStore(), &fakeGenerator{})

	items, err := svc.ListConversations(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Len(t, items, 0)
}

func TestDeleteConversation(t *testing.T) {
	fs := newFakeStore()
	svc := NewChatService(fs, &fakeGenerator{})
	userID := uuid.New()

	first, err := svc.SendMessage(context.Background(), userID, models.ChatRequest{Input: "bye"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConversation(context.Background(), userID, first.ChatID))

	// Deleting an already-deleted chat errors rather than succeeding silently.
	err = svc.DeleteConversation(context.Background(), userID, first.ChatID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDeleteConversation_Forbidden(t *testing.T) {
	fs := newFakeStore()
	svc := NewChatService(fs, &fakeGenerator{})
	owner := uuid.New()

	first, err := svc.SendMessage(context.Background(), owner, models.ChatRequest{Input: "keep out"})
	require.NoError(t, err)

	err = svc.DeleteConversation(context.Background(), uuid.New(), first.ChatID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrForbidden))

	_, err = fs.GetConversation(context.Background(), first.ChatID, owner)
	assert.NoError(t, err, "record must survive a forbidden delete")
}

func TestDeriveName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short prompt", "Explain recursion", "Explain recursion"},
		{"truncates to four words", "how do I write a parser in Go", "how do I write"},
		{"strips punctuation", "What's up, doc?!", "Whats up doc"},
		{"collapses whitespace", "  hello   there  ", "hello there"},
		{"keeps accented letters", "¿Qué es la recursión?", "Qué es la recursión"},
		{"keeps CJK prompt", "什么是递归？", "什么是递归"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveName(tt.input))
		})
	}
}

func TestDeriveName_FallbackPlaceholder(t *testing.T) {
	name := deriveName("!!! ??? ...")
	assert.Contains(t, name, "New chat ")
}
