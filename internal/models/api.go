package models

import (
	"github.com/google/uuid"
)

// --- Auth DTOs ---

// SignupRequest is the payload for POST /v1/auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the minimal user representation returned by auth endpoints.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
}

// AuthResponse is returned on successful login or OAuth callback.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"` // Always "Bearer"
	User        UserResponse `json:"user"`
}

// --- Chat DTOs ---

// ChatRequest is the payload for POST /v1/chat. ChatID is nil for the first
// turn of a new conversation.
type ChatRequest struct {
	Input  string     `json:"input"`
	ChatID *uuid.UUID `json:"chatId,omitempty"`
}

// ChatResponse is returned from POST /v1/chat once the upstream stream has
// been fully consumed and the turn persisted.
type ChatResponse struct {
	ChatID uuid.UUID `json:"chatId"`
	Answer string    `json:"answer"`
}

// ConversationResponse is returned from GET /v1/chat?chatId=<id>.
type ConversationResponse struct {
	ChatID   uuid.UUID `json:"chatId"`
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
}

// ChatListItem is one entry of the GET /v1/chat listing. The snake_case
// chat_id key is what the web client expects.
type ChatListItem struct {
	ChatID uuid.UUID `json:"chat_id"`
	Name   string    `json:"name"`
}

// DeleteChatResponse confirms a DELETE /v1/chat?chatId=<id>.
type DeleteChatResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
