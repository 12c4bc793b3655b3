package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"novachat-backend/internal/auth"
	"novachat-backend/internal/llm"
	"novachat-backend/internal/models"
	"novachat-backend/internal/services"
	"novachat-backend/internal/store"
	"novachat-backend/pkg/httputil"

	"github.com/google/uuid"
)

// ChatService defines the interface expected from the chat service.
type ChatService interface {
	SendMessage(ctx context.Context, userID uuid.UUID, req models.ChatRequest) (*models.ChatResponse, error)
	GetConversation(ctx context.Context, userID uuid.UUID, chatID uuid.UUID) (*models.ConversationResponse, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ChatListItem, error)
	DeleteConversation(ctx context.Context, userID uuid.UUID, chatID uuid.UUID) error
}

// ChatHandlers handles HTTP requests on the /v1/chat resource.
type ChatHandlers struct {
	chatService ChatService
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService ChatService) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatService,
	}
}

// HandleSendMessage handles POST /v1/chat: one full chat turn.
func (h *ChatHandlers) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	resp, err := h.chatService.SendMessage(r.Context(), userID, req)
	if err != nil {
		h.respondChatError(w, "SendMessage", err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetChat handles GET /v1/chat. With a chatId query parameter it
// returns that conversation; without one it lists the caller's conversations.
func (h *ChatHandlers) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chatIDStr := r.URL.Query().Get("chatId")
	if chatIDStr == "" {
		items, err := h.chatService.ListConversations(r.Context(), userID)
		if err != nil {
			h.respondChatError(w, "ListConversations", err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, items)
		return
	}

	chatID, err := uuid.Parse(chatIDStr)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	conv, err := h.chatService.GetConversation(r.Context(), userID, chatID)
	if err != nil {
		h.respondChatError(w, "GetConversation", err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// HandleDeleteChat handles DELETE /v1/chat?chatId=<id>.
func (h *ChatHandlers) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chatIDStr := r.URL.Query().Get("chatId")
	if chatIDStr == "" {
		httputil.RespondError(w, http.StatusBadRequest, "chatId query parameter is required")
		return
	}
	chatID, err := uuid.Parse(chatIDStr)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	if err := h.chatService.DeleteConversation(r.Context(), userID, chatID); err != nil {
		h.respondChatError(w, "DeleteConversation", err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.DeleteChatResponse{Message: "Chat deleted"})
}

// respondChatError maps service errors to HTTP status codes. Internal
// failures are logged with detail but returned as generic messages.
func (h *ChatHandlers) respondChatError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyInput):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, "You do not have access to this chat")
	case errors.Is(err, store.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "Chat not found")
	case errors.Is(err, llm.ErrUpstream):
		log.Printf("Chat handler %s: upstream failure: %v", op, err)
		httputil.RespondError(w, http.StatusInternalServerError, "The assistant is unavailable right now")
	default:
		log.Printf("Chat handler %s failed: %v", op, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
