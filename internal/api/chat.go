package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/pharmanews/internal/repository"
	"github.com/timmy/pharmanews/internal/service"
)

// ChatHandler serves the news Q&A endpoints.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates the chat handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// CreateSession handles POST /api/v1/chat/sessions.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "user_id is required")
		return
	}

	session, err := h.chat.CreateSession(c.Request.Context(), req.UserID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to create session")
		return
	}
	ok(c, session)
}

// History handles GET /api/v1/chat/sessions/:id/messages.
func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.chat.History(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrSessionNotFound) {
		fail(c, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load messages")
		return
	}
	ok(c, messages)
}

// Ask handles POST /api/v1/chat/sessions/:id/messages.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.chat.Ask(c.Request.Context(), c.Param("id"), req.Question)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		fail(c, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrAINotConfigured):
		fail(c, http.StatusServiceUnavailable, "ai service is not configured")
	case err != nil:
		fail(c, http.StatusInternalServerError, "failed to answer question")
	default:
		ok(c, answer)
	}
}
