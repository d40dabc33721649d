package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/velichkin/securechannel/internal/handlers/dto"
	"github.com/velichkin/securechannel/internal/middleware"
	"github.com/velichkin/securechannel/internal/models"
	"github.com/velichkin/securechannel/internal/store"
)

// MessageStore is the store surface the transport handlers need. Satisfied by
// *store.Store.
type MessageStore interface {
	Append(ctx context.Context, content, displayName, actor string) (*models.Message, error)
	Edit(ctx context.Context, id, content, actor string) (*models.Message, error)
	Withdraw(ctx context.Context, id, actor string) (*models.Message, error)
	Window(ctx context.Context) ([]models.Message, error)
}

// HTTPMessageHandler exposes the message actions over plain HTTP, mirroring
// the websocket actions.
type HTTPMessageHandler struct {
	store MessageStore
}

func NewHTTPMessageHandler(store MessageStore) *HTTPMessageHandler {
	return &HTTPMessageHandler{store: store}
}

// ListMessages returns the current live window in display order.
func (h *HTTPMessageHandler) ListMessages(c *gin.Context) {
	window, err := h.store.Window(c.Request.Context())
	if err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": lo.Map(window, func(msg models.Message, _ int) dto.MessageResponse {
			return dto.NewMessageResponse(msg)
		}),
	})
}

// SendMessage appends a new message authored by the calling session.
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	sessionUID := c.MustGet(middleware.SessionUIDKey).(string)

	var req struct {
		Content     string `json:"content" binding:"required"`
		DisplayName string `json:"display_name"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.store.Append(c.Request.Context(), req.Content, req.DisplayName, sessionUID)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMessageResponse(*message))
}

// EditMessage replaces the content of the caller's own message.
func (h *HTTPMessageHandler) EditMessage(c *gin.Context) {
	sessionUID := c.MustGet(middleware.SessionUIDKey).(string)
	messageID := c.Param("id")

	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.store.Edit(c.Request.Context(), messageID, req.Content, sessionUID)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(*message))
}

// WithdrawMessage soft-deletes the caller's own message.
func (h *HTTPMessageHandler) WithdrawMessage(c *gin.Context) {
	sessionUID := c.MustGet(middleware.SessionUIDKey).(string)
	messageID := c.Param("id")

	message, err := h.store.Withdraw(c.Request.Context(), messageID, sessionUID)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(*message))
}

// writeStoreError maps store errors onto HTTP statuses. Unknown errors are
// logged and surfaced as a generic internal failure.
func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrEmptyContent), errors.Is(err, store.ErrContentTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotMessageAuthor),
		errors.Is(err, store.ErrEditWindowExpired),
		errors.Is(err, store.ErrMessageWithdrawn):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("message handler error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
