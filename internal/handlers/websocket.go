package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/velichkin/securechannel/internal/handlers/dto"
	"github.com/velichkin/securechannel/internal/middleware"
	"github.com/velichkin/securechannel/internal/models"
	ws "github.com/velichkin/securechannel/internal/websocket"
)

// WebSocketHandler upgrades feed connections and seeds them with the current
// window.
type WebSocketHandler struct {
	hub            *ws.Hub
	messageHandler *MessageHandler
	store          MessageStore
	upgrader       websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, messageHandler *MessageHandler, store MessageStore) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		messageHandler: messageHandler,
		store:          store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origin once the client host is pinned
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	sessionUID, exists := c.Get(middleware.SessionUIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, sessionUID.(string))

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.messageHandler)

	// New clients see the current window right away instead of waiting for
	// the next mutation.
	if window, err := h.store.Window(c.Request.Context()); err == nil {
		client.SendFrame(ws.TypeSnapshot, SnapshotPayload(window))
	}
}

// SnapshotPayload converts a window into its wire shape.
func SnapshotPayload(window []models.Message) []dto.MessageResponse {
	return lo.Map(window, func(msg models.Message, _ int) dto.MessageResponse {
		return dto.NewMessageResponse(msg)
	})
}
