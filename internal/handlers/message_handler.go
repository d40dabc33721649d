package handlers

import (
	"context"
	"encoding/json"

	"github.com/velichkin/securechannel/internal/handlers/dto"
	"github.com/velichkin/securechannel/internal/websocket"
)

// MessageHandler dispatches websocket action frames to the store. Feed
// delivery is not its concern: successful mutations reach every client
// through the snapshot broadcast.
type MessageHandler struct {
	store MessageStore
}

func NewMessageHandler(store MessageStore) *MessageHandler {
	return &MessageHandler{store: store}
}

func (h *MessageHandler) HandleFrame(client *websocket.Client, frame *websocket.Frame) error {
	switch frame.Type {
	case websocket.TypeMessage:
		return h.handleSend(client, frame)

	case websocket.TypeMessageEdit:
		return h.handleEdit(client, frame)

	case websocket.TypeMessageWithdraw:
		return h.handleWithdraw(client, frame)

	default:
		return websocket.ErrInvalidFrame
	}
}

func (h *MessageHandler) handleSend(client *websocket.Client, frame *websocket.Frame) error {
	var payload dto.MessagePayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		return websocket.ErrInvalidFrame
	}

	_, err := h.store.Append(context.Background(), payload.Content, payload.DisplayName, client.SessionUID)
	return err
}

func (h *MessageHandler) handleEdit(client *websocket.Client, frame *websocket.Frame) error {
	var payload dto.EditPayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		return websocket.ErrInvalidFrame
	}

	_, err := h.store.Edit(context.Background(), payload.MessageID.String(), payload.Content, client.SessionUID)
	return err
}

func (h *MessageHandler) handleWithdraw(client *websocket.Client, frame *websocket.Frame) error {
	var payload dto.WithdrawPayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		return websocket.ErrInvalidFrame
	}

	_, err := h.store.Withdraw(context.Background(), payload.MessageID.String(), client.SessionUID)
	return err
}
