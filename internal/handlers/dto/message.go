package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/velichkin/securechannel/internal/models"
)

// MessagePayload is the body of an incoming send action.
type MessagePayload struct {
	Content     string `json:"content"`
	DisplayName string `json:"display_name,omitempty"`
}

// EditPayload is the body of an incoming edit action.
type EditPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	Content   string    `json:"content"`
}

// WithdrawPayload is the body of an incoming withdraw action.
type WithdrawPayload struct {
	MessageID uuid.UUID `json:"message_id"`
}

// MessageResponse is the wire shape of a message, identical over HTTP and the
// feed.
type MessageResponse struct {
	ID          uuid.UUID `json:"id"`
	Content     string    `json:"content"`
	DisplayName string    `json:"display_name"`
	AuthUID     string    `json:"auth_uid"`
	Visible     bool      `json:"visible"`
	IsEdited    bool      `json:"is_edited"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewMessageResponse(msg models.Message) MessageResponse {
	return MessageResponse{
		ID:          msg.ID,
		Content:     msg.Content,
		DisplayName: msg.DisplayName,
		AuthUID:     msg.AuthUID,
		Visible:     msg.Visible,
		IsEdited:    msg.IsEdited,
		Timestamp:   msg.CreatedAt,
	}
}
