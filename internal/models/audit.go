package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit event kinds.
const (
	EventEdit     = "EDIT"
	EventWithdraw = "WITHDRAW"
)

// AuditRecord is append-only: rows are never updated or deleted.
// Actors are ephemeral sessions, so ActorUID carries no foreign key.
type AuditRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventType       string    `gorm:"type:varchar(16);not null;index" json:"event_type"`
	TargetMessageID uuid.UUID `gorm:"type:uuid;not null;index" json:"target_message_id"`
	ActorUID        string    `gorm:"not null;index" json:"actor_uid"`
	PreviousContent string    `json:"previous_content,omitempty"`
	NewContent      string    `json:"new_content,omitempty"`
	DisplayName     string    `json:"display_name,omitempty"`
	CreatedAt       time.Time `json:"timestamp"`
}
