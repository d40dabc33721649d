package models

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawnPlaceholder replaces the content of a message once it is withdrawn.
const WithdrawnPlaceholder = "[Message Withdrawn]"

// DefaultDisplayName is used when the author leaves the name field blank.
const DefaultDisplayName = "Anonymous"

type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Content     string    `gorm:"not null" json:"content"`
	DisplayName string    `gorm:"not null;default:'Anonymous'" json:"display_name"`
	AuthUID     string    `gorm:"not null;index" json:"auth_uid"`
	Visible     bool      `gorm:"not null;default:true" json:"visible"`
	IsEdited    bool      `gorm:"not null;default:false" json:"is_edited"`
	CreatedAt   time.Time `json:"timestamp"`
}
