package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/velichkin/securechannel/internal/models"
)

func TestClassifyWithdrawal(t *testing.T) {
	req := require.New(t)

	id := uuid.New()
	previous := &models.Message{ID: id, Content: "hi", DisplayName: "Ann", AuthUID: "anon_1_a", Visible: true}
	next := &models.Message{ID: id, Content: models.WithdrawnPlaceholder, DisplayName: "Ann", AuthUID: "anon_1_a", Visible: false}

	record, ok := Classify(previous, next)
	req.True(ok)
	req.Equal(models.EventWithdraw, record.EventType)
	req.Equal(id, record.TargetMessageID)
	req.Equal("anon_1_a", record.ActorUID)
	req.Equal("hi", record.PreviousContent)
	req.Equal("Ann", record.DisplayName)
	req.Empty(record.NewContent)
}

func TestClassifyEdit(t *testing.T) {
	req := require.New(t)

	id := uuid.New()
	previous := &models.Message{ID: id, Content: "a", AuthUID: "anon_1_a", Visible: true}
	next := &models.Message{ID: id, Content: "b", AuthUID: "anon_1_a", Visible: true, IsEdited: true}

	record, ok := Classify(previous, next)
	req.True(ok)
	req.Equal(models.EventEdit, record.EventType)
	req.Equal("a", record.PreviousContent)
	req.Equal("b", record.NewContent)
}

func TestClassifyWithdrawalWinsOverContentChange(t *testing.T) {
	req := require.New(t)

	// Withdrawing rewrites the content too; that must still classify as a
	// single WITHDRAW, never an EDIT.
	previous := &models.Message{Content: "hi", Visible: true}
	next := &models.Message{Content: models.WithdrawnPlaceholder, Visible: false}

	record, ok := Classify(previous, next)
	req.True(ok)
	req.Equal(models.EventWithdraw, record.EventType)
}

func TestClassifyNone(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name     string
		previous *models.Message
		next     *models.Message
	}{
		{"no previous state", nil, &models.Message{Content: "hi", Visible: true}},
		{"no next state", &models.Message{Content: "hi", Visible: true}, nil},
		{"no change", &models.Message{Content: "hi", Visible: true}, &models.Message{Content: "hi", Visible: true}},
		{
			"content change on a withdrawn message",
			&models.Message{Content: models.WithdrawnPlaceholder, Visible: false},
			&models.Message{Content: "sneaky", Visible: false},
		},
		{
			"repeated withdrawal",
			&models.Message{Content: models.WithdrawnPlaceholder, Visible: false},
			&models.Message{Content: models.WithdrawnPlaceholder, Visible: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, ok := Classify(tt.previous, tt.next)
			req.False(ok)
			req.Nil(record)
		})
	}
}
