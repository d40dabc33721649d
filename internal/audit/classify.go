// Package audit turns message mutations into an append-only trail of edit and
// withdrawal records.
package audit

import (
	"github.com/velichkin/securechannel/internal/models"
)

// Classify compares the before/after state of a single mutation and returns
// the audit record it warrants, if any. A withdrawal (visible going false)
// wins over any concurrent content change; a content change counts as an edit
// only while the message stays visible. Everything else is not auditable.
//
// The function is pure: it never looks at anything beyond its two arguments.
func Classify(previous, next *models.Message) (*models.AuditRecord, bool) {
	if previous == nil || next == nil {
		return nil, false
	}

	if previous.Visible && !next.Visible {
		return &models.AuditRecord{
			EventType:       models.EventWithdraw,
			TargetMessageID: next.ID,
			ActorUID:        next.AuthUID,
			PreviousContent: previous.Content,
			DisplayName:     previous.DisplayName,
		}, true
	}

	if previous.Content != next.Content && next.Visible {
		return &models.AuditRecord{
			EventType:       models.EventEdit,
			TargetMessageID: next.ID,
			ActorUID:        next.AuthUID,
			PreviousContent: previous.Content,
			NewContent:      next.Content,
		}, true
	}

	return nil, false
}
