package database

import (
	"context"

	"github.com/velichkin/securechannel/internal/models"
)

// AppendAuditRecord inserts a new audit row. There is deliberately no update
// or delete counterpart.
func (d *Database) AppendAuditRecord(ctx context.Context, record *models.AuditRecord) error {
	return d.db.WithContext(ctx).Create(record).Error
}
