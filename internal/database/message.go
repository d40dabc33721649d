package database

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/velichkin/securechannel/internal/models"
	"gorm.io/gorm"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return d.db.WithContext(ctx).Create(message).Error
}

func (d *Database) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (d *Database) UpdateMessage(ctx context.Context, message *models.Message) error {
	return d.db.WithContext(ctx).Save(message).Error
}

// RecentMessages returns the latest limit messages in ascending creation
// order, so the newest window is ready for display as-is.
func (d *Database) RecentMessages(ctx context.Context, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return lo.Reverse(messages), nil
}
