package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rahul-charaki/chat-app-be/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Append persists a new message.
func (r *GormMessageRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(messageToModel(msg)).Error
}

// GetByID retrieves a message by id.
func (r *GormMessageRepository) GetByID(ctx context.Context, id string) (*domain.ChatMessage, error) {
	var model MessageModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes an updated message back, replacing the stored row.
func (r *GormMessageRepository) Save(ctx context.Context, msg *domain.ChatMessage) error {
	result := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ?", msg.ID).
		Updates(map[string]interface{}{
			"body":      msg.Body,
			"reactions": messageToModel(msg).Reactions,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// ListByRoom returns up to limit messages for a room, newest first,
// older than before when set.
func (r *GormMessageRepository) ListByRoom(ctx context.Context, room string, limit int, before time.Time) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("room = ?", room)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var models []MessageModel
	err := query.Order("created_at DESC").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, err
	}

	messages := make([]domain.ChatMessage, 0, len(models))
	for i := range models {
		messages = append(messages, *models[i].ToDomain())
	}
	return messages, nil
}

// ListByConversation returns private-message history for a conversation
// key. Conversations are stored under their key in the room column, so
// this is room listing with a private-namespace key.
func (r *GormMessageRepository) ListByConversation(ctx context.Context, conversationKey string, limit int, before time.Time) ([]domain.ChatMessage, error) {
	return r.ListByRoom(ctx, conversationKey, limit, before)
}
