package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/rahul-charaki/chat-app-be/internal/domain"
	"github.com/rahul-charaki/chat-app-be/pkg/database"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           string         `gorm:"type:varchar(36);primaryKey"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	DisplayName  string         `gorm:"type:varchar(100)"`
	PasswordHash string         `gorm:"type:varchar(255);not null"`
	Online       bool           `gorm:"default:false"`
	LastSeen     time.Time      ``
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Username:     m.Username,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		Online:       m.Online,
		LastSeen:     m.LastSeen,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func userToModel(u *domain.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Online:       u.Online,
		LastSeen:     u.LastSeen,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// MessageModel is the GORM model for the messages table. Reactions and the
// attachment descriptor live in JSON columns so the schema stays identical
// across the supported drivers.
type MessageModel struct {
	ID          string                                     `gorm:"type:varchar(36);primaryKey"`
	SenderID    string                                     `gorm:"type:varchar(36);index;not null"`
	SenderName  string                                     `gorm:"type:varchar(100)"`
	RecipientID string                                     `gorm:"type:varchar(36);index"`
	Room        string                                     `gorm:"type:varchar(255);index;not null"`
	Body        string                                     `gorm:"type:text"`
	Attachment  database.JSONColumn[*domain.Attachment]    `gorm:"type:text"`
	IsPrivate   bool                                       `gorm:"default:false"`
	Reactions   database.JSONColumn[[]domain.Reaction]     `gorm:"type:text"`
	CreatedAt   time.Time                                  `gorm:"index"`
}

func (MessageModel) TableName() string { return "messages" }

func (m *MessageModel) ToDomain() *domain.ChatMessage {
	reactions := m.Reactions.Data
	if reactions == nil {
		reactions = []domain.Reaction{}
	}
	return &domain.ChatMessage{
		ID:          m.ID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		RecipientID: m.RecipientID,
		Room:        m.Room,
		Body:        m.Body,
		Attachment:  m.Attachment.Data,
		IsPrivate:   m.IsPrivate,
		Reactions:   reactions,
		CreatedAt:   m.CreatedAt,
	}
}

func messageToModel(msg *domain.ChatMessage) *MessageModel {
	return &MessageModel{
		ID:          msg.ID,
		SenderID:    msg.SenderID,
		SenderName:  msg.SenderName,
		RecipientID: msg.RecipientID,
		Room:        msg.Room,
		Body:        msg.Body,
		Attachment:  database.JSONColumn[*domain.Attachment]{Data: msg.Attachment},
		IsPrivate:   msg.IsPrivate,
		Reactions:   database.JSONColumn[[]domain.Reaction]{Data: msg.Reactions},
		CreatedAt:   msg.CreatedAt,
	}
}
