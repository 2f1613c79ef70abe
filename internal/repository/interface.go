package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rahul-charaki/chat-app-be/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrUsernameExists  = errors.New("username already exists")
	ErrMessageNotFound = errors.New("message not found")
)

// UserRepository is the user store collaborator.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Search returns users whose username or display name contains q.
	Search(ctx context.Context, q string, limit int) ([]domain.User, error)
	// SetPresence records the last known presence state for a user.
	SetPresence(ctx context.Context, id string, online bool, lastSeen time.Time) error
}

// MessageRepository is the message store collaborator. Private messages
// are stored under their conversation key, so they are retrievable by the
// recipient after reconnecting even when no live delivery happened.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.ChatMessage) error
	GetByID(ctx context.Context, id string) (*domain.ChatMessage, error)
	// Save persists in-place updates, currently reaction changes.
	Save(ctx context.Context, msg *domain.ChatMessage) error
	ListByRoom(ctx context.Context, room string, limit int, before time.Time) ([]domain.ChatMessage, error)
	ListByConversation(ctx context.Context, conversationKey string, limit int, before time.Time) ([]domain.ChatMessage, error)
}
