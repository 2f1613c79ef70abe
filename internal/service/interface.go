package service

import (
	"context"

	"github.com/rahul-charaki/chat-app-be/internal/domain"
	"github.com/rahul-charaki/chat-app-be/internal/hub"
)

// ChatService is the event dispatcher: one operation per inbound event
// type. Every operation except HandleAuth is a safe no-op when the
// session is not authenticated.
type ChatService interface {
	HandleAuth(ctx context.Context, c *hub.Client, token string) error
	HandleJoinRoom(ctx context.Context, c *hub.Client, room string) error
	HandleSendMessage(ctx context.Context, c *hub.Client, room, body string, attachment *domain.Attachment) error
	HandleSendPrivate(ctx context.Context, c *hub.Client, recipientID, body string, attachment *domain.Attachment) error
	HandleTyping(ctx context.Context, c *hub.Client, room string, isTyping bool) error
	HandleAddReaction(ctx context.Context, c *hub.Client, messageID, emoji string) error
	HandleDisconnect(ctx context.Context, c *hub.Client) error
}
