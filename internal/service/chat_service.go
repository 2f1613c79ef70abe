package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rahul-charaki/chat-app-be/internal/auth"
	"github.com/rahul-charaki/chat-app-be/internal/cache"
	"github.com/rahul-charaki/chat-app-be/internal/domain"
	"github.com/rahul-charaki/chat-app-be/internal/hub"
	"github.com/rahul-charaki/chat-app-be/internal/presence"
	"github.com/rahul-charaki/chat-app-be/internal/repository"
	"github.com/rahul-charaki/chat-app-be/pkg/log"
)

type chatService struct {
	hub       *hub.Hub
	directory *presence.Directory
	verifier  auth.Verifier
	users     repository.UserRepository
	messages  repository.MessageRepository
	cache     cache.PresenceCache // optional, best-effort mirror
}

// NewChatService wires the dispatcher to its collaborators. cache may be
// nil when no redis mirror is configured.
func NewChatService(
	h *hub.Hub,
	directory *presence.Directory,
	verifier auth.Verifier,
	users repository.UserRepository,
	messages repository.MessageRepository,
	presenceCache cache.PresenceCache,
) ChatService {
	return &chatService{
		hub:       h,
		directory: directory,
		verifier:  verifier,
		users:     users,
		messages:  messages,
		cache:     presenceCache,
	}
}

// HandleAuth verifies the token, binds the identity, registers the
// connection with the presence directory and announces the user when this
// was their first live connection.
func (s *chatService) HandleAuth(ctx context.Context, c *hub.Client, token string) error {
	if c.Session.State() != domain.StateUnauthenticated {
		c.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "already authenticated"))
		return domain.ErrAlreadyAuthenticated
	}

	identity, err := s.verifier.Verify(token)
	if err != nil {
		c.Send(&domain.AuthResultEvent{
			Type:    domain.MsgTypeAuthResult,
			Success: false,
			Message: "invalid or expired token",
		})
		return err
	}

	if err := c.Session.Authenticate(identity.UserID, identity.Username); err != nil {
		c.Send(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to bind session"))
		return err
	}

	// Per-user room for direct delivery, subscribed before the presence
	// transition so no window exists where the user is online but
	// unreachable.
	userRoom := domain.UserRoom(identity.UserID)
	s.hub.Subscribe(userRoom, c)
	c.Session.TrackRoom(userRoom)

	wentOnline := s.directory.MarkOnline(identity.UserID, c)

	c.Send(&domain.AuthResultEvent{
		Type:     domain.MsgTypeAuthResult,
		Success:  true,
		UserID:   identity.UserID,
		Username: identity.Username,
	})

	if wentOnline {
		s.hub.Broadcast(&domain.PresenceEvent{
			Type:   domain.MsgTypeUserOnline,
			UserID: identity.UserID,
		}, "")
		s.persistPresence(ctx, identity.UserID, true, time.Now())
	}

	log.L().Info().
		Str(log.FieldConnID, c.ID).
		Str(log.FieldUserID, identity.UserID).
		Bool("went_online", wentOnline).
		Msg("session authenticated")
	return nil
}

// HandleJoinRoom moves the session into a public room, leaving any public
// room it was in first. Private conversation rooms are kept.
func (s *chatService) HandleJoinRoom(ctx context.Context, c *hub.Client, room string) error {
	if !c.Session.IsAuthenticated() {
		log.L().Debug().Str(log.FieldConnID, c.ID).Str(log.FieldRoom, room).Msg("join_room ignored, not authenticated")
		c.Send(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "not authenticated"))
		return domain.ErrNotAuthenticated
	}

	if room == "" || domain.IsPrivateKey(room) {
		c.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid room name"))
		return nil
	}

	// A session occupies at most one public room at a time.
	for _, prev := range c.Session.PublicRooms() {
		s.hub.Unsubscribe(prev, c)
		c.Session.DropRoom(prev)
	}

	s.hub.Subscribe(room, c)
	c.Session.TrackRoom(room)

	return c.Send(&domain.RoomJoinedEvent{Type: domain.MsgTypeRoomJoined, Room: room})
}

// HandleSendMessage persists a public room message and fans it out to the
// room's subscribers. Fan-out only happens after a successful append, so
// nobody sees a message that would be lost on reconnect.
func (s *chatService) HandleSendMessage(ctx context.Context, c *hub.Client, room, body string, attachment *domain.Attachment) error {
	if !c.Session.IsAuthenticated() {
		c.Send(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "not authenticated"))
		return domain.ErrNotAuthenticated
	}

	if room == "" || domain.IsPrivateKey(room) {
		c.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid room name"))
		return nil
	}

	msg := &domain.ChatMessage{
		ID:         uuid.New().String(),
		SenderID:   c.Session.UserID(),
		SenderName: c.Session.Username(),
		Room:       room,
		Body:       body,
		Attachment: attachment,
		IsPrivate:  false,
		Reactions:  []domain.Reaction{},
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.messages.Append(ctx, msg); err != nil {
		log.L().Error().Err(err).Str(log.FieldRoom, room).Msg("failed to persist message")
		c.Send(domain.NewErrorEvent(domain.ErrCodeStoreUnavailable, "failed to send message"))
		return err
	}

	reached := s.hub.Publish(room, &domain.MessageEvent{
		Type:    domain.MsgTypeReceiveMessage,
		Message: msg,
	}, "")

	log.L().Debug().
		Str(log.FieldMsgID, msg.ID).
		Str(log.FieldRoom, room).
		Int(log.FieldReached, reached).
		Msg("message published")
	return nil
}

// HandleSendPrivate persists a private message under its conversation key
// and delivers it to the sender's handles and, when online, the
// recipient's. An offline recipient gets nothing live; the message waits
// in the store under the conversation key.
func (s *chatService) HandleSendPrivate(ctx context.Context, c *hub.Client, recipientID, body string, attachment *domain.Attachment) error {
	if !c.Session.IsAuthenticated() {
		c.Send(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "not authenticated"))
		return domain.ErrNotAuthenticated
	}

	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.Send(domain.NewErrorEvent(domain.ErrCodeNotFound, "recipient does not exist"))
			return err
		}
		c.Send(domain.NewErrorEvent(domain.ErrCodeStoreUnavailable, "failed to resolve recipient"))
		return err
	}

	senderID := c.Session.UserID()
	conversation := domain.ConversationKey(senderID, recipientID)

	// A session stays a member of every conversation it has touched.
	if !c.Session.InRoom(conversation) {
		s.hub.Subscribe(conversation, c)
		c.Session.TrackRoom(conversation)
	}

	msg := &domain.ChatMessage{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		SenderName:  c.Session.Username(),
		RecipientID: recipientID,
		Room:        conversation,
		Body:        body,
		Attachment:  attachment,
		IsPrivate:   true,
		Reactions:   []domain.Reaction{},
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.messages.Append(ctx, msg); err != nil {
		log.L().Error().Err(err).Str(log.FieldRoom, conversation).Msg("failed to persist private message")
		c.Send(domain.NewErrorEvent(domain.ErrCodeStoreUnavailable, "failed to send message"))
		return err
	}

	event := &domain.MessageEvent{Type: domain.MsgTypeReceivePrivate, Message: msg}
	s.hub.PublishToUser(senderID, event)
	if recipientID != senderID {
		s.hub.PublishToUser(recipientID, event)
	}

	return nil
}

// HandleTyping relays typing indicators to the room, excluding the typist.
// Nothing is persisted.
func (s *chatService) HandleTyping(ctx context.Context, c *hub.Client, room string, isTyping bool) error {
	if !c.Session.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}

	eventType := domain.MsgTypeTypingOut
	if !isTyping {
		eventType = domain.MsgTypeStopTyping
	}

	s.hub.Publish(room, &domain.TypingOutEvent{
		Type:     eventType,
		UserID:   c.Session.UserID(),
		Username: c.Session.Username(),
		Room:     room,
	}, c.ID)
	return nil
}

// HandleAddReaction loads the message, replaces or inserts this user's
// reaction, persists, then fans out the updated message.
func (s *chatService) HandleAddReaction(ctx context.Context, c *hub.Client, messageID, emoji string) error {
	if !c.Session.IsAuthenticated() {
		c.Send(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "not authenticated"))
		return domain.ErrNotAuthenticated
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			c.Send(domain.NewErrorEvent(domain.ErrCodeNotFound, "message does not exist"))
			return err
		}
		c.Send(domain.NewErrorEvent(domain.ErrCodeStoreUnavailable, "failed to load message"))
		return err
	}

	msg.SetReaction(c.Session.UserID(), emoji)

	if err := s.messages.Save(ctx, msg); err != nil {
		log.L().Error().Err(err).Str(log.FieldMsgID, messageID).Msg("failed to persist reaction")
		c.Send(domain.NewErrorEvent(domain.ErrCodeStoreUnavailable, "failed to save reaction"))
		return err
	}

	event := &domain.MessageEvent{Type: domain.MsgTypeMessageUpdated, Message: msg}
	if !msg.IsPrivate {
		s.hub.Publish(msg.Room, event, "")
		return nil
	}

	s.hub.PublishToUser(msg.SenderID, event)
	if msg.RecipientID != "" && msg.RecipientID != msg.SenderID {
		s.hub.PublishToUser(msg.RecipientID, event)
	}
	return nil
}

// HandleDisconnect unwinds the session: every subscription is removed,
// the handle leaves the presence directory, and the user is announced
// offline only when their last connection went away.
func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	rooms, wasAuthenticated := c.Session.Close()
	for _, room := range rooms {
		s.hub.Unsubscribe(room, c)
	}

	if wasAuthenticated {
		userID := c.Session.UserID()
		wentOffline, lastSeen := s.directory.MarkOffline(userID, c)
		if wentOffline {
			s.hub.Broadcast(&domain.PresenceEvent{
				Type:   domain.MsgTypeUserOffline,
				UserID: userID,
			}, c.ID)
			s.persistPresence(ctx, userID, false, lastSeen)
		}

		log.L().Info().
			Str(log.FieldConnID, c.ID).
			Str(log.FieldUserID, userID).
			Bool("went_offline", wentOffline).
			Msg("session closed")
	}

	s.hub.Unregister(c)
	return nil
}

// persistPresence mirrors a presence transition to the user store and the
// optional redis cache. Both are best-effort; a store hiccup must not
// block or fail presence fan-out.
func (s *chatService) persistPresence(ctx context.Context, userID string, online bool, lastSeen time.Time) {
	if err := s.users.SetPresence(ctx, userID, online, lastSeen); err != nil {
		log.L().Warn().Err(err).Str(log.FieldUserID, userID).Msg("failed to persist presence")
	}
	if s.cache != nil {
		if err := s.cache.SetPresence(ctx, userID, online, lastSeen); err != nil {
			log.L().Warn().Err(err).Str(log.FieldUserID, userID).Msg("failed to cache presence")
		}
	}
}
