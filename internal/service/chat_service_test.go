package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul-charaki/chat-app-be/internal/auth"
	"github.com/rahul-charaki/chat-app-be/internal/config"
	"github.com/rahul-charaki/chat-app-be/internal/domain"
	"github.com/rahul-charaki/chat-app-be/internal/hub"
	"github.com/rahul-charaki/chat-app-be/internal/presence"
	"github.com/rahul-charaki/chat-app-be/internal/repository"
)

// fakeVerifier accepts any token of the form "token-<userID>".
type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (*auth.Identity, error) {
	const prefix = "token-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return nil, auth.ErrInvalidToken
	}
	id := token[len(prefix):]
	return &auth.Identity{UserID: id, Username: "name-" + id}, nil
}

type fakeUserRepo struct {
	users    map[string]*domain.User
	presence map[string]bool
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*domain.User), presence: make(map[string]bool)}
	for _, id := range ids {
		r.users[id] = &domain.User{ID: id, Username: "name-" + id}
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Search(ctx context.Context, q string, limit int) ([]domain.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) SetPresence(ctx context.Context, id string, online bool, lastSeen time.Time) error {
	r.presence[id] = online
	return nil
}

type fakeMessageRepo struct {
	messages  map[string]*domain.ChatMessage
	appendErr error
	saveErr   error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*domain.ChatMessage)}
}

func (r *fakeMessageRepo) Append(ctx context.Context, msg *domain.ChatMessage) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*domain.ChatMessage, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, repository.ErrMessageNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMessageRepo) Save(ctx context.Context, msg *domain.ChatMessage) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) ListByRoom(ctx context.Context, room string, limit int, before time.Time) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, m := range r.messages {
		if m.Room == room {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, conversationKey string, limit int, before time.Time) ([]domain.ChatMessage, error) {
	return r.ListByRoom(ctx, conversationKey, limit, before)
}

type fixture struct {
	hub       *hub.Hub
	directory *presence.Directory
	users     *fakeUserRepo
	messages  *fakeMessageRepo
	svc       ChatService
}

func newFixture(t *testing.T, userIDs ...string) *fixture {
	t.Helper()
	directory := presence.NewDirectory()
	h := hub.NewHub(directory)
	users := newFakeUserRepo(userIDs...)
	messages := newFakeMessageRepo()
	return &fixture{
		hub:       h,
		directory: directory,
		users:     users,
		messages:  messages,
		svc:       NewChatService(h, directory, fakeVerifier{}, users, messages, nil),
	}
}

func (f *fixture) connect(t *testing.T, connID string) *hub.Client {
	t.Helper()
	c := hub.NewClient(connID, f.hub, nil, config.WebSocketConfig{})
	f.hub.Register(c)
	return c
}

func (f *fixture) authed(t *testing.T, connID, userID string) *hub.Client {
	t.Helper()
	c := f.connect(t, connID)
	require.NoError(t, f.svc.HandleAuth(context.Background(), c, "token-"+userID))
	drainClient(t, c)
	return c
}

func drainClient(t *testing.T, c *hub.Client) []map[string]interface{} {
	t.Helper()
	var frames []map[string]interface{}
	for {
		select {
		case data := <-c.Outbox():
			var frame map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &frame))
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func frameTypes(frames []map[string]interface{}) []string {
	types := make([]string, 0, len(frames))
	for _, f := range frames {
		types = append(types, f["type"].(string))
	}
	return types
}

func TestHandleAuthSuccess(t *testing.T) {
	f := newFixture(t, "alice")
	c := f.connect(t, "conn-1")

	require.NoError(t, f.svc.HandleAuth(context.Background(), c, "token-alice"))

	assert.True(t, c.Session.IsAuthenticated())
	assert.Equal(t, "alice", c.Session.UserID())
	assert.True(t, f.directory.IsOnline("alice"))
	assert.True(t, c.Session.InRoom(domain.UserRoom("alice")))
	assert.True(t, f.users.presence["alice"], "presence transition reaches the store")

	frames := drainClient(t, c)
	require.NotEmpty(t, frames)
	assert.Equal(t, domain.MsgTypeAuthResult, frames[0]["type"])
	assert.Equal(t, true, frames[0]["success"])
}

func TestHandleAuthBadToken(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t, "conn-1")

	err := f.svc.HandleAuth(context.Background(), c, "garbage")

	assert.Error(t, err)
	assert.False(t, c.Session.IsAuthenticated())

	frames := drainClient(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.MsgTypeAuthResult, frames[0]["type"])
	assert.Equal(t, false, frames[0]["success"])
}

func TestHandleAuthTwiceRejected(t *testing.T) {
	f := newFixture(t, "alice")
	c := f.authed(t, "conn-1", "alice")

	err := f.svc.HandleAuth(context.Background(), c, "token-alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyAuthenticated)
}

func TestFirstConnectionAnnouncesOnline(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	observer := f.authed(t, "conn-bob", "bob")

	f.authed(t, "conn-alice", "alice")

	frames := drainClient(t, observer)
	assert.Contains(t, frameTypes(frames), domain.MsgTypeUserOnline)
}

func TestSecondTabDoesNotReannounce(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	observer := f.authed(t, "conn-bob", "bob")
	f.authed(t, "conn-alice-1", "alice")
	drainClient(t, observer)

	f.authed(t, "conn-alice-2", "alice")

	frames := drainClient(t, observer)
	assert.NotContains(t, frameTypes(frames), domain.MsgTypeUserOnline)
}

func TestJoinRoomRequiresAuth(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t, "conn-1")

	err := f.svc.HandleJoinRoom(context.Background(), c, "lobby")

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	frames := drainClient(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.MsgTypeError, frames[0]["type"])
	assert.Equal(t, domain.ErrCodeUnauthorized, frames[0]["code"])
	assert.Zero(t, f.hub.RoomSize("lobby"))
}

func TestJoinRoomSwitchesPublicRoom(t *testing.T) {
	f := newFixture(t, "alice")
	c := f.authed(t, "conn-1", "alice")

	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), c, "lobby"))
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), c, "random"))

	assert.False(t, c.Session.InRoom("lobby"), "joining a room leaves the previous one")
	assert.True(t, c.Session.InRoom("random"))
	assert.Zero(t, f.hub.RoomSize("lobby"))
	assert.Equal(t, 1, f.hub.RoomSize("random"))
	assert.True(t, c.Session.InRoom(domain.UserRoom("alice")), "user room survives the switch")
}

func TestJoinRoomRejectsPrivateNamespace(t *testing.T) {
	f := newFixture(t, "alice")
	c := f.authed(t, "conn-1", "alice")

	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), c, domain.ConversationKey("alice", "bob")))

	frames := drainClient(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.MsgTypeError, frames[0]["type"])
	assert.Equal(t, domain.ErrCodeBadRequest, frames[0]["code"])
}

func TestSendMessageFansOutToRoom(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	sender := f.authed(t, "conn-a", "alice")
	receiver := f.authed(t, "conn-b", "bob")
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), sender, "lobby"))
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), receiver, "lobby"))
	drainClient(t, sender)
	drainClient(t, receiver)

	require.NoError(t, f.svc.HandleSendMessage(context.Background(), sender, "lobby", "hello", nil))

	// Sender gets their own message echoed back too.
	for _, c := range []*hub.Client{sender, receiver} {
		frames := drainClient(t, c)
		require.Len(t, frames, 1)
		assert.Equal(t, domain.MsgTypeReceiveMessage, frames[0]["type"])
		msg := frames[0]["message"].(map[string]interface{})
		assert.Equal(t, "hello", msg["body"])
		assert.Equal(t, "alice", msg["sender_id"])
	}

	assert.Len(t, f.messages.messages, 1, "message persisted before fan-out")
}

func TestSendMessageStoreFailureSuppressesFanOut(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	sender := f.authed(t, "conn-a", "alice")
	receiver := f.authed(t, "conn-b", "bob")
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), sender, "lobby"))
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), receiver, "lobby"))
	drainClient(t, sender)
	drainClient(t, receiver)

	f.messages.appendErr = errors.New("disk on fire")
	err := f.svc.HandleSendMessage(context.Background(), sender, "lobby", "hello", nil)

	assert.Error(t, err)
	assert.Empty(t, drainClient(t, receiver), "nobody sees a message the store rejected")

	frames := drainClient(t, sender)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.ErrCodeStoreUnavailable, frames[0]["code"])
}

func TestSendPrivateDeliversToBothParties(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	sender := f.authed(t, "conn-a", "alice")
	recipient := f.authed(t, "conn-b", "bob")
	drainClient(t, sender)
	drainClient(t, recipient)

	require.NoError(t, f.svc.HandleSendPrivate(context.Background(), sender, "bob", "psst", nil))

	for _, c := range []*hub.Client{sender, recipient} {
		frames := drainClient(t, c)
		require.Len(t, frames, 1)
		assert.Equal(t, domain.MsgTypeReceivePrivate, frames[0]["type"])
		msg := frames[0]["message"].(map[string]interface{})
		assert.Equal(t, "psst", msg["body"])
		assert.Equal(t, domain.ConversationKey("alice", "bob"), msg["room"])
	}
}

func TestSendPrivateOfflineRecipientPersists(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	sender := f.authed(t, "conn-a", "alice")
	drainClient(t, sender)

	require.NoError(t, f.svc.HandleSendPrivate(context.Background(), sender, "bob", "see you later", nil))

	frames := drainClient(t, sender)
	require.Len(t, frames, 1, "sender still gets the echo")
	assert.Equal(t, domain.MsgTypeReceivePrivate, frames[0]["type"])

	stored, err := f.messages.ListByConversation(context.Background(), domain.ConversationKey("alice", "bob"), 50, time.Time{})
	require.NoError(t, err)
	require.Len(t, stored, 1, "the message waits in the store for the recipient")
	assert.True(t, stored[0].IsPrivate)
}

func TestSendPrivateUnknownRecipient(t *testing.T) {
	f := newFixture(t, "alice")
	sender := f.authed(t, "conn-a", "alice")
	drainClient(t, sender)

	err := f.svc.HandleSendPrivate(context.Background(), sender, "ghost", "hello?", nil)

	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	frames := drainClient(t, sender)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.ErrCodeNotFound, frames[0]["code"])
	assert.Empty(t, f.messages.messages)
}

func TestTypingExcludesTypist(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	typist := f.authed(t, "conn-a", "alice")
	watcher := f.authed(t, "conn-b", "bob")
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), typist, "lobby"))
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), watcher, "lobby"))
	drainClient(t, typist)
	drainClient(t, watcher)

	require.NoError(t, f.svc.HandleTyping(context.Background(), typist, "lobby", true))

	assert.Empty(t, drainClient(t, typist))
	frames := drainClient(t, watcher)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.MsgTypeTypingOut, frames[0]["type"])
	assert.Equal(t, "alice", frames[0]["user_id"])

	require.NoError(t, f.svc.HandleTyping(context.Background(), typist, "lobby", false))
	frames = drainClient(t, watcher)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.MsgTypeStopTyping, frames[0]["type"])

	assert.Empty(t, f.messages.messages, "typing is never persisted")
}

func TestAddReactionReplacesAndFansOut(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	sender := f.authed(t, "conn-a", "alice")
	reactor := f.authed(t, "conn-b", "bob")
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), sender, "lobby"))
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), reactor, "lobby"))
	require.NoError(t, f.svc.HandleSendMessage(context.Background(), sender, "lobby", "react to me", nil))

	var msgID string
	for id := range f.messages.messages {
		msgID = id
	}
	drainClient(t, sender)
	drainClient(t, reactor)

	require.NoError(t, f.svc.HandleAddReaction(context.Background(), reactor, msgID, "👍"))
	require.NoError(t, f.svc.HandleAddReaction(context.Background(), reactor, msgID, "❤️"))

	stored := f.messages.messages[msgID]
	require.Len(t, stored.Reactions, 1, "second reaction replaces the first")
	assert.Equal(t, "❤️", stored.Reactions[0].Emoji)

	frames := drainClient(t, sender)
	require.Len(t, frames, 2, "each reaction change reaches the room")
	assert.Equal(t, domain.MsgTypeMessageUpdated, frames[0]["type"])
}

func TestAddReactionPrivateMessageTargetsParties(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	sender := f.authed(t, "conn-a", "alice")
	recipient := f.authed(t, "conn-b", "bob")
	bystander := f.authed(t, "conn-c", "carol")
	require.NoError(t, f.svc.HandleSendPrivate(context.Background(), sender, "bob", "secret", nil))

	var msgID string
	for id := range f.messages.messages {
		msgID = id
	}
	drainClient(t, sender)
	drainClient(t, recipient)
	drainClient(t, bystander)

	require.NoError(t, f.svc.HandleAddReaction(context.Background(), recipient, msgID, "👀"))

	assert.Len(t, drainClient(t, sender), 1)
	assert.Len(t, drainClient(t, recipient), 1)
	assert.Empty(t, drainClient(t, bystander), "third parties never see private reactions")
}

func TestAddReactionUnknownMessage(t *testing.T) {
	f := newFixture(t, "alice")
	c := f.authed(t, "conn-a", "alice")
	drainClient(t, c)

	err := f.svc.HandleAddReaction(context.Background(), c, "nope", "👍")

	assert.ErrorIs(t, err, repository.ErrMessageNotFound)
	frames := drainClient(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.ErrCodeNotFound, frames[0]["code"])
}

func TestDisconnectLastTabAnnouncesOffline(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	observer := f.authed(t, "conn-bob", "bob")
	c := f.authed(t, "conn-alice", "alice")
	require.NoError(t, f.svc.HandleJoinRoom(context.Background(), c, "lobby"))
	drainClient(t, observer)

	require.NoError(t, f.svc.HandleDisconnect(context.Background(), c))

	assert.False(t, f.directory.IsOnline("alice"))
	assert.Zero(t, f.hub.RoomSize("lobby"))
	assert.False(t, f.users.presence["alice"])

	frames := drainClient(t, observer)
	assert.Contains(t, frameTypes(frames), domain.MsgTypeUserOffline)
}

func TestDisconnectWithRemainingTabStaysOnline(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	observer := f.authed(t, "conn-bob", "bob")
	tab1 := f.authed(t, "conn-a1", "alice")
	f.authed(t, "conn-a2", "alice")
	drainClient(t, observer)

	require.NoError(t, f.svc.HandleDisconnect(context.Background(), tab1))

	assert.True(t, f.directory.IsOnline("alice"))
	frames := drainClient(t, observer)
	assert.NotContains(t, frameTypes(frames), domain.MsgTypeUserOffline)
}

func TestDisconnectUnauthenticated(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t, "conn-1")

	require.NoError(t, f.svc.HandleDisconnect(context.Background(), c))
	require.NoError(t, f.svc.HandleDisconnect(context.Background(), c), "double disconnect is safe")
}
