package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rahul-charaki/chat-app-be/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&UserModel{}, &MessageModel{}))
	return db
}

func newTestUser(email, username string) *domain.User {
	return &domain.User{
		Email:        email,
		Username:     username,
		DisplayName:  username,
		PasswordHash: "hash",
	}
}

func TestUserCreateAndGet(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newTestUser("alice@example.com", "alice")
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestUserGetMissing(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserDuplicateEmail(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestUser("alice@example.com", "alice")))
	err := repo.Create(ctx, newTestUser("alice@example.com", "alice2"))
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserDuplicateUsername(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestUser("alice@example.com", "alice")))
	err := repo.Create(ctx, newTestUser("alice2@example.com", "alice"))
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestUserSearch(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestUser("alice@example.com", "alice")))
	require.NoError(t, repo.Create(ctx, newTestUser("alicia@example.com", "alicia")))
	require.NoError(t, repo.Create(ctx, newTestUser("bob@example.com", "bob")))

	users, err := repo.Search(ctx, "ali", 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.Search(ctx, "ali", 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserSetPresence(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newTestUser("alice@example.com", "alice")
	require.NoError(t, repo.Create(ctx, user))

	lastSeen := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SetPresence(ctx, user.ID, true, lastSeen))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Online)

	err = repo.SetPresence(ctx, uuid.New().String(), true, lastSeen)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func newTestMessage(room, senderID, body string, createdAt time.Time) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        uuid.New().String(),
		SenderID:  senderID,
		Room:      room,
		Body:      body,
		Reactions: []domain.Reaction{},
		CreatedAt: createdAt,
	}
}

func TestMessageAppendAndGet(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	msg := newTestMessage("lobby", "alice", "hello", time.Now().UTC())
	msg.Attachment = &domain.Attachment{Name: "pic.png", Key: "uploads/pic.png", Size: 42}
	require.NoError(t, repo.Append(ctx, msg))

	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Body)
	require.NotNil(t, got.Attachment)
	assert.Equal(t, "pic.png", got.Attachment.Name)
	assert.NotNil(t, got.Reactions, "reactions come back as an empty slice, not nil")
}

func TestMessageGetMissing(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestMessageSaveReactions(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	msg := newTestMessage("lobby", "alice", "react", time.Now().UTC())
	require.NoError(t, repo.Append(ctx, msg))

	msg.SetReaction("bob", "👍")
	require.NoError(t, repo.Save(ctx, msg))

	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, got.Reactions, 1)
	assert.Equal(t, domain.Reaction{UserID: "bob", Emoji: "👍"}, got.Reactions[0])

	missing := newTestMessage("lobby", "alice", "ghost", time.Now().UTC())
	assert.ErrorIs(t, repo.Save(ctx, missing), ErrMessageNotFound)
}

func TestMessageListByRoomOrderAndPaging(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		msg := newTestMessage("lobby", "alice", "m", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Append(ctx, msg))
	}
	require.NoError(t, repo.Append(ctx, newTestMessage("other", "bob", "elsewhere", base)))

	msgs, err := repo.ListByRoom(ctx, "lobby", 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i-1].CreatedAt.Before(msgs[i].CreatedAt), "newest first")
	}

	msgs, err = repo.ListByRoom(ctx, "lobby", 2, time.Time{})
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	// Page older than the third message.
	msgs, err = repo.ListByRoom(ctx, "lobby", 10, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestMessageListByConversation(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	key := domain.ConversationKey("alice", "bob")
	msg := newTestMessage(key, "alice", "psst", time.Now().UTC())
	msg.RecipientID = "bob"
	msg.IsPrivate = true
	require.NoError(t, repo.Append(ctx, msg))

	msgs, err := repo.ListByConversation(ctx, key, 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsPrivate)
	assert.Equal(t, "bob", msgs[0].RecipientID)
}
