package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager("test-secret", 15*time.Minute, 24*time.Hour, "chat-test")
}

func TestGenerateAndValidate(t *testing.T) {
	m := newTestManager()

	access, refresh, accessExp, err := m.GenerateTokenPair("user-1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.Greater(t, accessExp, time.Now().Unix())

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "access", claims.Type)

	claims, err = m.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.Type)
}

func TestValidateGarbage(t *testing.T) {
	m := newTestManager()

	_, err := m.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewManager("different-secret", 15*time.Minute, 24*time.Hour, "chat-test")

	access, _, _, err := m.GenerateTokenPair("user-1", "alice")
	require.NoError(t, err)

	_, err = other.ValidateToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, 24*time.Hour, "chat-test")

	access, _, _, err := m.GenerateTokenPair("user-1", "alice")
	require.NoError(t, err)

	_, err = m.ValidateToken(access)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshTokens(t *testing.T) {
	m := newTestManager()

	_, refresh, _, err := m.GenerateTokenPair("user-1", "alice")
	require.NoError(t, err)

	access, newRefresh, _, err := m.RefreshTokens(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, newRefresh)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username, "identity survives a refresh")
	assert.Equal(t, "access", claims.Type)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	m := newTestManager()

	access, _, _, err := m.GenerateTokenPair("user-1", "alice")
	require.NoError(t, err)

	_, _, _, err = m.RefreshTokens(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
