package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rahul-charaki/chat-app-be/internal/presence"
)

// ErrCacheMiss is returned when no presence entry is cached for a user.
var ErrCacheMiss = errors.New("presence cache miss")

// PresenceCache mirrors the in-memory presence directory into shared
// storage. Writes are best-effort: the directory is the source of truth
// and fan-out never waits on the cache.
type PresenceCache interface {
	SetPresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error
	GetPresence(ctx context.Context, userID string) (*presence.Entry, error)
	Close() error
}
