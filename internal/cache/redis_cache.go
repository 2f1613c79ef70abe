package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rahul-charaki/chat-app-be/internal/config"
	"github.com/rahul-charaki/chat-app-be/internal/presence"
)

// RedisPresenceCache stores presence snapshots in redis hashes.
type RedisPresenceCache struct {
	client *redis.Client
	prefix string
}

// NewRedisPresenceCache connects to redis and verifies the connection.
func NewRedisPresenceCache(cfg config.RedisConfig) (*RedisPresenceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPresenceCache{client: client, prefix: cfg.KeyPrefix}, nil
}

func (c *RedisPresenceCache) key(userID string) string {
	return c.prefix + ":" + userID
}

// SetPresence writes the user's presence snapshot.
func (c *RedisPresenceCache) SetPresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error {
	return c.client.HSet(ctx, c.key(userID), map[string]interface{}{
		"online":    strconv.FormatBool(online),
		"last_seen": lastSeen.Unix(),
	}).Err()
}

// GetPresence reads a cached presence snapshot.
func (c *RedisPresenceCache) GetPresence(ctx context.Context, userID string) (*presence.Entry, error) {
	fields, err := c.client.HGetAll(ctx, c.key(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrCacheMiss
	}

	online, _ := strconv.ParseBool(fields["online"])
	lastSeenUnix, _ := strconv.ParseInt(fields["last_seen"], 10, 64)

	return &presence.Entry{
		UserID:   userID,
		Online:   online,
		LastSeen: time.Unix(lastSeenUnix, 0),
	}, nil
}

// Close releases the redis connection.
func (c *RedisPresenceCache) Close() error {
	return c.client.Close()
}
