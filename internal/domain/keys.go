package domain

import "strings"

// Room key namespaces. Public rooms use their name verbatim; private
// conversations and per-user delivery rooms carry a prefix so they can
// never collide with a public room name.
const (
	conversationPrefix = "dm:"
	userRoomPrefix     = "user:"
)

// ConversationKey returns the deterministic key for a two-party private
// conversation. Both participants compute the same key regardless of who
// initiates, because the pair is sorted before joining.
func ConversationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return conversationPrefix + a + ":" + b
}

// UserRoom returns the per-user delivery room key. Every authenticated
// connection is subscribed to its own user room, so direct delivery works
// without the recipient having joined anything.
func UserRoom(userID string) string {
	return userRoomPrefix + userID
}

// IsPrivateKey reports whether key belongs to a private namespace
// (conversation or user room) rather than a public room.
func IsPrivateKey(key string) bool {
	return strings.HasPrefix(key, conversationPrefix) || strings.HasPrefix(key, userRoomPrefix)
}
