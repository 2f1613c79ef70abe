package domain

// WebSocket message types from client.
const (
	MsgTypeAuth           = "authenticate"
	MsgTypeJoinRoom       = "join_room"
	MsgTypeSendMessage    = "send_message"
	MsgTypeSendPrivate    = "send_private_message"
	MsgTypeTyping         = "typing"
	MsgTypeAddReaction    = "add_reaction"
)

// WebSocket message types to client.
const (
	MsgTypeAuthResult     = "auth_result"
	MsgTypeRoomJoined     = "room_joined"
	MsgTypeUserOnline     = "user_online"
	MsgTypeUserOffline    = "user_offline"
	MsgTypeReceiveMessage = "receive_message"
	MsgTypeReceivePrivate = "receive_private_message"
	MsgTypeTypingOut      = "typing"
	MsgTypeStopTyping     = "stop_typing"
	MsgTypeMessageUpdated = "message_updated"
	MsgTypeError          = "error"
)

// Error codes carried on error events.
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeAuthFailed       = "AUTH_FAILED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// BaseEvent is the envelope every inbound message starts as; Type selects
// the arm of the dispatch table.
type BaseEvent struct {
	Type string `json:"type"`
}

// Client -> Server events

type AuthEvent struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type JoinRoomEvent struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type SendMessageEvent struct {
	Type       string      `json:"type"`
	Room       string      `json:"room"`
	Body       string      `json:"body"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

type SendPrivateEvent struct {
	Type        string      `json:"type"`
	RecipientID string      `json:"recipient_id"`
	Body        string      `json:"body"`
	Attachment  *Attachment `json:"attachment,omitempty"`
}

type TypingEvent struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	IsTyping bool   `json:"is_typing"`
}

type AddReactionEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// Server -> Client events

type AuthResultEvent struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

type RoomJoinedEvent struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type PresenceEvent struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

type MessageEvent struct {
	Type    string       `json:"type"`
	Message *ChatMessage `json:"message"`
}

type TypingOutEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Room     string `json:"room"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorEvent builds an error event for the triggering connection.
func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{Type: MsgTypeError, Code: code, Message: message}
}
