package domain

import "time"

// Attachment describes an uploaded file referenced by a message.
type Attachment struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Reaction is one user's emoji reaction to a message.
type Reaction struct {
	UserID string `json:"user_id"`
	Emoji  string `json:"emoji"`
}

// ChatMessage is a message in flight through the router. Once persisted it
// is owned by the message store; the core only holds it transiently.
type ChatMessage struct {
	ID          string      `json:"id"`
	SenderID    string      `json:"sender_id"`
	SenderName  string      `json:"sender_name"`
	RecipientID string      `json:"recipient_id,omitempty"`
	Room        string      `json:"room"`
	Body        string      `json:"body"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	IsPrivate   bool        `json:"is_private"`
	Reactions   []Reaction  `json:"reactions"`
	CreatedAt   time.Time   `json:"created_at"`
}

// SetReaction records a user's reaction, replacing any earlier reaction
// from the same user. A message never holds two reactions from one user.
func (m *ChatMessage) SetReaction(userID, emoji string) {
	for i := range m.Reactions {
		if m.Reactions[i].UserID == userID {
			m.Reactions[i].Emoji = emoji
			return
		}
	}
	m.Reactions = append(m.Reactions, Reaction{UserID: userID, Emoji: emoji})
}
