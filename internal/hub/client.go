package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rahul-charaki/chat-app-be/internal/config"
	"github.com/rahul-charaki/chat-app-be/internal/domain"
	"github.com/rahul-charaki/chat-app-be/pkg/log"
)

// ErrClientGone is returned when a send races with the client closing or
// its buffer overflowing. Publishers treat it as "not reached", never as
// a failure.
var ErrClientGone = errors.New("client is gone")

// Client is one live websocket connection and its session state.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Session *domain.Session

	send   chan []byte
	cfg    config.WebSocketConfig
	mu     sync.Mutex
	closed bool
}

// NewClient wraps a websocket connection. conn may be nil in tests; the
// pumps are only started for real connections.
func NewClient(id string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:      id,
		Hub:     hub,
		Conn:    conn,
		Session: domain.NewSession(id),
		send:    make(chan []byte, 256),
		cfg:     cfg,
	}
}

// Key implements presence.Handle.
func (c *Client) Key() string { return c.ID }

// Send implements presence.Handle: marshal v and enqueue it for the write
// pump. A closed client or full buffer yields ErrClientGone.
func (c *Client) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientGone
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientGone
	}
}

// shutdown closes the send channel exactly once. Safe against concurrent
// enqueue calls because both hold the client mutex.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads inbound frames and hands them to onMessage. When the
// connection drops, onClose runs once before the pump exits.
func (c *Client) ReadPump(onMessage func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		onClose(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.L().Debug().Err(err).Str(log.FieldConnID, c.ID).Msg("websocket read failed")
			}
			break
		}

		onMessage(c, message)
	}
}

// WritePump drains the send channel onto the wire and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Outbox exposes the send channel for tests that read delivered frames
// without a live websocket.
func (c *Client) Outbox() <-chan []byte { return c.send }
