package hub

import (
	"encoding/json"
	"sync"

	"github.com/rahul-charaki/chat-app-be/internal/presence"
	"github.com/rahul-charaki/chat-app-be/pkg/log"
)

// Hub is the room/conversation router: it maps room keys to the set of
// subscribed connections and fans events out to exactly that set. Direct
// per-user delivery resolves handles through the presence directory, so a
// recipient need not have joined anything to receive a private message.
//
// A single mutex guards the subscription maps; it is held only around the
// in-memory mutation or snapshot, never across a send.
type Hub struct {
	directory *presence.Directory

	mu      sync.Mutex
	clients map[string]*Client            // connID -> client
	rooms   map[string]map[string]*Client // roomKey -> connID -> client
}

// NewHub creates a router backed by the given presence directory.
func NewHub(directory *presence.Directory) *Hub {
	return &Hub{
		directory: directory,
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[string]*Client),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	log.L().Debug().Str(log.FieldConnID, c.ID).Msg("client registered")
}

// Unregister removes a connection from the hub and, defensively, from
// every room it might still be subscribed to, then closes its outbox.
// Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		for key, members := range h.rooms {
			delete(members, c.ID)
			if len(members) == 0 {
				delete(h.rooms, key)
			}
		}
		delete(h.clients, c.ID)
	}
	h.mu.Unlock()

	c.shutdown()
	log.L().Debug().Str(log.FieldConnID, c.ID).Msg("client unregistered")
}

// Subscribe adds the connection to a room's delivery set.
func (h *Hub) Subscribe(roomKey string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomKey]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomKey] = members
	}
	members[c.ID] = c
}

// Unsubscribe removes the connection from a room's delivery set, pruning
// the room once empty.
func (h *Hub) Unsubscribe(roomKey string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[roomKey]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, roomKey)
		}
	}
}

// Publish delivers event to every connection subscribed to roomKey,
// excluding excludeID when non-empty, and returns how many were reached.
// Zero subscribers is not an error. Handles that are closing are skipped.
func (h *Hub) Publish(roomKey string, event interface{}, excludeID string) int {
	data, err := json.Marshal(event)
	if err != nil {
		log.L().Error().Err(err).Str(log.FieldRoom, roomKey).Msg("failed to marshal event")
		return 0
	}

	h.mu.Lock()
	members := make([]*Client, 0, len(h.rooms[roomKey]))
	for id, c := range h.rooms[roomKey] {
		if id == excludeID {
			continue
		}
		members = append(members, c)
	}
	h.mu.Unlock()

	reached := 0
	for _, c := range members {
		if err := c.enqueue(data); err != nil {
			log.L().Debug().Str(log.FieldConnID, c.ID).Str(log.FieldRoom, roomKey).Msg("skipping stale handle")
			go h.Unregister(c)
			continue
		}
		reached++
	}
	return reached
}

// PublishToUser delivers event directly to every live handle of a user,
// bypassing room subscriptions. Returns how many handles were reached;
// an offline user yields zero, which is not an error.
func (h *Hub) PublishToUser(userID string, event interface{}) int {
	reached := 0
	for _, handle := range h.directory.HandlesFor(userID) {
		if err := handle.Send(event); err != nil {
			log.L().Debug().Str(log.FieldUserID, userID).Msg("skipping stale handle")
			continue
		}
		reached++
	}
	return reached
}

// Broadcast delivers event to every registered connection, excluding
// excludeID when non-empty. Used for presence announcements.
func (h *Hub) Broadcast(event interface{}, excludeID string) int {
	data, err := json.Marshal(event)
	if err != nil {
		log.L().Error().Err(err).Msg("failed to marshal broadcast")
		return 0
	}

	h.mu.Lock()
	targets := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		if id == excludeID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.Unlock()

	reached := 0
	for _, c := range targets {
		if err := c.enqueue(data); err != nil {
			continue
		}
		reached++
	}
	return reached
}

// RoomSize returns the current number of subscribers for a room key.
func (h *Hub) RoomSize(roomKey string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomKey])
}
