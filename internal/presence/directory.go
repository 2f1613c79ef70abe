package presence

import (
	"sync"
	"time"
)

// Handle is one live connection belonging to a user. The directory holds
// handles by reference only; the transport layer owns them.
type Handle interface {
	Key() string
	Send(v interface{}) error
}

// Entry is a read-only snapshot of a user's presence.
type Entry struct {
	UserID   string    `json:"user_id"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}

type userEntry struct {
	handles  map[string]Handle
	lastSeen time.Time
}

// Directory is the process-wide map from user identity to live connection
// handles. A user is online iff their handle set is non-empty; a user with
// several tabs or devices stays online until the last one goes. One mutex
// covers every read-modify-write so the 0->1 and 1->0 transitions are
// detected exactly once.
type Directory struct {
	mu      sync.Mutex
	entries map[string]*userEntry
}

// NewDirectory creates an empty presence directory.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]*userEntry)}
}

// MarkOnline adds h to the user's handle set and reports whether this was
// the 0->1 transition. Adding an already-present handle is idempotent.
func (d *Directory) MarkOnline(userID string, h Handle) (wentOnline bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[userID]
	if !ok {
		e = &userEntry{handles: make(map[string]Handle)}
		d.entries[userID] = e
	}

	wasEmpty := len(e.handles) == 0
	e.handles[h.Key()] = h
	return wasEmpty
}

// MarkOffline removes h from the user's handle set. When the set becomes
// empty it stamps last-seen and reports the 1->0 transition. Removing an
// unknown handle is a no-op.
func (d *Directory) MarkOffline(userID string, h Handle) (wentOffline bool, lastSeen time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[userID]
	if !ok {
		return false, time.Time{}
	}

	if _, present := e.handles[h.Key()]; !present {
		return false, e.lastSeen
	}

	delete(e.handles, h.Key())
	if len(e.handles) == 0 {
		e.lastSeen = time.Now()
		return true, e.lastSeen
	}
	return false, e.lastSeen
}

// IsOnline reports whether the user has at least one live handle.
func (d *Directory) IsOnline(userID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[userID]
	return ok && len(e.handles) > 0
}

// HandlesFor returns a copy of the user's current handle set. The copy is
// safe to iterate while other connections mutate the directory.
func (d *Directory) HandlesFor(userID string) []Handle {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[userID]
	if !ok {
		return nil
	}

	handles := make([]Handle, 0, len(e.handles))
	for _, h := range e.handles {
		handles = append(handles, h)
	}
	return handles
}

// LastSeen returns when the user last went offline. The second return is
// false for users the directory has never seen.
func (d *Directory) LastSeen(userID string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[userID]
	if !ok {
		return time.Time{}, false
	}
	return e.lastSeen, true
}

// Snapshot returns the user's presence entry. Entries persist after the
// user goes offline as last-known state.
func (d *Directory) Snapshot(userID string) (Entry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[userID]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		UserID:   userID,
		Online:   len(e.handles) > 0,
		LastSeen: e.lastSeen,
	}, true
}
