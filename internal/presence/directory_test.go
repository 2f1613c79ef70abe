package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	key  string
	sent []interface{}
}

func (h *fakeHandle) Key() string { return h.key }

func (h *fakeHandle) Send(v interface{}) error {
	h.sent = append(h.sent, v)
	return nil
}

func TestMarkOnlineFirstHandle(t *testing.T) {
	d := NewDirectory()
	h := &fakeHandle{key: "conn-1"}

	wentOnline := d.MarkOnline("alice", h)

	assert.True(t, wentOnline)
	assert.True(t, d.IsOnline("alice"))
}

func TestMarkOnlineSecondHandleNoTransition(t *testing.T) {
	d := NewDirectory()
	d.MarkOnline("alice", &fakeHandle{key: "conn-1"})

	wentOnline := d.MarkOnline("alice", &fakeHandle{key: "conn-2"})

	assert.False(t, wentOnline, "second tab must not re-announce the user")
	assert.True(t, d.IsOnline("alice"))
	assert.Len(t, d.HandlesFor("alice"), 2)
}

func TestMarkOnlineIdempotent(t *testing.T) {
	d := NewDirectory()
	h := &fakeHandle{key: "conn-1"}

	d.MarkOnline("alice", h)
	wentOnline := d.MarkOnline("alice", h)

	assert.False(t, wentOnline)
	assert.Len(t, d.HandlesFor("alice"), 1)
}

func TestMarkOfflineLastHandle(t *testing.T) {
	d := NewDirectory()
	h := &fakeHandle{key: "conn-1"}
	d.MarkOnline("alice", h)

	before := time.Now()
	wentOffline, lastSeen := d.MarkOffline("alice", h)

	assert.True(t, wentOffline)
	assert.False(t, d.IsOnline("alice"))
	assert.False(t, lastSeen.Before(before))
}

func TestMarkOfflineWithRemainingHandles(t *testing.T) {
	d := NewDirectory()
	h1 := &fakeHandle{key: "conn-1"}
	h2 := &fakeHandle{key: "conn-2"}
	d.MarkOnline("alice", h1)
	d.MarkOnline("alice", h2)

	wentOffline, _ := d.MarkOffline("alice", h1)

	assert.False(t, wentOffline, "user with a live tab left must stay online")
	assert.True(t, d.IsOnline("alice"))

	wentOffline, _ = d.MarkOffline("alice", h2)
	assert.True(t, wentOffline)
}

func TestMarkOfflineUnknownHandle(t *testing.T) {
	d := NewDirectory()
	d.MarkOnline("alice", &fakeHandle{key: "conn-1"})

	wentOffline, _ := d.MarkOffline("alice", &fakeHandle{key: "conn-2"})
	assert.False(t, wentOffline)
	assert.True(t, d.IsOnline("alice"))

	wentOffline, _ = d.MarkOffline("bob", &fakeHandle{key: "conn-3"})
	assert.False(t, wentOffline)
}

func TestHandlesForReturnsCopy(t *testing.T) {
	d := NewDirectory()
	h := &fakeHandle{key: "conn-1"}
	d.MarkOnline("alice", h)

	handles := d.HandlesFor("alice")
	require.Len(t, handles, 1)

	d.MarkOffline("alice", h)
	assert.Len(t, handles, 1, "snapshot must not shrink under the caller")
	assert.Empty(t, d.HandlesFor("alice"))
}

func TestLastSeen(t *testing.T) {
	d := NewDirectory()
	h := &fakeHandle{key: "conn-1"}

	_, ok := d.LastSeen("alice")
	assert.False(t, ok)

	d.MarkOnline("alice", h)
	_, wantLastSeen := d.MarkOffline("alice", h)

	got, ok := d.LastSeen("alice")
	require.True(t, ok)
	assert.Equal(t, wantLastSeen, got)
}

func TestSnapshotUnknownUser(t *testing.T) {
	d := NewDirectory()

	_, ok := d.Snapshot("nobody")
	assert.False(t, ok)
}

func TestSnapshotKeepsLastSeenAfterOffline(t *testing.T) {
	d := NewDirectory()
	h := &fakeHandle{key: "conn-1"}
	d.MarkOnline("alice", h)
	_, lastSeen := d.MarkOffline("alice", h)

	entry, ok := d.Snapshot("alice")
	require.True(t, ok)
	assert.False(t, entry.Online)
	assert.Equal(t, lastSeen, entry.LastSeen)
}
