package broadcast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	writes chan []byte
	closed chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		writes: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.writes <- data
	return nil
}

func (c *fakeConn) Close() error {
	close(c.closed)
	return nil
}

func recv(t *testing.T, c *fakeConn) Envelope {
	t.Helper()
	select {
	case data := <-c.writes:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return Envelope{}
	}
}

func assertSilent(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case data := <-c.writes:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		h.Wait()
	})
	return h
}

func connect(h *Hub, id string) (*Client, *fakeConn) {
	conn := newFakeConn()
	client := &Client{ID: id, Conn: conn}
	h.Register(client)
	return client, conn
}

func TestHub_RoomFanout(t *testing.T) {
	h := startHub(t)

	_, alice := connect(h, "a1")
	_, bob := connect(h, "b1")
	_, carol := connect(h, "c1")

	h.Assign("a1", "room-1")
	h.Assign("b1", "room-1")

	h.ToRoom("room-1", "chat-message", map[string]string{"text": "hi"})

	for _, conn := range []*fakeConn{alice, bob} {
		env := recv(t, conn)
		require.Equal(t, "chat-message", env.Event)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		require.Equal(t, "hi", payload["text"])
	}
	assertSilent(t, carol)
}

func TestHub_ToRoomExceptSkipsSender(t *testing.T) {
	h := startHub(t)

	_, alice := connect(h, "a1")
	_, bob := connect(h, "b1")
	h.Assign("a1", "room-1")
	h.Assign("b1", "room-1")

	h.ToRoomExcept("room-1", "a1", "element-update", map[string]string{"id": "el-1"})

	env := recv(t, bob)
	require.Equal(t, "element-update", env.Event)
	assertSilent(t, alice)
}

func TestHub_ToConn(t *testing.T) {
	h := startHub(t)

	_, alice := connect(h, "a1")
	_, bob := connect(h, "b1")

	h.ToConn("a1", "room-error", "no such room")

	env := recv(t, alice)
	require.Equal(t, "room-error", env.Event)
	var msg string
	require.NoError(t, json.Unmarshal(env.Payload, &msg))
	require.Equal(t, "no such room", msg)
	assertSilent(t, bob)

	// Unknown targets are dropped without a panic.
	h.ToConn("zz", "room-error", "nobody home")
}

func TestHub_LobbyExcludesRoomMembers(t *testing.T) {
	h := startHub(t)

	_, alice := connect(h, "a1")
	_, bob := connect(h, "b1")
	h.Assign("a1", "room-1")

	h.ToLobby("room-list", map[string]string{"action": "created"})

	env := recv(t, bob)
	require.Equal(t, "room-list", env.Event)
	assertSilent(t, alice)

	// Back in the lobby, alice hears the next announcement.
	h.Assign("a1", "")
	h.ToLobby("room-list", map[string]string{"action": "destroyed"})
	env = recv(t, alice)
	require.Equal(t, "room-list", env.Event)
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	h := startHub(t)

	client, alice := connect(h, "a1")
	h.Assign("a1", "room-1")
	h.ToRoom("room-1", "chat-message", "ping")
	recv(t, alice)

	h.Unregister(client)
	h.ToRoom("room-1", "chat-message", "pong")
	assertSilent(t, alice)
	require.Equal(t, 0, h.RoomClientCount("room-1"))
	require.Equal(t, 0, h.ClientCount())
}
