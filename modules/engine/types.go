package engine

import (
	"encoding/json"

	"github.com/example/collab-board/domain/board"
)

// Client -> server event names (the wire contract).
const (
	EvtJoinRequest     = "join-request"
	EvtHostResponse    = "host-response"
	EvtJoinRoom        = "join-room"
	EvtLeaveRoom       = "leave-room"
	EvtElementUpdate   = "element-update"
	EvtChatMessage     = "chat-message"
	EvtClearWhiteboard = "clear-whiteboard"
	EvtColorChange     = "color-change"
	EvtBrushSizeChange = "brush-size-change"
	EvtCursorActivity  = "user-cursor-activity"
)

// Server -> client event names.
const (
	EvtRoomError       = "room-error"
	EvtWaiting         = "waiting-for-approval"
	EvtApproveUser     = "approve-user-request"
	EvtJoinResponse    = "join-response"
	EvtRoomUsers       = "room-users"
	EvtChatMessages    = "chat-messages"
	EvtWhiteboardState = "whiteboard-state"
	EvtClearSuccess    = "clear-whiteboard-success"
	EvtClearError      = "clear-whiteboard-error"
	EvtUserLeftAlert   = "user-left-alert"
)

// Loop-internal event names. Submit rejects them so a client cannot forge
// a disconnect or an approval expiry.
const (
	evtDisconnect      = "__disconnect"
	evtApprovalExpired = "__approval-expired"
)

// inbound is one unit of work for the engine loop.
type inbound struct {
	connID   string
	event    string
	payload  json.RawMessage
	internal bool
}

// Dispatcher fans events out to connected clients. The engine never holds a
// transport handle; room membership for fanout purposes is mirrored to the
// dispatcher via Assign so sends and membership changes stay ordered on one
// queue.
type Dispatcher interface {
	Assign(connID, roomID string)
	ToConn(connID, event string, payload any)
	ToRoom(roomID, event string, payload any)
	ToRoomExcept(roomID, exceptConnID, event string, payload any)
}

// SnapshotSink receives the full persisted state after a mutation. Offer
// must never block the caller; the store coalesces bursts and writes behind.
type SnapshotSink interface {
	Offer(snap board.Snapshot)
}

// LifecycleSink receives room lifecycle notifications. Wire correctness
// never depends on it; implementations publish to the application event bus
// for observability and lobby refreshes.
type LifecycleSink interface {
	RoomCreated(roomID, hostName string)
	RoomDestroyed(roomID, hostName string)
	UserJoined(roomID, username string, isHost bool)
	UserLeft(roomID, username string, explicit bool)
	BoardCleared(roomID, clearedBy string)
}

// NopLifecycle discards lifecycle notifications.
type NopLifecycle struct{}

func (NopLifecycle) RoomCreated(string, string) {}

func (NopLifecycle) RoomDestroyed(string, string) {}

func (NopLifecycle) UserJoined(string, string, bool) {}

func (NopLifecycle) UserLeft(string, string, bool) {}

func (NopLifecycle) BoardCleared(string, string) {}

// Payload shapes for client -> server events. Extra caller fields are
// ignored by json.Unmarshal, per the wire contract.

type joinRequestPayload struct {
	UserName string `json:"userName"`
	RoomID   string `json:"roomId"`
}

type hostResponsePayload struct {
	UserID   string `json:"userId"`
	Approved bool   `json:"approved"`
}

type joinRoomPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
	IsHost   bool   `json:"isHost"`
}

type chatMessagePayload struct {
	RoomID  string            `json:"roomId"`
	Message board.ChatMessage `json:"message"`
}

// Server -> client payload shapes.

type joinResponsePayload struct {
	Approved bool `json:"approved"`
}

type approveUserPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	RoomID   string `json:"roomId"`
}

// RoomInfo is the read-model row returned to the REST surface: the room
// itself plus its live participant count.
type RoomInfo struct {
	board.Room
	Participants int `json:"participants"`
}
