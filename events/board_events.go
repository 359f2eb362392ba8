package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomCreatedEvent is emitted when a host registers a new room.
type RoomCreatedEvent struct {
	RoomID    string    `json:"room_id"`
	HostName  string    `json:"host_name"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomDestroyedEvent is emitted when a host explicitly leaves and the room
// is torn down.
type RoomDestroyedEvent struct {
	RoomID    string    `json:"room_id"`
	HostName  string    `json:"host_name"`
	Timestamp time.Time `json:"timestamp"`
}

// UserJoinedEvent is emitted when a participant enters a room.
type UserJoinedEvent struct {
	RoomID    string    `json:"room_id"`
	Username  string    `json:"username"`
	IsHost    bool      `json:"is_host"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when a participant leaves or disconnects.
type UserLeftEvent struct {
	RoomID    string    `json:"room_id"`
	Username  string    `json:"username"`
	Explicit  bool      `json:"explicit"`
	Timestamp time.Time `json:"timestamp"`
}

// BoardClearedEvent is emitted when the host wipes the shared canvas.
type BoardClearedEvent struct {
	RoomID    string    `json:"room_id"`
	ClearedBy string    `json:"cleared_by"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the engine domain.
var (
	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"engine",
		"RoomCreated",
		"v1",
	)

	RoomDestroyedV1 = helper.EventDefinition[RoomDestroyedEvent](
		"engine",
		"RoomDestroyed",
		"v1",
	)

	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"engine",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"engine",
		"UserLeft",
		"v1",
	)

	BoardClearedV1 = helper.EventDefinition[BoardClearedEvent](
		"engine",
		"BoardCleared",
		"v1",
	)
)
