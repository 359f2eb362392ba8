package api

import "github.com/example/collab-board/domain/board"

// RoomResponse is the API response for a room.
type RoomResponse struct {
	ID           string `json:"id"`
	HostName     string `json:"host_name"`
	Participants int    `json:"participants"`
	Connected    int    `json:"connected"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}

// HistoryResponse is the API response for a room's chat history.
type HistoryResponse struct {
	RoomID   string              `json:"room_id"`
	Messages []board.ChatMessage `json:"messages"`
}

// BoardResponse is the API response for a room's whiteboard state.
type BoardResponse struct {
	RoomID   string          `json:"room_id"`
	Elements []board.Element `json:"elements"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
