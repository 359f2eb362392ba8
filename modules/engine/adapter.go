package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/collab-board/domain/board"
)

// Service names registered by the engine module.
const (
	ServiceListRooms     = "list-rooms"
	ServiceGetHistory    = "get-history"
	ServiceGetBoardState = "get-board-state"
)

// ListRoomsRequest is the request for listing rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response for listing rooms.
type ListRoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

// GetHistoryRequest is the request for a room's chat history.
type GetHistoryRequest struct {
	RoomID string `json:"room_id"`
}

// GetHistoryResponse is the response for a room's chat history.
type GetHistoryResponse struct {
	RoomID   string              `json:"room_id"`
	Messages []board.ChatMessage `json:"messages"`
}

// GetBoardStateRequest is the request for a room's canvas.
type GetBoardStateRequest struct {
	RoomID string `json:"room_id"`
}

// GetBoardStateResponse is the response for a room's canvas.
type GetBoardStateResponse struct {
	RoomID   string          `json:"room_id"`
	Elements []board.Element `json:"elements"`
}

// Port defines the read interface other modules use.
type Port interface {
	ListRooms(ctx context.Context) ([]RoomInfo, error)
	GetHistory(ctx context.Context, roomID string) ([]board.ChatMessage, error)
	GetBoardState(ctx context.Context, roomID string) ([]board.Element, error)
}

// Adapter implements Port through the service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates an Adapter.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("engine: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// ListRooms returns the registered rooms.
func (a *Adapter) ListRooms(ctx context.Context) ([]RoomInfo, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// GetHistory returns a room's chat log.
func (a *Adapter) GetHistory(ctx context.Context, roomID string) ([]board.ChatMessage, error) {
	req := GetHistoryRequest{RoomID: roomID}
	var resp GetHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return resp.Messages, nil
}

// GetBoardState returns a room's canvas.
func (a *Adapter) GetBoardState(ctx context.Context, roomID string) ([]board.Element, error) {
	req := GetBoardStateRequest{RoomID: roomID}
	var resp GetBoardStateResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetBoardState,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get board state: %w", err)
	}
	return resp.Elements, nil
}
