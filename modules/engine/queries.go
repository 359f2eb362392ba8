package engine

import (
	"context"

	"github.com/samber/lo"

	"github.com/example/collab-board/domain/board"
)

// do runs fn on the loop goroutine and waits for it, so reads observe a
// consistent state without locks.
func (e *Engine) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case e.queries <- func() {
		fn()
		close(done)
	}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rooms returns the registered rooms with their live participant counts.
func (e *Engine) Rooms(ctx context.Context) ([]RoomInfo, error) {
	var out []RoomInfo
	err := e.do(ctx, func() {
		out = lo.Map(e.rooms.ids(), func(id string, _ int) RoomInfo {
			return RoomInfo{
				Room:         board.Room{ID: id, HostName: e.rooms.host(id)},
				Participants: len(e.roster.participants(id)),
			}
		})
	})
	return out, err
}

// History returns the chat log of a room.
func (e *Engine) History(ctx context.Context, roomID string) ([]board.ChatMessage, error) {
	var out []board.ChatMessage
	var lookupErr error
	err := e.do(ctx, func() {
		if !e.rooms.exists(roomID) {
			lookupErr = board.ErrRoomNotFound
			return
		}
		out = e.chat.history(roomID)
	})
	if err != nil {
		return nil, err
	}
	return out, lookupErr
}

// BoardState returns the current canvas of a room.
func (e *Engine) BoardState(ctx context.Context, roomID string) ([]board.Element, error) {
	var out []board.Element
	var lookupErr error
	err := e.do(ctx, func() {
		if !e.rooms.exists(roomID) {
			lookupErr = board.ErrRoomNotFound
			return
		}
		out = e.boards.state(roomID)
	})
	if err != nil {
		return nil, err
	}
	return out, lookupErr
}
