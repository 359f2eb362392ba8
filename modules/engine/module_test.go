package engine

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/example/collab-board/domain/board"
)

func newTestModule(t *testing.T) *Module {
	t.Helper()
	m := NewModule(slog.New(slog.DiscardHandler), time.Minute)
	m.engine = New(m.logger, &fakeDispatch{}, &fakeSink{}, NopLifecycle{}, m.approvalTimeout)
	return m
}

func TestModule_ServiceHandlers(t *testing.T) {
	m := newTestModule(t)

	hostJoin(t, m.engine, "h1", "room-1", "alice")
	deliver(t, m.engine, "h1", EvtChatMessage, map[string]any{
		"roomId": "room-1", "message": map[string]any{"text": "hi"},
	})
	deliver(t, m.engine, "h1", EvtElementUpdate, map[string]any{"id": "el-1", "kind": "rect"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.engine.Run(ctx)

	rooms, err := m.listRooms(ctx, ListRoomsRequest{}, nil)
	if err != nil {
		t.Fatalf("listRooms() error: %v", err)
	}
	if len(rooms.Rooms) != 1 {
		t.Fatalf("room count = %d, want 1", len(rooms.Rooms))
	}
	if r := rooms.Rooms[0]; r.ID != "room-1" || r.HostName != "alice" || r.Participants != 1 {
		t.Errorf("unexpected room row: %+v", r)
	}

	history, err := m.getHistory(ctx, GetHistoryRequest{RoomID: "room-1"}, nil)
	if err != nil {
		t.Fatalf("getHistory() error: %v", err)
	}
	if len(history.Messages) != 2 {
		t.Errorf("history size = %d, want 2", len(history.Messages))
	}

	state, err := m.getBoardState(ctx, GetBoardStateRequest{RoomID: "room-1"}, nil)
	if err != nil {
		t.Fatalf("getBoardState() error: %v", err)
	}
	if len(state.Elements) != 1 {
		t.Errorf("board size = %d, want 1", len(state.Elements))
	}

	if _, err := m.getHistory(ctx, GetHistoryRequest{RoomID: "missing"}, nil); err != board.ErrRoomNotFound {
		t.Errorf("getHistory(missing) error = %v, want ErrRoomNotFound", err)
	}
}
