package engine

import (
	"testing"
	"time"

	"github.com/example/collab-board/domain/board"
)

func TestChatLog_AppendSystemDedup(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	tests := []struct {
		name     string
		seed     []board.ChatMessage
		author   string
		appended bool
	}{
		{
			name:     "empty log appends",
			author:   "alice",
			appended: true,
		},
		{
			name: "repeat join after own join suppressed",
			seed: []board.ChatMessage{
				{ID: "m1", Author: "alice", Text: "alice joined the room", System: true},
			},
			author:   "alice",
			appended: false,
		},
		{
			name: "repeat join after own creation suppressed",
			seed: []board.ChatMessage{
				{ID: "m1", Author: "alice", Text: "alice created the room", System: true},
			},
			author:   "alice",
			appended: false,
		},
		{
			name: "join after another author appends",
			seed: []board.ChatMessage{
				{ID: "m1", Author: "bob", Text: "bob joined the room", System: true},
			},
			author:   "alice",
			appended: true,
		},
		{
			name: "join after regular chat appends",
			seed: []board.ChatMessage{
				{ID: "m1", Author: "alice", Text: "hello"},
			},
			author:   "alice",
			appended: true,
		},
		{
			name: "only the most recent entry is inspected",
			seed: []board.ChatMessage{
				{ID: "m1", Author: "alice", Text: "alice joined the room", System: true},
				{ID: "m2", Author: "bob", Text: "hi"},
			},
			author:   "alice",
			appended: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChatLog()
			for _, msg := range tt.seed {
				c.append("room-1", msg)
			}

			msg, appended := c.appendSystem("room-1", sysJoined, tt.author,
				tt.author+" joined the room", at)

			if appended != tt.appended {
				t.Fatalf("appended = %v, want %v", appended, tt.appended)
			}
			if !appended {
				return
			}
			if !msg.System {
				t.Error("synthesized message should be marked system")
			}
			if msg.Timestamp != at.UnixMilli() {
				t.Errorf("timestamp = %d, want %d", msg.Timestamp, at.UnixMilli())
			}
			history := c.history("room-1")
			if history[len(history)-1].ID != msg.ID {
				t.Error("appended message should be the newest entry")
			}
		})
	}
}

func TestChatLog_LeaveNeverDeduped(t *testing.T) {
	c := newChatLog()
	at := time.Now()

	if _, ok := c.appendSystem("room-1", sysLeft, "bob", "bob left the room", at); !ok {
		t.Fatal("first leave should append")
	}
	if _, ok := c.appendSystem("room-1", sysLeft, "bob", "bob left the room", at); !ok {
		t.Fatal("repeated leave should still append; only joins are deduped")
	}
	if got := len(c.history("room-1")); got != 2 {
		t.Errorf("history size = %d, want 2", got)
	}
}

func TestChatLog_HistoryIsACopy(t *testing.T) {
	c := newChatLog()
	c.append("room-1", board.ChatMessage{ID: "m1", Text: "hello"})

	history := c.history("room-1")
	history[0].Text = "mutated"

	if got := c.history("room-1")[0].Text; got != "hello" {
		t.Errorf("internal log mutated through a returned copy: %q", got)
	}
}

func TestChatLog_Drop(t *testing.T) {
	c := newChatLog()
	c.append("room-1", board.ChatMessage{ID: "m1"})
	c.append("room-2", board.ChatMessage{ID: "m2"})

	c.drop("room-1")

	if got := len(c.history("room-1")); got != 0 {
		t.Errorf("dropped room should have no history, got %d", got)
	}
	if got := len(c.history("room-2")); got != 1 {
		t.Errorf("other rooms must be unaffected, got %d", got)
	}
}
