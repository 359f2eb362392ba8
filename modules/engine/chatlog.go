package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/collab-board/domain/board"
)

// System message kinds.
const (
	sysCreated      = "created"
	sysJoined       = "joined"
	sysLeft         = "left"
	sysDisconnected = "disconnected"
)

// chatLog keeps the append-only per-room message history, including
// synthesized system messages.
type chatLog struct {
	logs map[string][]board.ChatMessage
}

func newChatLog() *chatLog {
	return &chatLog{logs: make(map[string][]board.ChatMessage)}
}

func (c *chatLog) append(roomID string, msg board.ChatMessage) {
	c.logs[roomID] = append(c.logs[roomID], msg)
}

// appendSystem synthesizes a system message. A "joined" message is
// suppressed when the most recent log entry is already a join-denoting
// system message from the same user; only the single most recent entry is
// inspected, which keeps rapid refresh cycles quiet without scanning the
// whole log.
func (c *chatLog) appendSystem(roomID, kind, author, text string, at time.Time) (board.ChatMessage, bool) {
	if kind == sysJoined {
		if entries := c.logs[roomID]; len(entries) > 0 {
			last := entries[len(entries)-1]
			if last.System && last.Author == author && denotesJoin(last.Text) {
				return board.ChatMessage{}, false
			}
		}
	}
	msg := board.ChatMessage{
		ID:        fmt.Sprintf("system-%s-%d", kind, at.UnixMilli()),
		Author:    author,
		Text:      text,
		Timestamp: at.UnixMilli(),
		System:    true,
	}
	c.append(roomID, msg)
	return msg, true
}

func denotesJoin(text string) bool {
	return strings.HasSuffix(text, "joined the room") ||
		strings.HasSuffix(text, "created the room")
}

func (c *chatLog) history(roomID string) []board.ChatMessage {
	entries := c.logs[roomID]
	out := make([]board.ChatMessage, len(entries))
	copy(out, entries)
	return out
}

// drop discards a room's history as part of whole-room teardown.
func (c *chatLog) drop(roomID string) {
	delete(c.logs, roomID)
}

func (c *chatLog) snapshot() map[string][]board.ChatMessage {
	out := make(map[string][]board.ChatMessage, len(c.logs))
	for roomID := range c.logs {
		out[roomID] = c.history(roomID)
	}
	return out
}

func (c *chatLog) restore(logs map[string][]board.ChatMessage) {
	c.logs = make(map[string][]board.ChatMessage, len(logs))
	for roomID, entries := range logs {
		c.logs[roomID] = append([]board.ChatMessage(nil), entries...)
	}
}
