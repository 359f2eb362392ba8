package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/collab-board/domain/board"
)

// inboundBuffer bounds the event queue. Submitters block when it is full,
// which preserves per-connection ordering under backpressure.
const inboundBuffer = 256

// Engine is the room coordination engine. All mutable room state is owned
// by the single goroutine running the loop; events are handled one at a
// time, run to completion, so the state needs no locking. External
// components only ever receive copies of it.
type Engine struct {
	log             *slog.Logger
	dispatch        Dispatcher
	sink            SnapshotSink
	lifecycle       LifecycleSink
	approvalTimeout time.Duration

	rooms     *registry
	roster    *roster
	boards    *boards
	chat      *chatLog
	approvals *approvals

	inbound chan inbound
	queries chan func()
	done    chan struct{}
	now     func() time.Time
}

// New wires an engine. dispatch and sink must not be nil; lifecycle may be
// NopLifecycle.
func New(log *slog.Logger, dispatch Dispatcher, sink SnapshotSink, lifecycle LifecycleSink, approvalTimeout time.Duration) *Engine {
	return &Engine{
		log:             log,
		dispatch:        dispatch,
		sink:            sink,
		lifecycle:       lifecycle,
		approvalTimeout: approvalTimeout,
		rooms:           newRegistry(),
		roster:          newRoster(),
		boards:          newBoards(),
		chat:            newChatLog(),
		approvals:       newApprovals(),
		inbound:         make(chan inbound, inboundBuffer),
		queries:         make(chan func()),
		done:            make(chan struct{}),
		now:             time.Now,
	}
}

// Restore loads a persisted snapshot. Call before Run.
func (e *Engine) Restore(snap board.Snapshot) {
	e.rooms.restore(snap.ValidRooms, snap.RoomHosts)
	e.chat.restore(snap.ChatMessages)
	e.boards.restore(snap.WhiteboardStates)
}

// Run processes events until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.inbound:
			e.handle(ev)
		case fn := <-e.queries:
			fn()
		}
	}
}

// Wait blocks until the loop has stopped.
func (e *Engine) Wait() {
	<-e.done
}

// Submit enqueues a client event. Reserved loop-internal names cannot be
// forged off the wire.
func (e *Engine) Submit(connID, event string, payload json.RawMessage) {
	if event == evtDisconnect || event == evtApprovalExpired {
		e.log.Debug("rejected reserved event", "event", event, "conn", connID)
		return
	}
	e.inbound <- inbound{connID: connID, event: event, payload: payload}
}

// Disconnect reports an involuntary connection loss.
func (e *Engine) Disconnect(connID string) {
	e.inbound <- inbound{connID: connID, event: evtDisconnect, internal: true}
}

func (e *Engine) submitInternal(connID, event string) {
	select {
	case e.inbound <- inbound{connID: connID, event: event, internal: true}:
	default:
		e.log.Warn("internal event dropped, queue full", "event", event, "conn", connID)
	}
}

func (e *Engine) handle(ev inbound) {
	switch ev.event {
	case EvtJoinRequest:
		e.handleJoinRequest(ev)
	case EvtHostResponse:
		e.handleHostResponse(ev)
	case EvtJoinRoom:
		e.handleJoinRoom(ev)
	case EvtLeaveRoom:
		e.handleLeaveRoom(ev)
	case EvtElementUpdate:
		e.handleElementUpdate(ev)
	case EvtChatMessage:
		e.handleChatMessage(ev)
	case EvtClearWhiteboard:
		e.handleClearWhiteboard(ev)
	case EvtColorChange, EvtBrushSizeChange, EvtCursorActivity:
		e.relay(ev)
	case evtDisconnect:
		if ev.internal {
			e.handleDisconnect(ev)
		}
	case evtApprovalExpired:
		if ev.internal {
			e.expireApproval(ev.connID)
		}
	default:
		e.log.Debug("ignoring unknown event", "event", ev.event, "conn", ev.connID)
	}
}

func (e *Engine) handleJoinRequest(ev inbound) {
	var p joinRequestPayload
	if err := json.Unmarshal(ev.payload, &p); err != nil || p.RoomID == "" || p.UserName == "" {
		e.log.Debug("malformed join request dropped", "conn", ev.connID)
		return
	}
	if !e.rooms.exists(p.RoomID) {
		e.dispatch.ToConn(ev.connID, EvtRoomError, fmt.Sprintf("room %q does not exist", p.RoomID))
		return
	}
	hostConn, ok := e.roster.findHostConn(p.RoomID, e.rooms.host(p.RoomID))
	if !ok {
		e.dispatch.ToConn(ev.connID, EvtRoomError, board.ErrHostUnavailable.Error())
		return
	}

	connID := ev.connID
	timer := time.AfterFunc(e.approvalTimeout, func() {
		e.submitInternal(connID, evtApprovalExpired)
	})
	e.approvals.add(connID, p.UserName, p.RoomID, timer)

	e.dispatch.ToConn(hostConn, EvtApproveUser, approveUserPayload{
		UserID:   connID,
		UserName: p.UserName,
		RoomID:   p.RoomID,
	})
	e.dispatch.ToConn(connID, EvtWaiting, nil)
	e.log.Info("join approval requested", "room", p.RoomID, "user", p.UserName)
}

func (e *Engine) handleHostResponse(ev inbound) {
	var p hostResponsePayload
	if err := json.Unmarshal(ev.payload, &p); err != nil || p.UserID == "" {
		return
	}
	pending, ok := e.approvals.get(p.UserID)
	if !ok {
		return
	}
	// Decisions are accepted only from the recorded host of the target
	// room; anything else is dropped without a reply so impostors learn
	// nothing about the room.
	roomID, sender, ok := e.roster.get(ev.connID)
	if !ok || roomID != pending.RoomID || !sender.IsHost || sender.Name != e.rooms.host(pending.RoomID) {
		e.log.Debug("host response from non-host ignored", "conn", ev.connID, "room", pending.RoomID)
		return
	}
	e.approvals.take(p.UserID)
	e.dispatch.ToConn(pending.ConnID, EvtJoinResponse, joinResponsePayload{Approved: p.Approved})
	e.log.Info("join approval resolved", "room", pending.RoomID, "user", pending.UserName, "approved", p.Approved)
}

func (e *Engine) expireApproval(connID string) {
	pending, ok := e.approvals.take(connID)
	if !ok {
		return
	}
	e.dispatch.ToConn(connID, EvtJoinResponse, joinResponsePayload{Approved: false})
	e.log.Info("join approval expired", "room", pending.RoomID, "user", pending.UserName)
}

func (e *Engine) handleJoinRoom(ev inbound) {
	var p joinRoomPayload
	if err := json.Unmarshal(ev.payload, &p); err != nil || p.RoomID == "" || p.UserName == "" {
		e.log.Debug("malformed join dropped", "conn", ev.connID)
		return
	}

	created := false
	if !e.rooms.exists(p.RoomID) {
		if !p.IsHost {
			e.dispatch.ToConn(ev.connID, EvtRoomError, fmt.Sprintf("room %q does not exist", p.RoomID))
			return
		}
		if err := e.rooms.create(p.RoomID, p.UserName); err != nil {
			e.dispatch.ToConn(ev.connID, EvtRoomError, err.Error())
			return
		}
		created = true
	}

	// The host flag follows the host of record, so a reconnecting host
	// regains it automatically and a guest claiming it is demoted.
	isHost := p.UserName == e.rooms.host(p.RoomID)
	members, evicted := e.roster.addOrReplace(p.RoomID, ev.connID, p.UserName, isHost)
	if evicted != "" {
		// A stale tab displaced by this reconnect stops hearing the room.
		e.dispatch.Assign(evicted, "")
	}
	e.dispatch.Assign(ev.connID, p.RoomID)

	// The joiner's first view is derived wholly from server state, taken
	// before their own arrival notice lands in the log.
	e.dispatch.ToConn(ev.connID, EvtWhiteboardState, e.boards.state(p.RoomID))
	e.dispatch.ToConn(ev.connID, EvtChatMessages, e.chat.history(p.RoomID))

	now := e.now()
	var sysMsg board.ChatMessage
	var appended bool
	if created {
		sysMsg, appended = e.chat.appendSystem(p.RoomID, sysCreated, p.UserName,
			fmt.Sprintf("%s created the room", p.UserName), now)
	} else {
		sysMsg, appended = e.chat.appendSystem(p.RoomID, sysJoined, p.UserName,
			fmt.Sprintf("%s joined the room", p.UserName), now)
	}
	if appended {
		e.dispatch.ToRoomExcept(p.RoomID, ev.connID, EvtChatMessage, sysMsg)
	}
	e.dispatch.ToRoom(p.RoomID, EvtRoomUsers, members)

	if created {
		e.lifecycle.RoomCreated(p.RoomID, p.UserName)
	}
	e.lifecycle.UserJoined(p.RoomID, p.UserName, isHost)
	e.log.Info("participant joined", "room", p.RoomID, "user", p.UserName, "host", isHost, "created", created)
	e.persist()
}

func (e *Engine) handleLeaveRoom(ev inbound) {
	roomID, part, ok := e.roster.remove(ev.connID)
	if !ok {
		return
	}
	e.dispatch.Assign(ev.connID, "")

	if part.IsHost && part.Name == e.rooms.host(roomID) {
		e.teardownRoom(roomID, part)
	} else {
		if msg, added := e.chat.appendSystem(roomID, sysLeft, part.Name,
			fmt.Sprintf("%s left the room", part.Name), e.now()); added {
			e.dispatch.ToRoom(roomID, EvtChatMessage, msg)
		}
		e.dispatch.ToRoom(roomID, EvtUserLeftAlert, part.Name)
		e.dispatch.ToRoom(roomID, EvtRoomUsers, e.roster.participants(roomID))
		e.lifecycle.UserLeft(roomID, part.Name, true)
		e.log.Info("participant left", "room", roomID, "user", part.Name)
	}
	e.persist()
}

// teardownRoom destroys a room after its host's explicit departure: the
// canvas, the chat log, and the registry entry all go; remaining
// participants are evicted.
func (e *Engine) teardownRoom(roomID string, host board.Participant) {
	e.dispatch.ToRoom(roomID, EvtUserLeftAlert, host.Name)
	e.dispatch.ToRoom(roomID, EvtClearWhiteboard, nil)
	for _, p := range e.roster.dropRoom(roomID) {
		e.dispatch.Assign(p.ConnID, "")
		e.dispatch.ToConn(p.ConnID, EvtRoomError, fmt.Sprintf("room %q was closed by the host", roomID))
	}
	e.boards.clear(roomID)
	e.chat.drop(roomID)
	e.rooms.destroy(roomID)
	e.lifecycle.UserLeft(roomID, host.Name, true)
	e.lifecycle.RoomDestroyed(roomID, host.Name)
	e.log.Info("room destroyed", "room", roomID, "host", host.Name)
}

func (e *Engine) handleElementUpdate(ev inbound) {
	roomID, ok := e.roster.roomOf(ev.connID)
	if !ok {
		return
	}
	var el board.Element
	if err := json.Unmarshal(ev.payload, &el); err != nil {
		e.log.Debug("unparseable element dropped", "conn", ev.connID)
		return
	}
	if el.ID == "" || el.Kind == "" {
		e.log.Debug("element without id or kind dropped", "conn", ev.connID, "room", roomID)
		return
	}
	e.boards.apply(roomID, el)
	e.dispatch.ToRoomExcept(roomID, ev.connID, EvtElementUpdate, el)
	e.persist()
}

func (e *Engine) handleChatMessage(ev inbound) {
	roomID, part, ok := e.roster.get(ev.connID)
	if !ok {
		return
	}
	var p chatMessagePayload
	if err := json.Unmarshal(ev.payload, &p); err != nil || p.Message.Text == "" {
		e.log.Debug("malformed chat message dropped", "conn", ev.connID, "room", roomID)
		return
	}
	msg := p.Message
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Author == "" {
		msg.Author = part.Name
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = e.now().UnixMilli()
	}
	// Clients cannot forge system messages.
	msg.System = false

	e.chat.append(roomID, msg)
	e.dispatch.ToRoom(roomID, EvtChatMessage, msg)
	e.persist()
}

func (e *Engine) handleClearWhiteboard(ev inbound) {
	roomID, part, ok := e.roster.get(ev.connID)
	if !ok {
		e.dispatch.ToConn(ev.connID, EvtClearError, board.ErrRoomNotFound.Error())
		return
	}
	if !part.IsHost || part.Name != e.rooms.host(roomID) {
		e.dispatch.ToConn(ev.connID, EvtClearError, board.ErrUnauthorized.Error())
		return
	}
	e.boards.clear(roomID)
	e.dispatch.ToRoom(roomID, EvtClearWhiteboard, nil)
	e.dispatch.ToConn(ev.connID, EvtClearSuccess, "whiteboard cleared")
	e.lifecycle.BoardCleared(roomID, part.Name)
	e.log.Info("whiteboard cleared", "room", roomID, "by", part.Name)
	e.persist()
}

// relay forwards color, brush-size, and cursor events to the rest of the
// room verbatim. No state is kept.
func (e *Engine) relay(ev inbound) {
	roomID, ok := e.roster.roomOf(ev.connID)
	if !ok {
		return
	}
	e.dispatch.ToRoomExcept(roomID, ev.connID, ev.event, ev.payload)
}

func (e *Engine) handleDisconnect(ev inbound) {
	// A pending join request from this connection is abandoned.
	e.approvals.take(ev.connID)

	roomID, part, ok := e.roster.remove(ev.connID)
	if !ok {
		return
	}
	e.dispatch.Assign(ev.connID, "")

	if msg, added := e.chat.appendSystem(roomID, sysDisconnected, part.Name,
		fmt.Sprintf("%s left the room", part.Name), e.now()); added {
		e.dispatch.ToRoom(roomID, EvtChatMessage, msg)
	}
	// No user-left-alert here: a dropped socket is indistinguishable from
	// a page refresh.
	e.dispatch.ToRoom(roomID, EvtRoomUsers, e.roster.participants(roomID))
	e.lifecycle.UserLeft(roomID, part.Name, false)
	e.log.Info("participant disconnected", "room", roomID, "user", part.Name)
	e.persist()
}

func (e *Engine) persist() {
	e.sink.Offer(board.Snapshot{
		ValidRooms:       e.rooms.ids(),
		RoomHosts:        e.rooms.hostMap(),
		ChatMessages:     e.chat.snapshot(),
		WhiteboardStates: e.boards.snapshot(),
	})
}
