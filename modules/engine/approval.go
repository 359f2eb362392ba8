package engine

import "time"

// pendingJoin is one outstanding host-gatekeeping handshake:
// REQUESTED -> approved, rejected, expired, or abandoned on disconnect.
// The requester is not in the room while the request is pending.
type pendingJoin struct {
	ConnID   string
	UserName string
	RoomID   string
	timer    *time.Timer
}

// approvals holds pending join requests keyed by requester connection id.
type approvals struct {
	pending map[string]*pendingJoin
}

func newApprovals() *approvals {
	return &approvals{pending: make(map[string]*pendingJoin)}
}

func (a *approvals) add(connID, userName, roomID string, timer *time.Timer) {
	// A repeated request from the same connection supersedes the old one.
	if old, ok := a.pending[connID]; ok && old.timer != nil {
		old.timer.Stop()
	}
	a.pending[connID] = &pendingJoin{ConnID: connID, UserName: userName, RoomID: roomID, timer: timer}
}

// take removes and returns the pending entry, stopping its expiry timer.
func (a *approvals) take(connID string) (*pendingJoin, bool) {
	p, ok := a.pending[connID]
	if !ok {
		return nil, false
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	delete(a.pending, connID)
	return p, true
}

func (a *approvals) get(connID string) (*pendingJoin, bool) {
	p, ok := a.pending[connID]
	return p, ok
}
