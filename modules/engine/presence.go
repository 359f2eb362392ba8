package engine

import "github.com/example/collab-board/domain/board"

// roster tracks which connections occupy which room. Order is insertion
// order; a display name holds at most one slot per room so a reconnect from
// a stale tab replaces the old entry instead of duplicating it.
type roster struct {
	rooms  map[string][]board.Participant
	byConn map[string]string
}

func newRoster() *roster {
	return &roster{
		rooms:  make(map[string][]board.Participant),
		byConn: make(map[string]string),
	}
}

// addOrReplace inserts the participant, evicting any prior entry with the
// same display name. It returns a roster snapshot and the evicted
// connection id, if a different connection was displaced, so the caller
// can detach the stale connection from room fanout.
func (r *roster) addOrReplace(roomID, connID, name string, isHost bool) ([]board.Participant, string) {
	evicted := ""
	members := r.rooms[roomID]
	for i, p := range members {
		if p.Name == name {
			delete(r.byConn, p.ConnID)
			if p.ConnID != connID {
				evicted = p.ConnID
			}
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	members = append(members, board.Participant{ConnID: connID, Name: name, IsHost: isHost})
	r.rooms[roomID] = members
	r.byConn[connID] = roomID
	return r.participants(roomID), evicted
}

// remove drops the connection from its room, if any. The removed entry is
// returned so callers can synthesize departure messages.
func (r *roster) remove(connID string) (string, board.Participant, bool) {
	roomID, ok := r.byConn[connID]
	if !ok {
		return "", board.Participant{}, false
	}
	delete(r.byConn, connID)
	members := r.rooms[roomID]
	for i, p := range members {
		if p.ConnID == connID {
			r.rooms[roomID] = append(members[:i], members[i+1:]...)
			if len(r.rooms[roomID]) == 0 {
				delete(r.rooms, roomID)
			}
			return roomID, p, true
		}
	}
	return "", board.Participant{}, false
}

func (r *roster) participants(roomID string) []board.Participant {
	members := r.rooms[roomID]
	out := make([]board.Participant, len(members))
	copy(out, members)
	return out
}

func (r *roster) roomOf(connID string) (string, bool) {
	roomID, ok := r.byConn[connID]
	return roomID, ok
}

func (r *roster) get(connID string) (string, board.Participant, bool) {
	roomID, ok := r.byConn[connID]
	if !ok {
		return "", board.Participant{}, false
	}
	for _, p := range r.rooms[roomID] {
		if p.ConnID == connID {
			return roomID, p, true
		}
	}
	return "", board.Participant{}, false
}

// findHostConn resolves the room's recorded host name to a live connection.
func (r *roster) findHostConn(roomID, hostName string) (string, bool) {
	if hostName == "" {
		return "", false
	}
	for _, p := range r.rooms[roomID] {
		if p.Name == hostName && p.IsHost {
			return p.ConnID, true
		}
	}
	return "", false
}

// dropRoom removes the whole roster entry and returns the evicted members.
func (r *roster) dropRoom(roomID string) []board.Participant {
	members := r.rooms[roomID]
	for _, p := range members {
		delete(r.byConn, p.ConnID)
	}
	delete(r.rooms, roomID)
	return members
}
