package engine

import "github.com/example/collab-board/domain/board"

// registry owns the set of valid room ids and each room's host of record.
// Room existence is the authorization gate for every room-scoped operation.
type registry struct {
	order []string
	hosts map[string]string
}

func newRegistry() *registry {
	return &registry{hosts: make(map[string]string)}
}

func (r *registry) create(roomID, hostName string) error {
	if _, ok := r.hosts[roomID]; ok {
		return board.ErrRoomExists
	}
	r.order = append(r.order, roomID)
	r.hosts[roomID] = hostName
	return nil
}

func (r *registry) exists(roomID string) bool {
	_, ok := r.hosts[roomID]
	return ok
}

func (r *registry) host(roomID string) string {
	return r.hosts[roomID]
}

// destroy removes the room and its host mapping. A no-op for unknown ids.
func (r *registry) destroy(roomID string) {
	if _, ok := r.hosts[roomID]; !ok {
		return
	}
	delete(r.hosts, roomID)
	for i, id := range r.order {
		if id == roomID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *registry) ids() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *registry) hostMap() map[string]string {
	out := make(map[string]string, len(r.hosts))
	for id, host := range r.hosts {
		out[id] = host
	}
	return out
}

func (r *registry) restore(ids []string, hosts map[string]string) {
	r.order = r.order[:0]
	r.hosts = make(map[string]string, len(ids))
	for _, id := range ids {
		r.order = append(r.order, id)
		r.hosts[id] = hosts[id]
	}
}
