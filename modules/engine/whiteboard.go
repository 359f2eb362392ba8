package engine

import "github.com/example/collab-board/domain/board"

// boards reconciles the per-room element collections. Merging is
// last-writer-wins on element id with no causality tracking: whichever
// update the engine loop processes last is the one that sticks.
type boards struct {
	elements map[string][]board.Element
}

func newBoards() *boards {
	return &boards{elements: make(map[string][]board.Element)}
}

// apply upserts the element. An existing id is replaced in place so the
// element keeps its original position in the draw order; an unseen id is
// appended. Authorization is not this layer's concern.
func (b *boards) apply(roomID string, el board.Element) {
	elements := b.elements[roomID]
	for i, existing := range elements {
		if existing.ID == el.ID {
			elements[i] = el
			return
		}
	}
	b.elements[roomID] = append(elements, el)
}

func (b *boards) state(roomID string) []board.Element {
	elements := b.elements[roomID]
	out := make([]board.Element, len(elements))
	copy(out, elements)
	return out
}

func (b *boards) clear(roomID string) {
	delete(b.elements, roomID)
}

func (b *boards) snapshot() map[string][]board.Element {
	out := make(map[string][]board.Element, len(b.elements))
	for roomID := range b.elements {
		out[roomID] = b.state(roomID)
	}
	return out
}

func (b *boards) restore(states map[string][]board.Element) {
	b.elements = make(map[string][]board.Element, len(states))
	for roomID, elements := range states {
		b.elements[roomID] = append([]board.Element(nil), elements...)
	}
}
