package board

import "encoding/json"

// Room represents a collaboration session with exactly one designated host.
type Room struct {
	ID       string `json:"id"`
	HostName string `json:"host_name"`
}

// Participant represents a live connection inside a room.
type Participant struct {
	ConnID string `json:"-"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// Element is one drawable object on the shared canvas. The engine only
// interprets the id and kind fields; the full payload is kept opaque and
// relayed byte-for-byte to clients.
type Element struct {
	ID   string          `json:"id"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"-"`
}

// MarshalJSON emits the original client payload so nothing beyond id and
// kind is ever reshaped by the server.
func (e Element) MarshalJSON() ([]byte, error) {
	if len(e.Data) > 0 {
		return e.Data, nil
	}
	type plain struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}
	return json.Marshal(plain{ID: e.ID, Kind: e.Kind})
}

// UnmarshalJSON keeps the raw payload alongside the extracted identity.
func (e *Element) UnmarshalJSON(data []byte) error {
	type plain struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	e.ID = p.ID
	e.Kind = p.Kind
	e.Data = append(e.Data[:0], data...)
	return nil
}

// ChatMessage is an append-only chat log entry. System messages are
// synthesized by the coordination engine, never by clients.
type ChatMessage struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	System    bool   `json:"system,omitempty"`
}

// Snapshot is the full persisted state, rewritten wholesale after any
// mutation. Each field loads independently so a corrupt blob cannot poison
// its siblings.
type Snapshot struct {
	ValidRooms       []string                 `json:"validRooms"`
	RoomHosts        map[string]string        `json:"roomHosts"`
	ChatMessages     map[string][]ChatMessage `json:"chatMessages"`
	WhiteboardStates map[string][]Element     `json:"whiteboardStates"`
}
