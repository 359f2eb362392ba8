package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the write side of one participant's connection. The fiber
// websocket connection satisfies it; tests substitute a recorder.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a connected WebSocket client.
type Client struct {
	ID     string
	RoomID string
	Conn   Conn
}

// Envelope is the wire framing for every event in both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type sendMode int

const (
	modeConn sendMode = iota
	modeRoom
	modeRoomExcept
	modeLobby
	modeAssign
)

// command is one unit of hub work. Sends and membership changes share the
// queue so a room fanout issued after an assignment always sees it.
type command struct {
	mode    sendMode
	connID  string
	roomID  string
	except  string
	event   string
	payload any
}

// Hub manages WebSocket connections and event fanout.
type Hub struct {
	clients    map[string]*Client         // connID -> Client
	rooms      map[string]map[string]bool // roomID -> set of connIDs
	register   chan *Client
	unregister chan *Client
	commands   chan command
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan command, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case cmd := <-h.commands:
			if cmd.mode == modeAssign {
				h.handleAssign(cmd.connID, cmd.roomID)
			} else {
				h.handleSend(cmd)
			}
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("[hub] Client %s registered", client.ID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	existing, ok := h.clients[client.ID]
	if !ok {
		return
	}
	delete(h.clients, client.ID)
	h.detachLocked(existing)
	log.Printf("[hub] Client %s unregistered", client.ID)
}

// handleAssign moves a client into a room, or back to the lobby when
// roomID is empty.
func (h *Hub) handleAssign(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	h.detachLocked(client)
	if roomID == "" {
		return
	}
	client.RoomID = roomID
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][connID] = true
}

func (h *Hub) detachLocked(client *Client) {
	if client.RoomID == "" {
		return
	}
	if members := h.rooms[client.RoomID]; members != nil {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, client.RoomID)
		}
	}
	client.RoomID = ""
}

func (h *Hub) handleSend(cmd command) {
	raw, err := json.Marshal(cmd.payload)
	if err != nil {
		log.Printf("[hub] Failed to marshal %s payload: %v", cmd.event, err)
		return
	}
	data, err := json.Marshal(Envelope{Event: cmd.event, Payload: raw})
	if err != nil {
		log.Printf("[hub] Failed to marshal %s envelope: %v", cmd.event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	switch cmd.mode {
	case modeConn:
		if client, ok := h.clients[cmd.connID]; ok {
			h.sendToClient(client, data)
		}
	case modeRoom, modeRoomExcept:
		for connID := range h.rooms[cmd.roomID] {
			if cmd.mode == modeRoomExcept && connID == cmd.except {
				continue
			}
			if client, ok := h.clients[connID]; ok {
				h.sendToClient(client, data)
			}
		}
	case modeLobby:
		for _, client := range h.clients {
			if client.RoomID == "" {
				h.sendToClient(client, data)
			}
		}
	}
}

func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Assign records a client's room membership for fanout purposes. An empty
// roomID returns the client to the lobby.
func (h *Hub) Assign(connID, roomID string) {
	h.commands <- command{mode: modeAssign, connID: connID, roomID: roomID}
}

// ToConn delivers an event to a single connection.
func (h *Hub) ToConn(connID, event string, payload any) {
	h.commands <- command{mode: modeConn, connID: connID, event: event, payload: payload}
}

// ToRoom delivers an event to every member of a room.
func (h *Hub) ToRoom(roomID, event string, payload any) {
	h.commands <- command{mode: modeRoom, roomID: roomID, event: event, payload: payload}
}

// ToRoomExcept delivers an event to every member of a room except one
// connection, usually the originator.
func (h *Hub) ToRoomExcept(roomID, exceptConnID, event string, payload any) {
	h.commands <- command{mode: modeRoomExcept, roomID: roomID, except: exceptConnID, event: event, payload: payload}
}

// ToLobby delivers an event to every connection not assigned to a room.
func (h *Hub) ToLobby(event string, payload any) {
	h.commands <- command{mode: modeLobby, event: event, payload: payload}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[roomID]; ok {
		return len(clients)
	}
	return 0
}
