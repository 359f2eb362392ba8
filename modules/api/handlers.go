package api

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/collab-board/domain/board"
	"github.com/example/collab-board/modules/broadcast"
)

const maxEventBytes = 64 * 1024

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(maxTokens, refillRate int) *rateLimiter {
	return &rateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	tokensToAdd := int(elapsed.Seconds()) * r.refillRate
	if tokensToAdd > 0 {
		r.tokens += tokensToAdd
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1 (read-only: rooms live and die over the socket)
	api := m.app.Group("/api/v1")
	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:id/history", m.getHistory)
	api.Get("/rooms/:id/board", m.getBoard)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.enginePort.ListRooms(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}

	response := RoomListResponse{
		Rooms: make([]RoomResponse, 0, len(rooms)),
	}
	for _, room := range rooms {
		response.Rooms = append(response.Rooms, RoomResponse{
			ID:           room.ID,
			HostName:     room.HostName,
			Participants: room.Participants,
			Connected:    m.hub.RoomClientCount(room.ID),
		})
	}

	return c.JSON(response)
}

// getHistory handles GET /api/v1/rooms/:id/history.
func (m *APIModule) getHistory(c *fiber.Ctx) error {
	roomID := c.Params("id")

	messages, err := m.enginePort.GetHistory(c.UserContext(), roomID)
	if err != nil {
		if errors.Is(err, board.ErrRoomNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Room not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "history_failed",
			Message: "Failed to get history",
		})
	}

	return c.JSON(HistoryResponse{RoomID: roomID, Messages: messages})
}

// getBoard handles GET /api/v1/rooms/:id/board.
func (m *APIModule) getBoard(c *fiber.Ctx) error {
	roomID := c.Params("id")

	elements, err := m.enginePort.GetBoardState(c.UserContext(), roomID)
	if err != nil {
		if errors.Is(err, board.ErrRoomNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Room not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "board_failed",
			Message: "Failed to get board state",
		})
	}

	return c.JSON(BoardResponse{RoomID: roomID, Elements: elements})
}

// handleWebSocket handles WebSocket connections at /ws. Every event is
// decoded here and handed to the engine; replies come back through the
// broadcast hub, never through this goroutine.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	client := &broadcast.Client{
		ID:   connID,
		Conn: c,
	}

	m.hub.Register(client)
	limiter := newRateLimiter(m.eventBurst, m.eventsPerSecond)

	defer func() {
		// The engine first, so remaining room members get their roster
		// update before the hub forgets the connection.
		m.intake.Disconnect(connID)
		m.hub.Unregister(client)
		log.Printf("[api] WebSocket client disconnected: %s", connID)
	}()

	log.Printf("[api] WebSocket client connected: %s", connID)

	c.SetReadLimit(maxEventBytes)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", connID)
			} else {
				log.Printf("[api] Read error from %s: %v", connID, err)
			}
			break
		}

		if !limiter.allow() {
			m.hub.ToConn(connID, "room-error", "rate limit exceeded, please slow down")
			continue
		}

		var env broadcast.Envelope
		if err := json.Unmarshal(msgBytes, &env); err != nil || env.Event == "" {
			m.hub.ToConn(connID, "room-error", "invalid event format")
			continue
		}

		m.intake.Submit(connID, env.Event, env.Payload)
	}
}
