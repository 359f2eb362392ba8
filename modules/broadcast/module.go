package broadcast

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/collab-board/events"
)

// BroadcastModule owns the WebSocket hub and keeps lobby clients informed
// about the room list.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait() // Wait for hub to finish
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomCreatedV1, m.handleRoomCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomDestroyedV1, m.handleRoomDestroyed, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomDestroyed consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: RoomCreated, RoomDestroyed")
	return nil
}

// Event handlers: lobby clients get a room-list delta so their join
// screens stay fresh without polling.

func (m *BroadcastModule) handleRoomCreated(_ context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Announcing new room %s to lobby", event.RoomID)

	m.hub.ToLobby("room-list", RoomListUpdate{
		Action:    "created",
		RoomID:    event.RoomID,
		HostName:  event.HostName,
		Timestamp: event.Timestamp,
	})

	return nil
}

func (m *BroadcastModule) handleRoomDestroyed(_ context.Context, event events.RoomDestroyedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Announcing destroyed room %s to lobby", event.RoomID)

	m.hub.ToLobby("room-list", RoomListUpdate{
		Action:    "destroyed",
		RoomID:    event.RoomID,
		HostName:  event.HostName,
		Timestamp: event.Timestamp,
	})

	return nil
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}

// RoomListUpdate is the lobby-facing room list delta.
type RoomListUpdate struct {
	Action    string    `json:"action"`
	RoomID    string    `json:"roomId"`
	HostName  string    `json:"hostName"`
	Timestamp time.Time `json:"timestamp"`
}
