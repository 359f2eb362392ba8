package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/collab-board/domain/board"
	"github.com/example/collab-board/events"
)

// Store is the persistence surface the engine needs: one load at startup
// and fire-and-forget snapshot offers afterwards.
type Store interface {
	Load() (board.Snapshot, error)
	Offer(snap board.Snapshot)
}

// Module hosts the coordination engine inside the mono application.
type Module struct {
	logger          *slog.Logger
	approvalTimeout time.Duration

	engine   *Engine
	store    Store
	dispatch Dispatcher
	eventBus mono.EventBus
	cancel   context.CancelFunc
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ LifecycleSink              = (*Module)(nil)
)

// NewModule creates the engine module.
func NewModule(logger *slog.Logger, approvalTimeout time.Duration) *Module {
	return &Module{logger: logger, approvalTimeout: approvalTimeout}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "engine"
}

// SetStore injects the snapshot store (called from main.go).
func (m *Module) SetStore(store Store) {
	m.store = store
}

// SetDispatcher injects the broadcast dispatcher (called from main.go).
func (m *Module) SetDispatcher(d Dispatcher) {
	m.dispatch = d
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the lifecycle events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.RoomDestroyedV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.BoardClearedV1.ToBase(),
	}
}

// RegisterServices registers request-reply read services for the REST
// surface.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetHistory, json.Unmarshal, json.Marshal, m.getHistory,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetHistory, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetBoardState, json.Unmarshal, json.Marshal, m.getBoardState,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetBoardState, err)
	}
	log.Printf("[engine] Registered services: %s, %s, %s", ServiceListRooms, ServiceGetHistory, ServiceGetBoardState)
	return nil
}

// Start loads the persisted snapshot and starts the engine loop.
func (m *Module) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("snapshot store dependency not set")
	}
	if m.dispatch == nil {
		return fmt.Errorf("dispatcher dependency not set")
	}

	m.engine = New(m.logger, m.dispatch, m.store, m, m.approvalTimeout)

	snap, err := m.store.Load()
	if err != nil {
		// Missing or corrupt state falls back to empty defaults; the
		// in-memory copy is authoritative from here on.
		m.logger.Warn("snapshot load failed, starting empty", "error", err)
	}
	m.engine.Restore(snap)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.engine.Run(ctx)

	log.Printf("[engine] Module started with %d restored rooms", len(snap.ValidRooms))
	return nil
}

// Stop shuts down the engine loop.
func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
		m.engine.Wait()
	}
	log.Println("[engine] Module stopped")
	return nil
}

// Engine returns the running engine for the websocket intake.
func (m *Module) Engine() *Engine {
	return m.engine
}

// Submit forwards a client event to the engine loop. The module is
// injected into the API module before startup; the engine exists once the
// first connection can reach it.
func (m *Module) Submit(connID, event string, payload json.RawMessage) {
	m.engine.Submit(connID, event, payload)
}

// Disconnect reports a dropped connection to the engine loop.
func (m *Module) Disconnect(connID string) {
	m.engine.Disconnect(connID)
}

// Service handlers (run on service-container goroutines; they enter the
// engine loop through the query channel).

func (m *Module) listRooms(ctx context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	rooms, err := m.engine.Rooms(ctx)
	if err != nil {
		return ListRoomsResponse{}, err
	}
	return ListRoomsResponse{Rooms: rooms}, nil
}

func (m *Module) getHistory(ctx context.Context, req GetHistoryRequest, _ *mono.Msg) (GetHistoryResponse, error) {
	messages, err := m.engine.History(ctx, req.RoomID)
	if err != nil {
		return GetHistoryResponse{}, err
	}
	return GetHistoryResponse{RoomID: req.RoomID, Messages: messages}, nil
}

func (m *Module) getBoardState(ctx context.Context, req GetBoardStateRequest, _ *mono.Msg) (GetBoardStateResponse, error) {
	elements, err := m.engine.BoardState(ctx, req.RoomID)
	if err != nil {
		return GetBoardStateResponse{}, err
	}
	return GetBoardStateResponse{RoomID: req.RoomID, Elements: elements}, nil
}

// LifecycleSink implementation: wire correctness never depends on these,
// so publish failures are only logged.

func (m *Module) RoomCreated(roomID, hostName string) {
	m.publish(func() error {
		return events.RoomCreatedV1.Publish(m.eventBus, events.RoomCreatedEvent{
			RoomID: roomID, HostName: hostName, Timestamp: time.Now(),
		}, nil)
	})
}

func (m *Module) RoomDestroyed(roomID, hostName string) {
	m.publish(func() error {
		return events.RoomDestroyedV1.Publish(m.eventBus, events.RoomDestroyedEvent{
			RoomID: roomID, HostName: hostName, Timestamp: time.Now(),
		}, nil)
	})
}

func (m *Module) UserJoined(roomID, username string, isHost bool) {
	m.publish(func() error {
		return events.UserJoinedV1.Publish(m.eventBus, events.UserJoinedEvent{
			RoomID: roomID, Username: username, IsHost: isHost, Timestamp: time.Now(),
		}, nil)
	})
}

func (m *Module) UserLeft(roomID, username string, explicit bool) {
	m.publish(func() error {
		return events.UserLeftV1.Publish(m.eventBus, events.UserLeftEvent{
			RoomID: roomID, Username: username, Explicit: explicit, Timestamp: time.Now(),
		}, nil)
	})
}

func (m *Module) BoardCleared(roomID, clearedBy string) {
	m.publish(func() error {
		return events.BoardClearedV1.Publish(m.eventBus, events.BoardClearedEvent{
			RoomID: roomID, ClearedBy: clearedBy, Timestamp: time.Now(),
		}, nil)
	})
}

func (m *Module) publish(fn func() error) {
	if m.eventBus == nil {
		return
	}
	if err := fn(); err != nil {
		slog.Warn("Failed to publish lifecycle event", "error", err)
	}
}
