package store

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/go-monolith/mono"

	"github.com/example/collab-board/domain/board"
)

// StoreModule owns the badger database and the snapshot write-behind
// worker.
type StoreModule struct {
	path   string
	logger *slog.Logger

	db     *badger.DB
	store  *SnapshotStore
	cancel context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*StoreModule)(nil)
var _ mono.HealthCheckableModule = (*StoreModule)(nil)

// NewModule creates the store module for the given database path.
func NewModule(path string, logger *slog.Logger) *StoreModule {
	return &StoreModule{path: path, logger: logger}
}

// Name returns the module name.
func (m *StoreModule) Name() string {
	return "store"
}

// Start opens the database and launches the write-behind worker. It runs
// before the engine module so Load is available during engine startup.
func (m *StoreModule) Start(_ context.Context) error {
	opts := badger.DefaultOptions(m.path).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger at %s: %w", m.path, err)
	}
	m.db = db
	m.store = NewSnapshotStore(db, m.logger)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.store.Run(ctx)

	log.Printf("[store] Module started - badger open at %s", m.path)
	return nil
}

// Stop flushes pending writes and closes the database.
func (m *StoreModule) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
		m.store.Wait()
	}
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			return fmt.Errorf("failed to close badger: %w", err)
		}
	}
	log.Println("[store] Module stopped")
	return nil
}

// Health reports database size details.
func (m *StoreModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil || m.db.IsClosed() {
		return mono.HealthStatus{Healthy: false, Message: "database not open"}
	}
	lsm, vlog := m.db.Size()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"lsm_size_bytes":  lsm,
			"vlog_size_bytes": vlog,
		},
	}
}

// Store returns the snapshot store for the engine module to use.
func (m *StoreModule) Store() *SnapshotStore {
	return m.store
}

// Load delegates to the snapshot store. The module is injected into the
// engine before either has started; startup order guarantees the store is
// open by the time the engine restores.
func (m *StoreModule) Load() (board.Snapshot, error) {
	return m.store.Load()
}

// Offer delegates to the snapshot store.
func (m *StoreModule) Offer(snap board.Snapshot) {
	m.store.Offer(snap)
}
