package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/example/collab-board/domain/board"
)

// Badger keys, one per snapshot field so a corrupt value only costs that
// field on restore.
const (
	keyValidRooms       = "snapshot:validRooms"
	keyRoomHosts        = "snapshot:roomHosts"
	keyChatMessages     = "snapshot:chatMessages"
	keyWhiteboardStates = "snapshot:whiteboardStates"
)

// SnapshotStore persists the full coordination snapshot. Writes are
// coalesced: the engine offers a snapshot after every mutation, the
// worker writes the latest one it has seen.
type SnapshotStore struct {
	db     *badger.DB
	logger *slog.Logger
	offers chan board.Snapshot
	done   chan struct{}
}

// NewSnapshotStore wraps an open badger database.
func NewSnapshotStore(db *badger.DB, logger *slog.Logger) *SnapshotStore {
	return &SnapshotStore{
		db:     db,
		logger: logger,
		offers: make(chan board.Snapshot, 1),
		done:   make(chan struct{}),
	}
}

// Load reads the persisted snapshot. Each field degrades independently: a
// missing or unreadable value leaves that field empty without failing the
// rest of the restore.
func (s *SnapshotStore) Load() (board.Snapshot, error) {
	var snap board.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		s.loadField(txn, keyValidRooms, &snap.ValidRooms)
		s.loadField(txn, keyRoomHosts, &snap.RoomHosts)
		s.loadField(txn, keyChatMessages, &snap.ChatMessages)
		s.loadField(txn, keyWhiteboardStates, &snap.WhiteboardStates)
		return nil
	})
	if err != nil {
		return board.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return snap, nil
}

func (s *SnapshotStore) loadField(txn *badger.Txn, key string, dest any) {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return
	}
	if err != nil {
		s.logger.Warn("snapshot field unreadable, skipping", "key", key, "error", err)
		return
	}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	}); err != nil {
		s.logger.Warn("snapshot field corrupt, skipping", "key", key, "error", err)
	}
}

// Offer hands the worker a snapshot to persist. It never blocks: if a
// write is already queued, the newer snapshot replaces it.
func (s *SnapshotStore) Offer(snap board.Snapshot) {
	for {
		select {
		case s.offers <- snap:
			return
		default:
		}
		select {
		case <-s.offers:
		default:
		}
	}
}

// Run drains offers until the context is cancelled, then flushes any
// pending snapshot before returning.
func (s *SnapshotStore) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			select {
			case snap := <-s.offers:
				s.write(snap)
			default:
			}
			return
		case snap := <-s.offers:
			s.write(snap)
		}
	}
}

// Wait blocks until the worker has stopped.
func (s *SnapshotStore) Wait() {
	<-s.done
}

// write persists one snapshot. Failures are logged and absorbed: the
// in-memory state stays authoritative and the next mutation retries.
func (s *SnapshotStore) write(snap board.Snapshot) {
	err := s.db.Update(func(txn *badger.Txn) error {
		fields := []struct {
			key   string
			value any
		}{
			{keyValidRooms, snap.ValidRooms},
			{keyRoomHosts, snap.RoomHosts},
			{keyChatMessages, snap.ChatMessages},
			{keyWhiteboardStates, snap.WhiteboardStates},
		}
		for _, f := range fields {
			data, err := json.Marshal(f.value)
			if err != nil {
				return fmt.Errorf("failed to marshal %s: %w", f.key, err)
			}
			if err := txn.Set([]byte(f.key), data); err != nil {
				return fmt.Errorf("failed to set %s: %w", f.key, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("snapshot write failed", "error", err)
	}
}
