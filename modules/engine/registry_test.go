package engine

import (
	"testing"

	"github.com/example/collab-board/domain/board"
)

func TestRegistry_CreateAndDestroy(t *testing.T) {
	r := newRegistry()

	if err := r.create("room-1", "alice"); err != nil {
		t.Fatalf("create() error: %v", err)
	}
	if err := r.create("room-1", "bob"); err != board.ErrRoomExists {
		t.Errorf("duplicate create error = %v, want ErrRoomExists", err)
	}
	if !r.exists("room-1") || r.host("room-1") != "alice" {
		t.Error("room-1 should exist with alice as host")
	}

	r.destroy("room-1")
	if r.exists("room-1") {
		t.Error("room-1 should be gone after destroy")
	}
	// Destroying again is a no-op.
	r.destroy("room-1")

	// The id is reusable with a new host.
	if err := r.create("room-1", "bob"); err != nil {
		t.Fatalf("recreate after destroy error: %v", err)
	}
	if got := r.host("room-1"); got != "bob" {
		t.Errorf("host = %q, want bob", got)
	}
}

func TestRegistry_IdsKeepCreationOrder(t *testing.T) {
	r := newRegistry()
	for _, id := range []string{"c", "a", "b"} {
		if err := r.create(id, "host"); err != nil {
			t.Fatalf("create(%s) error: %v", id, err)
		}
	}
	r.destroy("a")

	ids := r.ids()
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "b" {
		t.Errorf("ids = %v, want [c b]", ids)
	}
}

func TestRegistry_Restore(t *testing.T) {
	r := newRegistry()
	r.restore([]string{"r1", "r2"}, map[string]string{"r1": "alice", "r2": "bob"})

	if !r.exists("r1") || !r.exists("r2") {
		t.Fatal("restored rooms should exist")
	}
	if r.host("r2") != "bob" {
		t.Errorf("host(r2) = %q, want bob", r.host("r2"))
	}
	hosts := r.hostMap()
	if len(hosts) != 2 {
		t.Errorf("hostMap size = %d, want 2", len(hosts))
	}
}
