package engine

import "testing"

func TestRoster_AddOrReplaceEvictsSameName(t *testing.T) {
	r := newRoster()

	if _, evicted := r.addOrReplace("room-1", "c1", "alice", true); evicted != "" {
		t.Errorf("first insert should evict nobody, got %q", evicted)
	}
	members, evicted := r.addOrReplace("room-1", "c2", "alice", true)

	if evicted != "c1" {
		t.Errorf("evicted = %q, want c1", evicted)
	}
	if len(members) != 1 {
		t.Fatalf("roster size = %d, want 1", len(members))
	}
	if members[0].ConnID != "c2" {
		t.Errorf("stale connection should be evicted, kept %s", members[0].ConnID)
	}
	if _, ok := r.roomOf("c1"); ok {
		t.Error("evicted connection should no longer map to a room")
	}

	// Re-adding the same connection is a refresh, not an eviction.
	if _, evicted := r.addOrReplace("room-1", "c2", "alice", true); evicted != "" {
		t.Errorf("same-connection rejoin should evict nobody, got %q", evicted)
	}
}

func TestRoster_RemoveReturnsEntry(t *testing.T) {
	r := newRoster()
	r.addOrReplace("room-1", "c1", "alice", true)
	r.addOrReplace("room-1", "c2", "bob", false)

	roomID, part, ok := r.remove("c2")
	if !ok || roomID != "room-1" || part.Name != "bob" {
		t.Fatalf("remove = (%q, %+v, %v)", roomID, part, ok)
	}
	if got := len(r.participants("room-1")); got != 1 {
		t.Errorf("roster size = %d, want 1", got)
	}
	if _, _, ok := r.remove("c2"); ok {
		t.Error("second remove should be a no-op")
	}
}

func TestRoster_FindHostConn(t *testing.T) {
	r := newRoster()
	r.addOrReplace("room-1", "c1", "alice", true)
	r.addOrReplace("room-1", "c2", "bob", false)

	tests := []struct {
		name     string
		hostName string
		wantConn string
		wantOK   bool
	}{
		{name: "host present", hostName: "alice", wantConn: "c1", wantOK: true},
		{name: "member without host flag", hostName: "bob", wantOK: false},
		{name: "absent name", hostName: "carol", wantOK: false},
		{name: "empty host name", hostName: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, ok := r.findHostConn("room-1", tt.hostName)
			if ok != tt.wantOK || conn != tt.wantConn {
				t.Errorf("findHostConn(%q) = (%q, %v), want (%q, %v)",
					tt.hostName, conn, ok, tt.wantConn, tt.wantOK)
			}
		})
	}
}

func TestRoster_DropRoom(t *testing.T) {
	r := newRoster()
	r.addOrReplace("room-1", "c1", "alice", true)
	r.addOrReplace("room-1", "c2", "bob", false)
	r.addOrReplace("room-2", "c3", "carol", true)

	evicted := r.dropRoom("room-1")
	if len(evicted) != 2 {
		t.Fatalf("evicted %d members, want 2", len(evicted))
	}
	for _, p := range evicted {
		if _, ok := r.roomOf(p.ConnID); ok {
			t.Errorf("evicted member %s still mapped to a room", p.ConnID)
		}
	}
	if got := len(r.participants("room-2")); got != 1 {
		t.Errorf("other room size = %d, want 1", got)
	}
}
