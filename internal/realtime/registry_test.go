package realtime

import (
	"sort"
	"testing"
)

func TestSessionRegistryBindUnbind(t *testing.T) {
	r := NewSessionRegistry()

	r.Bind("conn-1", "alice")
	r.Bind("conn-2", "bob")

	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	if name, ok := r.Name("conn-1"); !ok || name != "alice" {
		t.Errorf("Name(conn-1) = %q, %v", name, ok)
	}

	r.Unbind("conn-1")
	if _, ok := r.Name("conn-1"); ok {
		t.Error("expected conn-1 removed")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}

	// unbinding an unknown connection is a no-op
	r.Unbind("conn-99")
	if r.Count() != 1 {
		t.Errorf("Count() = %d after no-op unbind, want 1", r.Count())
	}
}

func TestSessionRegistryRebindReplacesName(t *testing.T) {
	r := NewSessionRegistry()

	r.Bind("conn-1", "alice")
	r.Bind("conn-1", "alicia")

	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
	if name, _ := r.Name("conn-1"); name != "alicia" {
		t.Errorf("Name(conn-1) = %q, want alicia", name)
	}
	if conns := r.Connections("alice"); len(conns) != 0 {
		t.Errorf("stale name still has connections: %v", conns)
	}
}

func TestSessionRegistryConnections(t *testing.T) {
	r := NewSessionRegistry()

	// the same name can linger on two connections until registration migrates it
	r.Bind("conn-1", "alice")
	r.Bind("conn-2", "alice")
	r.Bind("conn-3", "bob")

	conns := r.Connections("alice")
	sort.Strings(conns)
	if len(conns) != 2 || conns[0] != "conn-1" || conns[1] != "conn-2" {
		t.Errorf("Connections(alice) = %v", conns)
	}
	if conns := r.Connections("carol"); len(conns) != 0 {
		t.Errorf("Connections(carol) = %v, want empty", conns)
	}
}
