package chat

import "testing"

func TestRegistryBindLastWins(t *testing.T) {
	reg := NewRegistry()
	c1 := newTestClient("c1")
	c2 := newTestClient("c2")

	if prev := reg.Bind("u1", c1); prev != nil {
		t.Fatalf("first bind returned prev=%v", prev.ConnID)
	}
	prev := reg.Bind("u1", c2)
	if prev != c1 {
		t.Fatalf("second bind should supersede c1, got %v", prev)
	}

	cur, ok := reg.Lookup("u1")
	if !ok || cur != c2 {
		t.Fatalf("lookup after rebind = %v, want c2", cur)
	}
	// superseded connection stays alive, it is just no longer addressed
	select {
	case <-c1.Done():
		t.Fatal("superseded client was killed")
	default:
	}
}

func TestRegistryBindSameClientTwice(t *testing.T) {
	reg := NewRegistry()
	c1 := newTestClient("c1")
	reg.Bind("u1", c1)
	if prev := reg.Bind("u1", c1); prev != nil {
		t.Fatalf("rebinding the same client returned prev=%v", prev.ConnID)
	}
}

func TestRegistryUnbindIdentityChecked(t *testing.T) {
	reg := NewRegistry()
	c1 := newTestClient("c1")
	c2 := newTestClient("c2")

	reg.Bind("u1", c1)
	reg.Bind("u1", c2)

	// the stale close from c1 must not evict c2's binding
	if reg.Unbind("u1", c1) {
		t.Fatal("unbind of superseded client reported success")
	}
	if !reg.IsOnline("u1") {
		t.Fatal("u1 went offline after stale unbind")
	}

	if !reg.Unbind("u1", c2) {
		t.Fatal("unbind of current client failed")
	}
	if reg.IsOnline("u1") {
		t.Fatal("u1 still online after unbind")
	}
}

func TestRegistrySnapshotExcludes(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("u1", newTestClient("c1"))
	reg.Bind("u2", newTestClient("c2"))
	reg.Bind("u3", newTestClient("c3"))

	snap := reg.Snapshot("u2")
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}
	for _, c := range snap {
		if c.ConnID == "c2" {
			t.Fatal("snapshot contains the excluded user's client")
		}
	}
	if reg.Count() != 3 {
		t.Fatalf("count = %d, want 3", reg.Count())
	}
}
