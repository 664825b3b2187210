package session

import (
	"sort"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	a := &Session{ID: "a"}
	b := &Session{ID: "b"}
	r.Insert(a)
	r.Insert(b)

	if r.Len() != 2 {
		t.Errorf("Expected 2 sessions, got %d", r.Len())
	}

	if s, ok := r.Lookup("a"); !ok || s != a {
		t.Error("Lookup should return the registered session")
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup of unknown id should report absent")
	}

	ids := r.IDs()
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("Expected ids [a b], got %v", ids)
	}

	if s, ok := r.Remove("a"); !ok || s != a {
		t.Error("Remove should return the session")
	}
	if _, ok := r.Remove("a"); ok {
		t.Error("Second remove of the same id should report absent")
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 session after removal, got %d", r.Len())
	}
}
