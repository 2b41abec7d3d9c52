package id

import "testing"

func TestULIDGeneratorUniqueness(t *testing.T) {
	gen := ULIDGenerator{}
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := gen.NewOrderID()
		if len(id) != 26 {
			t.Fatalf("expected 26-character ULID, got %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate identifier generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestGeneratorFunc(t *testing.T) {
	gen := GeneratorFunc(func() string { return "fixed" })
	if gen.NewOrderID() != "fixed" {
		t.Fatalf("expected wrapped function result")
	}
}
