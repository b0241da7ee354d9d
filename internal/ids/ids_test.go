package ids

import "testing"

func TestNewIsSortableAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	var prev string
	for i := 0; i < 1000; i++ {
		id := New()
		if len(id) != 26 {
			t.Fatalf("unexpected id length: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = true
		if prev != "" && id < prev {
			t.Fatalf("ids not monotonic: %q < %q", id, prev)
		}
		prev = id
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(New()) {
		t.Fatal("generated id should be valid")
	}
	if IsValid("not-an-id") {
		t.Fatal("garbage should not validate")
	}
	if IsValid("") {
		t.Fatal("empty string should not validate")
	}
}
