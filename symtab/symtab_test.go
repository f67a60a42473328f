package symtab

import "testing"

func TestAbsoluteSymbols(t *testing.T) {
	m := New()
	if err := m.AddAbsolute(1, "A", 0x1000, Address); err != nil {
		t.Fatalf("AddAbsolute: %v", err)
	}
	if err := m.AddAbsolute(5, "A", 0x2000, Address); err == nil {
		t.Fatalf("expected MultipleDefinitionError")
	}
	v, ok := m.Absolute("A")
	if !ok || v != 0x1000 {
		t.Fatalf("Absolute(A) = (%d, %v), want (0x1000, true)", v, ok)
	}
}

func TestLocalSymbolsNearestMatch(t *testing.T) {
	m := New()
	if err := m.AddRelative(1, "1", 0x1000); err != nil {
		t.Fatalf("AddRelative: %v", err)
	}
	if err := m.AddRelative(3, "1", 0x1008); err != nil {
		t.Fatalf("AddRelative: %v", err)
	}

	// From source line 2, "1f" should be the definition at line 3, and "1b"
	// the definition at line 1.
	snap := m.Snapshot(2, "b", "f")
	if v, ok := snap["1f"]; !ok || v != 0x1008 {
		t.Fatalf("1f = (%d, %v), want (0x1008, true)", v, ok)
	}
	if v, ok := snap["1b"]; !ok || v != 0x1000 {
		t.Fatalf("1b = (%d, %v), want (0x1000, true)", v, ok)
	}
}

func TestIsLocal(t *testing.T) {
	if !IsLocal("1") || IsLocal("A") || IsLocal("") {
		t.Fatalf("IsLocal misclassified an input")
	}
}
