package engine

import "testing"

func TestResolveAction(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"on", "on"},
		{"open", "aperto"},
		{"off", "off"},
		{"close", "chiuso"},
		{"toggle", "chiuso"},
		{"", "chiuso"},
		{"ON", "chiuso"},   // case-sensitive
		{"Open", "chiuso"}, // case-sensitive
	}

	for _, tt := range tests {
		if got := ResolveAction(tt.action); got != tt.want {
			t.Errorf("ResolveAction(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestDefaultObjectStates(t *testing.T) {
	states := DefaultObjectStates()

	want := map[string]string{
		"oven":      "off",
		"fridge":    "off",
		"drawer":    "chiuso",
		"gas_valve": "chiusa",
		"window":    "chiusa",
	}

	if len(states) != len(want) {
		t.Fatalf("expected %d default elements, got %d", len(want), len(states))
	}

	for element, state := range want {
		if states[element] != state {
			t.Errorf("default state of %s = %q, want %q", element, states[element], state)
		}
	}
}

func TestDefaultObjectStatesIndependent(t *testing.T) {
	a := DefaultObjectStates()
	a["oven"] = "on"

	b := DefaultObjectStates()
	if b["oven"] != "off" {
		t.Error("mutating one default snapshot leaked into another")
	}
}

func TestObjectStatesClone(t *testing.T) {
	orig := DefaultObjectStates()
	cp := orig.Clone()

	cp["window"] = "aperto"

	if orig["window"] != "chiusa" {
		t.Error("Clone() did not produce an independent copy")
	}
}
