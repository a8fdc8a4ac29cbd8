package engine

// Discrete state tokens for interactive elements. The Italian tokens are part
// of the wire protocol: clients match on these exact strings.
const (
	StateOn     = "on"
	StateOff    = "off"
	StateOpen   = "aperto" // open
	StateClosed = "chiuso" // closed
)

// ObjectStates maps an element name to its current discrete state token.
type ObjectStates map[string]string

// Clone returns an independent copy of the states map.
func (s ObjectStates) Clone() ObjectStates {
	out := make(ObjectStates, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DefaultObjectStates returns the snapshot every session starts from.
// "chiusa" is the feminine form of closed; it differs from StateClosed on
// purpose because clients expect it verbatim for these two elements.
func DefaultObjectStates() ObjectStates {
	return ObjectStates{
		"oven":      StateOff,
		"fridge":    StateOff,
		"drawer":    StateClosed,
		"gas_valve": "chiusa",
		"window":    "chiusa",
	}
}

// ResolveAction maps a requested action token to the element's next state.
// First match wins; any unrecognized token (including the empty string)
// resolves to closed.
//
// The mapping ignores which element is being acted on: "on" applied to a
// drawer yields "on", not a drawer-appropriate state. That is a known
// simplification carried over from the original game, not a per-element
// state machine.
func ResolveAction(action string) string {
	switch action {
	case "on":
		return StateOn
	case "open":
		return StateOpen
	case "off":
		return StateOff
	default:
		return StateClosed
	}
}
