// Package circuit holds the core data model for the circuit builder: the
// component list a user edits and the per-session state wrapped around it.
package circuit

// Component is one row of the user-edited component list. Both fields are
// free text; components carry no identity beyond their position in the list.
type Component struct {
	Kind  string `json:"type"`
	Value string `json:"value"`
}

// DefaultComponents returns the seed list every new session starts with.
func DefaultComponents() []Component {
	return []Component{
		{Kind: "Resistor", Value: "10kΩ"},
		{Kind: "Capacitor", Value: "100nF"},
		{Kind: "LED", Value: "Green"},
	}
}
