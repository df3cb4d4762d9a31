package circuit

import "strings"

// Session is the state container for a single user's interaction: the
// component list, the LCSC link list, the names pulled out of an uploaded
// BOM, and the last model reply. It is owned by the top level handler and
// passed by reference into layout and export code; it is never shared
// across sessions and never persisted beyond one.
//
// There is no delete operation for components or links, so positional
// addressing is stable for the life of a session.
type Session struct {
	Description string      `json:"description,omitempty"`
	Components  []Component `json:"components"`
	Links       []string    `json:"links"`
	BOMNames    []string    `json:"bom_names,omitempty"`
	Response    string      `json:"response,omitempty"`
}

// NewSession returns a session seeded with the default component list and
// one empty link slot.
func NewSession() *Session {
	return &Session{
		Components: DefaultComponents(),
		Links:      []string{""},
	}
}

// AddComponent appends a blank component row.
func (s *Session) AddComponent() {
	s.Components = append(s.Components, Component{})
}

// SetComponent overwrites the component at index i. Out of range indexes
// are ignored; the form can only address rows that exist.
func (s *Session) SetComponent(i int, kind, value string) {
	if i < 0 || i >= len(s.Components) {
		return
	}
	s.Components[i] = Component{Kind: kind, Value: value}
}

// AddLink appends a blank LCSC link slot.
func (s *Session) AddLink() {
	s.Links = append(s.Links, "")
}

// SetLink overwrites the link at index i, ignoring out of range indexes.
func (s *Session) SetLink(i int, link string) {
	if i < 0 || i >= len(s.Links) {
		return
	}
	s.Links[i] = link
}

// ValidLinks returns the non-blank links, trimmed.
func (s *Session) ValidLinks() []string {
	var out []string
	for _, l := range s.Links {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
