package decision

import "sort"

// NotifiedSet records fixtures that already produced a notification. It
// lives for the process lifetime; a restart may notify a fixture again.
type NotifiedSet struct {
	ids map[string]struct{}
}

func NewNotifiedSet() *NotifiedSet {
	return &NotifiedSet{ids: make(map[string]struct{})}
}

func (s *NotifiedSet) Add(fixtureID string) { s.ids[fixtureID] = struct{}{} }

func (s *NotifiedSet) Contains(fixtureID string) bool {
	_, ok := s.ids[fixtureID]
	return ok
}

func (s *NotifiedSet) Len() int { return len(s.ids) }

// IDs returns the members in sorted order.
func (s *NotifiedSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
