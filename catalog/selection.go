package catalog

// Selection is a set of selected record ids. The zero value is empty and
// ready to use.
type Selection struct {
	ids map[string]struct{}
}

// Select adds id. Selecting twice is a no-op.
func (s *Selection) Select(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

// Deselect removes id. Deselecting an unselected id is a no-op.
func (s *Selection) Deselect(id string) {
	delete(s.ids, id)
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
}

// AllSelected reports whether every id in ids is selected. It is false for
// an empty ids list.
func (s *Selection) AllSelected(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// ToggleAll selects every id in ids unless all of them are already
// selected, in which case the selection is cleared.
func (s *Selection) ToggleAll(ids []string) {
	if s.AllSelected(ids) {
		s.Clear()
		return
	}
	for _, id := range ids {
		s.Select(id)
	}
}

// Retain drops every selected id that is not in ids.
func (s *Selection) Retain(ids []string) {
	if len(s.ids) == 0 {
		return
	}
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// Ordered returns the selected ids in the order they appear in ids.
func (s *Selection) Ordered(ids []string) []string {
	out := make([]string, 0, len(s.ids))
	for _, id := range ids {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
