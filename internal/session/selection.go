package session

// Selection is the set of highlighted node ids. It is a value: a search
// submission replaces it wholesale rather than editing it in place.
type Selection struct {
	ids   []int
	index map[int]struct{}
}

// NewSelection builds a selection over ids, keeping their order and
// dropping repeats.
func NewSelection(ids []int) Selection {
	s := Selection{
		ids:   make([]int, 0, len(ids)),
		index: make(map[int]struct{}, len(ids)),
	}
	for _, id := range ids {
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

// Contains reports whether id is selected.
func (s Selection) Contains(id int) bool {
	_, ok := s.index[id]
	return ok
}

// IDs returns a copy of the selected ids.
func (s Selection) IDs() []int {
	out := make([]int, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected ids.
func (s Selection) Len() int { return len(s.ids) }

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return len(s.ids) == 0 }
