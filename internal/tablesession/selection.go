package tablesession

import "sort"

// Selection is the set of row ids chosen for a bulk action. Not
// persisted; cleared after every attempted bulk action and pruned
// whenever the visible set changes.
type Selection map[int64]struct{}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{}
}

// Add marks the id as selected.
func (s Selection) Add(id int64) {
	s[id] = struct{}{}
}

// Toggle flips the id's selected state.
func (s Selection) Toggle(id int64) {
	if _, ok := s[id]; ok {
		delete(s, id)
	} else {
		s[id] = struct{}{}
	}
}

// Has reports whether the id is selected.
func (s Selection) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Clear empties the selection.
func (s Selection) Clear() {
	for id := range s {
		delete(s, id)
	}
}

// Len returns the number of selected ids.
func (s Selection) Len() int {
	return len(s)
}

// IDs returns the selected ids in ascending order.
func (s Selection) IDs() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Prune drops any selected id that is no longer in the visible set.
func (s Selection) Prune(visible []int64) {
	keep := make(map[int64]struct{}, len(visible))
	for _, id := range visible {
		keep[id] = struct{}{}
	}
	for id := range s {
		if _, ok := keep[id]; !ok {
			delete(s, id)
		}
	}
}
