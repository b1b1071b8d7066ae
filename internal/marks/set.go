package marks

import "sort"

// Set is a set of movie ids. The zero value is empty and ready to use.
type Set struct {
	ids map[int]struct{}
}

// NewSet builds a set from ids.
func NewSet(ids ...int) *Set {
	s := &Set{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s *Set) Has(id int) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Toggle flips membership of id and returns the new membership.
func (s *Set) Toggle(id int) bool {
	if s.ids == nil {
		s.ids = make(map[int]struct{})
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Len is the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the members in ascending order.
func (s *Set) IDs() []int {
	out := make([]int, 0, s.Len())
	if s == nil {
		return out
	}
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
