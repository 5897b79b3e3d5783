package common

import (
	"cmp"
	"slices"
)

// Set is a set of ordered values. Listing and iteration go in ascending order so that game logic stays deterministic.
type Set[K cmp.Ordered] map[K]struct{}

// StringSet is a set of strings
type StringSet = Set[string]

// EntityIDSet is a set of entity IDs
type EntityIDSet = Set[EntityID]

// Add adds elem to the set
func (s Set[K]) Add(elem K) {
	s[elem] = struct{}{}
}

// Del removes elem from the set
func (s Set[K]) Del(elem K) {
	delete(s, elem)
}

// Contains checks if elem is in the set
func (s Set[K]) Contains(elem K) bool {
	_, ok := s[elem]
	return ok
}

// ToList returns the elements in ascending order
func (s Set[K]) ToList() []K {
	list := make([]K, 0, len(s))
	for elem := range s {
		list = append(list, elem)
	}
	slices.Sort(list)
	return list
}

// ForEach visits the elements in ascending order until cb returns false
func (s Set[K]) ForEach(cb func(elem K) bool) {
	for _, elem := range s.ToList() {
		if !cb(elem) {
			return
		}
	}
}
