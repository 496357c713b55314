package models

import (
	"encoding/json"
	"slices"
)

// IDSet is a set of entity identifiers. It serialises as a sorted JSON array.
type IDSet map[uint]struct{}

// NewIDSet builds a set from ids, dropping duplicates.
func NewIDSet(ids ...uint) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s IDSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id and reports whether it was absent.
func (s IDSet) Add(id uint) bool {
	if s.Has(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (s IDSet) Remove(id uint) bool {
	if !s.Has(id) {
		return false
	}
	delete(s, id)
	return true
}

// Len returns the cardinality.
func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []uint {
	out := make([]uint, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []uint
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
