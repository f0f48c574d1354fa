package lineage

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TransformationSet is a set of transformations deduplicated by
// core.Transformation.Key. Iteration follows insertion order. The zero
// value is an empty set ready to use.
type TransformationSet struct {
	items *orderedmap.OrderedMap[string, core.Transformation]
}

// NewTransformationSet returns a set holding the given transformations.
func NewTransformationSet(ts ...core.Transformation) *TransformationSet {
	s := &TransformationSet{}
	for _, t := range ts {
		s.Add(t)
	}
	return s
}

func (s *TransformationSet) lazyInit() {
	if s.items == nil {
		s.items = orderedmap.New[string, core.Transformation]()
	}
}

// oldest returns the first pair, nil for an empty or zero set.
func (s *TransformationSet) oldest() *orderedmap.Pair[string, core.Transformation] {
	if s == nil || s.items == nil {
		return nil
	}
	return s.items.Oldest()
}

// Add inserts t. An element with the same key is replaced in place.
func (s *TransformationSet) Add(t core.Transformation) {
	s.lazyInit()
	s.items.Set(t.Key(), t)
}

// AddAll adds every element of other.
func (s *TransformationSet) AddAll(other *TransformationSet) {
	for pair := other.oldest(); pair != nil; pair = pair.Next() {
		s.Add(pair.Value)
	}
}

// Has reports whether an element with t's key is present.
func (s *TransformationSet) Has(t core.Transformation) bool {
	if s == nil || s.items == nil {
		return false
	}
	_, ok := s.items.Get(t.Key())
	return ok
}

// Intersection returns the elements of s whose key is also in other.
// The representative value is always taken from s.
func (s *TransformationSet) Intersection(other *TransformationSet) *TransformationSet {
	out := NewTransformationSet()
	for pair := s.oldest(); pair != nil; pair = pair.Next() {
		if other.Has(pair.Value) {
			out.Add(pair.Value)
		}
	}
	return out
}

// Values returns the elements in insertion order.
func (s *TransformationSet) Values() []core.Transformation {
	values := make([]core.Transformation, 0, s.Len())
	for pair := s.oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}
	return values
}

// Len returns the number of elements.
func (s *TransformationSet) Len() int {
	if s == nil || s.items == nil {
		return 0
	}
	return s.items.Len()
}
