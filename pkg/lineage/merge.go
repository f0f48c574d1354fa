package lineage

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// ErrUnsupportedTransformation is returned when an INDIRECT transformation
// reaches the merge algebra. Only DIRECT transformations are propagated.
var ErrUnsupportedTransformation = errors.New("unsupported transformation combination")

// UnsupportedTransformationError reports the pair that could not be merged.
type UnsupportedTransformationError struct {
	Parent core.Transformation
	Child  core.Transformation
}

func (e *UnsupportedTransformationError) Error() string {
	return fmt.Sprintf("%s: cannot merge %s into %s", ErrUnsupportedTransformation, e.Child.Key(), e.Parent.Key())
}

func (e *UnsupportedTransformationError) Unwrap() error {
	return ErrUnsupportedTransformation
}

// Merge combines an inherited parent transformation with a child one.
//
// A nil parent yields the child. Otherwise the leading side is chosen by
// AGGREGATION > TRANSFORMATION > IDENTITY, parent first on ties, and the
// masking flags are OR-ed.
func Merge(parent *core.Transformation, child core.Transformation) (core.Transformation, error) {
	if parent == nil {
		return child, nil
	}
	if parent.Type != core.Direct || child.Type != core.Direct {
		return core.Transformation{}, &UnsupportedTransformationError{Parent: *parent, Child: child}
	}

	var lead core.Transformation
	switch {
	case parent.Subtype == core.SubtypeAggregation:
		lead = *parent
	case child.Subtype == core.SubtypeAggregation:
		lead = child
	case parent.Subtype == core.SubtypeTransformation:
		lead = *parent
	default:
		lead = child
	}

	return lead.Masked(parent.Masking || child.Masking), nil
}

// mergeSets returns the cross product merge of every (context, local) pair.
func mergeSets(context, local *TransformationSet) (*TransformationSet, error) {
	out := NewTransformationSet()
	for _, c := range context.Values() {
		for _, l := range local.Values() {
			merged, err := Merge(&c, l)
			if err != nil {
				return nil, err
			}
			out.Add(merged)
		}
	}
	return out, nil
}
