package core

// TransformationType says whether a source column's value is incorporated into
// the output value (DIRECT) or only influences which rows appear (INDIRECT).
type TransformationType string

// TransformationType constants.
const (
	Direct   TransformationType = "DIRECT"
	Indirect TransformationType = "INDIRECT"
)

// TransformationSubtype refines a TransformationType.
type TransformationSubtype string

// TransformationSubtype constants. An empty subtype is allowed.
const (
	SubtypeNone           TransformationSubtype = ""
	SubtypeIdentity       TransformationSubtype = "IDENTITY"
	SubtypeTransformation TransformationSubtype = "TRANSFORMATION"
	SubtypeAggregation    TransformationSubtype = "AGGREGATION"
	SubtypeJoin           TransformationSubtype = "JOIN"
	SubtypeGroupBy        TransformationSubtype = "GROUP_BY"
	SubtypeFilter         TransformationSubtype = "FILTER"
	SubtypeSort           TransformationSubtype = "SORT"
	SubtypeWindow         TransformationSubtype = "WINDOW"
	SubtypeCondition      TransformationSubtype = "CONDITION"
)

// Transformation classifies how an input column reaches an output column.
// Equality is structural on (Type, Subtype, Masking); Description is informational.
type Transformation struct {
	Type        TransformationType    `json:"type"`
	Subtype     TransformationSubtype `json:"subtype,omitempty"`
	Description string                `json:"description,omitempty"`
	Masking     bool                  `json:"masking"`
}

// Common DIRECT transformations.
var (
	DirectIdentity       = Transformation{Type: Direct, Subtype: SubtypeIdentity}
	DirectTransformation = Transformation{Type: Direct, Subtype: SubtypeTransformation}
	DirectAggregation    = Transformation{Type: Direct, Subtype: SubtypeAggregation}
)

// Key returns the deduplication key "type-subtype-MASKED|UNMASKED".
func (t Transformation) Key() string {
	mask := "UNMASKED"
	if t.Masking {
		mask = "MASKED"
	}
	return string(t.Type) + "-" + string(t.Subtype) + "-" + mask
}

// Masked returns a copy of t with the masking flag set to m.
func (t Transformation) Masked(m bool) Transformation {
	t.Masking = m
	return t
}

// Equal reports structural equality.
func (t Transformation) Equal(o Transformation) bool {
	return t.Key() == o.Key()
}

func (t Transformation) String() string {
	return t.Key()
}
