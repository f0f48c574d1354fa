// Package openlineage wraps lineage results in OpenLineage facets and run events.
package openlineage

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schema URLs of the facets and events emitted by this package.
const (
	ColumnLineageFacetSchemaURL = "https://openlineage.io/spec/facets/1-2-0/ColumnLineageDatasetFacet.json"
	SchemaFacetSchemaURL        = "https://openlineage.io/spec/facets/1-1-1/SchemaDatasetFacet.json"
	RunEventSchemaURL           = "https://openlineage.io/spec/2-0-2/OpenLineage.json#/definitions/RunEvent"
)

// Facet keys inside a dataset's facets object.
const (
	ColumnLineageFacetKey = "columnLineage"
	SchemaFacetKey        = "schema"
)

// ColumnLineageDatasetFacet maps each output field to the input fields used
// to evaluate it.
type ColumnLineageDatasetFacet struct {
	Producer  string                                             `json:"_producer"`
	SchemaURL string                                             `json:"_schemaURL"`
	Fields    *orderedmap.OrderedMap[string, core.FieldLineage] `json:"fields"`
}

// NewColumnLineageFacet builds the facet for result. Transformations without
// a description get one derived from their subtype.
func NewColumnLineageFacet(producer string, result *lineage.Result) *ColumnLineageDatasetFacet {
	fields := orderedmap.New[string, core.FieldLineage]()
	result.Each(func(name string, field core.FieldLineage) {
		inputs := make([]core.InputField, len(field.InputFields))
		for i, in := range field.InputFields {
			ts := make([]core.Transformation, len(in.Transformations))
			for j, t := range in.Transformations {
				if t.Description == "" {
					t.Description = Describe(t)
				}
				ts[j] = t
			}
			in.Transformations = ts
			inputs[i] = in
		}
		fields.Set(name, core.FieldLineage{InputFields: inputs})
	})

	return &ColumnLineageDatasetFacet{
		Producer:  producer,
		SchemaURL: ColumnLineageFacetSchemaURL,
		Fields:    fields,
	}
}

// Describe returns a short human readable description of t.
func Describe(t core.Transformation) string {
	var desc string
	switch t.Subtype {
	case core.SubtypeIdentity:
		desc = "value copied unchanged"
	case core.SubtypeTransformation:
		desc = "value computed from the input row"
	case core.SubtypeAggregation:
		desc = "value aggregated over input rows"
	default:
		desc = string(t.Type)
	}
	if t.Masking {
		desc += ", masked"
	}
	return desc
}

// SchemaField is one field of a dataset schema.
type SchemaField struct {
	Name        string        `json:"name"`
	Type        string        `json:"type,omitempty"`
	Description string        `json:"description,omitempty"`
	Fields      []SchemaField `json:"fields,omitempty"`
}

// SchemaDatasetFacet lists the fields of a dataset.
type SchemaDatasetFacet struct {
	Producer  string        `json:"_producer"`
	SchemaURL string        `json:"_schemaURL"`
	Fields    []SchemaField `json:"fields"`
}

// NewSchemaFacet builds a schema facet listing the output columns of result.
// Column types are unknown to the resolver and left empty.
func NewSchemaFacet(producer string, result *lineage.Result) *SchemaDatasetFacet {
	fields := make([]SchemaField, 0, result.Len())
	for _, name := range result.Names() {
		fields = append(fields, SchemaField{Name: name})
	}
	return &SchemaDatasetFacet{
		Producer:  producer,
		SchemaURL: SchemaFacetSchemaURL,
		Fields:    fields,
	}
}
