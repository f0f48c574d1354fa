package core

// InputField is one source column contributing to an output column.
type InputField struct {
	Namespace       string           `json:"namespace"`
	Name            string           `json:"name"`  // source table
	Field           string           `json:"field"` // source column
	Transformations []Transformation `json:"transformations"`
}

// FieldLineage holds the inputs of a single output column.
type FieldLineage struct {
	InputFields []InputField `json:"inputFields"`
}

// Tables returns the distinct source tables in order of first appearance.
func (f FieldLineage) Tables() []string {
	seen := make(map[string]struct{})
	var tables []string
	for _, in := range f.InputFields {
		if _, ok := seen[in.Name]; ok {
			continue
		}
		seen[in.Name] = struct{}{}
		tables = append(tables, in.Name)
	}
	return tables
}
