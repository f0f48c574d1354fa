package core

// ---------- FROM clause ----------

// FromClause represents the FROM clause.
type FromClause struct {
	NodeInfo
	Source TableRef
	Joins  []*Join
}

// Items returns the source and every joined table reference in FROM-list order.
func (f *FromClause) Items() []TableRef {
	if f == nil {
		return nil
	}
	items := make([]TableRef, 0, 1+len(f.Joins))
	if f.Source != nil {
		items = append(items, f.Source)
	}
	for _, j := range f.Joins {
		if j.Right != nil {
			items = append(items, j.Right)
		}
	}
	return items
}

// Join represents a JOIN clause.
type Join struct {
	NodeInfo
	Type      JoinType
	Right     TableRef
	Condition Expr     // ON clause (mutually exclusive with Using)
	Using     []string // USING (col1, col2) columns
}

// JoinType represents the type of join.
// The value is the SQL keyword (e.g., "LEFT", "INNER").
type JoinType string

// JoinType constants.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// TableName represents a table reference, optionally schema-qualified.
type TableName struct {
	NodeInfo
	Catalog string
	Schema  string
	Name    string
	Alias   string
}

func (*TableName) tableRefNode() {}

// QualifiedName returns the dotted catalog.schema.name form.
func (t *TableName) QualifiedName() string {
	name := t.Name
	if t.Schema != "" {
		name = t.Schema + "." + name
	}
	if t.Catalog != "" {
		name = t.Catalog + "." + name
	}
	return name
}

// DerivedTable represents a subquery in FROM clause.
type DerivedTable struct {
	NodeInfo
	Select *SelectStmt
	Alias  string
}

func (*DerivedTable) tableRefNode() {}
