package parser_test

import (
	"testing"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/dialects/databricks"
	"github.com/leapstack-labs/leaplineage/pkg/dialects/duckdb"
	"github.com/leapstack-labs/leaplineage/pkg/parser"
	"github.com/leapstack-labs/leaplineage/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, sql string) *core.SelectStmt {
	t.Helper()
	stmt, err := parser.ParseWithDialect(sql, dialect.ANSI)
	require.NoError(t, err)
	require.NotNil(t, stmt)
	return stmt
}

func firstCore(t *testing.T, stmt *core.SelectStmt) *core.SelectCore {
	t.Helper()
	require.NotNil(t, stmt.Body)
	require.NotNil(t, stmt.Body.Left)
	return stmt.Body.Left
}

func TestParseSimpleSelect(t *testing.T) {
	stmt := parse(t, "SELECT id, name AS n, u.email FROM users u")
	sc := firstCore(t, stmt)

	require.Len(t, sc.Columns, 3)
	id, ok := sc.Columns[0].Expr.(*core.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "id", id.Column)
	assert.Equal(t, token.Position{Line: 1, Column: 8, Offset: 7}, id.Pos())
	assert.Equal(t, "n", sc.Columns[1].Alias)

	ref, ok := sc.Columns[2].Expr.(*core.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "u", ref.Table)
	assert.Equal(t, "email", ref.Column)

	table, ok := sc.From.Source.(*core.TableName)
	require.True(t, ok)
	assert.Equal(t, "users", table.Name)
	assert.Equal(t, "u", table.Alias)
}

func TestParseStars(t *testing.T) {
	sc := firstCore(t, parse(t, "SELECT *, t.* FROM t"))
	require.Len(t, sc.Columns, 2)
	assert.True(t, sc.Columns[0].Star)
	assert.Equal(t, "t", sc.Columns[1].TableStar)
	assert.True(t, sc.Columns[1].IsStar())
}

func TestParseWithClause(t *testing.T) {
	stmt := parse(t, `
		WITH u AS (SELECT id, name FROM users),
		     v (a, b) AS (SELECT id, name FROM u)
		SELECT id, name AS wow FROM v`)

	require.NotNil(t, stmt.With)
	require.Len(t, stmt.With.CTEs, 2)
	assert.Equal(t, "u", stmt.With.CTEs[0].Name)
	assert.Equal(t, "v", stmt.With.CTEs[1].Name)

	inner := firstCore(t, stmt.With.CTEs[1].Select)
	table, ok := inner.From.Source.(*core.TableName)
	require.True(t, ok)
	assert.Equal(t, "u", table.Name)
}

func TestParseJoins(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []core.JoinType
	}{
		{"inner", "SELECT 1 FROM a JOIN b ON a.x = b.x", []core.JoinType{core.JoinInner}},
		{"left outer", "SELECT 1 FROM a LEFT OUTER JOIN b ON a.x = b.x", []core.JoinType{core.JoinLeft}},
		{"comma", "SELECT 1 FROM a, b", []core.JoinType{core.JoinComma}},
		{"using and cross", "SELECT 1 FROM a FULL JOIN b USING (x) CROSS JOIN c", []core.JoinType{core.JoinFull, core.JoinCross}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := firstCore(t, parse(t, tt.sql))
			var got []core.JoinType
			for _, j := range sc.From.Joins {
				got = append(got, j.Type)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDerivedTable(t *testing.T) {
	sc := firstCore(t, parse(t, "SELECT t.a FROM (SELECT a FROM x) AS t"))
	derived, ok := sc.From.Source.(*core.DerivedTable)
	require.True(t, ok)
	assert.Equal(t, "t", derived.Alias)
	require.NotNil(t, derived.Select)
}

func TestParseSchemaQualified(t *testing.T) {
	sc := firstCore(t, parse(t, "SELECT public.users.id FROM public.users"))

	table, ok := sc.From.Source.(*core.TableName)
	require.True(t, ok)
	assert.Equal(t, "public", table.Schema)
	assert.Equal(t, "users", table.Name)

	ref, ok := sc.Columns[0].Expr.(*core.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "public.users", ref.Table)
	assert.Equal(t, "id", ref.Column)
}

func TestParseExpressions(t *testing.T) {
	sc := firstCore(t, parse(t, `
		SELECT a + b * 2 AS x,
		       COUNT(*) AS c,
		       COUNT(DISTINCT user_id) AS d,
		       UPPER(name) AS up,
		       CAST(price AS DECIMAL(10, 2)) AS p,
		       CASE WHEN a > 1 THEN 'big' ELSE 'small' END AS size,
		       (a) AS paren,
		       ROW_NUMBER() OVER (PARTITION BY a ORDER BY b DESC ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) AS rn
		FROM t
		WHERE a IS NOT NULL AND b NOT IN (1, 2) AND name LIKE 'x%' AND a BETWEEN 1 AND 3
		GROUP BY a, b
		HAVING COUNT(*) > 1
		ORDER BY a DESC NULLS LAST
		LIMIT 10 OFFSET 5`))

	require.Len(t, sc.Columns, 8)

	bin, ok := sc.Columns[0].Expr.(*core.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.PLUS, bin.Op)
	mul, ok := bin.Right.(*core.BinaryExpr)
	require.True(t, ok, "multiplication binds tighter than addition")
	assert.Equal(t, token.STAR, mul.Op)

	count, ok := sc.Columns[1].Expr.(*core.FuncCall)
	require.True(t, ok)
	assert.True(t, count.Star)
	assert.Equal(t, "COUNT", count.Name)

	distinct, ok := sc.Columns[2].Expr.(*core.FuncCall)
	require.True(t, ok)
	assert.True(t, distinct.Distinct)

	cast, ok := sc.Columns[4].Expr.(*core.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "DECIMAL(10, 2)", cast.TypeName)

	_, ok = sc.Columns[5].Expr.(*core.CaseExpr)
	assert.True(t, ok)
	_, ok = sc.Columns[6].Expr.(*core.ParenExpr)
	assert.True(t, ok)

	win, ok := sc.Columns[7].Expr.(*core.FuncCall)
	require.True(t, ok)
	require.NotNil(t, win.Window)
	assert.Len(t, win.Window.PartitionBy, 1)
	assert.Len(t, win.Window.OrderBy, 1)

	assert.NotNil(t, sc.Where)
	assert.Len(t, sc.GroupBy, 2)
	assert.NotNil(t, sc.Having)
	require.Len(t, sc.OrderBy, 1)
	require.NotNil(t, sc.OrderBy[0].NullsFirst)
	assert.False(t, *sc.OrderBy[0].NullsFirst)
	assert.NotNil(t, sc.Limit)
	assert.NotNil(t, sc.Offset)
}

func TestParseSetOperations(t *testing.T) {
	stmt := parse(t, "SELECT a FROM x UNION ALL SELECT b FROM y EXCEPT SELECT c FROM z")
	assert.Equal(t, core.SetOpUnion, stmt.Body.Op)
	assert.True(t, stmt.Body.All)
	assert.Len(t, stmt.Body.Cores(), 3)
	assert.Equal(t, core.SetOpExcept, stmt.Body.Right.Op)
}

func TestParseDialectExtensions(t *testing.T) {
	stmt, err := parser.ParseWithDialect(
		"SELECT price::INTEGER AS p FROM t WHERE name ILIKE 'a%' QUALIFY ROW_NUMBER() OVER (ORDER BY p) = 1",
		duckdb.DuckDB)
	require.NoError(t, err)

	sc := stmt.Body.Left
	cast, ok := sc.Columns[0].Expr.(*core.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "INTEGER", cast.TypeName)
	assert.NotNil(t, sc.Qualify)

	like, ok := sc.Where.(*core.LikeExpr)
	require.True(t, ok)
	assert.True(t, like.ILike)
}

func TestParseBacktickIdentifiers(t *testing.T) {
	stmt, err := parser.ParseWithDialect("SELECT `order id` FROM `my table`", databricks.Databricks)
	require.NoError(t, err)

	ref, ok := stmt.Body.Left.Columns[0].Expr.(*core.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "order id", ref.Column)
	assert.Equal(t, "my table", stmt.Body.Left.From.Source.(*core.TableName).Name)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"not a select", "INSERT INTO t VALUES (1)"},
		{"missing table", "SELECT a FROM"},
		{"unclosed paren", "SELECT (a FROM t"},
		{"trailing input", "SELECT a FROM t t2 t3"},
		{"unterminated string", "SELECT 'abc FROM t"},
		{"multiple statements", "SELECT 1; SELECT 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseWithDialect(tt.sql, dialect.ANSI)
			require.Error(t, err)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := parser.ParseWithDialect("SELECT a\nFROM", dialect.ANSI)
	require.Error(t, err)

	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Pos.Line)
}

func TestParseRequiresDialect(t *testing.T) {
	_, err := parser.ParseWithDialect("SELECT 1", nil)
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)
}

func TestParseDefaultDialect(t *testing.T) {
	stmt, err := parser.Parse("SELECT 1 AS one;")
	require.NoError(t, err)
	assert.Equal(t, "one", stmt.Body.Left.Columns[0].Alias)
}
