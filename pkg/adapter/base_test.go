package adapter

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
				assert.True(t, base.IsConnected())
			}

			assert.NoError(t, base.Close())
		})
	}
}

func TestBaseSQLAdapter_QueryCatalog(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		expected  map[string][]string
		order     []string
		errMsg    string
	}{
		{
			name: "groups columns by table",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"table_schema", "table_name", "column_name"}).
					AddRow("public", "orders", "id").
					AddRow("public", "orders", "amount").
					AddRow("public", "users", "id").
					AddRow("", "events", "payload")
				mock.ExpectQuery("SELECT .+ FROM catalog").WillReturnRows(rows)
			},
			order: []string{"public.orders", "public.users", "events"},
			expected: map[string][]string{
				"public.orders": {"id", "amount"},
				"public.users":  {"id"},
				"events":        {"payload"},
			},
		},
		{
			name: "empty catalog",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT .+ FROM catalog").
					WillReturnRows(sqlmock.NewRows([]string{"table_schema", "table_name", "column_name"}))
			},
			order:    nil,
			expected: map[string][]string{},
		},
		{
			name: "query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT .+ FROM catalog").WillReturnError(fmt.Errorf("permission denied"))
			},
			errMsg: "failed to query catalog",
		},
		{
			name: "row error",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"table_schema", "table_name", "column_name"}).
					AddRow("public", "orders", "id").
					RowError(0, fmt.Errorf("connection reset"))
				mock.ExpectQuery("SELECT .+ FROM catalog").WillReturnRows(rows)
			},
			errMsg: "error iterating catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setupMock(mock)

			base := &BaseSQLAdapter{DB: db, Cfg: Config{Type: "postgres"}}
			schema, err := base.QueryCatalog(context.Background(), "SELECT table_schema, table_name, column_name FROM catalog")
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "postgres", schema.Namespace, "namespace falls back to adapter type")

			var names []string
			for _, table := range schema.Tables {
				names = append(names, table.Name)
				assert.Equal(t, tt.expected[table.Name], table.Columns)
			}
			assert.Equal(t, tt.order, names)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBaseSQLAdapter_NotConnected(t *testing.T) {
	base := &BaseSQLAdapter{}
	_, err := base.QueryCatalog(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestNamespace(t *testing.T) {
	base := &BaseSQLAdapter{Cfg: Config{Type: "sqlite", Namespace: "sqlite://local"}}
	assert.Equal(t, "sqlite://local", base.Namespace())

	base.Cfg.Namespace = ""
	assert.Equal(t, "sqlite", base.Namespace())
}

func TestPlaceholders(t *testing.T) {
	dollar := func(i int) string { return fmt.Sprintf("$%d", i) }
	question := func(int) string { return "?" }

	assert.Equal(t, "$1, $2, $3", Placeholders(3, dollar))
	assert.Equal(t, "?", Placeholders(1, question))
	assert.Equal(t, "", Placeholders(0, question))
	assert.Equal(t, []any{"a", "b"}, StringArgs([]string{"a", "b"}))
}
