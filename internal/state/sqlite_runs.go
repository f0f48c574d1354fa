package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
)

const runColumns = `id, job_name, source, dialect, namespace, sql_text, status, error, column_count, created_at`

// RecordRun stores run and, when result is non-nil, the lineage of every
// output column. ID and CreatedAt are filled in when empty.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run, result *lineage.Result) error {
	if s.db == nil {
		return ErrNotOpened
	}

	if run.ID == "" {
		run.ID = generateID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = RunStatusCompleted
	}
	if result != nil {
		run.ColumnCount = result.Len()
	}

	s.logger.Debug("recording run", slog.String("id", run.ID), slog.String("status", string(run.Status)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.JobName, run.Source, run.Dialect, run.Namespace, run.SQL,
		string(run.Status), nullableString(run.Error), run.ColumnCount, run.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	if result != nil {
		if err := insertColumns(ctx, tx, run.ID, result); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func insertColumns(ctx context.Context, tx *sql.Tx, runID string, result *lineage.Result) error {
	outputs, err := tx.PrepareContext(ctx, `
		INSERT INTO run_outputs (run_id, output_index, output_column) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare output insert: %w", err)
	}
	defer func() { _ = outputs.Close() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO column_lineage
			(run_id, output_column, output_index, input_index, namespace, source_table, source_column, transformations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare lineage insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for outputIndex, name := range result.Names() {
		if _, err := outputs.ExecContext(ctx, runID, outputIndex, name); err != nil {
			return fmt.Errorf("failed to insert output column %s: %w", name, err)
		}
		field, _ := result.Field(name)
		for inputIndex, in := range field.InputFields {
			transformations, err := json.Marshal(in.Transformations)
			if err != nil {
				return fmt.Errorf("failed to encode transformations for %s: %w", name, err)
			}
			if _, err := stmt.ExecContext(ctx, runID, name, outputIndex, inputIndex,
				in.Namespace, in.Name, in.Field, string(transformations)); err != nil {
				return fmt.Errorf("failed to insert lineage for column %s: %w", name, err)
			}
		}
	}
	return nil
}

// GetRun retrieves a run by ID or by a unique ID prefix.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s.getRunByPrefix(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) getRunByPrefix(ctx context.Context, prefix string) (*Run, error) {
	if len(prefix) < minPrefixLen || strings.ContainsAny(prefix, "%_") {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ORDER BY created_at DESC LIMIT 2`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	runs, err := collectRuns(rows)
	if err != nil {
		return nil, err
	}

	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
	}
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return collectRuns(rows)
}

// FindBySource returns the runs in which table.column feeds an output column.
func (s *SQLiteStore) FindBySource(ctx context.Context, table, column string) ([]*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE id IN (
			SELECT run_id FROM column_lineage WHERE source_table = ? AND source_column = ?
		)
		ORDER BY created_at DESC, rowid DESC`, table, column)
	if err != nil {
		return nil, fmt.Errorf("failed to find runs: %w", err)
	}
	return collectRuns(rows)
}

// RunColumns returns the recorded lineage of a run in output order.
func (s *SQLiteStore) RunColumns(ctx context.Context, id string) ([]ColumnSource, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT output_column, output_index, namespace, source_table, source_column, transformations
		FROM column_lineage
		WHERE run_id = ?
		ORDER BY output_index, input_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnSource
	for rows.Next() {
		var (
			col             ColumnSource
			transformations string
		)
		if err := rows.Scan(&col.Output, &col.OutputIndex, &col.Input.Namespace,
			&col.Input.Name, &col.Input.Field, &transformations); err != nil {
			return nil, fmt.Errorf("failed to scan run column: %w", err)
		}
		if err := json.Unmarshal([]byte(transformations), &col.Input.Transformations); err != nil {
			return nil, fmt.Errorf("failed to decode transformations: %w", err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// RunResult rebuilds the lineage result recorded for a run, including
// output columns without inputs.
func (s *SQLiteStore) RunResult(ctx context.Context, id string) (*lineage.Result, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT output_column FROM run_outputs WHERE run_id = ? ORDER BY output_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run outputs: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run output: %w", err)
		}
		names = append(names, name)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns, err := s.RunColumns(ctx, id)
	if err != nil {
		return nil, err
	}
	_, inputs := Sources(columns)

	fields := make(map[string]core.FieldLineage, len(names))
	for _, name := range names {
		fields[name] = core.FieldLineage{InputFields: inputs[name]}
	}
	return lineage.NewResult(names, fields), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run    Run
		status string
		errMsg sql.NullString
	)
	if err := row.Scan(&run.ID, &run.JobName, &run.Source, &run.Dialect, &run.Namespace,
		&run.SQL, &status, &errMsg, &run.ColumnCount, &run.CreatedAt); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Error = errMsg.String
	return &run, nil
}

func collectRuns(rows *sql.Rows) ([]*Run, error) {
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Sources groups the columns of a run by output column, preserving order.
func Sources(columns []ColumnSource) ([]string, map[string][]core.InputField) {
	var names []string
	byName := make(map[string][]core.InputField)
	for _, c := range columns {
		if _, ok := byName[c.Output]; !ok {
			names = append(names, c.Output)
		}
		byName[c.Output] = append(byName[c.Output], c.Input)
	}
	return names, byName
}
