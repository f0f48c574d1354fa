// Package state records lineage runs in a SQLite database so they can be
// listed and inspected later.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
)

// Store errors.
var (
	ErrNotOpened    = errors.New("database not opened")
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("run id prefix matches more than one run")
)

// minPrefixLen is the shortest ID prefix GetRun resolves.
const minPrefixLen = 4

// RunStatus is the outcome of a lineage run.
type RunStatus string

// RunStatus constants.
const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded lineage extraction.
type Run struct {
	ID          string
	JobName     string
	Source      string // file path, "-" for stdin
	Dialect     string
	Namespace   string
	SQL         string
	Status      RunStatus
	Error       string
	ColumnCount int
	CreatedAt   time.Time
}

// ColumnSource is one input field of one output column of a run.
type ColumnSource struct {
	Output      string
	OutputIndex int
	Input       core.InputField
}

// Store persists lineage runs.
type Store interface {
	RecordRun(ctx context.Context, run *Run, result *lineage.Result) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	RunColumns(ctx context.Context, id string) ([]ColumnSource, error)
	RunResult(ctx context.Context, id string) (*lineage.Result, error)
	FindBySource(ctx context.Context, table, column string) ([]*Run, error)
	Close() error
}
