package store

import "context"

// Tabular is the worksheet surface the bookkeeping engine runs on: full-sheet
// reads, row appends, and one-row multi-cell writes. Single-row writes are
// the only atomicity the backend guarantees, so callers batch everything a
// mutation needs into one UpdateRowCells call.
type Tabular interface {
	// ReadAllRows returns every populated row of the worksheet in storage
	// order, the header row first. Cells are raw strings.
	ReadAllRows(ctx context.Context, sheet string) ([][]string, error)

	// AppendRow adds one row after the last populated row.
	AppendRow(ctx context.Context, sheet string, row []string) error

	// UpdateRowCells overwrites the given columns of a single row in one
	// logical write. Row and column indices are zero-based and include the
	// header row.
	UpdateRowCells(ctx context.Context, sheet string, row int, cells map[int]string) error
}
