package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/akozyreva/stockbot-backend/pkg/errors"
)

// Memory is an in-process Tabular implementation. Tests run against it, and
// the STOCKBOT_USE_MEMORY_STORE flag swaps it in for local development so the
// bot can be exercised without a spreadsheet.
type Memory struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

func NewMemory() *Memory {
	return &Memory{sheets: map[string][][]string{}}
}

// EnsureSheet creates the worksheet with the given header row if it does not
// exist yet.
func (m *Memory) EnsureSheet(name string, headers []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sheets[name]; ok {
		return
	}
	m.sheets[name] = [][]string{append([]string(nil), headers...)}
}

// EnsureStructure provisions the default worksheets the way the Sheets
// backend does.
func (m *Memory) EnsureStructure(ctx context.Context) error {
	m.EnsureSheet("Inventory", InventoryHeaders())
	m.EnsureSheet("Sales", SalesHeaders())
	m.EnsureSheet("Summary", SummaryHeaders())
	return nil
}

func (m *Memory) ReadAllRows(ctx context.Context, sheet string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[sheet]
	if !ok {
		return nil, missingSheet(sheet)
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (m *Memory) AppendRow(ctx context.Context, sheet string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[sheet]
	if !ok {
		return missingSheet(sheet)
	}
	m.sheets[sheet] = append(rows, append([]string(nil), row...))
	return nil
}

func (m *Memory) UpdateRowCells(ctx context.Context, sheet string, row int, cells map[int]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[sheet]
	if !ok {
		return missingSheet(sheet)
	}
	if row < 0 || row >= len(rows) {
		return errors.New(errors.CodeStoreUnavailable, fmt.Sprintf("row %d out of range for worksheet %q", row, sheet))
	}
	target := rows[row]
	for col, value := range cells {
		if col < 0 {
			return errors.New(errors.CodeStoreUnavailable, fmt.Sprintf("column %d out of range for worksheet %q", col, sheet))
		}
		for len(target) <= col {
			target = append(target, "")
		}
		target[col] = value
	}
	rows[row] = target
	return nil
}

// Ping satisfies the readiness surface; the memory store is always ready.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func missingSheet(sheet string) error {
	return errors.New(errors.CodeStoreUnavailable, fmt.Sprintf("worksheet %q does not exist", sheet))
}
