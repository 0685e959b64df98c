// Package tabular holds the per-endpoint row accumulator and the CSV files
// it is persisted to.
package tabular

import (
	"sync"

	"github.com/Sternrassler/launch-export/pkg/records"
)

// Table accumulates rows for one endpoint. Append is safe for concurrent use;
// the schema is fixed at construction.
type Table struct {
	name   string
	schema records.Schema

	mu   sync.Mutex
	rows []records.Row
}

// NewTable creates an empty table.
func NewTable(name string, schema records.Schema) *Table {
	return &Table{
		name:   name,
		schema: schema,
	}
}

// Name returns the resource name the table is written under.
func (t *Table) Name() string {
	return t.name
}

// Schema returns the column set.
func (t *Table) Schema() records.Schema {
	return t.schema
}

// Append adds rows at the end of the table.
func (t *Table) Append(rows ...records.Row) {
	t.mu.Lock()
	t.rows = append(t.rows, rows...)
	t.mu.Unlock()
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Rows returns a snapshot of the rows.
func (t *Table) Rows() []records.Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]records.Row, len(t.rows))
	copy(out, t.rows)
	return out
}
