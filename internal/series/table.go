package series

import (
	"errors"
	"fmt"
	"time"
)

// TimestampColumn is the required name of the time index in every input table.
const TimestampColumn = "timestamp"

var ErrLengthMismatch = errors.New("column length does not match timestamps")

// Table is a time-indexed set of named columns holding raw cells
// (float64, int, int64, string or nil). Cells are coerced to numbers only
// when read through Numeric.
type Table struct {
	Timestamps []time.Time

	names   []string
	columns map[string][]any
}

func NewTable(timestamps []time.Time) *Table {
	return &Table{
		Timestamps: timestamps,
		columns:    make(map[string][]any),
	}
}

// AddColumn appends or replaces a column. Its length must match the timestamps.
func (t *Table) AddColumn(name string, cells []any) error {
	if name == TimestampColumn {
		return fmt.Errorf("add column %q: reserved name", name)
	}
	if len(cells) != len(t.Timestamps) {
		return fmt.Errorf("add column %q: %w (%d != %d)", name, ErrLengthMismatch, len(cells), len(t.Timestamps))
	}
	if _, ok := t.columns[name]; !ok {
		t.names = append(t.names, name)
	}
	t.columns[name] = cells
	return nil
}

// AddFloats is AddColumn for already numeric data.
func (t *Table) AddFloats(name string, values []float64) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return t.AddColumn(name, cells)
}

// Len returns the row count.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Timestamps)
}

// Empty reports whether the table has no rows or no data columns.
func (t *Table) Empty() bool {
	return t.Len() == 0 || len(t.names) == 0
}

// Columns returns the data column names in insertion order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.columns[name]
	return ok
}

// Cells returns the raw cells of a column, or nil when absent.
func (t *Table) Cells(name string) []any {
	if t == nil {
		return nil
	}
	return t.columns[name]
}

// Window returns the rows with start <= timestamp < end.
func (t *Table) Window(start, end time.Time) *Table {
	var idx []int
	for i, ts := range t.Timestamps {
		if !ts.Before(start) && ts.Before(end) {
			idx = append(idx, i)
		}
	}
	return t.rows(idx)
}

// Subset returns a table with the named columns; names the table lacks are
// added as all-missing columns.
func (t *Table) Subset(names []string) *Table {
	out := NewTable(append([]time.Time(nil), t.Timestamps...))
	for _, name := range names {
		cells := t.columns[name]
		if cells == nil {
			cells = make([]any, t.Len())
		}
		out.names = append(out.names, name)
		out.columns[name] = append([]any(nil), cells...)
	}
	return out
}

func (t *Table) rows(idx []int) *Table {
	ts := make([]time.Time, len(idx))
	for j, i := range idx {
		ts[j] = t.Timestamps[i]
	}
	out := NewTable(ts)
	for _, name := range t.names {
		src := t.columns[name]
		cells := make([]any, len(idx))
		for j, i := range idx {
			cells[j] = src[i]
		}
		out.names = append(out.names, name)
		out.columns[name] = cells
	}
	return out
}
