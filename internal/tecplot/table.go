// Package tecplot reads the solver's ASCII volume output into typed tables.
//
// The format is semi-structured: a header section declares quoted variable
// names on a VARIABLES line, a ZONE line ends the header, and the body is
// whitespace-delimited numeric rows. Column presence and ordering vary with
// the solver configuration, so columns are resolved by synonym matching
// rather than position.
package tecplot

import "errors"

// ErrUnparseable signals that a file could not be reduced to a usable
// table: required columns missing after renaming, or no valid data rows.
// It is a degradation signal, not a fault; callers map it to a sentinel
// loss and continue.
var ErrUnparseable = errors.New("tecplot: output not parseable")

// Canonical column names produced by renaming.
const (
	ColX         = "x"
	ColTemp      = "T"
	ColVelocityX = "u"
	ColMomentumX = "mom_x"
	ColDensity   = "rho"
)

// Table is a rectangular set of named numeric columns.
type Table struct {
	Columns []string
	Rows    [][]float64

	index map[string]int
}

// NewTable builds a table over the given column names and rows. Rows are
// assumed rectangular with one value per column.
func NewTable(columns []string, rows [][]float64) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, name := range t.Columns {
		if _, ok := t.index[name]; !ok {
			t.index[name] = i
		}
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether a column with the given name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, true
}

// Value returns a single cell.
func (t *Table) Value(row int, name string) (float64, bool) {
	i, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.Rows[row][i], true
}

// addColumn appends a derived column.
func (t *Table) addColumn(name string, values []float64) {
	t.Columns = append(t.Columns, name)
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r], values[r])
	}
	t.reindex()
}
