// Package worksheet loads the tabular data source into an ordered sequence
// of named-field records.
//
// Row order and column order are preserved exactly as read: the batch is
// processed in sheet order, and masks reference fields by column position.
package worksheet

import "fmt"

// Record is one row of the worksheet: an ordered mapping from column name to
// field value. Records are immutable once loaded.
type Record struct {
	columns []string
	values  []string
	idIndex int
}

// Identity returns the value of the sheet's designated identity column.
// Load guarantees it is non-empty for every record.
func (r Record) Identity() string {
	return r.values[r.idIndex]
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.values) }

// Field returns the value at the given 1-based column position.
func (r Record) Field(pos int) (string, bool) {
	if pos < 1 || pos > len(r.values) {
		return "", false
	}
	return r.values[pos-1], true
}

// Lookup returns the value for the named column.
func (r Record) Lookup(name string) (string, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return "", false
}

// Columns returns the column names in sheet order.
func (r Record) Columns() []string { return r.columns }

// NewRecord builds a single record outside of a sheet. idIndex is the
// 0-based identity column.
func NewRecord(columns, values []string, idIndex int) (Record, error) {
	if len(columns) != len(values) {
		return Record{}, fmt.Errorf("record has %d values for %d columns", len(values), len(columns))
	}
	if idIndex < 0 || idIndex >= len(values) {
		return Record{}, fmt.Errorf("identity index %d out of range", idIndex)
	}
	return Record{columns: columns, values: values, idIndex: idIndex}, nil
}

// Sheet is the loaded worksheet: the column header plus every record in
// row order. Read-only after Load.
type Sheet struct {
	Path    string
	Columns []string
	Records []Record
}

// DataFormatError reports an unreadable source or a structurally invalid
// row/header. It aborts the run before any record is processed.
type DataFormatError struct {
	Path  string
	Row   int // 1-based data row, 0 when the sheet as a whole is at fault
	Msg   string
	Cause error
}

func (e *DataFormatError) Error() string {
	if e == nil {
		return ""
	}
	if e.Row > 0 {
		return fmt.Sprintf("worksheet %s row %d: %s", e.Path, e.Row, e.Msg)
	}
	return fmt.Sprintf("worksheet %s: %s", e.Path, e.Msg)
}

func (e *DataFormatError) Unwrap() error { return e.Cause }
