package dataset

import (
	"fmt"
	"strings"
)

// CellError reports an edit aimed at a row or column the store does not have.
type CellError struct {
	Op     string // "update_cell", "delete_row"
	Row    int
	Column string // empty for row-level operations
	Rows   int    // row count at the time of the call
	Reason string
}

func (e *CellError) Error() string {
	parts := []string{fmt.Sprintf("%s: row %d", e.Op, e.Row)}
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column %q", e.Column))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return strings.Join(parts, " - ")
}

func newRowOutOfRange(op string, row, rows int) *CellError {
	return &CellError{
		Op:     op,
		Row:    row,
		Rows:   rows,
		Reason: fmt.Sprintf("out of range [0,%d)", rows),
	}
}

func newUnknownColumn(row int, column string, rows int) *CellError {
	return &CellError{
		Op:     "update_cell",
		Row:    row,
		Column: column,
		Rows:   rows,
		Reason: "unknown column",
	}
}
