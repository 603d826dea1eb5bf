package domain

import "time"

// RawBatch is one trading day of loosely-typed tick rows as delivered by a
// data provider or a user-supplied file. Cells are kept as strings; column
// names are provider-specific and resolved during cleaning. Immutable once
// received.
type RawBatch struct {
	Symbol  string
	Date    time.Time // calendar trading day, time component ignored
	Columns []string
	Rows    [][]string
}

// Empty reports whether the batch carries no rows.
func (b *RawBatch) Empty() bool {
	return b == nil || len(b.Rows) == 0
}

// Cell returns the value at (row, col), or "" when the row is ragged.
func (b *RawBatch) Cell(row, col int) string {
	if col < 0 || col >= len(b.Rows[row]) {
		return ""
	}
	return b.Rows[row][col]
}
