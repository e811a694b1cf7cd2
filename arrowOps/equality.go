package arrowops

import (
	"slices"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// RecordsEqual compares the listed columns of both records, or every column
// when no fields are given.
func RecordsEqual(rec1, rec2 arrow.Record, fields ...string) bool {
	if rec1.NumRows() != rec2.NumRows() || rec1.NumCols() != rec2.NumCols() {
		return false
	}
	for i := 0; i < int(rec1.NumCols()); i++ {
		columnName := rec1.ColumnName(i)
		if len(fields) > 0 && !slices.Contains(fields, columnName) {
			continue
		}
		if columnName != rec2.ColumnName(i) {
			return false
		}
		if !array.Equal(rec1.Column(i), rec2.Column(i)) {
			return false
		}
	}
	return true
}
