package arrowops

import (
	"fmt"

	"github.com/alekLukanen/errs"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// TakeColumns selects the named columns in the order given.
func TakeColumns(rec arrow.Record, columnNames []string) (arrow.Record, error) {
	var selectedCols []arrow.Array
	var selectedFields []arrow.Field

	for _, colName := range columnNames {
		colIndex := rec.Schema().FieldIndices(colName)
		if len(colIndex) == 0 {
			return nil, errs.NewStackError(fmt.Errorf("%w| column name: %s", ErrColumnNotFound, colName))
		}
		for _, colIndex := range colIndex {
			selectedCols = append(selectedCols, rec.Column(colIndex))
			selectedFields = append(selectedFields, rec.Schema().Field(colIndex))
		}
	}

	newSchema := arrow.NewSchema(selectedFields, nil)
	newRecord := array.NewRecord(newSchema, selectedCols, rec.NumRows())

	return newRecord, nil
}

// ConcatenateColumns places the columns of the records side by side.
// All records must have the same number of rows.
func ConcatenateColumns(records ...arrow.Record) (arrow.Record, error) {
	if len(records) == 0 {
		return nil, errs.NewStackError(fmt.Errorf("%w| no records supplied", ErrRowCountMismatch))
	}

	numRows := records[0].NumRows()
	var cols []arrow.Array
	var fields []arrow.Field
	for idx, rec := range records {
		if rec.NumRows() != numRows {
			return nil, errs.NewStackError(
				fmt.Errorf("%w| record %d has %d rows, expected %d", ErrRowCountMismatch, idx, rec.NumRows(), numRows),
			)
		}
		cols = append(cols, rec.Columns()...)
		fields = append(fields, rec.Schema().Fields()...)
	}

	return array.NewRecord(arrow.NewSchema(fields, nil), cols, numRows), nil
}

func ColumnNames(rec arrow.Record) []string {
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	return names
}
