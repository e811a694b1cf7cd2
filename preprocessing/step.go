package preprocessing

import (
	"fmt"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

const (
	KindMedianImputer       = "median_imputer"
	KindMostFrequentImputer = "most_frequent_imputer"
	KindOneHotEncoder       = "one_hot_encoder"
	KindStandardScaler      = "standard_scaler"
)

// Step is a single stage of a Pipeline. Fit learns per column state from
// rec and Transform returns a new record which the caller must release.
// A step is fitted once; fitting it again returns ErrAlreadyFitted.
type Step interface {
	Kind() string
	Fitted() bool
	Fit(rec arrow.Record) error
	Transform(mem *memory.GoAllocator, rec arrow.Record) (arrow.Record, error)
}

func float64Column(rec arrow.Record, idx int) (*array.Float64, error) {
	col, ok := rec.Column(idx).(*array.Float64)
	if !ok {
		return nil, fmt.Errorf(
			"%w| column %s is %s, expected float64",
			ErrColumnTypeMismatch, rec.ColumnName(idx), rec.Column(idx).DataType().Name(),
		)
	}
	return col, nil
}

func stringColumn(rec arrow.Record, idx int) (*array.String, error) {
	col, ok := rec.Column(idx).(*array.String)
	if !ok {
		return nil, fmt.Errorf(
			"%w| column %s is %s, expected utf8",
			ErrColumnTypeMismatch, rec.ColumnName(idx), rec.Column(idx).DataType().Name(),
		)
	}
	return col, nil
}

func isMissingFloat(col *array.Float64, i int) bool {
	return col.IsNull(i) || math.IsNaN(col.Value(i))
}

// checkColumns makes sure rec has exactly the columns a step was fitted on.
func checkColumns(fitted []string, rec arrow.Record) error {
	if int(rec.NumCols()) != len(fitted) {
		return fmt.Errorf("%w| fitted on %d columns, got %d", ErrColumnMismatch, len(fitted), rec.NumCols())
	}
	for idx, name := range fitted {
		if rec.ColumnName(idx) != name {
			return fmt.Errorf("%w| column %d is %s, expected %s", ErrColumnMismatch, idx, rec.ColumnName(idx), name)
		}
	}
	return nil
}

func columnNames(rec arrow.Record) []string {
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	return names
}

func buildFloatRecord(mem *memory.GoAllocator, names []string, columns [][]float64) arrow.Record {
	fields := make([]arrow.Field, len(names))
	for idx, name := range names {
		fields[idx] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64}
	}
	bldr := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer bldr.Release()
	for idx, values := range columns {
		bldr.Field(idx).(*array.Float64Builder).AppendValues(values, nil)
	}
	return bldr.NewRecord()
}

func buildStringRecord(mem *memory.GoAllocator, names []string, columns [][]string) arrow.Record {
	fields := make([]arrow.Field, len(names))
	for idx, name := range names {
		fields[idx] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String}
	}
	bldr := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer bldr.Release()
	for idx, values := range columns {
		bldr.Field(idx).(*array.StringBuilder).AppendValues(values, nil)
	}
	return bldr.NewRecord()
}
