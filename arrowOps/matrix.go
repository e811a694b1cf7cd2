package arrowops

import (
	"fmt"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"gonum.org/v1/gonum/mat"
)

// FloatValues returns the values of a float64 array that has no nulls.
func FloatValues(arr arrow.Array) ([]float64, error) {
	floatArr, ok := arr.(*array.Float64)
	if !ok {
		return nil, errs.NewStackError(
			fmt.Errorf("%w| expected float64, got %s", ErrUnsupportedDataType, arr.DataType().Name()),
		)
	}
	if floatArr.NullN() > 0 {
		return nil, errs.NewStackError(fmt.Errorf("%w| %d nulls", ErrUnexpectedNull, floatArr.NullN()))
	}
	values := make([]float64, floatArr.Len())
	copy(values, floatArr.Float64Values())
	return values, nil
}

// RecordToMatrix converts a record of non-null float64 columns into a dense
// row-major matrix. The record must have at least one row and one column.
func RecordToMatrix(rec arrow.Record) (*mat.Dense, error) {
	rows, cols := int(rec.NumRows()), int(rec.NumCols())
	if rows == 0 || cols == 0 {
		return nil, errs.NewStackError(fmt.Errorf("%w| cannot build a %dx%d matrix", ErrRowCountMismatch, rows, cols))
	}

	data := make([]float64, rows*cols)
	for j := 0; j < cols; j++ {
		values, err := FloatValues(rec.Column(j))
		if err != nil {
			return nil, errs.Wrap(err, fmt.Errorf("column: %s", rec.ColumnName(j)))
		}
		for i, v := range values {
			data[i*cols+j] = v
		}
	}
	return mat.NewDense(rows, cols, data), nil
}

// AppendColumn returns a new matrix with values added as the last column.
func AppendColumn(m *mat.Dense, values []float64) (*mat.Dense, error) {
	rows, cols := m.Dims()
	if len(values) != rows {
		return nil, errs.NewStackError(
			fmt.Errorf("%w| matrix has %d rows, column has %d", ErrRowCountMismatch, rows, len(values)),
		)
	}
	out := mat.NewDense(rows, cols+1, nil)
	out.Slice(0, rows, 0, cols).(*mat.Dense).Copy(m)
	for i, v := range values {
		out.Set(i, cols, v)
	}
	return out, nil
}

// MatrixToRecord is the inverse of RecordToMatrix, naming the columns.
func MatrixToRecord(mem *memory.GoAllocator, m *mat.Dense, names []string) (arrow.Record, error) {
	rows, cols := m.Dims()
	if len(names) != cols {
		return nil, errs.NewStackError(
			fmt.Errorf("%w| matrix has %d columns, got %d names", ErrColumnNotFound, cols, len(names)),
		)
	}

	fields := make([]arrow.Field, cols)
	for j, name := range names {
		fields[j] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64}
	}
	bldr := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer bldr.Release()

	for j := 0; j < cols; j++ {
		colBldr := bldr.Field(j).(*array.Float64Builder)
		colBldr.Reserve(rows)
		for i := 0; i < rows; i++ {
			colBldr.Append(m.At(i, j))
		}
	}
	return bldr.NewRecord(), nil
}
