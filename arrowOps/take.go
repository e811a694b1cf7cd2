package arrowops

import (
	"fmt"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// TakeRecord builds a new record from the rows at indices, in index order.
// Null slots stay null.
func TakeRecord(mem *memory.GoAllocator, record arrow.Record, indices *array.Uint32) (arrow.Record, error) {
	record.Retain()
	defer record.Release()

	for i := 0; i < indices.Len(); i++ {
		if int64(indices.Value(i)) >= record.NumRows() {
			return nil, errs.NewStackError(
				fmt.Errorf("%w| index %d, rows %d", ErrIndexOutOfRange, indices.Value(i), record.NumRows()),
			)
		}
	}

	takenFields := make([]arrow.Array, record.NumCols())
	for i := 0; i < int(record.NumCols()); i++ {
		takenRows, err := TakeArray(mem, record.Column(i), indices)
		if err != nil {
			for _, arr := range takenFields[:i] {
				arr.Release()
			}
			return nil, errs.Wrap(err, fmt.Errorf("column: %s", record.ColumnName(i)))
		}
		takenFields[i] = takenRows
	}

	taken := array.NewRecord(record.Schema(), takenFields, int64(indices.Len()))
	for _, arr := range takenFields {
		arr.Release()
	}
	return taken, nil
}

func TakeArray(mem *memory.GoAllocator, arr arrow.Array, indices *array.Uint32) (arrow.Array, error) {
	switch arr.DataType().ID() {
	case arrow.BOOL:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		takeValues[bool](arr.(*array.Boolean), b, indices)
		return b.NewArray(), nil
	case arrow.INT64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		takeValues[int64](arr.(*array.Int64), b, indices)
		return b.NewArray(), nil
	case arrow.FLOAT64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		takeValues[float64](arr.(*array.Float64), b, indices)
		return b.NewArray(), nil
	case arrow.STRING:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		takeValues[string](arr.(*array.String), b, indices)
		return b.NewArray(), nil
	default:
		return nil, errs.NewStackError(
			fmt.Errorf("%w| type: %s", ErrUnsupportedDataType, arr.DataType().Name()),
		)
	}
}

func takeValues[T comparable](arr valueArray[T], b valueBuilder[T], indices *array.Uint32) {
	b.Reserve(indices.Len())
	for i := 0; i < indices.Len(); i++ {
		idx := int(indices.Value(i))
		if arr.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(arr.Value(idx))
	}
}

// NewIndices builds a uint32 index array for TakeRecord.
func NewIndices(mem *memory.GoAllocator, indices []int) *array.Uint32 {
	b := array.NewUint32Builder(mem)
	defer b.Release()
	b.Reserve(len(indices))
	for _, idx := range indices {
		b.Append(uint32(idx))
	}
	return b.NewUint32Array()
}
