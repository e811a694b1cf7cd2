package preprocessing

import (
	"fmt"
	"sort"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// MedianImputer replaces missing float64 values with the median of the
// values seen while fitting.
type MedianImputer struct {
	columns []string
	medians []float64
}

func NewMedianImputer() *MedianImputer {
	return &MedianImputer{}
}

func (obj *MedianImputer) Kind() string { return KindMedianImputer }

func (obj *MedianImputer) Fitted() bool { return obj.columns != nil }

func (obj *MedianImputer) Medians() map[string]float64 {
	result := make(map[string]float64, len(obj.columns))
	for idx, col := range obj.columns {
		result[col] = obj.medians[idx]
	}
	return result
}

func (obj *MedianImputer) Fit(rec arrow.Record) error {
	if obj.Fitted() {
		return ErrAlreadyFitted
	}

	medians := make([]float64, rec.NumCols())
	for idx := range medians {
		col, err := float64Column(rec, idx)
		if err != nil {
			return err
		}

		values := make([]float64, 0, col.Len())
		for i := 0; i < col.Len(); i++ {
			if !isMissingFloat(col, i) {
				values = append(values, col.Value(i))
			}
		}
		if len(values) == 0 {
			return fmt.Errorf("%w| column: %s", ErrEmptyColumn, rec.ColumnName(idx))
		}
		medians[idx] = median(values)
	}

	obj.columns = columnNames(rec)
	obj.medians = medians
	return nil
}

func (obj *MedianImputer) Transform(mem *memory.GoAllocator, rec arrow.Record) (arrow.Record, error) {
	if !obj.Fitted() {
		return nil, ErrNotFitted
	}
	if err := checkColumns(obj.columns, rec); err != nil {
		return nil, err
	}

	columns := make([][]float64, len(obj.columns))
	for idx := range columns {
		col, err := float64Column(rec, idx)
		if err != nil {
			return nil, err
		}
		values := make([]float64, col.Len())
		for i := range values {
			if isMissingFloat(col, i) {
				values[i] = obj.medians[idx]
			} else {
				values[i] = col.Value(i)
			}
		}
		columns[idx] = values
	}

	return buildFloatRecord(mem, obj.columns, columns), nil
}

// median sorts values in place. Even counts average the two middle values.
func median(values []float64) float64 {
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}
