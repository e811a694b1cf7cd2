package preprocessing

import (
	"fmt"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"gonum.org/v1/gonum/stat"
)

const epsilon = 2.220446049250313e-16

// StandardScaler divides every column by its population standard deviation,
// after subtracting the mean when WithMean is set. A column with zero
// deviation, up to rounding, keeps a scale of 1.
type StandardScaler struct {
	withMean bool
	columns  []string
	means    []float64
	scales   []float64
}

func NewStandardScaler(withMean bool) *StandardScaler {
	return &StandardScaler{withMean: withMean}
}

func (obj *StandardScaler) Kind() string { return KindStandardScaler }

func (obj *StandardScaler) Fitted() bool { return obj.columns != nil }

func (obj *StandardScaler) WithMean() bool { return obj.withMean }

// Params returns the fitted mean and scale of a column.
func (obj *StandardScaler) Params(column string) (float64, float64, bool) {
	for idx, col := range obj.columns {
		if col == column {
			return obj.means[idx], obj.scales[idx], true
		}
	}
	return 0, 0, false
}

func (obj *StandardScaler) Fit(rec arrow.Record) error {
	if obj.Fitted() {
		return ErrAlreadyFitted
	}

	means := make([]float64, rec.NumCols())
	scales := make([]float64, rec.NumCols())
	for idx := range means {
		col, err := float64Column(rec, idx)
		if err != nil {
			return err
		}
		if col.Len() == 0 {
			return fmt.Errorf("%w| column: %s", ErrEmptyColumn, rec.ColumnName(idx))
		}
		if col.NullN() > 0 {
			return fmt.Errorf("%w| column %s has %d nulls", ErrMissingValue, rec.ColumnName(idx), col.NullN())
		}

		mean, variance := stat.PopMeanVariance(col.Float64Values(), nil)
		scale := math.Sqrt(variance)
		if scale < 10*epsilon || math.IsNaN(scale) {
			scale = 1
		}
		means[idx], scales[idx] = mean, scale
	}

	obj.columns = columnNames(rec)
	obj.means = means
	obj.scales = scales
	return nil
}

func (obj *StandardScaler) Transform(mem *memory.GoAllocator, rec arrow.Record) (arrow.Record, error) {
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
		if col.NullN() > 0 {
			return nil, fmt.Errorf("%w| column %s has %d nulls", ErrMissingValue, obj.columns[idx], col.NullN())
		}

		values := make([]float64, col.Len())
		for i, v := range col.Float64Values() {
			if obj.withMean {
				v -= obj.means[idx]
			}
			values[i] = v / obj.scales[idx]
		}
		columns[idx] = values
	}

	return buildFloatRecord(mem, obj.columns, columns), nil
}
