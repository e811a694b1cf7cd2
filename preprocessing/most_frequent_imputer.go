package preprocessing

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// MostFrequentImputer replaces missing strings with the most frequent value
// seen while fitting. Ties go to the lexicographically smallest value.
type MostFrequentImputer struct {
	columns []string
	modes   []string
}

func NewMostFrequentImputer() *MostFrequentImputer {
	return &MostFrequentImputer{}
}

func (obj *MostFrequentImputer) Kind() string { return KindMostFrequentImputer }

func (obj *MostFrequentImputer) Fitted() bool { return obj.columns != nil }

func (obj *MostFrequentImputer) Modes() map[string]string {
	result := make(map[string]string, len(obj.columns))
	for idx, col := range obj.columns {
		result[col] = obj.modes[idx]
	}
	return result
}

func (obj *MostFrequentImputer) Fit(rec arrow.Record) error {
	if obj.Fitted() {
		return ErrAlreadyFitted
	}

	modes := make([]string, rec.NumCols())
	for idx := range modes {
		col, err := stringColumn(rec, idx)
		if err != nil {
			return err
		}

		counts := make(map[string]int)
		for i := 0; i < col.Len(); i++ {
			if !col.IsNull(i) {
				counts[col.Value(i)]++
			}
		}
		if len(counts) == 0 {
			return fmt.Errorf("%w| column: %s", ErrEmptyColumn, rec.ColumnName(idx))
		}

		bestCount := 0
		for value, count := range counts {
			if count > bestCount || (count == bestCount && value < modes[idx]) {
				modes[idx], bestCount = value, count
			}
		}
	}

	obj.columns = columnNames(rec)
	obj.modes = modes
	return nil
}

func (obj *MostFrequentImputer) Transform(mem *memory.GoAllocator, rec arrow.Record) (arrow.Record, error) {
	if !obj.Fitted() {
		return nil, ErrNotFitted
	}
	if err := checkColumns(obj.columns, rec); err != nil {
		return nil, err
	}

	columns := make([][]string, len(obj.columns))
	for idx := range columns {
		col, err := stringColumn(rec, idx)
		if err != nil {
			return nil, err
		}
		values := make([]string, col.Len())
		for i := range values {
			if col.IsNull(i) {
				values[i] = obj.modes[idx]
			} else {
				values[i] = col.Value(i)
			}
		}
		columns[idx] = values
	}

	return buildStringRecord(mem, obj.columns, columns), nil
}
