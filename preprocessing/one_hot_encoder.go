package preprocessing

import (
	"fmt"
	"slices"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// UnknownCategoryPolicy decides what the encoder does with a category it
// did not see while fitting.
type UnknownCategoryPolicy string

const (
	// UnknownCategoryIgnore encodes the value as all zero indicators.
	UnknownCategoryIgnore UnknownCategoryPolicy = "ignore"
	// UnknownCategoryError fails the transform with ErrUnknownCategory.
	UnknownCategoryError UnknownCategoryPolicy = "error"
)

func ParseUnknownCategoryPolicy(value string) (UnknownCategoryPolicy, error) {
	switch policy := UnknownCategoryPolicy(value); policy {
	case UnknownCategoryIgnore, UnknownCategoryError:
		return policy, nil
	case "":
		return UnknownCategoryIgnore, nil
	default:
		return "", fmt.Errorf("%w| %q", ErrUnknownPolicy, value)
	}
}

// OneHotEncoder expands every string column into one float64 indicator
// column per category, named <column>_<category>. Categories are sorted.
type OneHotEncoder struct {
	policy     UnknownCategoryPolicy
	columns    []string
	categories [][]string
}

func NewOneHotEncoder(policy UnknownCategoryPolicy) *OneHotEncoder {
	return &OneHotEncoder{policy: policy}
}

func (obj *OneHotEncoder) Kind() string { return KindOneHotEncoder }

func (obj *OneHotEncoder) Fitted() bool { return obj.columns != nil }

func (obj *OneHotEncoder) Policy() UnknownCategoryPolicy { return obj.policy }

func (obj *OneHotEncoder) Categories(column string) []string {
	idx := slices.Index(obj.columns, column)
	if idx < 0 {
		return nil
	}
	return slices.Clone(obj.categories[idx])
}

// FeatureNames lists the indicator columns in output order.
func (obj *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0)
	for idx, col := range obj.columns {
		for _, category := range obj.categories[idx] {
			names = append(names, fmt.Sprintf("%s_%s", col, category))
		}
	}
	return names
}

func (obj *OneHotEncoder) Fit(rec arrow.Record) error {
	if obj.Fitted() {
		return ErrAlreadyFitted
	}

	categories := make([][]string, rec.NumCols())
	for idx := range categories {
		col, err := stringColumn(rec, idx)
		if err != nil {
			return err
		}

		seen := make(map[string]struct{})
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				return fmt.Errorf("%w| column %s row %d", ErrMissingValue, rec.ColumnName(idx), i)
			}
			seen[col.Value(i)] = struct{}{}
		}
		if len(seen) == 0 {
			return fmt.Errorf("%w| column: %s", ErrEmptyColumn, rec.ColumnName(idx))
		}

		values := make([]string, 0, len(seen))
		for value := range seen {
			values = append(values, value)
		}
		slices.Sort(values)
		categories[idx] = values
	}

	obj.columns = columnNames(rec)
	obj.categories = categories
	return nil
}

func (obj *OneHotEncoder) Transform(mem *memory.GoAllocator, rec arrow.Record) (arrow.Record, error) {
	if !obj.Fitted() {
		return nil, ErrNotFitted
	}
	if err := checkColumns(obj.columns, rec); err != nil {
		return nil, err
	}

	numRows := int(rec.NumRows())
	columns := make([][]float64, 0)
	for idx := range obj.columns {
		col, err := stringColumn(rec, idx)
		if err != nil {
			return nil, err
		}

		categories := obj.categories[idx]
		indicators := make([][]float64, len(categories))
		for c := range indicators {
			indicators[c] = make([]float64, numRows)
		}

		for i := 0; i < numRows; i++ {
			if col.IsNull(i) {
				return nil, fmt.Errorf("%w| column %s row %d", ErrMissingValue, obj.columns[idx], i)
			}
			c, found := slices.BinarySearch(categories, col.Value(i))
			if !found {
				if obj.policy == UnknownCategoryError {
					return nil, fmt.Errorf("%w| column %s value %q", ErrUnknownCategory, obj.columns[idx], col.Value(i))
				}
				continue
			}
			indicators[c][i] = 1
		}
		columns = append(columns, indicators...)
	}

	return buildFloatRecord(mem, obj.FeatureNames(), columns), nil
}
