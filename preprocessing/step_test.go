package preprocessing

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
)

func TestMedianImputer(t *testing.T) {
	mem := memory.NewGoAllocator()

	testCases := []struct {
		caseName  string
		values    []float64
		valid     []bool
		expMedian float64
		expErr    error
	}{
		{caseName: "odd", values: []float64{5, 1, 0, 3}, valid: []bool{true, true, false, true}, expMedian: 3},
		{caseName: "even", values: []float64{4, 1, 3, 2}, expMedian: 2.5},
		{caseName: "nan_is_missing", values: []float64{math.NaN(), 7}, expMedian: 7},
		{caseName: "all_missing", values: []float64{0, 0}, valid: []bool{false, false}, expErr: ErrEmptyColumn},
	}

	for idx, testCase := range testCases {
		t.Run(fmt.Sprintf("case_%d_%s", idx, testCase.caseName), func(t *testing.T) {
			rec := floatRecord(mem, "x", testCase.values, testCase.valid)
			defer rec.Release()

			imputer := NewMedianImputer()
			err := imputer.Fit(rec)
			if testCase.expErr != nil {
				assert.True(t, errors.Is(err, testCase.expErr), "got %v", err)
				assert.False(t, imputer.Fitted())
				return
			}
			if !assert.Nil(t, err) {
				return
			}
			assert.Equal(t, testCase.expMedian, imputer.Medians()["x"])

			out, err := imputer.Transform(mem, rec)
			if !assert.Nil(t, err) {
				return
			}
			defer out.Release()
			assert.Equal(t, 0, out.Column(0).NullN())
			for i, v := range floatColumnValues(t, out, 0) {
				if testCase.valid != nil && !testCase.valid[i] || math.IsNaN(testCase.values[i]) {
					assert.Equal(t, testCase.expMedian, v)
				} else {
					assert.Equal(t, testCase.values[i], v)
				}
			}
		})
	}
}

func TestMedianImputerStateErrors(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec := floatRecord(mem, "x", []float64{1, 2}, nil)
	defer rec.Release()

	imputer := NewMedianImputer()
	_, err := imputer.Transform(mem, rec)
	assert.True(t, errors.Is(err, ErrNotFitted))

	assert.Nil(t, imputer.Fit(rec))
	assert.True(t, errors.Is(imputer.Fit(rec), ErrAlreadyFitted))

	other := floatRecord(mem, "y", []float64{1}, nil)
	defer other.Release()
	_, err = imputer.Transform(mem, other)
	assert.True(t, errors.Is(err, ErrColumnMismatch))

	labels := stringRecord(mem, "x", []string{"a"}, nil)
	defer labels.Release()
	assert.True(t, errors.Is(NewMedianImputer().Fit(labels), ErrColumnTypeMismatch))
}

func TestMostFrequentImputer(t *testing.T) {
	mem := memory.NewGoAllocator()

	testCases := []struct {
		caseName string
		values   []string
		valid    []bool
		expMode  string
		expErr   error
	}{
		{caseName: "majority", values: []string{"b", "a", "b", ""}, valid: []bool{true, true, true, false}, expMode: "b"},
		{caseName: "tie_smallest", values: []string{"z", "m", "m", "z", "a"}, expMode: "m"},
		{caseName: "all_missing", values: []string{"", ""}, valid: []bool{false, false}, expErr: ErrEmptyColumn},
	}

	for idx, testCase := range testCases {
		t.Run(fmt.Sprintf("case_%d_%s", idx, testCase.caseName), func(t *testing.T) {
			rec := stringRecord(mem, "c", testCase.values, testCase.valid)
			defer rec.Release()

			imputer := NewMostFrequentImputer()
			err := imputer.Fit(rec)
			if testCase.expErr != nil {
				assert.True(t, errors.Is(err, testCase.expErr), "got %v", err)
				return
			}
			if !assert.Nil(t, err) {
				return
			}
			assert.Equal(t, testCase.expMode, imputer.Modes()["c"])

			out, err := imputer.Transform(mem, rec)
			if !assert.Nil(t, err) {
				return
			}
			defer out.Release()
			assert.Equal(t, 0, out.Column(0).NullN())
			for i, v := range stringColumnValues(out, 0) {
				if testCase.valid != nil && !testCase.valid[i] {
					assert.Equal(t, testCase.expMode, v)
				} else {
					assert.Equal(t, testCase.values[i], v)
				}
			}
		})
	}
}

func TestOneHotEncoder(t *testing.T) {
	mem := memory.NewGoAllocator()
	train := stringRecord(mem, "lunch", []string{"standard", "free", "standard"}, nil)
	defer train.Release()
	eval := stringRecord(mem, "lunch", []string{"free", "reduced", "standard"}, nil)
	defer eval.Release()

	encoder := NewOneHotEncoder(UnknownCategoryIgnore)
	if !assert.Nil(t, encoder.Fit(train)) {
		return
	}
	assert.Equal(t, []string{"free", "standard"}, encoder.Categories("lunch"))
	assert.Equal(t, []string{"lunch_free", "lunch_standard"}, encoder.FeatureNames())

	out, err := encoder.Transform(mem, eval)
	if !assert.Nil(t, err) {
		return
	}
	defer out.Release()
	assert.Equal(t, []float64{1, 0, 0}, floatColumnValues(t, out, 0))
	assert.Equal(t, []float64{0, 0, 1}, floatColumnValues(t, out, 1))

	strict := NewOneHotEncoder(UnknownCategoryError)
	if !assert.Nil(t, strict.Fit(train)) {
		return
	}
	_, err = strict.Transform(mem, eval)
	assert.True(t, errors.Is(err, ErrUnknownCategory), "got %v", err)
}

func TestParseUnknownCategoryPolicy(t *testing.T) {
	policy, err := ParseUnknownCategoryPolicy("")
	assert.Nil(t, err)
	assert.Equal(t, UnknownCategoryIgnore, policy)

	policy, err = ParseUnknownCategoryPolicy("error")
	assert.Nil(t, err)
	assert.Equal(t, UnknownCategoryError, policy)

	_, err = ParseUnknownCategoryPolicy("drop")
	assert.True(t, errors.Is(err, ErrUnknownPolicy))
}

func TestStandardScaler(t *testing.T) {
	mem := memory.NewGoAllocator()

	testCases := []struct {
		caseName string
		withMean bool
		values   []float64
		expMean  float64
		expScale float64
		expOut   []float64
	}{
		{caseName: "centered", withMean: true, values: []float64{1, 3, 5, 7}, expMean: 4, expScale: math.Sqrt(5), expOut: []float64{-3 / math.Sqrt(5), -1 / math.Sqrt(5), 1 / math.Sqrt(5), 3 / math.Sqrt(5)}},
		{caseName: "not_centered", withMean: false, values: []float64{0, 2}, expMean: 1, expScale: 1, expOut: []float64{0, 2}},
		{caseName: "constant", withMean: true, values: []float64{4, 4, 4}, expMean: 4, expScale: 1, expOut: []float64{0, 0, 0}},
	}

	for idx, testCase := range testCases {
		t.Run(fmt.Sprintf("case_%d_%s", idx, testCase.caseName), func(t *testing.T) {
			rec := floatRecord(mem, "x", testCase.values, nil)
			defer rec.Release()

			scaler := NewStandardScaler(testCase.withMean)
			if !assert.Nil(t, scaler.Fit(rec)) {
				return
			}
			mean, scale, ok := scaler.Params("x")
			assert.True(t, ok)
			assert.InDelta(t, testCase.expMean, mean, 1e-12)
			assert.InDelta(t, testCase.expScale, scale, 1e-12)

			out, err := scaler.Transform(mem, rec)
			if !assert.Nil(t, err) {
				return
			}
			defer out.Release()
			assert.InDeltaSlice(t, testCase.expOut, floatColumnValues(t, out, 0), 1e-12)
		})
	}
}

func TestStandardScalerRejectsNulls(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec := floatRecord(mem, "x", []float64{1, 0}, []bool{true, false})
	defer rec.Release()

	assert.True(t, errors.Is(NewStandardScaler(true).Fit(rec), ErrMissingValue))
}

func TestPipeline(t *testing.T) {
	mem := memory.NewGoAllocator()
	train := floatRecord(mem, "x", []float64{1, 0, 3}, []bool{true, false, true})
	defer train.Release()

	pipeline := NewPipeline(
		NamedStep{Name: "imputer", Step: NewMedianImputer()},
		NamedStep{Name: "scaler", Step: NewStandardScaler(true)},
	)
	assert.False(t, pipeline.Fitted())

	out, err := pipeline.FitTransform(mem, train)
	if !assert.Nil(t, err) {
		return
	}
	defer out.Release()
	assert.True(t, pipeline.Fitted())
	// imputed to [1, 2, 3], mean 2, population std sqrt(2/3)
	scale := math.Sqrt(2.0 / 3.0)
	assert.InDeltaSlice(t, []float64{-1 / scale, 0, 1 / scale}, floatColumnValues(t, out, 0), 1e-12)

	again, err := pipeline.Transform(mem, train)
	if !assert.Nil(t, err) {
		return
	}
	defer again.Release()
	assert.Equal(t, floatColumnValues(t, out, 0), floatColumnValues(t, again, 0))

	_, err = NewPipeline(NamedStep{Name: "imputer", Step: NewMedianImputer()}).Transform(mem, train)
	assert.True(t, errors.Is(err, ErrNotFitted))
}
