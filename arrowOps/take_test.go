package arrowops

import (
	"fmt"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
)

func TestTakeRecord(t *testing.T) {
	mem := memory.NewGoAllocator()
	data := mockData(mem)
	defer data.Release()

	testCases := []struct {
		indices      []int
		expScores    []float64
		expNullScore []bool
		expGroups    []string
		expErr       bool
	}{
		{
			indices:      []int{4, 0, 2},
			expScores:    []float64{50, 10, 0},
			expNullScore: []bool{false, false, true},
			expGroups:    []string{"e", "a", "c"},
		},
		{
			indices:   []int{},
			expScores: []float64{},
			expGroups: []string{},
		},
		{
			indices: []int{5},
			expErr:  true,
		},
	}

	for idx, testCase := range testCases {
		t.Run(fmt.Sprintf("case_%d", idx), func(t *testing.T) {
			indices := NewIndices(mem, testCase.indices)
			defer indices.Release()

			result, err := TakeRecord(mem, data, indices)
			if testCase.expErr {
				assert.Error(t, err)
				return
			}
			if !assert.Nil(t, err) {
				return
			}
			defer result.Release()

			assert.Equal(t, int64(len(testCase.indices)), result.NumRows())
			scores := result.Column(0).(*array.Float64)
			groups := result.Column(1).(*array.String)
			for i := range testCase.indices {
				if testCase.expNullScore[i] {
					assert.True(t, scores.IsNull(i))
				} else {
					assert.Equal(t, testCase.expScores[i], scores.Value(i))
				}
				assert.Equal(t, testCase.expGroups[i], groups.Value(i))
			}
		})
	}
}

func TestTakeColumns(t *testing.T) {
	mem := memory.NewGoAllocator()
	data := mockData(mem)
	defer data.Release()

	rec, err := TakeColumns(data, []string{"group", "score"})
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, []string{"group", "score"}, ColumnNames(rec))
	assert.Equal(t, data.NumRows(), rec.NumRows())

	_, err = TakeColumns(data, []string{"missing"})
	assert.Error(t, err)
}

func TestConcatenateColumns(t *testing.T) {
	mem := memory.NewGoAllocator()
	data := mockData(mem)
	defer data.Release()

	left, _ := TakeColumns(data, []string{"score"})
	right, _ := TakeColumns(data, []string{"group"})
	joined, err := ConcatenateColumns(left, right)
	if !assert.Nil(t, err) {
		return
	}
	assert.True(t, RecordsEqual(data, joined))

	indices := NewIndices(mem, []int{0})
	short, _ := TakeRecord(mem, right, indices)
	_, err = ConcatenateColumns(left, short)
	assert.Error(t, err)
}
