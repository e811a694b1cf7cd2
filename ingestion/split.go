package ingestion

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/alekLukanen/errs"
	"github.com/alekLukanen/featureprep/arrowOps"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// SplitIndices returns the row indices of the train and eval subsets. The
// rows are shuffled with a generator seeded by seed and the first
// ceil(numRows*testSize) shuffled rows form the eval subset.
func SplitIndices(numRows int, testSize float64, seed int64) ([]int, []int, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errs.NewStackError(fmt.Errorf("%w| test size %v must be within (0, 1)", ErrInvalidTestSize, testSize))
	}
	if numRows < 2 {
		return nil, nil, errs.NewStackError(fmt.Errorf("%w| got %d rows", ErrTooFewRows, numRows))
	}

	numEval := int(math.Ceil(float64(numRows) * testSize))
	if numEval >= numRows {
		numEval = numRows - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(numRows)
	return perm[numEval:], perm[:numEval], nil
}

// SplitRecord partitions the rows of rec into a train and an eval record.
// Both records must be released by the caller.
func SplitRecord(mem *memory.GoAllocator, rec arrow.Record, testSize float64, seed int64) (arrow.Record, arrow.Record, error) {
	trainIdx, evalIdx, err := SplitIndices(int(rec.NumRows()), testSize, seed)
	if err != nil {
		return nil, nil, err
	}

	trainIndices := arrowops.NewIndices(mem, trainIdx)
	defer trainIndices.Release()
	evalIndices := arrowops.NewIndices(mem, evalIdx)
	defer evalIndices.Release()

	train, err := arrowops.TakeRecord(mem, rec, trainIndices)
	if err != nil {
		return nil, nil, errs.Wrap(err, fmt.Errorf("failed taking train rows"))
	}
	eval, err := arrowops.TakeRecord(mem, rec, evalIndices)
	if err != nil {
		train.Release()
		return nil, nil, errs.Wrap(err, fmt.Errorf("failed taking eval rows"))
	}

	return train, eval, nil
}
