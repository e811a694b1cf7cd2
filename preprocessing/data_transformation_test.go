package preprocessing

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alekLukanen/featureprep/arrowOps"
	"github.com/alekLukanen/featureprep/elements"
	"github.com/alekLukanen/featureprep/stageErrors"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
)

func newTestTransformation(t *testing.T) *DataTransformation {
	return NewDataTransformation(
		slog.Default(),
		memory.NewGoAllocator(),
		elements.StudentPerformanceSchema(),
		DataTransformationConfig{
			PreprocessorObjFilePath: filepath.Join(t.TempDir(), "artifacts", "preprocessor.avro"),
			UnknownCategories:       UnknownCategoryIgnore,
		},
	)
}

func TestInitiateDataTransformation(t *testing.T) {
	ctx := context.Background()
	dt := newTestTransformation(t)

	result, err := dt.InitiateDataTransformation(ctx, writeCSV(t, "train.csv", trainCSV), writeCSV(t, "test.csv", evalCSV))
	if !assert.Nil(t, err) {
		return
	}

	trainRows, trainCols := result.TrainMatrix.Dims()
	testRows, testCols := result.TestMatrix.Dims()
	assert.Equal(t, 4, trainRows)
	assert.Equal(t, 2, testRows)
	assert.Equal(t, trainCols, testCols)
	assert.Equal(t, len(expectedFeatureNames)+1, trainCols)
	assert.Equal(t, append(append([]string{}, expectedFeatureNames...), "math_score"), result.FeatureNames)

	// target appended unchanged as the last column
	for i, v := range []float64{70, 60, 80, 50} {
		assert.Equal(t, v, result.TrainMatrix.At(i, trainCols-1))
	}
	for i, v := range []float64{90, 40} {
		assert.Equal(t, v, result.TestMatrix.At(i, testCols-1))
	}

	assert.FileExists(t, result.PreprocessorPath)
	loaded, err := LoadColumnTransformer(result.PreprocessorPath)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, expectedFeatureNames, loaded.FeatureNames())
}

func TestInitiateDataTransformationMissingTarget(t *testing.T) {
	ctx := context.Background()
	dt := newTestTransformation(t)
	badEval := studentHeader + "female,group A,some college,standard,none,,50,52\n"

	_, err := dt.InitiateDataTransformation(ctx, writeCSV(t, "train.csv", trainCSV), writeCSV(t, "test.csv", badEval))
	if !assert.Error(t, err) {
		return
	}
	var stageErr *stageerrors.StageError
	if !assert.True(t, errors.As(err, &stageErr)) {
		return
	}
	assert.Equal(t, stageerrors.StageTransformation, stageErr.Stage)
	assert.Equal(t, "data_transformation.go", stageErr.File)
	assert.NotNil(t, stageErr.Unwrap())
}

func TestInitiateDataTransformationMissingFile(t *testing.T) {
	dt := newTestTransformation(t)

	_, err := dt.InitiateDataTransformation(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "")
	var stageErr *stageerrors.StageError
	if !assert.True(t, errors.As(err, &stageErr)) {
		return
	}
	assert.Equal(t, stageerrors.StageTransformation, stageErr.Stage)
}

func TestApplyPreprocessor(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewGoAllocator()
	dt := newTestTransformation(t)

	result, err := dt.InitiateDataTransformation(ctx, writeCSV(t, "train.csv", trainCSV), writeCSV(t, "test.csv", evalCSV))
	if !assert.Nil(t, err) {
		return
	}

	// inference input carries no target column
	input := writeCSV(t, "input.csv",
		"gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,reading_score,writing_score\n"+
			"female,group E,high school,standard,none,,\n"+
			",group A,some college,free/reduced,completed,50,52\n")
	output := filepath.Join(t.TempDir(), "features.parquet")

	applied, err := ApplyPreprocessor(ctx, slog.Default(), mem, result.PreprocessorPath, input, output)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, int64(2), applied.NumRows)
	assert.Equal(t, expectedFeatureNames, applied.FeatureNames)

	records, err := arrowops.ReadParquetFile(ctx, mem, output)
	if !assert.Nil(t, err) || !assert.Len(t, records, 1) {
		return
	}
	features, err := arrowops.RecordToMatrix(records[0])
	if !assert.Nil(t, err) {
		return
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < len(expectedFeatureNames); j++ {
			assert.InDelta(t, result.TestMatrix.At(i, j), features.At(i, j), 1e-12)
		}
	}
}
