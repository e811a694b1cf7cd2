package preprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alekLukanen/errs"
	"github.com/alekLukanen/featureprep/arrowOps"
	"github.com/alekLukanen/featureprep/elements"
	"github.com/alekLukanen/featureprep/stageErrors"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"gonum.org/v1/gonum/mat"
)

type DataTransformationConfig struct {
	PreprocessorObjFilePath string
	UnknownCategories       UnknownCategoryPolicy
}

// TransformationResult holds both feature matrices with the target as the
// last column, and the location of the fitted transformer.
type TransformationResult struct {
	TrainMatrix      *mat.Dense
	TestMatrix       *mat.Dense
	PreprocessorPath string
	FeatureNames     []string
}

type DataTransformation struct {
	logger *slog.Logger
	mem    *memory.GoAllocator

	config DataTransformationConfig
	schema *elements.Schema
}

func NewDataTransformation(logger *slog.Logger, mem *memory.GoAllocator, schema *elements.Schema, config DataTransformationConfig) *DataTransformation {
	return &DataTransformation{
		logger: logger,
		mem:    mem,
		config: config,
		schema: schema,
	}
}

// GetDataTransformerObject returns a new unfitted transformer for the schema.
func (obj *DataTransformation) GetDataTransformerObject() (*ColumnTransformer, error) {
	ct, err := BuildColumnTransformer(obj.schema, obj.config.UnknownCategories)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed building the column transformer"))
	}
	obj.logger.Info(
		"column transformer created",
		slog.Any("numericalColumns", obj.schema.NumericalColumns()),
		slog.Any("categoricalColumns", obj.schema.CategoricalColumns()),
	)
	return ct, nil
}

// InitiateDataTransformation fits the transformer on the train set only,
// applies it to both sets and stores it for reuse.
func (obj *DataTransformation) InitiateDataTransformation(ctx context.Context, trainPath, testPath string) (TransformationResult, error) {
	obj.logger.Info("entered the data transformation component", slog.String("train", trainPath), slog.String("test", testPath))

	result, err := obj.transform(ctx, trainPath, testPath)
	if err != nil {
		return TransformationResult{}, stageerrors.New(stageerrors.StageTransformation, err)
	}

	obj.logger.Info(
		"data transformation is completed",
		slog.String("preprocessor", result.PreprocessorPath),
		slog.Int("features", len(result.FeatureNames)-1),
	)
	return result, nil
}

func (obj *DataTransformation) transform(ctx context.Context, trainPath, testPath string) (TransformationResult, error) {
	train, err := arrowops.ReadCSVFile(ctx, obj.mem, trainPath, obj.schema.FloatColumns())
	if err != nil {
		return TransformationResult{}, errs.Wrap(err, fmt.Errorf("failed reading the train set"))
	}
	defer train.Release()
	test, err := arrowops.ReadCSVFile(ctx, obj.mem, testPath, obj.schema.FloatColumns())
	if err != nil {
		return TransformationResult{}, errs.Wrap(err, fmt.Errorf("failed reading the test set"))
	}
	defer test.Release()
	obj.logger.Info("read train and test data completed", slog.Int64("trainRows", train.NumRows()), slog.Int64("testRows", test.NumRows()))

	targetColumn := obj.schema.TargetColumn()
	trainTarget, err := TargetValues(train, targetColumn)
	if err != nil {
		return TransformationResult{}, errs.Wrap(err, fmt.Errorf("train set"))
	}
	testTarget, err := TargetValues(test, targetColumn)
	if err != nil {
		return TransformationResult{}, errs.Wrap(err, fmt.Errorf("test set"))
	}

	ct, err := obj.GetDataTransformerObject()
	if err != nil {
		return TransformationResult{}, err
	}

	obj.logger.Info("applying the preprocessing object on the train and test sets")
	trainFeatures, err := ct.FitTransform(obj.mem, train)
	if err != nil {
		return TransformationResult{}, errs.Wrap(err, fmt.Errorf("failed fitting on the train set"))
	}
	testFeatures, err := ct.Transform(obj.mem, test)
	if err != nil {
		return TransformationResult{}, errs.Wrap(err, fmt.Errorf("failed transforming the test set"))
	}

	trainMatrix, err := arrowops.AppendColumn(trainFeatures, trainTarget)
	if err != nil {
		return TransformationResult{}, errs.Wrap(err, fmt.Errorf("failed appending the train target"))
	}
	testMatrix, err := arrowops.AppendColumn(testFeatures, testTarget)
	if err != nil {
		return TransformationResult{}, errs.Wrap(err, fmt.Errorf("failed appending the test target"))
	}

	if err := os.MkdirAll(filepath.Dir(obj.config.PreprocessorObjFilePath), 0o755); err != nil {
		return TransformationResult{}, errs.NewStackError(err)
	}
	if err := SaveColumnTransformer(obj.config.PreprocessorObjFilePath, ct); err != nil {
		return TransformationResult{}, errs.Wrap(err, fmt.Errorf("failed saving the preprocessing object"))
	}
	obj.logger.Info("saved preprocessing object", slog.String("path", obj.config.PreprocessorObjFilePath))

	return TransformationResult{
		TrainMatrix:      trainMatrix,
		TestMatrix:       testMatrix,
		PreprocessorPath: obj.config.PreprocessorObjFilePath,
		FeatureNames:     append(ct.FeatureNames(), targetColumn),
	}, nil
}

// TargetValues returns the target column as float64 values. The target is
// never imputed so a missing value is an error.
func TargetValues(rec arrow.Record, targetColumn string) ([]float64, error) {
	indices := rec.Schema().FieldIndices(targetColumn)
	if len(indices) == 0 {
		return nil, errs.NewStackError(fmt.Errorf("%w| target column %s", ErrColumnNotFound, targetColumn))
	}
	col, ok := rec.Column(indices[0]).(*array.Float64)
	if !ok {
		return nil, errs.NewStackError(fmt.Errorf("%w| target column %s", ErrColumnTypeMismatch, targetColumn))
	}
	values := make([]float64, col.Len())
	for i := range values {
		if col.IsNull(i) {
			return nil, errs.NewStackError(fmt.Errorf("%w| target column %s row %d", ErrMissingTarget, targetColumn, i))
		}
		values[i] = col.Value(i)
	}
	return values, nil
}
