package ingestion

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
	"github.com/apache/arrow/go/v17/arrow/memory"
)

type DataIngestionConfig struct {
	SourcePath    string
	RawDataPath   string
	TrainDataPath string
	TestDataPath  string
	TestSize      float64
	Seed          int64
}

type SplitResult struct {
	TrainDataPath string
	TestDataPath  string
	RawRows       int64
	TrainRows     int64
	TestRows      int64
}

type DataIngestion struct {
	logger *slog.Logger
	mem    *memory.GoAllocator

	config DataIngestionConfig
	schema *elements.Schema
}

func NewDataIngestion(logger *slog.Logger, mem *memory.GoAllocator, schema *elements.Schema, config DataIngestionConfig) *DataIngestion {
	return &DataIngestion{
		logger: logger,
		mem:    mem,
		config: config,
		schema: schema,
	}
}

// InitiateDataIngestion reads the source table, stores a raw copy and the
// train and test subsets, and returns the locations of the two subsets.
func (obj *DataIngestion) InitiateDataIngestion(ctx context.Context) (SplitResult, error) {
	obj.logger.Info("entered the data ingestion component", slog.String("source", obj.config.SourcePath))

	result, err := obj.ingest(ctx)
	if err != nil {
		return SplitResult{}, stageerrors.New(stageerrors.StageIngestion, err)
	}

	obj.logger.Info(
		"ingestion of the data is completed",
		slog.String("train", result.TrainDataPath),
		slog.String("test", result.TestDataPath),
		slog.Int64("trainRows", result.TrainRows),
		slog.Int64("testRows", result.TestRows),
	)
	return result, nil
}

func (obj *DataIngestion) ingest(ctx context.Context) (SplitResult, error) {
	raw, err := arrowops.ReadCSVFile(ctx, obj.mem, obj.config.SourcePath, obj.schema.FloatColumns())
	if err != nil {
		return SplitResult{}, errs.Wrap(err, fmt.Errorf("failed reading the source dataset"))
	}
	defer raw.Release()
	obj.logger.Info("read the dataset", slog.Int64("rows", raw.NumRows()), slog.Int64("columns", raw.NumCols()))

	for _, path := range []string{obj.config.RawDataPath, obj.config.TrainDataPath, obj.config.TestDataPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return SplitResult{}, errs.NewStackError(err)
		}
	}

	if err := arrowops.WriteRecordToCSVFile(ctx, raw, obj.config.RawDataPath); err != nil {
		return SplitResult{}, errs.Wrap(err, fmt.Errorf("failed writing the raw copy"))
	}

	obj.logger.Info("train test split initiated", slog.Float64("testSize", obj.config.TestSize), slog.Int64("seed", obj.config.Seed))
	train, test, err := SplitRecord(obj.mem, raw, obj.config.TestSize, obj.config.Seed)
	if err != nil {
		return SplitResult{}, errs.Wrap(err, fmt.Errorf("failed splitting the dataset"))
	}
	defer train.Release()
	defer test.Release()

	if err := arrowops.WriteRecordToCSVFile(ctx, train, obj.config.TrainDataPath); err != nil {
		return SplitResult{}, errs.Wrap(err, fmt.Errorf("failed writing the train set"))
	}
	if err := arrowops.WriteRecordToCSVFile(ctx, test, obj.config.TestDataPath); err != nil {
		return SplitResult{}, errs.Wrap(err, fmt.Errorf("failed writing the test set"))
	}

	return SplitResult{
		TrainDataPath: obj.config.TrainDataPath,
		TestDataPath:  obj.config.TestDataPath,
		RawRows:       raw.NumRows(),
		TrainRows:     train.NumRows(),
		TestRows:      test.NumRows(),
	}, nil
}
