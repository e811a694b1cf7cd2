package runners

import (
	"context"
	"log/slog"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/google/uuid"

	"github.com/alekLukanen/featureprep/arrowOps"
	"github.com/alekLukanen/featureprep/config"
	"github.com/alekLukanen/featureprep/elements"
	"github.com/alekLukanen/featureprep/ingestion"
	"github.com/alekLukanen/featureprep/preprocessing"
	"github.com/alekLukanen/featureprep/stageErrors"
	"github.com/alekLukanen/featureprep/storage"
	"github.com/alekLukanen/featureprep/telemetry"
)

type IPublisher interface {
	Publish(ctx context.Context, runID string, artifacts map[string]string) (*storage.RunManifest, error)
}

type RunResult struct {
	RunID             string
	RawDataPath       string
	TrainDataPath     string
	TestDataPath      string
	PreprocessorPath  string
	TrainFeaturesPath string
	TestFeaturesPath  string
	FeatureNames      []string
	TrainRows         int64
	TestRows          int64
	Manifest          *storage.RunManifest
}

// Artifacts maps artifact names to the files produced by the run.
func (obj RunResult) Artifacts() map[string]string {
	return map[string]string{
		"raw_data":       obj.RawDataPath,
		"train_data":     obj.TrainDataPath,
		"test_data":      obj.TestDataPath,
		"preprocessor":   obj.PreprocessorPath,
		"train_features": obj.TrainFeaturesPath,
		"test_features":  obj.TestFeaturesPath,
	}
}

// SingleThreadedRunner runs every stage of the pipeline one after the other
// in the calling goroutine.
type SingleThreadedRunner struct {
	logger *slog.Logger
	mem    *memory.GoAllocator

	runID     string
	cfg       config.Config
	schema    *elements.Schema
	metrics   *telemetry.Metrics
	publisher IPublisher
}

func NewSingleThreadedRunner(logger *slog.Logger, schema *elements.Schema, cfg config.Config) *SingleThreadedRunner {
	runID := uuid.NewString()
	return &SingleThreadedRunner{
		logger:  logger.With(slog.String("runId", runID)),
		mem:     memory.NewGoAllocator(),
		runID:   runID,
		cfg:     cfg,
		schema:  schema,
		metrics: telemetry.NewMetrics(),
	}
}

// SetPublisher enables publishing of the run artifacts once every local
// stage succeeded.
func (obj *SingleThreadedRunner) SetPublisher(publisher IPublisher) *SingleThreadedRunner {
	obj.publisher = publisher
	return obj
}

func (obj *SingleThreadedRunner) RunID() string {
	return obj.runID
}

func (obj *SingleThreadedRunner) Metrics() *telemetry.Metrics {
	return obj.metrics
}

func (obj *SingleThreadedRunner) Run(ctx context.Context) (RunResult, error) {
	obj.logger.Info("starting run", slog.String("schema", obj.schema.Name()), slog.String("source", obj.cfg.SourcePath))

	result, err := obj.run(ctx)
	if err != nil {
		obj.logger.Error("run failed", slog.String("error", errs.ErrorWithStack(err)))
	} else {
		obj.logger.Info("run completed", slog.Int("features", len(result.FeatureNames)-1))
	}

	obj.pushMetrics(ctx)
	return result, err
}

func (obj *SingleThreadedRunner) run(ctx context.Context) (RunResult, error) {
	result := RunResult{RunID: obj.runID}

	started := time.Now()
	split, err := ingestion.NewDataIngestion(obj.logger, obj.mem, obj.schema, obj.cfg.Ingestion()).
		InitiateDataIngestion(ctx)
	obj.metrics.ObserveStage(stageerrors.StageIngestion, started, err)
	if err != nil {
		return result, err
	}
	result.RawDataPath = obj.cfg.RawDataPath
	result.TrainDataPath = split.TrainDataPath
	result.TestDataPath = split.TestDataPath
	result.TrainRows = split.TrainRows
	result.TestRows = split.TestRows
	obj.metrics.SetRows("raw", split.RawRows)
	obj.metrics.SetRows("train", split.TrainRows)
	obj.metrics.SetRows("test", split.TestRows)

	started = time.Now()
	transformed, err := preprocessing.NewDataTransformation(obj.logger, obj.mem, obj.schema, obj.cfg.Transformation()).
		InitiateDataTransformation(ctx, split.TrainDataPath, split.TestDataPath)
	obj.metrics.ObserveStage(stageerrors.StageTransformation, started, err)
	if err != nil {
		return result, err
	}
	result.PreprocessorPath = transformed.PreprocessorPath
	result.FeatureNames = transformed.FeatureNames
	obj.metrics.SetFeatures(len(transformed.FeatureNames) - 1)

	started = time.Now()
	err = obj.persistFeatures(ctx, transformed)
	obj.metrics.ObserveStage(stageerrors.StagePersistence, started, err)
	if err != nil {
		return result, err
	}
	result.TrainFeaturesPath = obj.cfg.TrainFeaturesPath
	result.TestFeaturesPath = obj.cfg.TestFeaturesPath

	if obj.publisher != nil {
		started = time.Now()
		manifest, err := obj.publisher.Publish(ctx, obj.runID, result.Artifacts())
		obj.metrics.ObserveStage(stageerrors.StagePublish, started, err)
		if err != nil {
			return result, stageerrors.New(stageerrors.StagePublish, err)
		}
		result.Manifest = manifest
	}

	return result, nil
}

func (obj *SingleThreadedRunner) persistFeatures(ctx context.Context, transformed preprocessing.TransformationResult) error {
	obj.logger.Info("writing feature matrices")

	trainFile, err := arrowops.WriteMatrixToParquetFile(ctx, obj.mem, transformed.TrainMatrix, transformed.FeatureNames, obj.cfg.TrainFeaturesPath)
	if err != nil {
		return stageerrors.New(stageerrors.StagePersistence, err)
	}
	testFile, err := arrowops.WriteMatrixToParquetFile(ctx, obj.mem, transformed.TestMatrix, transformed.FeatureNames, obj.cfg.TestFeaturesPath)
	if err != nil {
		return stageerrors.New(stageerrors.StagePersistence, err)
	}

	obj.logger.Info(
		"feature matrices written",
		slog.String("train", trainFile.FilePath),
		slog.Int64("trainRows", trainFile.NumRows),
		slog.String("test", testFile.FilePath),
		slog.Int64("testRows", testFile.NumRows),
	)
	return nil
}

func (obj *SingleThreadedRunner) pushMetrics(ctx context.Context) {
	if obj.cfg.Metrics.PushgatewayURL == "" {
		return
	}
	if err := obj.metrics.Push(ctx, obj.cfg.Metrics.PushgatewayURL, obj.cfg.Metrics.Job, obj.runID); err != nil {
		obj.logger.Warn("failed pushing metrics", slog.String("error", errs.ErrorWithStack(err)))
	}
}
