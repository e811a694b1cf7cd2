package preprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alekLukanen/errs"
	"github.com/alekLukanen/featureprep/arrowOps"
	"github.com/alekLukanen/featureprep/stageErrors"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

type ApplyResult struct {
	OutputPath   string
	NumRows      int64
	FeatureNames []string
}

// ApplyPreprocessor loads a stored transformer, applies it to the feature
// columns of a csv file and writes the features to a parquet file.
func ApplyPreprocessor(ctx context.Context, logger *slog.Logger, mem *memory.GoAllocator, preprocessorPath, inputPath, outputPath string) (ApplyResult, error) {
	logger.Info("applying the preprocessing object", slog.String("preprocessor", preprocessorPath), slog.String("input", inputPath))

	ct, err := LoadColumnTransformer(preprocessorPath)
	if err != nil {
		return ApplyResult{}, stageerrors.New(stageerrors.StageApply, errs.Wrap(err, fmt.Errorf("failed loading the preprocessing object")))
	}

	rec, err := arrowops.ReadCSVFile(ctx, mem, inputPath, ct.FloatColumns())
	if err != nil {
		return ApplyResult{}, stageerrors.New(stageerrors.StageApply, err)
	}
	defer rec.Release()

	features, err := ct.Transform(mem, rec)
	if err != nil {
		return ApplyResult{}, stageerrors.New(stageerrors.StageApply, errs.Wrap(err, fmt.Errorf("failed transforming %s", inputPath)))
	}

	pqf, err := arrowops.WriteMatrixToParquetFile(ctx, mem, features, ct.FeatureNames(), outputPath)
	if err != nil {
		return ApplyResult{}, stageerrors.New(stageerrors.StageApply, err)
	}

	logger.Info("features written", slog.String("output", pqf.FilePath), slog.Int64("rows", pqf.NumRows))
	return ApplyResult{OutputPath: pqf.FilePath, NumRows: pqf.NumRows, FeatureNames: ct.FeatureNames()}, nil
}
