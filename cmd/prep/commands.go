package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/alekLukanen/featureprep/config"
	"github.com/alekLukanen/featureprep/elements"
	"github.com/alekLukanen/featureprep/logging"
	"github.com/alekLukanen/featureprep/preprocessing"
	"github.com/alekLukanen/featureprep/runners"
)

var (
	configPath       string
	preprocessorPath string
	inputPath        string
	outputPath       string
	runID            string
	fetchDir         string
)

var rootCmd = &cobra.Command{
	Use:           "prep",
	Short:         "Prepare tabular data for model training",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Split the source data, fit the preprocessor and write the feature matrices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunLogger(func(cfg config.Config, logger *slog.Logger) error {
			return runPipeline(cmd.Context(), cfg, logger, cmd)
		})
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a fitted preprocessor to a csv file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunLogger(func(cfg config.Config, logger *slog.Logger) error {
			result, err := preprocessing.ApplyPreprocessor(
				cmd.Context(), logger, memory.NewGoAllocator(), preprocessorPath, inputPath, outputPath,
			)
			if err != nil {
				logger.Error("apply failed", slog.String("error", errs.ErrorWithStack(err)))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows with %d features to %s\n", result.NumRows, len(result.FeatureNames), result.OutputPath)
			return nil
		})
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the artifacts of a published run",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunLogger(func(cfg config.Config, logger *slog.Logger) error {
			if cfg.Publish.Bucket == "" {
				return fmt.Errorf("%w| publish.bucket is required to fetch a run", config.ErrInvalidConfig)
			}
			publisher, closeFunc, err := runners.BuildPublisher(cmd.Context(), logger, cfg)
			if err != nil {
				return err
			}
			defer closeFunc()

			manifest, err := publisher.Fetch(cmd.Context(), runID, fetchDir)
			if err != nil {
				logger.Error("fetch failed", slog.String("error", errs.ErrorWithStack(err)))
				return err
			}
			for _, manifestObj := range manifest.Objects {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", manifestObj.Name, manifestObj.Key)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "yaml config file")

	applyCmd.Flags().StringVar(&preprocessorPath, "preprocessor", "", "fitted preprocessor file")
	applyCmd.Flags().StringVar(&inputPath, "input", "", "csv file holding the feature columns")
	applyCmd.Flags().StringVar(&outputPath, "output", "", "parquet file to write the features to")
	for _, name := range []string{"preprocessor", "input", "output"} {
		_ = applyCmd.MarkFlagRequired(name)
	}

	fetchCmd.Flags().StringVar(&runID, "run-id", "", "id of the published run")
	fetchCmd.Flags().StringVar(&fetchDir, "dir", ".", "directory to download the artifacts into")
	_ = fetchCmd.MarkFlagRequired("run-id")

	rootCmd.AddCommand(runCmd, applyCmd, fetchCmd)
}

// withRunLogger loads the config and opens the run log once per command.
func withRunLogger(fn func(config.Config, *slog.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, logPath, closeFunc, err := logging.NewRunLogger(cfg.Logging())
	if err != nil {
		return err
	}
	defer closeFunc()

	logger.Debug("opened run log", slog.String("path", logPath))
	return fn(cfg, logger)
}

func runPipeline(ctx context.Context, cfg config.Config, logger *slog.Logger, cmd *cobra.Command) error {
	runner := runners.NewSingleThreadedRunner(logger, elements.StudentPerformanceSchema(), cfg)

	if cfg.Publish.Enabled {
		publisher, closeFunc, err := runners.BuildPublisher(ctx, logger, cfg)
		if err != nil {
			logger.Error("failed connecting the publisher", slog.String("error", errs.ErrorWithStack(err)))
			return err
		}
		defer closeFunc()
		runner.SetPublisher(publisher)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s\n", result.RunID)
	fmt.Fprintf(cmd.OutOrStdout(), "train data: %s\n", result.TrainDataPath)
	fmt.Fprintf(cmd.OutOrStdout(), "test data: %s\n", result.TestDataPath)
	fmt.Fprintf(cmd.OutOrStdout(), "preprocessor: %s\n", result.PreprocessorPath)
	fmt.Fprintf(cmd.OutOrStdout(), "train features: %s\n", result.TrainFeaturesPath)
	fmt.Fprintf(cmd.OutOrStdout(), "test features: %s\n", result.TestFeaturesPath)
	if result.Manifest != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "manifest: %s\n", result.Manifest.Key())
	}
	return nil
}
