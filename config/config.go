package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/alekLukanen/featureprep/ingestion"
	"github.com/alekLukanen/featureprep/logging"
	"github.com/alekLukanen/featureprep/preprocessing"
	"github.com/alekLukanen/featureprep/storage"
)

// EnvPrefix prefixes every environment override, nested keys are joined
// with "__", e.g. FEATUREPREP__SPLIT__TEST_SIZE.
const EnvPrefix = "FEATUREPREP__"

type SplitConfig struct {
	TestSize float64 `koanf:"test_size"`
	Seed     int64   `koanf:"seed"`
}

type TransformConfig struct {
	UnknownCategories string `koanf:"unknown_categories"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	JSON   bool   `koanf:"json"`
	Stderr bool   `koanf:"stderr"`
}

type ObjectStorageConfig struct {
	Endpoint     string `koanf:"endpoint"`
	Region       string `koanf:"region"`
	AuthKey      string `koanf:"auth_key"`
	AuthSecret   string `koanf:"auth_secret"`
	UsePathStyle bool   `koanf:"use_path_style"`
}

type KeyStorageConfig struct {
	Address   string `koanf:"address"`
	Password  string `koanf:"password"`
	KeyPrefix string `koanf:"key_prefix"`
}

type PublishConfig struct {
	Enabled       bool                `koanf:"enabled"`
	Bucket        string              `koanf:"bucket"`
	Prefix        string              `koanf:"prefix"`
	LockDuration  time.Duration       `koanf:"lock_duration"`
	ObjectStorage ObjectStorageConfig `koanf:"object_storage"`
	KeyStorage    KeyStorageConfig    `koanf:"key_storage"`
}

type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url"`
	Job            string `koanf:"job"`
}

// Config is the whole run configuration. Artifact file names are relative
// to ArtifactsDir unless absolute.
type Config struct {
	SourcePath        string `koanf:"source_path"`
	ArtifactsDir      string `koanf:"artifacts_dir"`
	RawDataPath       string `koanf:"raw_data_path"`
	TrainDataPath     string `koanf:"train_data_path"`
	TestDataPath      string `koanf:"test_data_path"`
	PreprocessorPath  string `koanf:"preprocessor_path"`
	TrainFeaturesPath string `koanf:"train_features_path"`
	TestFeaturesPath  string `koanf:"test_features_path"`
	LogsDir           string `koanf:"logs_dir"`

	Split     SplitConfig     `koanf:"split"`
	Transform TransformConfig `koanf:"transform"`
	Log       LogConfig       `koanf:"log"`
	Publish   PublishConfig   `koanf:"publish"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"source_path":                    filepath.Join("notebook", "stud.csv"),
		"artifacts_dir":                  "artifacts",
		"raw_data_path":                  "data.csv",
		"train_data_path":                "train.csv",
		"test_data_path":                 "test.csv",
		"preprocessor_path":              "preprocessor.avro",
		"train_features_path":            "train_features.parquet",
		"test_features_path":             "test_features.parquet",
		"logs_dir":                       "logs",
		"split.test_size":                0.2,
		"split.seed":                     42,
		"transform.unknown_categories":   string(preprocessing.UnknownCategoryIgnore),
		"log.level":                      "info",
		"log.json":                       true,
		"log.stderr":                     false,
		"publish.enabled":                false,
		"publish.lock_duration":          "1m",
		"publish.object_storage.region":  "us-east-1",
		"publish.key_storage.address":    "localhost:6379",
		"publish.key_storage.key_prefix": "featureprep",
		"metrics.job":                    "featureprep",
	}
}

// Load merges the defaults, the yaml file at path when path is not empty,
// and FEATUREPREP__ environment variables, in that order.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, errs.NewStackError(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errs.Wrap(err, fmt.Errorf("failed loading config file %s", path))
		}
	}

	envProvider := env.Provider(EnvPrefix, "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, errs.Wrap(err, fmt.Errorf("failed loading environment overrides"))
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errs.Wrap(err, fmt.Errorf("failed decoding config"))
	}
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (obj *Config) resolvePaths() {
	for _, path := range []*string{
		&obj.RawDataPath,
		&obj.TrainDataPath,
		&obj.TestDataPath,
		&obj.PreprocessorPath,
		&obj.TrainFeaturesPath,
		&obj.TestFeaturesPath,
	} {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(obj.ArtifactsDir, *path)
		}
	}
}

func (obj Config) Validate() error {
	if obj.SourcePath == "" {
		return errs.NewStackError(fmt.Errorf("%w| source_path is required", ErrInvalidConfig))
	}
	if obj.Split.TestSize <= 0 || obj.Split.TestSize >= 1 {
		return errs.NewStackError(fmt.Errorf("%w| split.test_size %v must be within (0, 1)", ErrInvalidConfig, obj.Split.TestSize))
	}
	if _, err := preprocessing.ParseUnknownCategoryPolicy(obj.Transform.UnknownCategories); err != nil {
		return errs.NewStackError(fmt.Errorf("%w| transform.unknown_categories: %s", ErrInvalidConfig, err))
	}
	if obj.Publish.Enabled {
		if obj.Publish.Bucket == "" {
			return errs.NewStackError(fmt.Errorf("%w| publish.bucket is required when publishing", ErrInvalidConfig))
		}
		if obj.Publish.KeyStorage.Address == "" {
			return errs.NewStackError(fmt.Errorf("%w| publish.key_storage.address is required when publishing", ErrInvalidConfig))
		}
	}
	return nil
}

func (obj Config) Ingestion() ingestion.DataIngestionConfig {
	return ingestion.DataIngestionConfig{
		SourcePath:    obj.SourcePath,
		RawDataPath:   obj.RawDataPath,
		TrainDataPath: obj.TrainDataPath,
		TestDataPath:  obj.TestDataPath,
		TestSize:      obj.Split.TestSize,
		Seed:          obj.Split.Seed,
	}
}

func (obj Config) Transformation() preprocessing.DataTransformationConfig {
	policy, _ := preprocessing.ParseUnknownCategoryPolicy(obj.Transform.UnknownCategories)
	return preprocessing.DataTransformationConfig{
		PreprocessorObjFilePath: obj.PreprocessorPath,
		UnknownCategories:       policy,
	}
}

func (obj Config) Logging() logging.Options {
	return logging.Options{
		Dir:    obj.LogsDir,
		Level:  obj.Log.Level,
		JSON:   obj.Log.JSON,
		Stderr: obj.Log.Stderr,
	}
}

// ObjectStorage uses static credentials when an auth key is configured and
// the default aws credential chain otherwise.
func (obj Config) ObjectStorage() storage.ObjectStorageOptions {
	options := storage.NewObjectStorageOptionsFromStaticCredentials(
		obj.Publish.ObjectStorage.Endpoint,
		obj.Publish.ObjectStorage.Region,
		obj.Publish.ObjectStorage.AuthKey,
		obj.Publish.ObjectStorage.AuthSecret,
		obj.Publish.ObjectStorage.UsePathStyle,
	)
	if options.AuthKey == "" {
		options.AuthType = ""
	}
	return *options
}

func (obj Config) KeyStorage() storage.KeyStorageOptions {
	return storage.KeyStorageOptions{
		Address:   obj.Publish.KeyStorage.Address,
		Password:  obj.Publish.KeyStorage.Password,
		KeyPrefix: obj.Publish.KeyStorage.KeyPrefix,
	}
}

func (obj Config) Publisher() storage.ArtifactPublisherOptions {
	return storage.ArtifactPublisherOptions{
		BucketName:   obj.Publish.Bucket,
		KeyPrefix:    obj.Publish.Prefix,
		LockDuration: obj.Publish.LockDuration,
	}
}
