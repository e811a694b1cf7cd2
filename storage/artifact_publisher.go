package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/alekLukanen/errs"
)

type ArtifactPublisherOptions struct {
	BucketName   string
	KeyPrefix    string
	LockDuration time.Duration
}

// ArtifactPublisher copies the artifacts of a run into object storage and
// records them in key storage. Publishing into a prefix is serialized by a
// lock on that prefix.
type ArtifactPublisher struct {
	logger *slog.Logger

	objectStorage IObjectStorage
	keyStorage    IKeyStorage

	bucketName   string
	keyPrefix    string
	lockDuration time.Duration

	now func() time.Time
}

func NewArtifactPublisher(
	logger *slog.Logger,
	objectStorage IObjectStorage,
	keyStorage IKeyStorage,
	options ArtifactPublisherOptions,
) *ArtifactPublisher {
	lockDuration := options.LockDuration
	if lockDuration <= 0 {
		lockDuration = time.Minute
	}
	return &ArtifactPublisher{
		logger:        logger,
		objectStorage: objectStorage,
		keyStorage:    keyStorage,
		bucketName:    options.BucketName,
		keyPrefix:     options.KeyPrefix,
		lockDuration:  lockDuration,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Publish uploads every artifact file, then the run manifest, then records
// the run. Artifacts are keyed by name and published in name order. Objects
// uploaded before a failure are removed again.
func (obj *ArtifactPublisher) Publish(ctx context.Context, runID string, artifacts map[string]string) (*RunManifest, error) {
	if len(artifacts) == 0 {
		return nil, errs.NewStackError(fmt.Errorf("%w| run %s", ErrNoArtifacts, runID))
	}

	lock, err := obj.keyStorage.ClaimPrefix(ctx, obj.keyPrefix, obj.lockDuration)
	if errors.Is(err, ErrLockFailed) {
		return nil, errs.NewStackError(fmt.Errorf("%w| prefix %s is being published by another run", ErrLockFailed, obj.keyPrefix))
	} else if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed claiming prefix %s", obj.keyPrefix))
	}
	defer func() {
		if _, err := obj.keyStorage.ReleaseLock(ctx, lock); err != nil {
			obj.logger.Warn("failed releasing the publish lock", slog.String("lock", lock.Name()), slog.Any("error", err))
		}
	}()

	runPrefix := RunKey(obj.keyPrefix, runID, "")
	existing, err := obj.objectStorage.ListObjects(ctx, obj.bucketName, runPrefix)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed listing %s", runPrefix))
	}
	if len(existing) > 0 {
		return nil, errs.NewStackError(fmt.Errorf("%w| %d objects under %s", ErrRunExists, len(existing), runPrefix))
	}

	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	slices.Sort(names)

	builder := NewRunManifestBuilder(obj.keyPrefix, runID, obj.now())
	for _, name := range names {
		info, err := os.Stat(artifacts[name])
		if err != nil {
			return nil, errs.NewStackError(err)
		}
		builder.AddFile(name, artifacts[name], info.Size())
	}
	manifest := builder.Manifest()

	uploaded := make([]string, 0, len(manifest.Objects)+1)
	if err := obj.upload(ctx, manifest, builder.Files(), &uploaded); err != nil {
		obj.removeObjects(ctx, uploaded)
		return nil, err
	}

	record := map[string]string{
		"manifest":   manifest.Key(),
		"created_at": manifest.CreatedAt.Format(time.RFC3339),
	}
	for _, manifestObj := range manifest.Objects {
		record[manifestObj.Name] = manifestObj.Key
	}
	if err := obj.keyStorage.RecordRun(ctx, runID, record); err != nil {
		obj.removeObjects(ctx, uploaded)
		return nil, errs.Wrap(err, fmt.Errorf("failed recording run %s", runID))
	}

	obj.logger.Info("published run artifacts", slog.String("runId", runID), slog.Int("objects", len(manifest.Objects)))
	return manifest, nil
}

func (obj *ArtifactPublisher) upload(ctx context.Context, manifest *RunManifest, files []string, uploaded *[]string) error {
	for idx, filePath := range files {
		key := manifest.Objects[idx].Key
		if err := obj.objectStorage.UploadFile(ctx, obj.bucketName, key, filePath); err != nil {
			return errs.Wrap(err, fmt.Errorf("failed uploading %s to %s", filePath, key))
		}
		*uploaded = append(*uploaded, key)
	}

	manifestData, err := manifest.ToBytes()
	if err != nil {
		return errs.NewStackError(err)
	}
	if err := obj.objectStorage.Upload(ctx, obj.bucketName, manifest.Key(), manifestData); err != nil {
		return errs.Wrap(err, fmt.Errorf("failed uploading manifest %s", manifest.Key()))
	}
	*uploaded = append(*uploaded, manifest.Key())
	return nil
}

func (obj *ArtifactPublisher) removeObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := obj.objectStorage.Delete(ctx, obj.bucketName, key); err != nil {
			obj.logger.Warn("failed removing object", slog.String("key", key), slog.Any("error", err))
		}
	}
}

// Fetch downloads the artifacts of a published run into dir.
func (obj *ArtifactPublisher) Fetch(ctx context.Context, runID, dir string) (*RunManifest, error) {
	record, err := obj.keyStorage.GetRun(ctx, runID)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed reading run %s", runID))
	}
	manifestKey, ok := record["manifest"]
	if !ok {
		return nil, errs.NewStackError(fmt.Errorf("%w| %s", ErrRunNotFound, runID))
	}

	manifestData, err := obj.objectStorage.Download(ctx, obj.bucketName, manifestKey)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed downloading manifest %s", manifestKey))
	}
	manifest, err := NewRunManifestFromBytes(manifestData)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("manifest %s", manifestKey))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.NewStackError(err)
	}
	for _, manifestObj := range manifest.Objects {
		filePath := filepath.Join(dir, filepath.Base(manifestObj.Key))
		if err := obj.objectStorage.DownloadFile(ctx, obj.bucketName, manifestObj.Key, filePath); err != nil {
			return nil, errs.Wrap(err, fmt.Errorf("failed downloading %s", manifestObj.Key))
		}
	}

	obj.logger.Info("fetched run artifacts", slog.String("runId", runID), slog.String("dir", dir))
	return manifest, nil
}
