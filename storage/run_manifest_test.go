package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunManifestBuilder(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	builder := NewRunManifestBuilder("models", "run-1", createdAt)
	builder.AddFile("preprocessor", "/tmp/artifacts/preprocessor.avro", 120)
	builder.AddFile("train_data", "/tmp/artifacts/train.csv", 300)

	manifest := builder.Manifest()
	assert.Equal(t, []string{"/tmp/artifacts/preprocessor.avro", "/tmp/artifacts/train.csv"}, builder.Files())
	assert.Equal(t, "models/runs/run-1/preprocessor.avro", manifest.Objects[0].Key)
	assert.Equal(t, "models/runs/run-1/train.csv", manifest.Objects[1].Key)
	assert.Equal(t, 1, manifest.Objects[1].Index)
	assert.Equal(t, "models/runs/run-1/manifest.json", manifest.Key())
	assert.Nil(t, manifest.Validate())

	data, err := manifest.ToBytes()
	if !assert.Nil(t, err) {
		return
	}
	decoded, err := NewRunManifestFromBytes(data)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, manifest.Objects, decoded.Objects)
	assert.True(t, manifest.CreatedAt.Equal(decoded.CreatedAt))
}

func TestRunManifestValidate(t *testing.T) {
	testCases := []struct {
		caseName string
		manifest RunManifest
		valid    bool
	}{
		{caseName: "empty_run", manifest: RunManifest{RunID: "r"}, valid: true},
		{caseName: "missing_id", manifest: RunManifest{}},
		{
			caseName: "bad_index",
			manifest: RunManifest{RunID: "r", Objects: []ManifestObject{{Name: "a", Key: "k", Index: 1}}},
		},
		{
			caseName: "missing_key",
			manifest: RunManifest{RunID: "r", Objects: []ManifestObject{{Name: "a", Index: 0}}},
		},
	}

	for idx, testCase := range testCases {
		t.Run(fmt.Sprintf("case_%d_%s", idx, testCase.caseName), func(t *testing.T) {
			err := testCase.manifest.Validate()
			if testCase.valid {
				assert.Nil(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrManifestInvalid))
			}
		})
	}
}

func TestRunKeyWithoutPrefix(t *testing.T) {
	assert.Equal(t, "runs/abc/train.csv", RunKey("", "abc", "train.csv"))
	assert.Equal(t, "runs/abc/", RunKey("", "abc", ""))
}
