package storage

import (
	"cmp"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"time"
)

type ManifestObject struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Index int    `json:"index"`
	Size  int64  `json:"size"`
}

func (obj *ManifestObject) Validate() error {
	if obj.Name == "" {
		return fmt.Errorf("%w: name is required", ErrManifestInvalid)
	}
	if obj.Key == "" {
		return fmt.Errorf("%w: key is required", ErrManifestInvalid)
	}
	if obj.Index < 0 {
		return fmt.Errorf("%w: index must be positive", ErrManifestInvalid)
	}
	if obj.Size < 0 {
		return fmt.Errorf("%w: size must be positive", ErrManifestInvalid)
	}
	return nil
}

// RunManifest lists the objects a published run consists of.
type RunManifest struct {
	RunID     string           `json:"run_id"`
	Prefix    string           `json:"prefix"`
	CreatedAt time.Time        `json:"created_at"`
	Objects   []ManifestObject `json:"objects"`
}

func NewRunManifestFromBytes(data []byte) (*RunManifest, error) {
	manifest := &RunManifest{}
	err := json.Unmarshal(data, manifest)
	if err != nil {
		return nil, err
	}

	manifest.SortObjects()
	if ifErr := manifest.Validate(); ifErr != nil {
		return nil, ifErr
	}

	return manifest, nil
}

func (obj *RunManifest) ToBytes() ([]byte, error) {
	return json.Marshal(obj)
}

func (obj *RunManifest) SortObjects() {
	slices.SortFunc(obj.Objects, func(a, b ManifestObject) int {
		return cmp.Compare(a.Index, b.Index)
	})
}

func (obj *RunManifest) Validate() error {
	if obj.RunID == "" {
		return fmt.Errorf("%w: run id is required", ErrManifestInvalid)
	}

	for idx, obj := range obj.Objects {
		if ifErr := obj.Validate(); ifErr != nil {
			return fmt.Errorf("%w: object at index %d is invalid: %v", ErrManifestInvalid, idx, ifErr)
		}
		if idx != obj.Index {
			return fmt.Errorf("%w: object at index %d has invalid index %d", ErrManifestInvalid, idx, obj.Index)
		}
	}

	return nil
}

func (obj *RunManifest) Key() string {
	return RunKey(obj.Prefix, obj.RunID, "manifest.json")
}

// RunKey is the object key of a file belonging to a run.
func RunKey(prefix, runID, fileName string) string {
	if prefix == "" {
		return fmt.Sprintf("runs/%s/%s", runID, fileName)
	}
	return fmt.Sprintf("%s/runs/%s/%s", prefix, runID, fileName)
}

type RunManifestBuilder struct {
	manifest *RunManifest
	files    []string
}

func NewRunManifestBuilder(prefix, runID string, createdAt time.Time) *RunManifestBuilder {
	return &RunManifestBuilder{
		manifest: &RunManifest{
			RunID:     runID,
			Prefix:    prefix,
			CreatedAt: createdAt,
			Objects:   []ManifestObject{},
		},
		files: []string{},
	}
}

func (obj *RunManifestBuilder) AddFile(name, filePath string, size int64) {
	obj.manifest.Objects = append(obj.manifest.Objects, ManifestObject{
		Name:  name,
		Key:   RunKey(obj.manifest.Prefix, obj.manifest.RunID, filepath.Base(filePath)),
		Index: len(obj.manifest.Objects),
		Size:  size,
	})
	obj.files = append(obj.files, filePath)
}

func (obj *RunManifestBuilder) Manifest() *RunManifest {
	return obj.manifest
}

func (obj *RunManifestBuilder) Files() []string {
	return obj.files
}
