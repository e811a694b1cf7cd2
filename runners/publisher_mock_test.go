package runners

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/alekLukanen/featureprep/storage"
)

type MockPublisher struct {
	mock.Mock
}

func (obj *MockPublisher) Publish(ctx context.Context, runID string, artifacts map[string]string) (*storage.RunManifest, error) {
	ret := obj.Called(ctx, runID, artifacts)
	manifest, _ := ret.Get(0).(*storage.RunManifest)
	return manifest, ret.Error(1)
}
