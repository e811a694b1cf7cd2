package storage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockKeyStorage struct {
	mock.Mock
}

func (obj *MockKeyStorage) ClaimPrefix(ctx context.Context, prefix string, duration time.Duration) (ILock, error) {
	ret := obj.Called(ctx, prefix, duration)
	lock, _ := ret.Get(0).(ILock)
	return lock, ret.Error(1)
}

func (obj *MockKeyStorage) ReleaseLock(ctx context.Context, lock ILock) (bool, error) {
	ret := obj.Called(ctx, lock)
	return ret.Bool(0), ret.Error(1)
}

func (obj *MockKeyStorage) RecordRun(ctx context.Context, runID string, fields map[string]string) error {
	ret := obj.Called(ctx, runID, fields)
	return ret.Error(0)
}

func (obj *MockKeyStorage) GetRun(ctx context.Context, runID string) (map[string]string, error) {
	ret := obj.Called(ctx, runID)
	fields, _ := ret.Get(0).(map[string]string)
	return fields, ret.Error(1)
}

type MockLock struct {
	mock.Mock
}

func (obj *MockLock) TryLockContext(ctx context.Context) error {
	ret := obj.Called(ctx)
	return ret.Error(0)
}

func (obj *MockLock) UnlockContext(ctx context.Context) (bool, error) {
	ret := obj.Called(ctx)
	return ret.Bool(0), ret.Error(1)
}

func (obj *MockLock) Name() string {
	return "mock-lock"
}
