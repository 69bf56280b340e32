// Package mocks provides test doubles for the store.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/prism-mfg/prism-cli/internal/model"
	store "github.com/prism-mfg/prism-cli/internal/store"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

var _ store.Store = (*MockStore)(nil)

// CreateRun provides a mock function with given fields: ctx, op, input, schemaVersion
func (_m *MockStore) CreateRun(ctx context.Context, op model.Operation, input string, schemaVersion string) (*model.Run, error) {
	ret := _m.Called(ctx, op, input, schemaVersion)

	if len(ret) == 0 {
		panic("no return value specified for CreateRun")
	}

	var r0 *model.Run
	if rf, ok := ret.Get(0).(func(context.Context, model.Operation, string, string) (*model.Run, error)); ok {
		return rf(ctx, op, input, schemaVersion)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Run)
	}
	return r0, ret.Error(1)
}

// CompleteRun provides a mock function with given fields: ctx, runID, status, summary
func (_m *MockStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	ret := _m.Called(ctx, runID, status, summary)

	if len(ret) == 0 {
		panic("no return value specified for CompleteRun")
	}
	return ret.Error(0)
}

// GetRun provides a mock function with given fields: ctx, runID
func (_m *MockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	ret := _m.Called(ctx, runID)

	if len(ret) == 0 {
		panic("no return value specified for GetRun")
	}

	var r0 *model.Run
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Run)
	}
	return r0, ret.Error(1)
}

// ListRuns provides a mock function with given fields: ctx, filter
func (_m *MockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	ret := _m.Called(ctx, filter)

	if len(ret) == 0 {
		panic("no return value specified for ListRuns")
	}

	var r0 []model.Run
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Run)
	}
	return r0, ret.Error(1)
}

// SaveResults provides a mock function with given fields: ctx, runID, results
func (_m *MockStore) SaveResults(ctx context.Context, runID string, results []model.ValidationResult) error {
	ret := _m.Called(ctx, runID, results)

	if len(ret) == 0 {
		panic("no return value specified for SaveResults")
	}
	return ret.Error(0)
}

// ListResults provides a mock function with given fields: ctx, runID, failedOnly
func (_m *MockStore) ListResults(ctx context.Context, runID string, failedOnly bool) ([]model.ValidationResult, error) {
	ret := _m.Called(ctx, runID, failedOnly)

	if len(ret) == 0 {
		panic("no return value specified for ListResults")
	}

	var r0 []model.ValidationResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.ValidationResult)
	}
	return r0, ret.Error(1)
}

// GetCache provides a mock function with given fields: ctx, key
func (_m *MockStore) GetCache(ctx context.Context, key string) ([]byte, error) {
	ret := _m.Called(ctx, key)

	if len(ret) == 0 {
		panic("no return value specified for GetCache")
	}

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Error(1)
}

// SetCache provides a mock function with given fields: ctx, key, schemaVersion, data
func (_m *MockStore) SetCache(ctx context.Context, key string, schemaVersion string, data []byte) error {
	ret := _m.Called(ctx, key, schemaVersion, data)

	if len(ret) == 0 {
		panic("no return value specified for SetCache")
	}
	return ret.Error(0)
}

// DeleteCacheExcept provides a mock function with given fields: ctx, schemaVersion
func (_m *MockStore) DeleteCacheExcept(ctx context.Context, schemaVersion string) (int, error) {
	ret := _m.Called(ctx, schemaVersion)

	if len(ret) == 0 {
		panic("no return value specified for DeleteCacheExcept")
	}
	return ret.Int(0), ret.Error(1)
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}
	return ret.Error(0)
}

// Close provides a mock function with no fields
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}
	return ret.Error(0)
}

// NewMockStore creates a new instance of MockStore. It registers a cleanup
// function to assert the mocks expectations.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
