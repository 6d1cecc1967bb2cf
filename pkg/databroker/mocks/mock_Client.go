// Package mocks provides test doubles for the databroker client.
package mocks

import (
	"context"

	databroker "github.com/dnx-plataformas/crm-leads/pkg/databroker"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Status provides a mock function with given fields: ctx, providerID
func (_m *MockClient) Status(ctx context.Context, providerID string) (*databroker.StatusResponse, error) {
	ret := _m.Called(ctx, providerID)

	if len(ret) == 0 {
		panic("no return value specified for Status")
	}

	var r0 *databroker.StatusResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*databroker.StatusResponse, error)); ok {
		return rf(ctx, providerID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *databroker.StatusResponse); ok {
		r0 = rf(ctx, providerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*databroker.StatusResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, providerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Download provides a mock function with given fields: ctx, providerID
func (_m *MockClient) Download(ctx context.Context, providerID string) (*databroker.Archive, error) {
	ret := _m.Called(ctx, providerID)

	if len(ret) == 0 {
		panic("no return value specified for Download")
	}

	var r0 *databroker.Archive
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*databroker.Archive, error)); ok {
		return rf(ctx, providerID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *databroker.Archive); ok {
		r0 = rf(ctx, providerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*databroker.Archive)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, providerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
