package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"regportal/internal/model"
	"regportal/internal/service"
	"regportal/internal/storage"
)

type MockRegistrationService struct {
	mock.Mock
}

var _ service.RegistrationService = (*MockRegistrationService)(nil)

func (m *MockRegistrationService) Submit(ctx context.Context, actor model.Actor, in service.SubmitInput) (*model.RegistrationRequest, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegistrationRequest), args.Error(1)
}

func (m *MockRegistrationService) Get(ctx context.Context, actor model.Actor, id string) (*model.RegistrationRequest, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegistrationRequest), args.Error(1)
}

func (m *MockRegistrationService) List(ctx context.Context, actor model.Actor, in service.ListInput) (*service.RegistrationListResult, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RegistrationListResult), args.Error(1)
}

func (m *MockRegistrationService) RequiredDocuments(ctx context.Context) ([]model.RequiredDocumentType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RequiredDocumentType), args.Error(1)
}

func (m *MockRegistrationService) MissingDocuments(ctx context.Context, actor model.Actor, id string) ([]string, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRegistrationService) AttachDocument(ctx context.Context, actor model.Actor, in service.AttachInput) (*service.AttachResult, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AttachResult), args.Error(1)
}

func (m *MockRegistrationService) OpenDocument(ctx context.Context, actor model.Actor, id, docType string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, actor, id, docType)
	var rc io.ReadCloser
	if v := args.Get(0); v != nil {
		rc = v.(io.ReadCloser)
	}
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockRegistrationService) Review(ctx context.Context, actor model.Actor, in service.ReviewInput) (*model.RegistrationRequest, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegistrationRequest), args.Error(1)
}

func (m *MockRegistrationService) RecordCollection(ctx context.Context, actor model.Actor, id, collectorName string) (*model.RegistrationRequest, error) {
	args := m.Called(ctx, actor, id, collectorName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegistrationRequest), args.Error(1)
}
