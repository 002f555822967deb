package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"regportal/internal/model"
	"regportal/internal/repository"
)

type MockRegistrationRepository struct {
	mock.Mock
}

func (m *MockRegistrationRepository) Create(ctx context.Context, req *model.RegistrationRequest) (*model.RegistrationRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegistrationRequest), args.Error(1)
}

func (m *MockRegistrationRepository) FindByID(ctx context.Context, id string) (*model.RegistrationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegistrationRequest), args.Error(1)
}

func (m *MockRegistrationRepository) List(ctx context.Context, f repository.RegistrationFilter) (*repository.PageResult[model.RegistrationRequest], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.RegistrationRequest]), args.Error(1)
}

func (m *MockRegistrationRepository) PutDocument(ctx context.Context, id, docType string, ref model.DocumentRef) (*model.RegistrationRequest, error) {
	args := m.Called(ctx, id, docType, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegistrationRequest), args.Error(1)
}

func (m *MockRegistrationRepository) UpdateStatus(ctx context.Context, change repository.StatusChange) (*model.RegistrationRequest, error) {
	args := m.Called(ctx, change)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegistrationRequest), args.Error(1)
}
