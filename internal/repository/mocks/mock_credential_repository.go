package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"regportal/internal/model"
)

type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*model.Credential, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credential), args.Error(1)
}

func (m *MockCredentialRepository) CreateIfAbsent(ctx context.Context, c *model.Credential) (*model.Credential, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credential), args.Error(1)
}

func (m *MockCredentialRepository) Activate(ctx context.Context, employeeID string) error {
	return m.Called(ctx, employeeID).Error(0)
}

type MockRequiredDocumentRepository struct {
	mock.Mock
}

func (m *MockRequiredDocumentRepository) List(ctx context.Context) ([]model.RequiredDocumentType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RequiredDocumentType), args.Error(1)
}

func (m *MockRequiredDocumentRepository) Upsert(ctx context.Context, t model.RequiredDocumentType, position int) error {
	return m.Called(ctx, t, position).Error(0)
}
