package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"regportal/internal/model"
	"regportal/internal/service"
)

type MockIssuanceService struct {
	mock.Mock
}

var _ service.IssuanceService = (*MockIssuanceService)(nil)

func (m *MockIssuanceService) Generate(ctx context.Context, actor model.Actor, requestID string) (*service.IssueResult, error) {
	args := m.Called(ctx, actor, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssueResult), args.Error(1)
}

func (m *MockIssuanceService) Print(ctx context.Context, actor model.Actor, requestID string) (*service.IssueResult, error) {
	args := m.Called(ctx, actor, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssueResult), args.Error(1)
}

func (m *MockIssuanceService) GenerateBatch(ctx context.Context, actor model.Actor, requestIDs []string) (*model.BatchResult, error) {
	args := m.Called(ctx, actor, requestIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchResult), args.Error(1)
}

func (m *MockIssuanceService) PrintBatch(ctx context.Context, actor model.Actor, requestIDs []string) (*model.BatchResult, error) {
	args := m.Called(ctx, actor, requestIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchResult), args.Error(1)
}
