package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clinsim/internal/model"
)

type MockVisibilityRepository struct {
	mock.Mock
}

func (m *MockVisibilityRepository) SetOverrides(ctx context.Context, overrides []model.VisibilityOverride) error {
	args := m.Called(ctx, overrides)
	return args.Error(0)
}

func (m *MockVisibilityRepository) Effective(ctx context.Context, fileID, groupID string) (*model.VisibilityOverride, error) {
	args := m.Called(ctx, fileID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VisibilityOverride), args.Error(1)
}

func (m *MockVisibilityRepository) ListByFile(ctx context.Context, fileID string) ([]model.VisibilityOverride, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VisibilityOverride), args.Error(1)
}

func (m *MockVisibilityRepository) DeleteByFile(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

func (m *MockVisibilityRepository) ListAudit(ctx context.Context, fileID string) ([]model.VisibilityAuditRecord, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VisibilityAuditRecord), args.Error(1)
}
