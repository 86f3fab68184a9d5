package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"clinsim/internal/model"
)

type MockInvestigationRequestRepository struct {
	mock.Mock
}

func (m *MockInvestigationRequestRepository) Create(ctx context.Context, req *model.InvestigationRequest) (*model.InvestigationRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvestigationRequest), args.Error(1)
}

func (m *MockInvestigationRequestRepository) FindByID(ctx context.Context, id string) (*model.InvestigationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvestigationRequest), args.Error(1)
}

func (m *MockInvestigationRequestRepository) ListByPatient(ctx context.Context, patientID string) ([]model.InvestigationRequest, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InvestigationRequest), args.Error(1)
}

func (m *MockInvestigationRequestRepository) Approve(ctx context.Context, requestID, approvedBy string, approvedAt time.Time, grants []model.FileGrant) (*model.InvestigationRequest, error) {
	args := m.Called(ctx, requestID, approvedBy, approvedAt, grants)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvestigationRequest), args.Error(1)
}
