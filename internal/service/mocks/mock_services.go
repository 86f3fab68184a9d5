package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"clinsim/internal/model"
	"clinsim/internal/service"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Register(ctx context.Context, actor model.Actor, in service.RegisterFileInput, r io.Reader, originalFilename, contentType string, size int64) (*model.PatientFile, error) {
	args := m.Called(ctx, actor, in, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientFile), args.Error(1)
}

func (m *MockFileService) Get(ctx context.Context, id string) (*model.PatientFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientFile), args.Error(1)
}

func (m *MockFileService) ListByPatient(ctx context.Context, patientID string, limit, offset int) (*service.FileListResult, error) {
	args := m.Called(ctx, patientID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockFileService) Reclassify(ctx context.Context, actor model.Actor, fileID string, category model.FileCategory, requiresPagination bool, pageCount *int) (*model.PatientFile, error) {
	args := m.Called(ctx, actor, fileID, category, requiresPagination, pageCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientFile), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, actor model.Actor, fileID string) error {
	args := m.Called(ctx, actor, fileID)
	return args.Error(0)
}

func (m *MockFileService) Download(ctx context.Context, viewer model.Actor, fileID string, expiry time.Duration) (string, model.AccessDecision, error) {
	args := m.Called(ctx, viewer, fileID, expiry)
	return args.String(0), args.Get(1).(model.AccessDecision), args.Error(2)
}

type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) Submit(ctx context.Context, actor model.Actor, in service.SubmitRequestInput) (*model.InvestigationRequest, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvestigationRequest), args.Error(1)
}

func (m *MockRequestService) Approve(ctx context.Context, actor model.Actor, requestID string, grants []service.GrantInput) (*model.InvestigationRequest, error) {
	args := m.Called(ctx, actor, requestID, grants)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvestigationRequest), args.Error(1)
}

func (m *MockRequestService) Get(ctx context.Context, id string) (*model.InvestigationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvestigationRequest), args.Error(1)
}

func (m *MockRequestService) ListByPatient(ctx context.Context, patientID string) ([]model.InvestigationRequest, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InvestigationRequest), args.Error(1)
}

type MockVisibilityService struct {
	mock.Mock
}

func (m *MockVisibilityService) Set(ctx context.Context, actor model.Actor, fileID, groupID string, visible bool) error {
	args := m.Called(ctx, actor, fileID, groupID, visible)
	return args.Error(0)
}

func (m *MockVisibilityService) BulkSet(ctx context.Context, actor model.Actor, fileIDs []string, groupID string, visible bool) error {
	args := m.Called(ctx, actor, fileIDs, groupID, visible)
	return args.Error(0)
}

func (m *MockVisibilityService) Overrides(ctx context.Context, fileID string) ([]model.VisibilityOverride, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VisibilityOverride), args.Error(1)
}

func (m *MockVisibilityService) Audit(ctx context.Context, fileID string) ([]model.VisibilityAuditRecord, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VisibilityAuditRecord), args.Error(1)
}

type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) Evaluate(ctx context.Context, viewer model.Actor, fileID string) (model.AccessDecision, error) {
	args := m.Called(ctx, viewer, fileID)
	return args.Get(0).(model.AccessDecision), args.Error(1)
}
