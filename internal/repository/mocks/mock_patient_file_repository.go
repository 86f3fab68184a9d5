package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clinsim/internal/model"
	"clinsim/internal/repository"
)

type MockPatientFileRepository struct {
	mock.Mock
}

func (m *MockPatientFileRepository) Create(ctx context.Context, file *model.PatientFile) (*model.PatientFile, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientFile), args.Error(1)
}

func (m *MockPatientFileRepository) FindByID(ctx context.Context, id string) (*model.PatientFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientFile), args.Error(1)
}

func (m *MockPatientFileRepository) FindByIDs(ctx context.Context, ids []string) ([]model.PatientFile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PatientFile), args.Error(1)
}

func (m *MockPatientFileRepository) ListByPatient(ctx context.Context, patientID string, pq repository.PageQuery) (*repository.PageResult[model.PatientFile], error) {
	args := m.Called(ctx, patientID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.PatientFile]), args.Error(1)
}

func (m *MockPatientFileRepository) UpdateClassification(ctx context.Context, id string, category model.FileCategory, requiresPagination bool, pageCount *int) (*model.PatientFile, error) {
	args := m.Called(ctx, id, category, requiresPagination, pageCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientFile), args.Error(1)
}

func (m *MockPatientFileRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
