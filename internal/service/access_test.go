package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinsim/internal/model"
	"clinsim/internal/pagerange"
	repoMocks "clinsim/internal/repository/mocks"
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

func pathologyFile() *model.PatientFile {
	return &model.PatientFile{
		ID:                 "file-1",
		PatientID:          "patient-1",
		Category:           model.CategoryPathology,
		RequiresPagination: true,
	}
}

func completedRequest(group string, grants ...model.FileGrant) model.InvestigationRequest {
	return model.InvestigationRequest{
		ID:        "req-" + group,
		PatientID: "patient-1",
		GroupID:   group,
		Status:    model.StatusCompleted,
		Grants:    grants,
	}
}

func TestDecide(t *testing.T) {
	policy := model.DefaultVisibilityPolicy()
	studentA := model.Actor{AccountID: "acct-a", Role: model.RoleStudent, GroupID: "group-a"}

	tests := []struct {
		name     string
		viewer   model.Actor
		file     *model.PatientFile
		override *model.VisibilityOverride
		requests []model.InvestigationRequest
		want     model.AccessDecision
	}{
		{
			name:   "instructor sees everything regardless of overrides and grants",
			viewer: model.Actor{AccountID: "inst", Role: model.RoleInstructor},
			file:   pathologyFile(),
			override: &model.VisibilityOverride{
				FileID: "file-1", GroupID: "", Visible: false,
			},
			want: model.FullAccess(),
		},
		{
			name:   "coordinator is staff too",
			viewer: model.Actor{AccountID: "coord", Role: model.RoleCoordinator},
			file:   pathologyFile(),
			want:   model.FullAccess(),
		},
		{
			name:   "explicit hide beats a whole-file grant",
			viewer: studentA,
			file:   pathologyFile(),
			override: &model.VisibilityOverride{
				FileID: "file-1", GroupID: "group-a", Visible: false,
			},
			requests: []model.InvestigationRequest{
				completedRequest("group-a", model.FileGrant{FileID: "file-1"}),
			},
			want: model.Denied(),
		},
		{
			name:   "explicit show needs no grant",
			viewer: studentA,
			file:   pathologyFile(),
			override: &model.VisibilityOverride{
				FileID: "file-1", GroupID: "group-a", Visible: true,
			},
			want: model.FullAccess(),
		},
		{
			name:   "whole-file grant wins over page-restricted grants",
			viewer: studentA,
			file:   pathologyFile(),
			requests: []model.InvestigationRequest{
				completedRequest("group-a",
					model.FileGrant{FileID: "file-1", PageRange: strPtr("1-3")},
					model.FileGrant{FileID: "file-1"},
				),
			},
			want: model.FullAccess(),
		},
		{
			name:   "page ranges union across completed requests of the same group",
			viewer: studentA,
			file:   pathologyFile(),
			requests: []model.InvestigationRequest{
				completedRequest("group-a", model.FileGrant{FileID: "file-1", PageRange: strPtr("1-3")}),
				completedRequest("group-a", model.FileGrant{FileID: "file-1", PageRange: strPtr("5")}),
			},
			want: model.RestrictedTo(pagerange.Set{{Start: 1, End: 3}, {Start: 5, End: 5}}),
		},
		{
			name:   "pending requests grant nothing",
			viewer: studentA,
			file:   pathologyFile(),
			requests: []model.InvestigationRequest{
				{
					ID: "req-p", PatientID: "patient-1", GroupID: "group-a",
					Status: model.StatusPending,
					Grants: []model.FileGrant{{FileID: "file-1"}},
				},
			},
			want: model.Denied(),
		},
		{
			name:   "another group's grant does not apply",
			viewer: studentA,
			file:   pathologyFile(),
			requests: []model.InvestigationRequest{
				completedRequest("group-b", model.FileGrant{FileID: "file-1"}),
			},
			want: model.Denied(),
		},
		{
			name:   "grant for another file does not apply",
			viewer: studentA,
			file:   pathologyFile(),
			requests: []model.InvestigationRequest{
				completedRequest("group-a", model.FileGrant{FileID: "file-2"}),
			},
			want: model.Denied(),
		},
		{
			name:   "admission file defaults visible with no overrides or requests",
			viewer: studentA,
			file: &model.PatientFile{
				ID: "file-adm", PatientID: "patient-1", Category: model.CategoryAdmission,
			},
			want: model.FullAccess(),
		},
		{
			name:   "pathology file defaults hidden with no overrides or requests",
			viewer: studentA,
			file:   pathologyFile(),
			want:   model.Denied(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(policy, tt.viewer, tt.file, tt.override, tt.requests)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_CorruptStoredRangeFailsLoudly(t *testing.T) {
	// An unparseable stored range must never degrade into a whole-file
	// release.
	viewer := model.Actor{AccountID: "acct-a", Role: model.RoleStudent, GroupID: "group-a"}
	requests := []model.InvestigationRequest{
		completedRequest("group-a", model.FileGrant{ID: "g1", FileID: "file-1", PageRange: strPtr("9-3")}),
	}

	got, err := Decide(model.DefaultVisibilityPolicy(), viewer, pathologyFile(), nil, requests)
	require.Error(t, err)
	assert.Equal(t, model.Denied(), got)
}

func TestAccessService_Evaluate(t *testing.T) {
	ctx := context.Background()
	viewer := model.Actor{AccountID: "acct-a", Role: model.RoleStudent, GroupID: "group-a"}

	t.Run("hide override short-circuits before grants", func(t *testing.T) {
		files := new(repoMocks.MockPatientFileRepository)
		requests := new(repoMocks.MockInvestigationRequestRepository)
		visibility := new(repoMocks.MockVisibilityRepository)
		svc := NewAccessService(files, requests, visibility, model.DefaultVisibilityPolicy())

		files.On("FindByID", ctx, "file-1").Return(pathologyFile(), nil)
		visibility.On("Effective", ctx, "file-1", "group-a").Return(&model.VisibilityOverride{
			FileID: "file-1", GroupID: "group-a", Visible: false,
		}, nil)
		requests.On("ListByPatient", ctx, "patient-1").Return([]model.InvestigationRequest{
			completedRequest("group-a", model.FileGrant{FileID: "file-1"}),
		}, nil)

		decision, err := svc.Evaluate(ctx, viewer, "file-1")
		require.NoError(t, err)
		assert.Equal(t, model.Denied(), decision)
	})

	t.Run("no override falls through to grants", func(t *testing.T) {
		files := new(repoMocks.MockPatientFileRepository)
		requests := new(repoMocks.MockInvestigationRequestRepository)
		visibility := new(repoMocks.MockVisibilityRepository)
		svc := NewAccessService(files, requests, visibility, model.DefaultVisibilityPolicy())

		files.On("FindByID", ctx, "file-1").Return(pathologyFile(), nil)
		visibility.On("Effective", ctx, "file-1", "group-a").Return(nil, sql.ErrNoRows)
		requests.On("ListByPatient", ctx, "patient-1").Return([]model.InvestigationRequest{
			completedRequest("group-a", model.FileGrant{FileID: "file-1", PageRange: strPtr("2-4")}),
		}, nil)

		decision, err := svc.Evaluate(ctx, viewer, "file-1")
		require.NoError(t, err)
		assert.Equal(t, model.RestrictedTo(pagerange.Set{{Start: 2, End: 4}}), decision)
	})

	t.Run("instructor skips override and request reads", func(t *testing.T) {
		files := new(repoMocks.MockPatientFileRepository)
		requests := new(repoMocks.MockInvestigationRequestRepository)
		visibility := new(repoMocks.MockVisibilityRepository)
		svc := NewAccessService(files, requests, visibility, model.DefaultVisibilityPolicy())

		files.On("FindByID", ctx, "file-1").Return(pathologyFile(), nil)

		decision, err := svc.Evaluate(ctx, model.Actor{AccountID: "inst", Role: model.RoleInstructor}, "file-1")
		require.NoError(t, err)
		assert.Equal(t, model.FullAccess(), decision)
		visibility.AssertNotCalled(t, "Effective")
		requests.AssertNotCalled(t, "ListByPatient")
	})

	t.Run("unknown file", func(t *testing.T) {
		files := new(repoMocks.MockPatientFileRepository)
		requests := new(repoMocks.MockInvestigationRequestRepository)
		visibility := new(repoMocks.MockVisibilityRepository)
		svc := NewAccessService(files, requests, visibility, model.DefaultVisibilityPolicy())

		files.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Evaluate(ctx, viewer, "missing")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}
