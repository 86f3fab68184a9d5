package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clinsim/internal/apperr"
	"clinsim/internal/model"
	"clinsim/internal/repository"
	"clinsim/internal/storage"
)

var ErrReaderNil = errors.New("reader is nil")

// FileListResult is the service-level DTO for paginated patient files.
type FileListResult struct {
	Items []model.PatientFile `json:"data"`
	Total int                 `json:"total"`
}

// RegisterFileInput carries the upload metadata for a new patient file.
type RegisterFileInput struct {
	PatientID          string
	Category           model.FileCategory
	RequiresPagination bool
	PageCount          *int
}

// FileService is the file-management boundary: the storage collaborator
// calls Register/Delete around the core's bookkeeping. Downloads are gated
// on an access evaluation.
type FileService interface {
	// Register uploads the content to object storage, saves metadata to
	// the DB, and rolls back storage if the DB save fails.
	Register(ctx context.Context, actor model.Actor, in RegisterFileInput, r io.Reader, originalFilename, contentType string, size int64) (*model.PatientFile, error)

	// Get returns a single file's metadata by ID.
	Get(ctx context.Context, id string) (*model.PatientFile, error)

	// ListByPatient returns a patient's files using limit/offset.
	ListByPatient(ctx context.Context, patientID string, limit, offset int) (*FileListResult, error)

	// Reclassify corrects a file's category, pagination flag and page
	// count. Instructor-tier only.
	Reclassify(ctx context.Context, actor model.Actor, fileID string, category model.FileCategory, requiresPagination bool, pageCount *int) (*model.PatientFile, error)

	// Delete removes the object, the metadata row, and every visibility
	// override referencing the file. The audit trail stays.
	Delete(ctx context.Context, actor model.Actor, fileID string) error

	// Download evaluates the viewer's access and, if anything is visible,
	// returns a presigned URL together with the decision. Denied viewers
	// get an AuthorizationError.
	Download(ctx context.Context, viewer model.Actor, fileID string, expiry time.Duration) (string, model.AccessDecision, error)
}

type fileService struct {
	store      storage.Storage
	files      repository.PatientFileRepository
	visibility repository.VisibilityRepository
	access     AccessService
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, files repository.PatientFileRepository, visibility repository.VisibilityRepository, access AccessService) FileService {
	return &fileService{store: store, files: files, visibility: visibility, access: access}
}

func (s *fileService) Register(ctx context.Context, actor model.Actor, in RegisterFileInput, r io.Reader, originalFilename, contentType string, size int64) (*model.PatientFile, error) {
	if !actor.Role.CanManageFiles() {
		return nil, apperr.Authorization("role %s may not register files", actor.Role)
	}
	if r == nil {
		return nil, ErrReaderNil
	}
	if in.PatientID == "" {
		return nil, apperr.ValidationField("patient_id", "is required")
	}
	if !in.Category.Valid() {
		return nil, apperr.ValidationField("category", "%q is not a valid category", in.Category)
	}
	if in.PageCount != nil && *in.PageCount < 1 {
		return nil, apperr.ValidationField("page_count", "must be positive when declared")
	}

	// Generate the stored object name using UUID + original extension.
	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	key := filepath.ToSlash(filepath.Join("patients", in.PatientID, genName))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
			"patient-id":        in.PatientID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	file := &model.PatientFile{
		ID:                 uuid.New().String(),
		PatientID:          in.PatientID,
		Category:           in.Category,
		RequiresPagination: in.RequiresPagination,
		PageCount:          in.PageCount,
		Filename:           genName,
		StoragePath:        objInfo.Key,
		Size:               objInfo.Size,
		ContentType:        objInfo.ContentType,
		CreatedAt:          time.Now().UTC(),
	}
	stored, err := s.files.Create(ctx, file)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *fileService) Get(ctx context.Context, id string) (*model.PatientFile, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

func (s *fileService) ListByPatient(ctx context.Context, patientID string, limit, offset int) (*FileListResult, error) {
	if patientID == "" {
		return nil, ErrIDRequired
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.files.ListByPatient(ctx, patientID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &FileListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *fileService) Reclassify(ctx context.Context, actor model.Actor, fileID string, category model.FileCategory, requiresPagination bool, pageCount *int) (*model.PatientFile, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	if !actor.Role.InstructorTier() {
		return nil, apperr.Authorization("role %s may not reclassify files", actor.Role)
	}
	if !category.Valid() {
		return nil, apperr.ValidationField("category", "%q is not a valid category", category)
	}
	file, err := s.files.UpdateClassification(ctx, fileID, category, requiresPagination, pageCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

func (s *fileService) Delete(ctx context.Context, actor model.Actor, fileID string) error {
	if fileID == "" {
		return ErrIDRequired
	}
	if !actor.Role.InstructorTier() {
		return apperr.Authorization("role %s may not delete files", actor.Role)
	}
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFileNotFound
		}
		return err
	}
	// Delete from storage first; if this fails, keep the DB row so the
	// storage reference is not lost.
	if err := s.store.Delete(ctx, file.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if err := s.files.Delete(ctx, fileID); err != nil {
		return err
	}
	// Prune overrides pointing at the dead file. Audit records remain.
	if err := s.visibility.DeleteByFile(ctx, fileID); err != nil {
		return fmt.Errorf("prune overrides: %w", err)
	}
	return nil
}

func (s *fileService) Download(ctx context.Context, viewer model.Actor, fileID string, expiry time.Duration) (string, model.AccessDecision, error) {
	file, err := s.Get(ctx, fileID)
	if err != nil {
		return "", model.Denied(), err
	}
	decision, err := s.access.Evaluate(ctx, viewer, fileID)
	if err != nil {
		return "", model.Denied(), err
	}
	if decision.Kind == model.AccessDenied {
		return "", decision, apperr.Authorization("viewer may not access file %s", fileID)
	}
	url, err := s.store.PresignGet(ctx, file.StoragePath, expiry)
	if err != nil {
		return "", decision, fmt.Errorf("presign download: %w", err)
	}
	return url, decision, nil
}
