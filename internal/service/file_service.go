package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/repository"
	"github.com/zenops/valuation-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileService handles uploads and downloads of assignment documents
type FileService struct {
	files       *repository.FileRepository
	assignments *repository.AssignmentRepository
	activities  *ActivityService
	storage     storage.Storage
	maxBytes    int64
	logger      *zap.Logger
}

// NewFileService creates a new FileService
func NewFileService(
	files *repository.FileRepository,
	assignments *repository.AssignmentRepository,
	activities *ActivityService,
	store storage.Storage,
	maxUploadSizeMB int64,
	logger *zap.Logger,
) *FileService {
	return &FileService{
		files:       files,
		assignments: assignments,
		activities:  activities,
		storage:     store,
		maxBytes:    maxUploadSizeMB * 1024 * 1024,
		logger:      logger,
	}
}

// MaxBytes returns the configured upload size cap in bytes
func (s *FileService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores one document against an assignment. The blob is stored
// under a collision-resistant name derived from the assignment id and a
// random token, never the user-supplied filename, which also defuses path
// traversal. Emits a FILE_UPLOADED activity after the metadata commit.
func (s *FileService) Upload(ctx context.Context, actor *auth.UserContext, assignmentID uuid.UUID, filename, contentType string, data io.Reader) (*domain.File, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: assignment %s", ErrNotFound, assignmentID)
		}
		return nil, err
	}

	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	storedName := fmt.Sprintf("%s_%s%s", assignmentID, token, filepath.Ext(filename))

	storagePath, size, err := s.storage.Upload(ctx, storedName, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	file := &domain.File{
		AssignmentID: assignmentID,
		Filename:     filename,
		StoredName:   storedName,
		ContentType:  contentType,
		SizeBytes:    size,
		StoragePath:  storagePath,
	}

	if err := s.files.Create(ctx, file); err != nil {
		// Metadata failed; drop the orphaned blob.
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to clean up orphaned blob",
				zap.String("storage_path", storagePath),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record file: %w", err)
	}

	s.activities.Record(ctx, &assignmentID, actorID(actor), domain.ActivityFileUploaded, map[string]any{
		"assignment_code": assignment.AssignmentCode,
		"filename":        file.Filename,
		"size_bytes":      file.SizeBytes,
	})

	return file, nil
}

// List returns the file metadata for one assignment
func (s *FileService) List(ctx context.Context, assignmentID uuid.UUID) ([]domain.File, error) {
	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: assignment %s", ErrNotFound, assignmentID)
		}
		return nil, err
	}
	return s.files.ListByAssignment(ctx, assignmentID)
}

// Download resolves a file and opens its blob for streaming. A missing
// metadata row or a missing blob are both not-found to the caller.
func (s *FileService) Download(ctx context.Context, fileID uuid.UUID) (*domain.File, io.ReadCloser, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID)
		}
		return nil, nil, err
	}

	reader, err := s.storage.Download(ctx, file.StoragePath)
	if err != nil {
		s.logger.Warn("file blob missing",
			zap.String("file_id", fileID.String()),
			zap.String("storage_path", file.StoragePath),
			zap.Error(err))
		return nil, nil, fmt.Errorf("%w: file content for %s", ErrNotFound, fileID)
	}

	return file, reader, nil
}
