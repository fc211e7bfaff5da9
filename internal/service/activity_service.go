package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/repository"
	"go.uber.org/zap"
)

// ActivityService appends audit events and reads the audit feed.
//
// Durability contract: an activity append is its own unit of work, written
// only after the primary mutation has committed, and its failure is logged
// but never propagated. The primary operation must not fail or roll back
// because its audit entry could not be written.
type ActivityService struct {
	repo   *repository.ActivityRepository
	logger *zap.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(repo *repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		repo:   repo,
		logger: logger,
	}
}

// Record appends one audit event. Best-effort: errors are logged, not
// returned. Callers invoke this after their primary commit.
func (s *ActivityService) Record(ctx context.Context, assignmentID, actorID *uuid.UUID, eventType domain.ActivityType, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode activity payload",
			zap.String("type", string(eventType)),
			zap.Error(err))
		data = []byte("{}")
	}

	activity := &domain.Activity{
		AssignmentID: assignmentID,
		ActorUserID:  actorID,
		Type:         eventType,
		Payload:      string(data),
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		s.logger.Error("failed to write activity",
			zap.String("type", string(eventType)),
			zap.Any("assignment_id", assignmentID),
			zap.Error(err))
	}
}

// ListByAssignment returns the newest-first audit feed for an assignment.
// Works for deleted assignments too; the reference is soft.
func (s *ActivityService) ListByAssignment(ctx context.Context, assignmentID uuid.UUID, limit int) ([]domain.Activity, error) {
	return s.repo.ListByAssignment(ctx, assignmentID, limit)
}

// ListRecent returns the most recent events across all assignments
func (s *ActivityService) ListRecent(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}
