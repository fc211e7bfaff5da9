package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/domain"
	"gorm.io/gorm"
)

// ActivityRepository handles database operations for the audit trail.
// Activities are append-only: there is no update or delete here on purpose.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// ListByAssignment returns the audit feed for one assignment, newest first.
// The assignment id is a soft reference, so this works for deleted
// assignments too.
func (r *ActivityRepository) ListByAssignment(ctx context.Context, assignmentID uuid.UUID, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	query := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("fetching activities: %w", err)
	}
	return activities, nil
}

// ListRecent returns the most recent activities across all assignments
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}
