package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/domain"
	"gorm.io/gorm"
)

// Sort whitelist for assignment listings. Anything else is a client error,
// decided at the service layer.
var assignmentSortColumns = map[string]bool{
	"created_at":      true,
	"status":          true,
	"fees":            true,
	"is_paid":         true,
	"assignment_code": true,
	"id":              true,
}

// IsValidAssignmentSort reports whether the column is in the sort whitelist
func IsValidAssignmentSort(column string) bool {
	return assignmentSortColumns[column]
}

// AssignmentFilters holds the optional list/summary filters. Completion and
// IsPaid apply to listings only; Summary ignores them.
type AssignmentFilters struct {
	BankID      *uuid.UUID
	BranchID    *uuid.UUID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	IsPaid      *bool
	Completion  domain.CompletionFilter
}

// AssignmentRepository handles database operations for assignments
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// GetDetail fetches an assignment with its files preloaded
func (r *AssignmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := r.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, assignment *domain.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// Delete removes an assignment and its file metadata in one transaction.
// File rows are removed explicitly rather than relying on the database
// cascade, which keeps behavior identical across drivers.
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&domain.File{}).Error; err != nil {
			return fmt.Errorf("deleting assignment files: %w", err)
		}
		return tx.Delete(&domain.Assignment{}, "id = ?", id).Error
	})
}

// List returns a page of assignments matching the filters plus the total
// matching count. sortBy must already be whitelisted by the caller.
func (r *AssignmentRepository) List(ctx context.Context, filters *AssignmentFilters, sortBy, sortDir string, skip, limit int) ([]domain.Assignment, int64, error) {
	var assignments []domain.Assignment
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Assignment{})
	query = r.applyFilters(query, filters)
	query = r.applyCompletion(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting assignments: %w", err)
	}

	order := fmt.Sprintf("%s %s", sortBy, sortDir)
	err := query.Order(order).Offset(skip).Limit(limit).Find(&assignments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("fetching assignments: %w", err)
	}

	return assignments, total, nil
}

// Summary returns the aggregate counts over the bank/branch/date filters.
// Paid and completion filters do not apply here: the aggregate itself
// reports those buckets.
func (r *AssignmentRepository) Summary(ctx context.Context, filters *AssignmentFilters) (*domain.AssignmentSummary, error) {
	summary := &domain.AssignmentSummary{}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Assignment{})
		return r.applyFilters(q, filters)
	}

	if err := base().Count(&summary.Total).Error; err != nil {
		return nil, fmt.Errorf("counting total: %w", err)
	}
	if err := base().Where(completedCondition).Count(&summary.Completed).Error; err != nil {
		return nil, fmt.Errorf("counting completed: %w", err)
	}
	summary.Pending = summary.Total - summary.Completed
	if err := base().Where(completedCondition).Where("is_paid = ?", false).Count(&summary.CompletedUnpaid).Error; err != nil {
		return nil, fmt.Errorf("counting completed unpaid: %w", err)
	}

	return summary, nil
}

// GetMaxCodeForPrefix returns the highest assignment code with the given
// prefix, or "" when none exists. Ordering by length before value keeps the
// comparison numeric once the sequence outgrows its zero padding: a plain
// string MAX would rank "9999" above "10000".
func (r *AssignmentRepository) GetMaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Model(&domain.Assignment{}).
		Where("assignment_code LIKE ?", prefix+"%").
		Order("LENGTH(assignment_code) DESC, assignment_code DESC").
		Limit(1).
		Pluck("assignment_code", &codes).Error
	if err != nil {
		return "", fmt.Errorf("scanning max assignment code: %w", err)
	}
	if len(codes) == 0 {
		return "", nil
	}
	return codes[0], nil
}

// completedCondition matches the COMPLETED bucket case-insensitively; null
// and blank statuses never match.
const completedCondition = "UPPER(TRIM(COALESCE(status, ''))) = 'COMPLETED'"

func (r *AssignmentRepository) applyFilters(query *gorm.DB, filters *AssignmentFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.BankID != nil {
		query = query.Where("bank_id = ?", *filters.BankID)
	}
	if filters.BranchID != nil {
		query = query.Where("branch_id = ?", *filters.BranchID)
	}
	if filters.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filters.CreatedFrom)
	}
	if filters.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filters.CreatedTo)
	}
	return query
}

func (r *AssignmentRepository) applyCompletion(query *gorm.DB, filters *AssignmentFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.IsPaid != nil {
		query = query.Where("is_paid = ?", *filters.IsPaid)
	}
	switch filters.Completion {
	case domain.CompletionCompleted:
		query = query.Where(completedCondition)
	case domain.CompletionPending:
		query = query.Where("NOT (" + completedCondition + ")")
	}
	return query
}
