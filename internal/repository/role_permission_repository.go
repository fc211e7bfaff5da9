package repository

import (
	"context"

	"github.com/zenops/valuation-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RolePermissionRepository handles database operations for the RBAC catalog
type RolePermissionRepository struct {
	db *gorm.DB
}

func NewRolePermissionRepository(db *gorm.DB) *RolePermissionRepository {
	return &RolePermissionRepository{db: db}
}

// Upsert inserts or replaces the permission set for a role
func (r *RolePermissionRepository) Upsert(ctx context.Context, rp *domain.RolePermission) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role"}},
		DoUpdates: clause.AssignmentColumns([]string{"permissions", "updated_at"}),
	}).Create(rp).Error
}

func (r *RolePermissionRepository) GetByRole(ctx context.Context, role domain.UserRole) (*domain.RolePermission, error) {
	var rp domain.RolePermission
	err := r.db.WithContext(ctx).Where("role = ?", role).First(&rp).Error
	if err != nil {
		return nil, err
	}
	return &rp, nil
}

func (r *RolePermissionRepository) List(ctx context.Context) ([]domain.RolePermission, error) {
	var rps []domain.RolePermission
	err := r.db.WithContext(ctx).Order("role ASC").Find(&rps).Error
	return rps, err
}
