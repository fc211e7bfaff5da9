package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultRolePermissions is the seed catalog. ADMIN is intentionally absent
// from grant lists: an ADMIN implicitly holds every permission.
var defaultRolePermissions = map[domain.UserRole][]string{
	domain.RoleOpsManager: {
		domain.PermUsersRead,
		domain.PermAssignmentsRead, domain.PermAssignmentsCreate, domain.PermAssignmentsUpdate,
		domain.PermInvoicesRead,
		domain.PermMasterDataEdit,
	},
	domain.RoleAssistantValuer: {
		domain.PermAssignmentsRead, domain.PermAssignmentsCreate, domain.PermAssignmentsUpdate,
	},
	domain.RoleFieldValuer: {
		domain.PermAssignmentsRead, domain.PermAssignmentsUpdate,
	},
	domain.RoleFinance: {
		domain.PermAssignmentsRead,
		domain.PermInvoicesRead, domain.PermInvoicesCreate, domain.PermInvoicesMarkPaid,
	},
	domain.RoleHR: {
		domain.PermUsersRead, domain.PermUsersCreate, domain.PermUsersUpdate,
	},
	domain.RoleEmployee: {
		domain.PermAssignmentsRead,
	},
}

// allPermissions lists every known permission code, granted implicitly to ADMIN
var allPermissions = []string{
	domain.PermUsersRead, domain.PermUsersCreate, domain.PermUsersUpdate,
	domain.PermAssignmentsRead, domain.PermAssignmentsCreate, domain.PermAssignmentsUpdate,
	domain.PermInvoicesRead, domain.PermInvoicesCreate, domain.PermInvoicesMarkPaid,
	domain.PermMasterDataEdit,
}

// PermissionService owns the RBAC catalog. The catalog is seeded once at
// startup with idempotent upserts, never lazily from request handling.
type PermissionService struct {
	repo   *repository.RolePermissionRepository
	logger *zap.Logger
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(repo *repository.RolePermissionRepository, logger *zap.Logger) *PermissionService {
	return &PermissionService{repo: repo, logger: logger}
}

// SeedCatalog upserts the default permission set for every role
func (s *PermissionService) SeedCatalog(ctx context.Context) error {
	for role, perms := range defaultRolePermissions {
		rp := &domain.RolePermission{
			Role:        role,
			Permissions: perms,
		}
		if err := s.repo.Upsert(ctx, rp); err != nil {
			return fmt.Errorf("failed to seed permissions for %s: %w", role, err)
		}
	}
	s.logger.Info("seeded role permission catalog")
	return nil
}

// PermissionsForRole returns the permission codes granted to a role.
// ADMIN gets everything; a role missing from the catalog falls back to the
// in-memory defaults.
func (s *PermissionService) PermissionsForRole(ctx context.Context, role domain.UserRole) ([]string, error) {
	role = domain.NormalizeRole(string(role))
	if role == domain.RoleAdmin {
		return allPermissions, nil
	}

	rp, err := s.repo.GetByRole(ctx, role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultRolePermissions[role], nil
		}
		return nil, err
	}
	return rp.Permissions, nil
}
