package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/config"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService handles login and personnel management
type UserService struct {
	users       *repository.UserRepository
	permissions *PermissionService
	issuer      *auth.TokenIssuer
	logger      *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	users *repository.UserRepository,
	permissions *PermissionService,
	issuer *auth.TokenIssuer,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:       users,
		permissions: permissions,
		issuer:      issuer,
		logger:      logger,
	}
}

// LoginResult carries the issued token, the user, and their permissions
type LoginResult struct {
	AccessToken string
	User        *domain.User
	Permissions []string
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	perms, err := s.permissions.PermissionsForRole(ctx, user.Role)
	if err != nil {
		s.logger.Warn("failed to load permissions for login",
			zap.String("role", string(user.Role)),
			zap.Error(err))
		perms = nil
	}

	s.logger.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return &LoginResult{AccessToken: token, User: user, Permissions: perms}, nil
}

// Create registers a new personnel record with a hashed password
func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	role := domain.RoleEmployee
	if req.Role != "" {
		role = domain.NormalizeRole(req.Role)
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, req.Role)
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:          req.Email,
		FullName:       req.FullName,
		HashedPassword: hash,
		Role:           role,
		IsActive:       true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// List returns all personnel records
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetByEmail fetches a user by email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// Update applies partial personnel changes. Role changes require the acting
// user to be ADMIN; name and password edits are open to callers the router
// already gated.
func (s *UserService) Update(ctx context.Context, actor *auth.UserContext, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.User, error) {
	user, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("%w: only ADMIN may change roles", ErrPermissionDenied)
		}
		role := domain.NormalizeRole(*req.Role)
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, *req.Role)
		}
		user.Role = role
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.HashedPassword = hash
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ToggleActive flips a user's active flag
func (s *UserService) ToggleActive(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = !user.IsActive
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ResetPassword replaces a user's password hash
func (s *UserService) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	user, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.HashedPassword = hash
	return s.users.Update(ctx, user)
}

// SeedAdmin ensures the bootstrap administrator exists. Idempotent: an
// existing record is left untouched, including its password.
func (s *UserService) SeedAdmin(ctx context.Context, cfg *config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	_, err := s.users.GetByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check admin user: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Email:          cfg.Email,
		FullName:       cfg.FullName,
		HashedPassword: hash,
		Role:           domain.RoleAdmin,
		IsActive:       true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		// A concurrent instance may have seeded first.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	s.logger.Info("seeded bootstrap admin user", zap.String("email", admin.Email))
	return nil
}

func (s *UserService) getByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, err
	}
	return user, nil
}
