package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	Role     domain.UserRole
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// IsAdmin checks if the authenticated user holds the ADMIN role
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// FromUser builds a UserContext from a user record
func FromUser(u *domain.User) *UserContext {
	return &UserContext{
		UserID:   u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     domain.NormalizeRole(string(u.Role)),
	}
}
