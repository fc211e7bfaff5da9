package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/zenops/valuation-api/internal/domain"
	"go.uber.org/zap"
)

// UserStore looks up login identities for the middleware
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	issuer *TokenIssuer
	users  UserStore
	logger *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(issuer *TokenIssuer, users UserStore, logger *zap.Logger) *Middleware {
	return &Middleware{
		issuer: issuer,
		users:  users,
		logger: logger,
	}
}

// Authenticate resolves the caller's identity. A Bearer token wins when
// present; the X-User-Email header is accepted as a fallback for older
// internal clients. Either way the user must exist and be active.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, authType, ok := m.resolveEmail(r)
		if !ok {
			http.Error(w, "Unauthorized: missing credentials", http.StatusUnauthorized)
			return
		}

		user, err := m.users.GetByEmail(r.Context(), email)
		if err != nil {
			m.logger.Warn("authentication failed: unknown user",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("auth_type", authType),
			)
			http.Error(w, "Unauthorized: unknown user", http.StatusUnauthorized)
			return
		}
		if !user.IsActive {
			http.Error(w, "Forbidden: account disabled", http.StatusForbidden)
			return
		}

		ctx := WithUserContext(r.Context(), FromUser(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) resolveEmail(r *http.Request) (email, authType string, ok bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", "", false
		}
		subject, err := m.issuer.Verify(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			return "", "", false
		}
		return subject, "jwt", true
	}

	if email := strings.TrimSpace(r.Header.Get("X-User-Email")); email != "" {
		return email, "header", true
	}

	return "", "", false
}

// LegacyAdminAuth accepts X-Admin-Email/X-Admin-Password headers on top of
// normal authentication. Kept for the original personnel admin tooling,
// which predates token login.
func (m *Middleware) LegacyAdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminEmail := strings.TrimSpace(r.Header.Get("X-Admin-Email"))
		adminPassword := r.Header.Get("X-Admin-Password")
		if adminEmail == "" || adminPassword == "" {
			m.Authenticate(next).ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetByEmail(r.Context(), adminEmail)
		if err != nil || !CheckPassword(user.HashedPassword, adminPassword) {
			http.Error(w, "Unauthorized: invalid admin credentials", http.StatusUnauthorized)
			return
		}
		if !user.IsActive {
			http.Error(w, "Forbidden: account disabled", http.StatusForbidden)
			return
		}
		if !user.IsAdmin() {
			http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
			return
		}

		ctx := WithUserContext(r.Context(), FromUser(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole middleware ensures user has one of the given roles
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: no user context", http.StatusForbidden)
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin middleware ensures the user holds the ADMIN role
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "Forbidden: no user context", http.StatusForbidden)
			return
		}

		if !userCtx.IsAdmin() {
			http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
