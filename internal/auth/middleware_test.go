package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zenops/valuation-api/internal/config"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubUserStore serves a fixed set of users keyed by email
type stubUserStore struct {
	users map[string]*domain.User
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestMiddleware(t *testing.T, users ...*domain.User) (*Middleware, *TokenIssuer) {
	t.Helper()
	issuer := NewTokenIssuer(&config.AuthConfig{
		JWTSecret:       "middleware-test-secret",
		TokenTTLMinutes: 60,
	})
	store := &stubUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		store.users[u.Email] = u
	}
	return NewMiddleware(issuer, store, zap.NewNop()), issuer
}

// echoUser writes the authenticated user's email, proving context propagation
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uc := MustFromContext(r.Context())
		w.Write([]byte(uc.Email))
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	activeUser := &domain.User{Email: "active@zenops.in", Role: domain.RoleEmployee, IsActive: true}
	inactiveUser := &domain.User{Email: "inactive@zenops.in", Role: domain.RoleEmployee, IsActive: false}

	t.Run("bearer token resolves the user", func(t *testing.T) {
		mw, issuer := newTestMiddleware(t, activeUser)
		token, err := issuer.Issue(activeUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.Authenticate(echoUser()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "active@zenops.in", rec.Body.String())
	})

	t.Run("email header is accepted as fallback", func(t *testing.T) {
		mw, _ := newTestMiddleware(t, activeUser)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-Email", "active@zenops.in")
		rec := httptest.NewRecorder()

		mw.Authenticate(echoUser()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bearer token wins over email header", func(t *testing.T) {
		other := &domain.User{Email: "other@zenops.in", Role: domain.RoleEmployee, IsActive: true}
		mw, issuer := newTestMiddleware(t, activeUser, other)
		token, err := issuer.Issue(other)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-User-Email", "active@zenops.in")
		rec := httptest.NewRecorder()

		mw.Authenticate(echoUser()).ServeHTTP(rec, req)

		assert.Equal(t, "other@zenops.in", rec.Body.String())
	})

	t.Run("missing credentials is unauthorized", func(t *testing.T) {
		mw, _ := newTestMiddleware(t)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		mw.Authenticate(echoUser()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user is unauthorized", func(t *testing.T) {
		mw, _ := newTestMiddleware(t)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-Email", "ghost@zenops.in")
		rec := httptest.NewRecorder()

		mw.Authenticate(echoUser()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token is unauthorized even with valid header fallback", func(t *testing.T) {
		mw, _ := newTestMiddleware(t, activeUser)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		req.Header.Set("X-User-Email", "active@zenops.in")
		rec := httptest.NewRecorder()

		mw.Authenticate(echoUser()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("inactive user is forbidden", func(t *testing.T) {
		mw, _ := newTestMiddleware(t, inactiveUser)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-Email", "inactive@zenops.in")
		rec := httptest.NewRecorder()

		mw.Authenticate(echoUser()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMiddleware_LegacyAdminAuth(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	admin := &domain.User{Email: "admin@zenops.in", Role: domain.RoleAdmin, IsActive: true, HashedPassword: hash}

	employeeHash, err := HashPassword("emp123")
	require.NoError(t, err)
	employee := &domain.User{Email: "emp@zenops.in", Role: domain.RoleEmployee, IsActive: true, HashedPassword: employeeHash}

	t.Run("valid admin headers authenticate", func(t *testing.T) {
		mw, _ := newTestMiddleware(t, admin)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Admin-Email", "admin@zenops.in")
		req.Header.Set("X-Admin-Password", "admin123")
		rec := httptest.NewRecorder()

		mw.LegacyAdminAuth(echoUser()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin@zenops.in", rec.Body.String())
	})

	t.Run("wrong admin password is unauthorized", func(t *testing.T) {
		mw, _ := newTestMiddleware(t, admin)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Admin-Email", "admin@zenops.in")
		req.Header.Set("X-Admin-Password", "wrong")
		rec := httptest.NewRecorder()

		mw.LegacyAdminAuth(echoUser()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-admin credentials are forbidden", func(t *testing.T) {
		mw, _ := newTestMiddleware(t, employee)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Admin-Email", "emp@zenops.in")
		req.Header.Set("X-Admin-Password", "emp123")
		rec := httptest.NewRecorder()

		mw.LegacyAdminAuth(echoUser()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("falls through to normal auth without admin headers", func(t *testing.T) {
		mw, issuer := newTestMiddleware(t, employee)
		token, err := issuer.Issue(employee)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.LegacyAdminAuth(echoUser()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "emp@zenops.in", rec.Body.String())
	})
}

func TestMiddleware_RequireRole(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func(role domain.UserRole, handler http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := WithUserContext(req.Context(), &UserContext{Email: "x@zenops.in", Role: role})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	t.Run("matching role passes", func(t *testing.T) {
		h := mw.RequireRole(domain.RoleAdmin, domain.RoleHR)(ok)
		assert.Equal(t, http.StatusNoContent, serve(domain.RoleHR, h).Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		h := mw.RequireRole(domain.RoleAdmin, domain.RoleHR)(ok)
		assert.Equal(t, http.StatusForbidden, serve(domain.RoleFinance, h).Code)
	})

	t.Run("no user context is forbidden", func(t *testing.T) {
		h := mw.RequireRole(domain.RoleAdmin)(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("require admin", func(t *testing.T) {
		h := mw.RequireAdmin(ok)
		assert.Equal(t, http.StatusNoContent, serve(domain.RoleAdmin, h).Code)
		assert.Equal(t, http.StatusForbidden, serve(domain.RoleOpsManager, h).Code)
	})
}
