package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/mapper"
	"github.com/zenops/valuation-api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles login and personnel management endpoints
type AuthHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

// loginResponse is the login payload plus the caller's permissions
type loginResponse struct {
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	User        domain.UserResponse `json:"user"`
	Permissions []string            `json:"permissions"`
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body domain.LoginRequest true "Credentials"
// @Success 200 {object} handler.loginResponse
// @Failure 401 {object} domain.APIError
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		User:        mapper.ToUserResponse(result.User),
		Permissions: result.Permissions,
	})
}

// Me godoc
// @Summary Current authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} domain.UserResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := auth.MustFromContext(r.Context())

	user, err := h.users.GetByEmail(r.Context(), actor.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToUserResponse(user))
}

// CreateUser godoc
// @Summary Register a personnel record
// @Tags auth
// @Accept json
// @Produce json
// @Param user body domain.CreateUserRequest true "User payload"
// @Success 201 {object} domain.UserResponse
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/users [post]
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToUserResponse(user))
}

// ListUsers godoc
// @Summary List personnel records
// @Tags auth
// @Produce json
// @Success 200 {array} domain.UserResponse
// @Security BearerAuth
// @Router /auth/users [get]
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := make([]domain.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, mapper.ToUserResponse(&users[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateUser godoc
// @Summary Partially update a personnel record
// @Description Role changes require ADMIN
// @Tags auth
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param user body domain.UpdateUserRequest true "Fields to change"
// @Success 200 {object} domain.UserResponse
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/users/{id} [patch]
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.MustFromContext(r.Context())

	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToUserResponse(user))
}

// ToggleActive godoc
// @Summary Flip a user's active flag
// @Tags auth
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} domain.UserResponse
// @Security BearerAuth
// @Router /auth/users/{id}/toggle-active [post]
func (h *AuthHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.ToggleActive(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToUserResponse(user))
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// ResetPassword godoc
// @Summary Replace a user's password
// @Tags auth
// @Accept json
// @Param id path string true "User id"
// @Param body body handler.resetPasswordRequest true "New password"
// @Success 204
// @Security BearerAuth
// @Router /auth/users/{id}/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.users.ResetPassword(r.Context(), id, req.Password); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
