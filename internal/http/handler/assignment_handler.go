package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/mapper"
	"github.com/zenops/valuation-api/internal/repository"
	"github.com/zenops/valuation-api/internal/service"
	"go.uber.org/zap"
)

// AssignmentHandler handles HTTP requests for assignments
type AssignmentHandler struct {
	assignments *service.AssignmentService
	logger      *zap.Logger
}

// NewAssignmentHandler creates a new AssignmentHandler
func NewAssignmentHandler(assignments *service.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, logger: logger}
}

// List godoc
// @Summary List assignments
// @Description Returns a filtered, sorted page of assignments with total count
// @Tags assignments
// @Produce json
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (default 50, max 500)"
// @Param bank_id query string false "Bank id filter"
// @Param branch_id query string false "Branch id filter"
// @Param created_from query string false "Creation date lower bound (YYYY-MM-DD, inclusive)"
// @Param created_to query string false "Creation date upper bound (YYYY-MM-DD, inclusive)"
// @Param completion query string false "ALL, PENDING or COMPLETED"
// @Param is_paid query bool false "Paid flag filter"
// @Param sort_by query string false "created_at, status, fees, is_paid, assignment_code or id"
// @Param sort_dir query string false "asc or desc"
// @Success 200 {object} domain.AssignmentListResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments [get]
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := parseAssignmentFilters(r, true)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	assignments, total, err := h.assignments.List(r.Context(), filters,
		r.URL.Query().Get("sort_by"), r.URL.Query().Get("sort_dir"), skip, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToAssignmentListResponse(assignments, total))
}

// Summary godoc
// @Summary Assignment summary counts
// @Description Returns total, pending, completed, and completed-but-unpaid counts
// @Tags assignments
// @Produce json
// @Param bank_id query string false "Bank id filter"
// @Param branch_id query string false "Branch id filter"
// @Param created_from query string false "Creation date lower bound (YYYY-MM-DD)"
// @Param created_to query string false "Creation date upper bound (YYYY-MM-DD)"
// @Success 200 {object} domain.AssignmentSummary
// @Security BearerAuth
// @Router /assignments/summary [get]
func (h *AssignmentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	filters, err := parseAssignmentFilters(r, false)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.assignments.Summary(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// Create godoc
// @Summary Create an assignment
// @Description Validates, assigns the next code, persists, and records an audit event
// @Tags assignments
// @Accept json
// @Produce json
// @Param assignment body domain.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} domain.AssignmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments [post]
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.MustFromContext(r.Context())

	var req domain.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	assignment, err := h.assignments.Create(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToAssignmentResponse(assignment))
}

// Get godoc
// @Summary Get an assignment
// @Tags assignments
// @Produce json
// @Param id path string true "Assignment id"
// @Success 200 {object} domain.AssignmentResponse
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.assignments.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToAssignmentResponse(assignment))
}

// GetDetail godoc
// @Summary Get an assignment with its files
// @Tags assignments
// @Produce json
// @Param id path string true "Assignment id"
// @Success 200 {object} domain.AssignmentResponse
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/{id}/detail [get]
func (h *AssignmentHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.assignments.GetDetail(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := mapper.ToAssignmentResponse(assignment)
	if resp.Files == nil {
		resp.Files = []domain.FileResponse{}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Update godoc
// @Summary Partially update an assignment
// @Description Applies only supplied fields, re-validates, and records audit events
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment id"
// @Param assignment body domain.UpdateAssignmentRequest true "Fields to change"
// @Success 200 {object} domain.AssignmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/{id} [patch]
func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := auth.MustFromContext(r.Context())

	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	assignment, err := h.assignments.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToAssignmentResponse(assignment))
}

// Delete godoc
// @Summary Delete an assignment
// @Description Removes the assignment and its file metadata; the audit trail survives
// @Tags assignments
// @Param id path string true "Assignment id"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := auth.MustFromContext(r.Context())

	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.assignments.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseAssignmentFilters reads the shared bank/branch/date filters; listing
// endpoints additionally accept is_paid and completion.
func parseAssignmentFilters(r *http.Request, withCompletion bool) (*repository.AssignmentFilters, error) {
	q := r.URL.Query()
	filters := &repository.AssignmentFilters{Completion: domain.CompletionAll}

	if raw := q.Get("bank_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bank_id: %q", raw)
		}
		filters.BankID = &id
	}
	if raw := q.Get("branch_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid branch_id: %q", raw)
		}
		filters.BranchID = &id
	}
	if raw := q.Get("created_from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid created_from: %q, expected YYYY-MM-DD", raw)
		}
		filters.CreatedFrom = &t
	}
	if raw := q.Get("created_to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid created_to: %q, expected YYYY-MM-DD", raw)
		}
		// Inclusive upper bound: extend to the end of the day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		filters.CreatedTo = &end
	}

	if !withCompletion {
		return filters, nil
	}

	if raw := q.Get("is_paid"); raw != "" {
		paid, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid is_paid: %q", raw)
		}
		filters.IsPaid = &paid
	}
	completion, ok := domain.ParseCompletionFilter(q.Get("completion"))
	if !ok {
		return nil, fmt.Errorf("invalid completion: %q, expected ALL, PENDING or COMPLETED", q.Get("completion"))
	}
	filters.Completion = completion

	return filters, nil
}
