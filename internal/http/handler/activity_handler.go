package handler

import (
	"net/http"
	"strconv"

	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/mapper"
	"github.com/zenops/valuation-api/internal/service"
	"go.uber.org/zap"
)

// ActivityHandler handles HTTP requests for the audit feed
type ActivityHandler struct {
	activities *service.ActivityService
	logger     *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activities *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, logger: logger}
}

// ListByAssignment godoc
// @Summary Audit feed for an assignment, newest first
// @Description Works for deleted assignments too; their events remain queryable
// @Tags activity
// @Produce json
// @Param assignment_id path string true "Assignment id"
// @Param limit query int false "Max events"
// @Success 200 {array} domain.ActivityResponse
// @Security BearerAuth
// @Router /activity/assignment/{assignment_id} [get]
func (h *ActivityHandler) ListByAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activities.ListByAssignment(r.Context(), assignmentID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := make([]domain.ActivityResponse, 0, len(activities))
	for i := range activities {
		resp = append(resp, mapper.ToActivityResponse(&activities[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// ListRecent godoc
// @Summary Most recent audit events across all assignments
// @Tags activity
// @Produce json
// @Param limit query int false "Max events (default 50)"
// @Success 200 {array} domain.ActivityResponse
// @Security BearerAuth
// @Router /activity/recent [get]
func (h *ActivityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activities.ListRecent(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := make([]domain.ActivityResponse, 0, len(activities))
	for i := range activities {
		resp = append(resp, mapper.ToActivityResponse(&activities[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}
