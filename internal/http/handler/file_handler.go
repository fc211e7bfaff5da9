package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/mapper"
	"github.com/zenops/valuation-api/internal/service"
	"go.uber.org/zap"
)

// FileHandler handles HTTP requests for assignment documents
type FileHandler struct {
	files  *service.FileService
	logger *zap.Logger
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(files *service.FileService, logger *zap.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// Upload godoc
// @Summary Upload a document to an assignment
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param assignment_id path string true "Assignment id"
// @Param file formData file true "Document"
// @Success 201 {object} domain.FileResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /files/upload/{assignment_id} [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor := auth.MustFromContext(r.Context())

	assignmentID, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Bound the multipart body before parsing.
	r.Body = http.MaxBytesReader(w, r.Body, h.files.MaxBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid or oversized multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stored, err := h.files.Upload(r.Context(), actor, assignmentID, header.Filename, contentType, file)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToFileResponse(stored))
}

// List godoc
// @Summary List an assignment's documents
// @Tags files
// @Produce json
// @Param assignment_id path string true "Assignment id"
// @Success 200 {array} domain.FileResponse
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /files/{assignment_id} [get]
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	files, err := h.files.List(r.Context(), assignmentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := make([]domain.FileResponse, 0, len(files))
	for i := range files {
		resp = append(resp, mapper.ToFileResponse(&files[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// Download godoc
// @Summary Download a document
// @Description Streams the blob with the original filename and stored content type
// @Tags files
// @Produce octet-stream
// @Param file_id path string true "File id"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /files/download/{file_id} [get]
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	fileID, err := parseUUIDParam(r, "file_id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, reader, err := h.files.Download(r.Context(), fileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	if file.SizeBytes > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", file.SizeBytes))
	}

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("file stream interrupted",
			zap.String("file_id", fileID.String()),
			zap.Error(err))
	}
}
