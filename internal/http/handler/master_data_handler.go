package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/mapper"
	"github.com/zenops/valuation-api/internal/service"
	"go.uber.org/zap"
)

// MasterDataHandler handles HTTP requests for the reference directories
type MasterDataHandler struct {
	masterData *service.MasterDataService
	logger     *zap.Logger
}

// NewMasterDataHandler creates a new MasterDataHandler
func NewMasterDataHandler(masterData *service.MasterDataService, logger *zap.Logger) *MasterDataHandler {
	return &MasterDataHandler{masterData: masterData, logger: logger}
}

// CreateBank godoc
// @Summary Create a bank
// @Tags master-data
// @Accept json
// @Produce json
// @Param bank body domain.CreateBankRequest true "Bank payload"
// @Success 201 {object} domain.BankResponse
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /master/banks [post]
func (h *MasterDataHandler) CreateBank(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	bank, err := h.masterData.CreateBank(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mapper.ToBankResponse(bank))
}

// ListBanks godoc
// @Summary List banks
// @Tags master-data
// @Produce json
// @Success 200 {array} domain.BankResponse
// @Security BearerAuth
// @Router /master/banks [get]
func (h *MasterDataHandler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.masterData.ListBanks(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]domain.BankResponse, 0, len(banks))
	for i := range banks {
		resp = append(resp, mapper.ToBankResponse(&banks[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetBank godoc
// @Summary Get a bank
// @Tags master-data
// @Produce json
// @Param id path string true "Bank id"
// @Success 200 {object} domain.BankResponse
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /master/banks/{id} [get]
func (h *MasterDataHandler) GetBank(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	bank, err := h.masterData.GetBank(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToBankResponse(bank))
}

// UpdateBank godoc
// @Summary Partially update a bank
// @Tags master-data
// @Accept json
// @Produce json
// @Param id path string true "Bank id"
// @Param bank body domain.UpdateBankRequest true "Fields to change"
// @Success 200 {object} domain.BankResponse
// @Security BearerAuth
// @Router /master/banks/{id} [patch]
func (h *MasterDataHandler) UpdateBank(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdateBankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	bank, err := h.masterData.UpdateBank(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToBankResponse(bank))
}

// DeleteBank godoc
// @Summary Delete a bank and its branches
// @Tags master-data
// @Param id path string true "Bank id"
// @Success 204
// @Security BearerAuth
// @Router /master/banks/{id} [delete]
func (h *MasterDataHandler) DeleteBank(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.masterData.DeleteBank(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBranch godoc
// @Summary Create a branch under a bank
// @Tags master-data
// @Accept json
// @Produce json
// @Param branch body domain.CreateBranchRequest true "Branch payload"
// @Success 201 {object} domain.BranchResponse
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /master/branches [post]
func (h *MasterDataHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	branch, err := h.masterData.CreateBranch(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mapper.ToBranchResponse(branch))
}

// ListBranches godoc
// @Summary List branches, optionally scoped to one bank
// @Tags master-data
// @Produce json
// @Param bank_id query string false "Bank id"
// @Success 200 {array} domain.BranchResponse
// @Security BearerAuth
// @Router /master/branches [get]
func (h *MasterDataHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	var bankID *uuid.UUID
	if raw := r.URL.Query().Get("bank_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid bank_id")
			return
		}
		bankID = &id
	}

	branches, err := h.masterData.ListBranches(r.Context(), bankID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]domain.BranchResponse, 0, len(branches))
	for i := range branches {
		resp = append(resp, mapper.ToBranchResponse(&branches[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateBranch godoc
// @Summary Partially update a branch
// @Tags master-data
// @Accept json
// @Produce json
// @Param id path string true "Branch id"
// @Param branch body domain.UpdateBranchRequest true "Fields to change"
// @Success 200 {object} domain.BranchResponse
// @Security BearerAuth
// @Router /master/branches/{id} [patch]
func (h *MasterDataHandler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	branch, err := h.masterData.UpdateBranch(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToBranchResponse(branch))
}

// DeleteBranch godoc
// @Summary Delete a branch
// @Tags master-data
// @Param id path string true "Branch id"
// @Success 204
// @Security BearerAuth
// @Router /master/branches/{id} [delete]
func (h *MasterDataHandler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.masterData.DeleteBranch(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateClient godoc
// @Summary Create a client or external valuer
// @Tags master-data
// @Accept json
// @Produce json
// @Param client body domain.CreateClientRequest true "Client payload"
// @Success 201 {object} domain.ClientResponse
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /master/clients [post]
func (h *MasterDataHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	client, err := h.masterData.CreateClient(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mapper.ToClientResponse(client))
}

// ListClients godoc
// @Summary List clients
// @Tags master-data
// @Produce json
// @Success 200 {array} domain.ClientResponse
// @Security BearerAuth
// @Router /master/clients [get]
func (h *MasterDataHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.masterData.ListClients(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]domain.ClientResponse, 0, len(clients))
	for i := range clients {
		resp = append(resp, mapper.ToClientResponse(&clients[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// DeleteClient godoc
// @Summary Delete a client
// @Tags master-data
// @Param id path string true "Client id"
// @Success 204
// @Security BearerAuth
// @Router /master/clients/{id} [delete]
func (h *MasterDataHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.masterData.DeleteClient(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatePropertyType godoc
// @Summary Create a property type
// @Tags master-data
// @Accept json
// @Produce json
// @Param propertyType body domain.CreatePropertyTypeRequest true "Property type payload"
// @Success 201 {object} domain.PropertyTypeResponse
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /master/property-types [post]
func (h *MasterDataHandler) CreatePropertyType(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePropertyTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	pt, err := h.masterData.CreatePropertyType(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mapper.ToPropertyTypeResponse(pt))
}

// ListPropertyTypes godoc
// @Summary List property types
// @Tags master-data
// @Produce json
// @Success 200 {array} domain.PropertyTypeResponse
// @Security BearerAuth
// @Router /master/property-types [get]
func (h *MasterDataHandler) ListPropertyTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.masterData.ListPropertyTypes(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]domain.PropertyTypeResponse, 0, len(types))
	for i := range types {
		resp = append(resp, mapper.ToPropertyTypeResponse(&types[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// DeletePropertyType godoc
// @Summary Delete a property type
// @Tags master-data
// @Param id path string true "Property type id"
// @Success 204
// @Security BearerAuth
// @Router /master/property-types/{id} [delete]
func (h *MasterDataHandler) DeletePropertyType(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.masterData.DeletePropertyType(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
