package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/repository"
	"github.com/zenops/valuation-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// Bounded retries for the assignment-code uniqueness race
	codeRetryAttempts = 3

	defaultPageSize = 50
	maxPageSize     = 500
)

// AssignmentService implements the assignment lifecycle: validated create,
// filtered listing, partial update with field diffing, and delete. Every
// successful mutation is followed by a best-effort audit append.
type AssignmentService struct {
	assignments   *repository.AssignmentRepository
	files         *repository.FileRepository
	banks         *repository.BankRepository
	branches      *repository.BranchRepository
	clients       *repository.ClientRepository
	propertyTypes *repository.PropertyTypeRepository
	codes         *CodeGeneratorService
	activities    *ActivityService
	storage       storage.Storage
	logger        *zap.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignments *repository.AssignmentRepository,
	files *repository.FileRepository,
	banks *repository.BankRepository,
	branches *repository.BranchRepository,
	clients *repository.ClientRepository,
	propertyTypes *repository.PropertyTypeRepository,
	codes *CodeGeneratorService,
	activities *ActivityService,
	store storage.Storage,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignments:   assignments,
		files:         files,
		banks:         banks,
		branches:      branches,
		clients:       clients,
		propertyTypes: propertyTypes,
		codes:         codes,
		activities:    activities,
		storage:       store,
		logger:        logger,
	}
}

// Create validates and persists a new assignment, generating its code.
// The code uniqueness race is handled by regenerating and retrying the
// insert a bounded number of times before surfacing a conflict.
func (s *AssignmentService) Create(ctx context.Context, actor *auth.UserContext, req *domain.CreateAssignmentRequest) (*domain.Assignment, error) {
	caseType := domain.NormalizeCaseType(req.CaseType)
	if !caseType.IsValid() {
		return nil, fmt.Errorf("%w: unknown case_type %q", ErrInvalidInput, req.CaseType)
	}

	assignment := &domain.Assignment{
		CaseType:         caseType,
		BankID:           req.BankID,
		BranchID:         req.BranchID,
		ClientID:         req.ClientID,
		PropertyTypeID:   req.PropertyTypeID,
		BankName:         strings.TrimSpace(req.BankName),
		BranchName:       strings.TrimSpace(req.BranchName),
		ValuerClientName: strings.TrimSpace(req.ValuerClientName),
		PropertyTypeName: strings.TrimSpace(req.PropertyType),
		BorrowerName:     req.BorrowerName,
		Phone:            req.Phone,
		Address:          req.Address,
		LandArea:         req.LandArea,
		BuiltupArea:      req.BuiltupArea,
		Status:           strings.TrimSpace(req.Status),
		AssignedTo:       req.AssignedTo,
		SiteVisitDate:    req.SiteVisitDate.TimePtr(),
		ReportDueDate:    req.ReportDueDate.TimePtr(),
		Notes:            req.Notes,
	}
	if assignment.Status == "" {
		assignment.Status = domain.StatusSiteVisit
	}

	// Money fields are admin-only; for anyone else they are forced to
	// zero values, never rejected.
	if actor.IsAdmin() {
		if req.Fees != nil {
			assignment.Fees = *req.Fees
		}
		if req.IsPaid != nil {
			assignment.IsPaid = *req.IsPaid
		}
	}

	if err := s.resolveReferences(ctx, assignment); err != nil {
		return nil, err
	}
	if err := s.validateCaseType(assignment); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < codeRetryAttempts; attempt++ {
		code, err := s.codes.NextCode(ctx)
		if err != nil {
			return nil, err
		}
		assignment.AssignmentCode = code

		err = s.assignments.Create(ctx, assignment)
		if err == nil {
			lastErr = nil
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create assignment: %w", err)
		}
		// Lost the code race to a concurrent create; regenerate and retry.
		s.logger.Warn("assignment code collision, retrying",
			zap.String("code", code),
			zap.Int("attempt", attempt+1))
		assignment.ID = uuid.Nil
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: exhausted %d attempts", ErrCodeConflict, codeRetryAttempts)
	}

	s.activities.Record(ctx, &assignment.ID, actorID(actor), domain.ActivityAssignmentCreated, map[string]any{
		"assignment_code": assignment.AssignmentCode,
		"case_type":       string(assignment.CaseType),
		"bank_name":       assignment.BankName,
		"branch_name":     assignment.BranchName,
		"status":          assignment.Status,
	})

	return assignment, nil
}

// List returns a filtered, sorted page of assignments plus the total match
// count. Unknown sort columns, directions, or completion values are client
// errors, never silent defaults.
func (s *AssignmentService) List(ctx context.Context, filters *repository.AssignmentFilters, sortBy, sortDir string, skip, limit int) ([]domain.Assignment, int64, error) {
	if sortBy == "" {
		sortBy = "created_at"
	}
	if !repository.IsValidAssignmentSort(sortBy) {
		return nil, 0, fmt.Errorf("%w: sort_by %q is not sortable", ErrInvalidInput, sortBy)
	}

	sortDir = strings.ToLower(strings.TrimSpace(sortDir))
	switch sortDir {
	case "":
		sortDir = "desc"
	case "asc", "desc":
	default:
		return nil, 0, fmt.Errorf("%w: sort_dir must be asc or desc", ErrInvalidInput)
	}

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return s.assignments.List(ctx, filters, sortBy, sortDir, skip, limit)
}

// Summary returns the aggregate counts over bank/branch/date filters
func (s *AssignmentService) Summary(ctx context.Context, filters *repository.AssignmentFilters) (*domain.AssignmentSummary, error) {
	return s.assignments.Summary(ctx, filters)
}

// Get fetches one assignment by id
func (s *AssignmentService) Get(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: assignment %s", ErrNotFound, id)
		}
		return nil, err
	}
	return assignment, nil
}

// GetDetail fetches one assignment with its files nested
func (s *AssignmentService) GetDetail(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	assignment, err := s.assignments.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: assignment %s", ErrNotFound, id)
		}
		return nil, err
	}
	return assignment, nil
}

// Update applies a partial update, re-validates the merged record against
// the case-type rules, and emits audit events for the changed fields.
func (s *AssignmentService) Update(ctx context.Context, actor *auth.UserContext, id uuid.UUID, req *domain.UpdateAssignmentRequest) (*domain.Assignment, error) {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *assignment

	// Money fields are admin-only; silently dropped from anyone else's
	// payload rather than rejected.
	if !actor.IsAdmin() {
		req.Fees = nil
		req.IsPaid = nil
	}

	applyAssignmentUpdate(assignment, req)

	if req.CaseType != nil {
		ct := domain.NormalizeCaseType(*req.CaseType)
		if !ct.IsValid() {
			return nil, fmt.Errorf("%w: unknown case_type %q", ErrInvalidInput, *req.CaseType)
		}
		assignment.CaseType = ct
	}

	if err := s.resolveReferences(ctx, assignment); err != nil {
		return nil, err
	}
	if err := s.validateCaseType(assignment); err != nil {
		return nil, err
	}

	changed := diffAssignments(&before, assignment)
	if len(changed) == 0 {
		return assignment, nil
	}

	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	s.activities.Record(ctx, &assignment.ID, actorID(actor), domain.ActivityAssignmentUpdated, map[string]any{
		"assignment_code": assignment.AssignmentCode,
		"changed_fields":  changed,
	})
	if before.Status != assignment.Status {
		s.activities.Record(ctx, &assignment.ID, actorID(actor), domain.ActivityStatusChanged, map[string]any{
			"assignment_code": assignment.AssignmentCode,
			"from":            before.Status,
			"to":              assignment.Status,
		})
	}

	return assignment, nil
}

// Delete removes an assignment and its file metadata. The delete event is
// appended before the row goes away; the soft assignment reference keeps it
// queryable by the former id afterwards. Blobs are cleaned up best-effort
// after the commit.
func (s *AssignmentService) Delete(ctx context.Context, actor *auth.UserContext, id uuid.UUID) error {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	files, err := s.files.ListByAssignment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list assignment files: %w", err)
	}

	s.activities.Record(ctx, &assignment.ID, actorID(actor), domain.ActivityAssignmentDeleted, map[string]any{
		"assignment_code": assignment.AssignmentCode,
		"file_count":      len(files),
	})

	if err := s.assignments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	for _, f := range files {
		if err := s.storage.Delete(ctx, f.StoragePath); err != nil {
			s.logger.Warn("failed to delete file blob",
				zap.String("storage_path", f.StoragePath),
				zap.Error(err))
		}
	}

	return nil
}

// resolveReferences turns supplied master-data ids into cached display names
// and enforces referential integrity on the merged record. An id that does
// not exist is a client error; a branch under a different bank is rejected.
func (s *AssignmentService) resolveReferences(ctx context.Context, a *domain.Assignment) error {
	if a.BankID != nil {
		bank, err := s.banks.GetByID(ctx, *a.BankID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: bank %s does not exist", ErrInvalidInput, a.BankID)
			}
			return err
		}
		a.BankName = bank.Name
	}

	if a.BranchID != nil {
		branch, err := s.branches.GetByID(ctx, *a.BranchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: branch %s does not exist", ErrInvalidInput, a.BranchID)
			}
			return err
		}
		if a.BankID != nil && branch.BankID != *a.BankID {
			return ErrBankBranchMismatch
		}
		if a.BankID == nil {
			// Branch implies its parent bank.
			bank, err := s.banks.GetByID(ctx, branch.BankID)
			if err != nil {
				return err
			}
			bankID := branch.BankID
			a.BankID = &bankID
			a.BankName = bank.Name
		}
		a.BranchName = branch.Name
	}

	if a.ClientID != nil {
		client, err := s.clients.GetByID(ctx, *a.ClientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: client %s does not exist", ErrInvalidInput, a.ClientID)
			}
			return err
		}
		a.ValuerClientName = client.Name
	}

	if a.PropertyTypeID != nil {
		pt, err := s.propertyTypes.GetByID(ctx, *a.PropertyTypeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: property type %s does not exist", ErrInvalidInput, a.PropertyTypeID)
			}
			return err
		}
		a.PropertyTypeName = pt.Name
	}

	return nil
}

// validateCaseType enforces the per-case-type required identities on the
// merged record. An identity is satisfied by an id or a legacy name.
func (s *AssignmentService) validateCaseType(a *domain.Assignment) error {
	hasBank := a.BankID != nil || a.BankName != ""
	hasBranch := a.BranchID != nil || a.BranchName != ""
	hasClient := a.ClientID != nil || a.ValuerClientName != ""

	switch a.CaseType {
	case domain.CaseTypeBank:
		if !hasBank {
			return fmt.Errorf("%w: bank is required for BANK cases", ErrInvalidInput)
		}
		if !hasBranch {
			return fmt.Errorf("%w: branch is required for BANK cases", ErrInvalidInput)
		}
	case domain.CaseTypeExternalValuer, domain.CaseTypeDirectClient:
		if !hasClient {
			return fmt.Errorf("%w: client is required for %s cases", ErrInvalidInput, a.CaseType)
		}
	}
	return nil
}

// applyAssignmentUpdate copies only the supplied fields onto the record
func applyAssignmentUpdate(a *domain.Assignment, req *domain.UpdateAssignmentRequest) {
	if req.BankID != nil {
		a.BankID = req.BankID
	}
	if req.BranchID != nil {
		a.BranchID = req.BranchID
	}
	if req.ClientID != nil {
		a.ClientID = req.ClientID
	}
	if req.PropertyTypeID != nil {
		a.PropertyTypeID = req.PropertyTypeID
	}
	if req.BankName != nil {
		a.BankName = strings.TrimSpace(*req.BankName)
	}
	if req.BranchName != nil {
		a.BranchName = strings.TrimSpace(*req.BranchName)
	}
	if req.ValuerClientName != nil {
		a.ValuerClientName = strings.TrimSpace(*req.ValuerClientName)
	}
	if req.PropertyType != nil {
		a.PropertyTypeName = strings.TrimSpace(*req.PropertyType)
	}
	if req.BorrowerName != nil {
		a.BorrowerName = *req.BorrowerName
	}
	if req.Phone != nil {
		a.Phone = *req.Phone
	}
	if req.Address != nil {
		a.Address = *req.Address
	}
	if req.LandArea != nil {
		a.LandArea = req.LandArea
	}
	if req.BuiltupArea != nil {
		a.BuiltupArea = req.BuiltupArea
	}
	if req.Status != nil {
		a.Status = strings.TrimSpace(*req.Status)
	}
	if req.AssignedTo != nil {
		a.AssignedTo = *req.AssignedTo
	}
	if req.SiteVisitDate != nil {
		a.SiteVisitDate = req.SiteVisitDate.TimePtr()
	}
	if req.ReportDueDate != nil {
		a.ReportDueDate = req.ReportDueDate.TimePtr()
	}
	if req.Fees != nil {
		a.Fees = *req.Fees
	}
	if req.IsPaid != nil {
		a.IsPaid = *req.IsPaid
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
}

// diffAssignments lists the names of fields that differ between two records.
// Field names only; STATUS_CHANGED carries the sensitive before/after pair.
func diffAssignments(before, after *domain.Assignment) []string {
	var changed []string
	add := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}

	add("case_type", before.CaseType != after.CaseType)
	add("bank_id", !uuidPtrEqual(before.BankID, after.BankID))
	add("branch_id", !uuidPtrEqual(before.BranchID, after.BranchID))
	add("client_id", !uuidPtrEqual(before.ClientID, after.ClientID))
	add("property_type_id", !uuidPtrEqual(before.PropertyTypeID, after.PropertyTypeID))
	add("bank_name", before.BankName != after.BankName)
	add("branch_name", before.BranchName != after.BranchName)
	add("valuer_client_name", before.ValuerClientName != after.ValuerClientName)
	add("property_type", before.PropertyTypeName != after.PropertyTypeName)
	add("borrower_name", before.BorrowerName != after.BorrowerName)
	add("phone", before.Phone != after.Phone)
	add("address", before.Address != after.Address)
	add("land_area", !floatPtrEqual(before.LandArea, after.LandArea))
	add("builtup_area", !floatPtrEqual(before.BuiltupArea, after.BuiltupArea))
	add("status", before.Status != after.Status)
	add("assigned_to", before.AssignedTo != after.AssignedTo)
	add("site_visit_date", !timePtrEqual(before.SiteVisitDate, after.SiteVisitDate))
	add("report_due_date", !timePtrEqual(before.ReportDueDate, after.ReportDueDate))
	add("fees", before.Fees != after.Fees)
	add("is_paid", before.IsPaid != after.IsPaid)
	add("notes", before.Notes != after.Notes)

	return changed
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func actorID(actor *auth.UserContext) *uuid.UUID {
	if actor == nil || actor.UserID == uuid.Nil {
		return nil
	}
	id := actor.UserID
	return &id
}
