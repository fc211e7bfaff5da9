package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/zenops/valuation-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MasterDataService manages the reference directories assignments point
// into: banks, branches, clients, and property types.
type MasterDataService struct {
	banks         *repository.BankRepository
	branches      *repository.BranchRepository
	clients       *repository.ClientRepository
	propertyTypes *repository.PropertyTypeRepository
	logger        *zap.Logger
}

// NewMasterDataService creates a new MasterDataService
func NewMasterDataService(
	banks *repository.BankRepository,
	branches *repository.BranchRepository,
	clients *repository.ClientRepository,
	propertyTypes *repository.PropertyTypeRepository,
	logger *zap.Logger,
) *MasterDataService {
	return &MasterDataService{
		banks:         banks,
		branches:      branches,
		clients:       clients,
		propertyTypes: propertyTypes,
		logger:        logger,
	}
}

// CreateBank adds a bank directory entry
func (s *MasterDataService) CreateBank(ctx context.Context, req *domain.CreateBankRequest) (*domain.Bank, error) {
	bank := &domain.Bank{
		Name:              req.Name,
		AccountName:       req.AccountName,
		AccountNumber:     req.AccountNumber,
		IFSC:              req.IFSC,
		AccountBankName:   req.AccountBankName,
		AccountBranchName: req.AccountBranchName,
		UPIID:             req.UPIID,
		InvoiceNotes:      req.InvoiceNotes,
	}
	if err := s.banks.Create(ctx, bank); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: bank %q already exists", ErrConflict, req.Name)
		}
		return nil, fmt.Errorf("failed to create bank: %w", err)
	}
	return bank, nil
}

// ListBanks returns all banks ordered by name
func (s *MasterDataService) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	return s.banks.List(ctx)
}

// GetBank fetches one bank
func (s *MasterDataService) GetBank(ctx context.Context, id uuid.UUID) (*domain.Bank, error) {
	bank, err := s.banks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bank %s", ErrNotFound, id)
		}
		return nil, err
	}
	return bank, nil
}

// UpdateBank applies partial changes to a bank
func (s *MasterDataService) UpdateBank(ctx context.Context, id uuid.UUID, req *domain.UpdateBankRequest) (*domain.Bank, error) {
	bank, err := s.GetBank(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		bank.Name = *req.Name
	}
	if req.AccountName != nil {
		bank.AccountName = *req.AccountName
	}
	if req.AccountNumber != nil {
		bank.AccountNumber = *req.AccountNumber
	}
	if req.IFSC != nil {
		bank.IFSC = *req.IFSC
	}
	if req.AccountBankName != nil {
		bank.AccountBankName = *req.AccountBankName
	}
	if req.AccountBranchName != nil {
		bank.AccountBranchName = *req.AccountBranchName
	}
	if req.UPIID != nil {
		bank.UPIID = *req.UPIID
	}
	if req.InvoiceNotes != nil {
		bank.InvoiceNotes = *req.InvoiceNotes
	}

	if err := s.banks.Update(ctx, bank); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: bank name already taken", ErrConflict)
		}
		return nil, fmt.Errorf("failed to update bank: %w", err)
	}
	return bank, nil
}

// DeleteBank removes a bank; its branches cascade, and assignments keep
// only their cached names.
func (s *MasterDataService) DeleteBank(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetBank(ctx, id); err != nil {
		return err
	}
	return s.banks.Delete(ctx, id)
}

// CreateBranch adds a branch under an existing bank. (bank, name) is unique.
func (s *MasterDataService) CreateBranch(ctx context.Context, req *domain.CreateBranchRequest) (*domain.Branch, error) {
	if _, err := s.GetBank(ctx, req.BankID); err != nil {
		return nil, err
	}

	branch := &domain.Branch{
		BankID:                req.BankID,
		Name:                  req.Name,
		ExpectedFrequencyDays: req.ExpectedFrequencyDays,
		ExpectedWeeklyRevenue: req.ExpectedWeeklyRevenue,
		Address:               req.Address,
		City:                  req.City,
		District:              req.District,
		ContactName:           req.ContactName,
		ContactRole:           req.ContactRole,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Whatsapp:              req.Whatsapp,
		Notes:                 req.Notes,
		IsActive:              true,
	}
	if err := s.branches.Create(ctx, branch); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: branch %q already exists for this bank", ErrConflict, req.Name)
		}
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}
	return branch, nil
}

// ListBranches returns branches, optionally scoped to one bank
func (s *MasterDataService) ListBranches(ctx context.Context, bankID *uuid.UUID) ([]domain.Branch, error) {
	return s.branches.List(ctx, bankID)
}

// GetBranch fetches one branch
func (s *MasterDataService) GetBranch(ctx context.Context, id uuid.UUID) (*domain.Branch, error) {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: branch %s", ErrNotFound, id)
		}
		return nil, err
	}
	return branch, nil
}

// UpdateBranch applies partial changes to a branch. A branch never moves
// between banks.
func (s *MasterDataService) UpdateBranch(ctx context.Context, id uuid.UUID, req *domain.UpdateBranchRequest) (*domain.Branch, error) {
	branch, err := s.GetBranch(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		branch.Name = *req.Name
	}
	if req.ExpectedFrequencyDays != nil {
		branch.ExpectedFrequencyDays = req.ExpectedFrequencyDays
	}
	if req.ExpectedWeeklyRevenue != nil {
		branch.ExpectedWeeklyRevenue = req.ExpectedWeeklyRevenue
	}
	if req.Address != nil {
		branch.Address = *req.Address
	}
	if req.City != nil {
		branch.City = *req.City
	}
	if req.District != nil {
		branch.District = *req.District
	}
	if req.ContactName != nil {
		branch.ContactName = *req.ContactName
	}
	if req.ContactRole != nil {
		branch.ContactRole = *req.ContactRole
	}
	if req.Phone != nil {
		branch.Phone = *req.Phone
	}
	if req.Email != nil {
		branch.Email = *req.Email
	}
	if req.Whatsapp != nil {
		branch.Whatsapp = *req.Whatsapp
	}
	if req.Notes != nil {
		branch.Notes = *req.Notes
	}
	if req.IsActive != nil {
		branch.IsActive = *req.IsActive
	}

	if err := s.branches.Update(ctx, branch); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: branch name already taken for this bank", ErrConflict)
		}
		return nil, fmt.Errorf("failed to update branch: %w", err)
	}
	return branch, nil
}

// DeleteBranch removes a branch
func (s *MasterDataService) DeleteBranch(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetBranch(ctx, id); err != nil {
		return err
	}
	return s.branches.Delete(ctx, id)
}

// CreateClient adds a client or external valuer directory entry
func (s *MasterDataService) CreateClient(ctx context.Context, req *domain.CreateClientRequest) (*domain.Client, error) {
	client := &domain.Client{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: client %q already exists", ErrConflict, req.Name)
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// ListClients returns all clients ordered by name
func (s *MasterDataService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.clients.List(ctx)
}

// DeleteClient removes a client
func (s *MasterDataService) DeleteClient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.clients.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: client %s", ErrNotFound, id)
		}
		return err
	}
	return s.clients.Delete(ctx, id)
}

// CreatePropertyType adds a property type directory entry
func (s *MasterDataService) CreatePropertyType(ctx context.Context, req *domain.CreatePropertyTypeRequest) (*domain.PropertyType, error) {
	pt := &domain.PropertyType{Name: req.Name}
	if err := s.propertyTypes.Create(ctx, pt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: property type %q already exists", ErrConflict, req.Name)
		}
		return nil, fmt.Errorf("failed to create property type: %w", err)
	}
	return pt, nil
}

// ListPropertyTypes returns all property types ordered by name
func (s *MasterDataService) ListPropertyTypes(ctx context.Context) ([]domain.PropertyType, error) {
	return s.propertyTypes.List(ctx)
}

// DeletePropertyType removes a property type
func (s *MasterDataService) DeletePropertyType(ctx context.Context, id uuid.UUID) error {
	if _, err := s.propertyTypes.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: property type %s", ErrNotFound, id)
		}
		return err
	}
	return s.propertyTypes.Delete(ctx, id)
}
