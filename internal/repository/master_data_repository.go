package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/domain"
	"gorm.io/gorm"
)

// BankRepository handles database operations for banks
type BankRepository struct {
	db *gorm.DB
}

func NewBankRepository(db *gorm.DB) *BankRepository {
	return &BankRepository{db: db}
}

func (r *BankRepository) Create(ctx context.Context, bank *domain.Bank) error {
	return r.db.WithContext(ctx).Create(bank).Error
}

func (r *BankRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bank, error) {
	var bank domain.Bank
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&bank).Error
	if err != nil {
		return nil, err
	}
	return &bank, nil
}

func (r *BankRepository) GetByName(ctx context.Context, name string) (*domain.Bank, error) {
	var bank domain.Bank
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&bank).Error
	if err != nil {
		return nil, err
	}
	return &bank, nil
}

func (r *BankRepository) List(ctx context.Context) ([]domain.Bank, error) {
	var banks []domain.Bank
	err := r.db.WithContext(ctx).Order("name ASC").Find(&banks).Error
	return banks, err
}

func (r *BankRepository) Update(ctx context.Context, bank *domain.Bank) error {
	return r.db.WithContext(ctx).Save(bank).Error
}

func (r *BankRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Bank{}, "id = ?", id).Error
}

// BranchRepository handles database operations for branches
type BranchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) *BranchRepository {
	return &BranchRepository{db: db}
}

func (r *BranchRepository) Create(ctx context.Context, branch *domain.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *BranchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Branch, error) {
	var branch domain.Branch
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *BranchRepository) GetByBankAndName(ctx context.Context, bankID uuid.UUID, name string) (*domain.Branch, error) {
	var branch domain.Branch
	err := r.db.WithContext(ctx).
		Where("bank_id = ? AND name = ?", bankID, name).
		First(&branch).Error
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

// List returns branches, optionally restricted to one bank
func (r *BranchRepository) List(ctx context.Context, bankID *uuid.UUID) ([]domain.Branch, error) {
	var branches []domain.Branch
	query := r.db.WithContext(ctx).Order("name ASC")
	if bankID != nil {
		query = query.Where("bank_id = ?", *bankID)
	}
	err := query.Find(&branches).Error
	return branches, err
}

func (r *BranchRepository) Update(ctx context.Context, branch *domain.Branch) error {
	return r.db.WithContext(ctx).Save(branch).Error
}

func (r *BranchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Branch{}, "id = ?", id).Error
}

// ClientRepository handles database operations for clients and external valuers
type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	err := r.db.WithContext(ctx).Order("name ASC").Find(&clients).Error
	return clients, err
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Client{}, "id = ?", id).Error
}

// PropertyTypeRepository handles database operations for property types
type PropertyTypeRepository struct {
	db *gorm.DB
}

func NewPropertyTypeRepository(db *gorm.DB) *PropertyTypeRepository {
	return &PropertyTypeRepository{db: db}
}

func (r *PropertyTypeRepository) Create(ctx context.Context, pt *domain.PropertyType) error {
	return r.db.WithContext(ctx).Create(pt).Error
}

func (r *PropertyTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PropertyType, error) {
	var pt domain.PropertyType
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pt).Error
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *PropertyTypeRepository) List(ctx context.Context) ([]domain.PropertyType, error) {
	var types []domain.PropertyType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error
	return types, err
}

func (r *PropertyTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.PropertyType{}, "id = ?", id).Error
}
