package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the database does not (sqlite has no
// gen_random_uuid default).
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// CaseType classifies how a valuation case came in and determines which
// relationship fields are mandatory.
type CaseType string

const (
	CaseTypeBank           CaseType = "BANK"
	CaseTypeExternalValuer CaseType = "EXTERNAL_VALUER"
	CaseTypeDirectClient   CaseType = "DIRECT_CLIENT"
)

// NormalizeCaseType trims and uppercases the incoming value, defaulting to BANK.
func NormalizeCaseType(ct string) CaseType {
	v := strings.ToUpper(strings.TrimSpace(ct))
	if v == "" {
		return CaseTypeBank
	}
	return CaseType(v)
}

// IsValid checks if the CaseType is a known value
func (ct CaseType) IsValid() bool {
	switch ct {
	case CaseTypeBank, CaseTypeExternalValuer, CaseTypeDirectClient:
		return true
	}
	return false
}

// Well-known workflow statuses. The status column stays free text for
// backward compatibility; unrecognized values count as pending, never
// rejected.
const (
	StatusSiteVisit  = "SITE_VISIT"
	StatusInProgress = "IN_PROGRESS"
	StatusFinalCheck = "FINAL_CHECK"
	StatusCompleted  = "COMPLETED"
)

// IsCompletedStatus is the single source of truth for "completed":
// case-insensitive comparison, null/blank never counts.
func IsCompletedStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusCompleted)
}

// Assignment is one valuation job tracked end-to-end from intake to payment.
type Assignment struct {
	BaseModel
	// Public-facing code, e.g. "VAL/2025/0012". Immutable once assigned.
	AssignmentCode string   `gorm:"type:varchar(64);not null;unique;index;column:assignment_code"`
	CaseType       CaseType `gorm:"type:varchar(32);not null;default:'BANK';column:case_type"`

	// Master-data references, nullable depending on case_type.
	BankID         *uuid.UUID    `gorm:"type:uuid;index;column:bank_id"`
	Bank           *Bank         `gorm:"foreignKey:BankID;constraint:OnDelete:SET NULL"`
	BranchID       *uuid.UUID    `gorm:"type:uuid;index;column:branch_id"`
	Branch         *Branch       `gorm:"foreignKey:BranchID;constraint:OnDelete:SET NULL"`
	ClientID       *uuid.UUID    `gorm:"type:uuid;index;column:client_id"`
	Client         *Client       `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL"`
	PropertyTypeID *uuid.UUID    `gorm:"type:uuid;index;column:property_type_id"`
	PropertyType   *PropertyType `gorm:"foreignKey:PropertyTypeID;constraint:OnDelete:SET NULL"`

	// Cached display names, kept for older clients that send names
	// instead of ids. Snapshotted from master data at resolution time.
	BankName         string `gorm:"type:varchar(128);column:bank_name"`
	BranchName       string `gorm:"type:varchar(128);column:branch_name"`
	ValuerClientName string `gorm:"type:varchar(128);column:valuer_client_name"`
	PropertyTypeName string `gorm:"type:varchar(64);column:property_type"`

	BorrowerName string   `gorm:"type:varchar(128);column:borrower_name"`
	Phone        string   `gorm:"type:varchar(32)"`
	Address      string   `gorm:"type:text"`
	LandArea     *float64 `gorm:"column:land_area"`
	BuiltupArea  *float64 `gorm:"column:builtup_area"`

	Status     string `gorm:"type:varchar(32);not null;default:'SITE_VISIT'"`
	AssignedTo string `gorm:"type:varchar(128);column:assigned_to"`

	SiteVisitDate *time.Time `gorm:"type:date;column:site_visit_date"`
	ReportDueDate *time.Time `gorm:"type:date;column:report_due_date"`

	// Money fields, mutable only by ADMIN.
	Fees   int64 `gorm:"not null;default:0"`
	IsPaid bool  `gorm:"not null;default:false;column:is_paid"`

	Notes string `gorm:"type:text"`

	Files []File `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
}

// File is one uploaded document attached to an assignment. CreatedAt doubles
// as the upload timestamp.
type File struct {
	BaseModel
	AssignmentID uuid.UUID `gorm:"type:uuid;not null;index;column:assignment_id"`
	// Original filename the user uploaded (what they see on download).
	Filename string `gorm:"type:varchar(255);not null"`
	// Collision-resistant name the blob is stored under.
	StoredName  string `gorm:"type:varchar(255);not null;column:stored_name"`
	ContentType string `gorm:"type:varchar(100);column:content_type"`
	SizeBytes   int64  `gorm:"not null;column:size_bytes"`
	// Path inside the storage backend (server truth).
	StoragePath string `gorm:"type:varchar(500);not null;unique;column:storage_path"`
}

// ActivityType tags an audit event with its fixed vocabulary.
type ActivityType string

const (
	ActivityAssignmentCreated ActivityType = "ASSIGNMENT_CREATED"
	ActivityAssignmentUpdated ActivityType = "ASSIGNMENT_UPDATED"
	ActivityStatusChanged     ActivityType = "STATUS_CHANGED"
	ActivityAssignmentDeleted ActivityType = "ASSIGNMENT_DELETED"
	ActivityFileUploaded      ActivityType = "FILE_UPLOADED"
)

// IsValid checks if the ActivityType is a known event tag
func (at ActivityType) IsValid() bool {
	switch at {
	case ActivityAssignmentCreated, ActivityAssignmentUpdated,
		ActivityStatusChanged, ActivityAssignmentDeleted, ActivityFileUploaded:
		return true
	}
	return false
}

// Activity is one append-only audit event. Rows are never mutated or deleted
// by normal operation.
//
// The assignment and actor columns are soft references: plain indexed values
// with no enforced foreign key, so the trail outlives the entity it describes
// and stays queryable by the former assignment id after deletion. The loaded
// entity simply resolves to nothing once the row is gone.
type Activity struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key"`
	AssignmentID *uuid.UUID   `gorm:"type:uuid;index;column:assignment_id"`
	ActorUserID  *uuid.UUID   `gorm:"type:uuid;index;column:actor_user_id"`
	Type         ActivityType `gorm:"type:varchar(64);not null"`
	// Flexible JSON event data describing what changed.
	Payload   string    `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// BeforeCreate assigns an ID when the database does not.
func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// UserRole drives authorization. ADMIN is the only role with money-field
// visibility on assignments.
type UserRole string

const (
	RoleAdmin           UserRole = "ADMIN"
	RoleOpsManager      UserRole = "OPS_MANAGER"
	RoleAssistantValuer UserRole = "ASSISTANT_VALUER"
	RoleFieldValuer     UserRole = "FIELD_VALUER"
	RoleFinance         UserRole = "FINANCE"
	RoleHR              UserRole = "HR"
	RoleEmployee        UserRole = "EMPLOYEE"
)

// NormalizeRole trims and uppercases a role string.
func NormalizeRole(role string) UserRole {
	return UserRole(strings.ToUpper(strings.TrimSpace(role)))
}

// IsValid checks if the UserRole is in the allowed set
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOpsManager, RoleAssistantValuer, RoleFieldValuer,
		RoleFinance, RoleHR, RoleEmployee:
		return true
	}
	return false
}

// User is a login identity.
type User struct {
	BaseModel
	Email          string   `gorm:"type:varchar(255);not null;unique;index"`
	FullName       string   `gorm:"type:varchar(255);column:full_name"`
	HashedPassword string   `gorm:"type:varchar(255);not null;column:hashed_password"`
	Role           UserRole `gorm:"type:varchar(20);not null;default:'EMPLOYEE'"`
	IsActive       bool     `gorm:"not null;default:true;column:is_active"`
}

// IsAdmin reports whether this user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return NormalizeRole(string(u.Role)) == RoleAdmin
}

// HasAnyRole checks if the user's role matches any of the given roles.
func (u *User) HasAnyRole(roles ...UserRole) bool {
	mine := NormalizeRole(string(u.Role))
	for _, r := range roles {
		if mine == r {
			return true
		}
	}
	return false
}

// Bank is a master-data directory entry, with invoice/account defaults used
// when billing the bank.
type Bank struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null;unique;index"`

	AccountName       string `gorm:"type:varchar(200);column:account_name"`
	AccountNumber     string `gorm:"type:varchar(50);column:account_number"`
	IFSC              string `gorm:"type:varchar(20);column:ifsc"`
	AccountBankName   string `gorm:"type:varchar(200);column:account_bank_name"`
	AccountBranchName string `gorm:"type:varchar(200);column:account_branch_name"`
	UPIID             string `gorm:"type:varchar(100);column:upi_id"`
	InvoiceNotes      string `gorm:"type:varchar(500);column:invoice_notes"`

	Branches []Branch `gorm:"foreignKey:BankID;constraint:OnDelete:CASCADE"`
}

// Branch belongs to exactly one bank; (bank, name) is unique.
type Branch struct {
	BaseModel
	BankID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_branch_bank_name;column:bank_id"`
	Bank   *Bank     `gorm:"foreignKey:BankID"`
	Name   string    `gorm:"type:varchar(200);not null;index;uniqueIndex:uq_branch_bank_name"`

	ExpectedFrequencyDays *int     `gorm:"column:expected_frequency_days"`
	ExpectedWeeklyRevenue *float64 `gorm:"column:expected_weekly_revenue"`

	Address  string `gorm:"type:varchar(500)"`
	City     string `gorm:"type:varchar(100)"`
	District string `gorm:"type:varchar(100)"`

	// Contact officer, mutable - officers change often.
	ContactName string `gorm:"type:varchar(200);column:contact_name"`
	ContactRole string `gorm:"type:varchar(100);column:contact_role"`
	Phone       string `gorm:"type:varchar(50)"`
	Email       string `gorm:"type:varchar(250)"`
	Whatsapp    string `gorm:"type:varchar(50)"`

	Notes    string `gorm:"type:varchar(500)"`
	IsActive bool   `gorm:"not null;default:true;column:is_active"`
}

// Client covers both direct clients and external valuers.
type Client struct {
	BaseModel
	Name  string `gorm:"type:varchar(200);not null;unique;index"`
	Phone string `gorm:"type:varchar(50)"`
	Email string `gorm:"type:varchar(250)"`
}

// PropertyType is a master-data directory entry.
type PropertyType struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null;unique;index"`
}

// Permission codes known to the RBAC catalog.
const (
	PermUsersRead         = "users.read"
	PermUsersCreate       = "users.create"
	PermUsersUpdate       = "users.update"
	PermAssignmentsRead   = "assignments.read"
	PermAssignmentsCreate = "assignments.create"
	PermAssignmentsUpdate = "assignments.update"
	PermInvoicesRead      = "invoices.read"
	PermInvoicesCreate    = "invoices.create"
	PermInvoicesMarkPaid  = "invoices.mark_paid"
	PermMasterDataEdit    = "masterdata.edit"
)

// RolePermission maps a role to its granted permission codes.
// Seeded once at startup with idempotent upsert semantics.
type RolePermission struct {
	Role        UserRole       `gorm:"type:varchar(20);primaryKey"`
	Permissions pq.StringArray `gorm:"type:text[];not null"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName overrides the default table name
func (RolePermission) TableName() string {
	return "role_permissions"
}

// CompletionFilter is the derived three-way bucket over the free-text status.
type CompletionFilter string

const (
	CompletionAll       CompletionFilter = "ALL"
	CompletionPending   CompletionFilter = "PENDING"
	CompletionCompleted CompletionFilter = "COMPLETED"
)

// ParseCompletionFilter normalizes a query value; ok is false for anything
// outside the three allowed buckets.
func ParseCompletionFilter(v string) (CompletionFilter, bool) {
	f := CompletionFilter(strings.ToUpper(strings.TrimSpace(v)))
	if f == "" {
		return CompletionAll, true
	}
	switch f {
	case CompletionAll, CompletionPending, CompletionCompleted:
		return f, true
	}
	return "", false
}

// AssignmentSummary holds the aggregate counts for tiles and headers.
type AssignmentSummary struct {
	Total           int64 `json:"total"`
	Pending         int64 `json:"pending"`
	Completed       int64 `json:"completed"`
	CompletedUnpaid int64 `json:"completed_unpaid"`
}
