package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Date marshals as "2006-01-02", the wire format for site-visit and
// report-due dates.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate wraps a time.Time pointer into a Date pointer.
func NewDate(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

// TimePtr returns the underlying time, nil for a nil Date.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// CreateAssignmentRequest is the payload for creating an assignment. The
// assignment code is never accepted from the client; it is generated.
type CreateAssignmentRequest struct {
	CaseType string `json:"case_type" validate:"omitempty,max=32"`

	BankID         *uuid.UUID `json:"bank_id"`
	BranchID       *uuid.UUID `json:"branch_id"`
	ClientID       *uuid.UUID `json:"client_id"`
	PropertyTypeID *uuid.UUID `json:"property_type_id"`

	BankName         string `json:"bank_name" validate:"omitempty,max=128"`
	BranchName       string `json:"branch_name" validate:"omitempty,max=128"`
	ValuerClientName string `json:"valuer_client_name" validate:"omitempty,max=128"`
	PropertyType     string `json:"property_type" validate:"omitempty,max=64"`

	BorrowerName string   `json:"borrower_name" validate:"omitempty,max=128"`
	Phone        string   `json:"phone" validate:"omitempty,max=32"`
	Address      string   `json:"address"`
	LandArea     *float64 `json:"land_area" validate:"omitempty,gte=0"`
	BuiltupArea  *float64 `json:"builtup_area" validate:"omitempty,gte=0"`

	Status     string `json:"status" validate:"omitempty,max=32"`
	AssignedTo string `json:"assigned_to" validate:"omitempty,max=128"`

	SiteVisitDate *Date `json:"site_visit_date"`
	ReportDueDate *Date `json:"report_due_date"`

	// ADMIN only; forced to zero values for everyone else.
	Fees   *int64 `json:"fees" validate:"omitempty,gte=0"`
	IsPaid *bool  `json:"is_paid"`

	Notes string `json:"notes"`
}

// UpdateAssignmentRequest carries partial updates. A nil field means "leave
// alone"; an explicit JSON null decodes to the same nil and is also a no-op,
// so this surface cannot clear a value back to null.
type UpdateAssignmentRequest struct {
	CaseType *string `json:"case_type" validate:"omitempty,max=32"`

	BankID         *uuid.UUID `json:"bank_id"`
	BranchID       *uuid.UUID `json:"branch_id"`
	ClientID       *uuid.UUID `json:"client_id"`
	PropertyTypeID *uuid.UUID `json:"property_type_id"`

	BankName         *string `json:"bank_name" validate:"omitempty,max=128"`
	BranchName       *string `json:"branch_name" validate:"omitempty,max=128"`
	ValuerClientName *string `json:"valuer_client_name" validate:"omitempty,max=128"`
	PropertyType     *string `json:"property_type" validate:"omitempty,max=64"`

	BorrowerName *string  `json:"borrower_name" validate:"omitempty,max=128"`
	Phone        *string  `json:"phone" validate:"omitempty,max=32"`
	Address      *string  `json:"address"`
	LandArea     *float64 `json:"land_area" validate:"omitempty,gte=0"`
	BuiltupArea  *float64 `json:"builtup_area" validate:"omitempty,gte=0"`

	Status     *string `json:"status" validate:"omitempty,max=32"`
	AssignedTo *string `json:"assigned_to" validate:"omitempty,max=128"`

	SiteVisitDate *Date `json:"site_visit_date"`
	ReportDueDate *Date `json:"report_due_date"`

	// ADMIN only; silently discarded for everyone else.
	Fees   *int64 `json:"fees" validate:"omitempty,gte=0"`
	IsPaid *bool  `json:"is_paid"`

	Notes *string `json:"notes"`
}

// AssignmentResponse is the list/detail view of an assignment.
type AssignmentResponse struct {
	ID             uuid.UUID `json:"id"`
	AssignmentCode string    `json:"assignment_code"`
	CaseType       CaseType  `json:"case_type"`

	BankID         *uuid.UUID `json:"bank_id"`
	BranchID       *uuid.UUID `json:"branch_id"`
	ClientID       *uuid.UUID `json:"client_id"`
	PropertyTypeID *uuid.UUID `json:"property_type_id"`

	BankName         string `json:"bank_name"`
	BranchName       string `json:"branch_name"`
	ValuerClientName string `json:"valuer_client_name"`
	PropertyType     string `json:"property_type"`

	BorrowerName string   `json:"borrower_name"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`
	LandArea     *float64 `json:"land_area"`
	BuiltupArea  *float64 `json:"builtup_area"`

	Status      string `json:"status"`
	IsCompleted bool   `json:"is_completed"`
	AssignedTo  string `json:"assigned_to"`

	SiteVisitDate *Date `json:"site_visit_date"`
	ReportDueDate *Date `json:"report_due_date"`

	Fees   int64 `json:"fees"`
	IsPaid bool  `json:"is_paid"`

	Notes string `json:"notes"`

	Files []FileResponse `json:"files"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssignmentListResponse wraps a page of assignments with the total count.
type AssignmentListResponse struct {
	Items []AssignmentResponse `json:"items"`
	Total int64                `json:"total"`
}

// FileResponse is the metadata view of an uploaded file. The storage path is
// server-internal and never exposed.
type FileResponse struct {
	ID           uuid.UUID `json:"id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ActivityResponse is one audit event as returned to clients.
type ActivityResponse struct {
	ID           uuid.UUID    `json:"id"`
	AssignmentID *uuid.UUID   `json:"assignment_id"`
	ActorUserID  *uuid.UUID   `json:"actor_user_id"`
	ActorEmail   string       `json:"actor_email,omitempty"`
	Type         ActivityType `json:"type"`
	Payload      any          `json:"payload"`
	CreatedAt    time.Time    `json:"created_at"`
}

// LoginRequest is the credentials payload for token issuance.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

// LoginResponse carries the issued bearer token and the user it identifies.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// CreateUserRequest is the payload for registering personnel.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,max=20"`
}

// UpdateUserRequest carries partial updates to a user record.
type UpdateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,max=20"`
	IsActive *bool   `json:"is_active"`
}

// UserResponse never includes the password hash.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      UserRole  `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBankRequest is the payload for creating a bank.
type CreateBankRequest struct {
	Name string `json:"name" validate:"required,max=200"`

	AccountName       string `json:"account_name" validate:"omitempty,max=200"`
	AccountNumber     string `json:"account_number" validate:"omitempty,max=50"`
	IFSC              string `json:"ifsc" validate:"omitempty,max=20"`
	AccountBankName   string `json:"account_bank_name" validate:"omitempty,max=200"`
	AccountBranchName string `json:"account_branch_name" validate:"omitempty,max=200"`
	UPIID             string `json:"upi_id" validate:"omitempty,max=100"`
	InvoiceNotes      string `json:"invoice_notes" validate:"omitempty,max=500"`
}

// UpdateBankRequest carries partial updates to a bank record.
type UpdateBankRequest struct {
	Name *string `json:"name" validate:"omitempty,max=200"`

	AccountName       *string `json:"account_name" validate:"omitempty,max=200"`
	AccountNumber     *string `json:"account_number" validate:"omitempty,max=50"`
	IFSC              *string `json:"ifsc" validate:"omitempty,max=20"`
	AccountBankName   *string `json:"account_bank_name" validate:"omitempty,max=200"`
	AccountBranchName *string `json:"account_branch_name" validate:"omitempty,max=200"`
	UPIID             *string `json:"upi_id" validate:"omitempty,max=100"`
	InvoiceNotes      *string `json:"invoice_notes" validate:"omitempty,max=500"`
}

// BankResponse is the directory view of a bank.
type BankResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	AccountName       string `json:"account_name"`
	AccountNumber     string `json:"account_number"`
	IFSC              string `json:"ifsc"`
	AccountBankName   string `json:"account_bank_name"`
	AccountBranchName string `json:"account_branch_name"`
	UPIID             string `json:"upi_id"`
	InvoiceNotes      string `json:"invoice_notes"`

	CreatedAt time.Time `json:"created_at"`
}

// CreateBranchRequest is the payload for creating a branch under a bank.
type CreateBranchRequest struct {
	BankID uuid.UUID `json:"bank_id" validate:"required"`
	Name   string    `json:"name" validate:"required,max=200"`

	ExpectedFrequencyDays *int     `json:"expected_frequency_days" validate:"omitempty,gte=0"`
	ExpectedWeeklyRevenue *float64 `json:"expected_weekly_revenue" validate:"omitempty,gte=0"`

	Address  string `json:"address" validate:"omitempty,max=500"`
	City     string `json:"city" validate:"omitempty,max=100"`
	District string `json:"district" validate:"omitempty,max=100"`

	ContactName string `json:"contact_name" validate:"omitempty,max=200"`
	ContactRole string `json:"contact_role" validate:"omitempty,max=100"`
	Phone       string `json:"phone" validate:"omitempty,max=50"`
	Email       string `json:"email" validate:"omitempty,email,max=250"`
	Whatsapp    string `json:"whatsapp" validate:"omitempty,max=50"`

	Notes string `json:"notes" validate:"omitempty,max=500"`
}

// UpdateBranchRequest carries partial updates to a branch record.
type UpdateBranchRequest struct {
	Name *string `json:"name" validate:"omitempty,max=200"`

	ExpectedFrequencyDays *int     `json:"expected_frequency_days" validate:"omitempty,gte=0"`
	ExpectedWeeklyRevenue *float64 `json:"expected_weekly_revenue" validate:"omitempty,gte=0"`

	Address  *string `json:"address" validate:"omitempty,max=500"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	District *string `json:"district" validate:"omitempty,max=100"`

	ContactName *string `json:"contact_name" validate:"omitempty,max=200"`
	ContactRole *string `json:"contact_role" validate:"omitempty,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Email       *string `json:"email" validate:"omitempty,email,max=250"`
	Whatsapp    *string `json:"whatsapp" validate:"omitempty,max=50"`

	Notes    *string `json:"notes" validate:"omitempty,max=500"`
	IsActive *bool   `json:"is_active"`
}

// BranchResponse is the directory view of a branch.
type BranchResponse struct {
	ID     uuid.UUID `json:"id"`
	BankID uuid.UUID `json:"bank_id"`
	Name   string    `json:"name"`

	ExpectedFrequencyDays *int     `json:"expected_frequency_days"`
	ExpectedWeeklyRevenue *float64 `json:"expected_weekly_revenue"`

	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`

	ContactName string `json:"contact_name"`
	ContactRole string `json:"contact_role"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Whatsapp    string `json:"whatsapp"`

	Notes    string `json:"notes"`
	IsActive bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}

// CreateClientRequest is the payload for creating a client or external valuer.
type CreateClientRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone" validate:"omitempty,max=50"`
	Email string `json:"email" validate:"omitempty,email,max=250"`
}

// ClientResponse is the directory view of a client.
type ClientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePropertyTypeRequest is the payload for creating a property type.
type CreatePropertyTypeRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// PropertyTypeResponse is the directory view of a property type.
type PropertyTypeResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
