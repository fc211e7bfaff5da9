package mapper

import (
	"encoding/json"

	"github.com/zenops/valuation-api/internal/domain"
)

// ToAssignmentResponse converts an Assignment to its API representation
func ToAssignmentResponse(a *domain.Assignment) domain.AssignmentResponse {
	resp := domain.AssignmentResponse{
		ID:               a.ID,
		AssignmentCode:   a.AssignmentCode,
		CaseType:         a.CaseType,
		BankID:           a.BankID,
		BranchID:         a.BranchID,
		ClientID:         a.ClientID,
		PropertyTypeID:   a.PropertyTypeID,
		BankName:         a.BankName,
		BranchName:       a.BranchName,
		ValuerClientName: a.ValuerClientName,
		PropertyType:     a.PropertyTypeName,
		BorrowerName:     a.BorrowerName,
		Phone:            a.Phone,
		Address:          a.Address,
		LandArea:         a.LandArea,
		BuiltupArea:      a.BuiltupArea,
		Status:           a.Status,
		IsCompleted:      domain.IsCompletedStatus(a.Status),
		AssignedTo:       a.AssignedTo,
		SiteVisitDate:    domain.NewDate(a.SiteVisitDate),
		ReportDueDate:    domain.NewDate(a.ReportDueDate),
		Fees:             a.Fees,
		IsPaid:           a.IsPaid,
		Notes:            a.Notes,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}

	if a.Files != nil {
		resp.Files = make([]domain.FileResponse, 0, len(a.Files))
		for i := range a.Files {
			resp.Files = append(resp.Files, ToFileResponse(&a.Files[i]))
		}
	}

	return resp
}

// ToAssignmentListResponse converts a page of assignments plus total count
func ToAssignmentListResponse(assignments []domain.Assignment, total int64) domain.AssignmentListResponse {
	items := make([]domain.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		items = append(items, ToAssignmentResponse(&assignments[i]))
	}
	return domain.AssignmentListResponse{Items: items, Total: total}
}

// ToFileResponse converts a File to its API representation. The storage
// path stays server-internal.
func ToFileResponse(f *domain.File) domain.FileResponse {
	return domain.FileResponse{
		ID:           f.ID,
		AssignmentID: f.AssignmentID,
		Filename:     f.Filename,
		ContentType:  f.ContentType,
		SizeBytes:    f.SizeBytes,
		UploadedAt:   f.CreatedAt,
	}
}

// ToActivityResponse converts an Activity, decoding its JSON payload
func ToActivityResponse(a *domain.Activity) domain.ActivityResponse {
	var payload any
	if a.Payload != "" {
		if err := json.Unmarshal([]byte(a.Payload), &payload); err != nil {
			payload = a.Payload
		}
	}
	return domain.ActivityResponse{
		ID:           a.ID,
		AssignmentID: a.AssignmentID,
		ActorUserID:  a.ActorUserID,
		Type:         a.Type,
		Payload:      payload,
		CreatedAt:    a.CreatedAt,
	}
}

// ToUserResponse converts a User, omitting the password hash
func ToUserResponse(u *domain.User) domain.UserResponse {
	return domain.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// ToBankResponse converts a Bank to its API representation
func ToBankResponse(b *domain.Bank) domain.BankResponse {
	return domain.BankResponse{
		ID:                b.ID,
		Name:              b.Name,
		AccountName:       b.AccountName,
		AccountNumber:     b.AccountNumber,
		IFSC:              b.IFSC,
		AccountBankName:   b.AccountBankName,
		AccountBranchName: b.AccountBranchName,
		UPIID:             b.UPIID,
		InvoiceNotes:      b.InvoiceNotes,
		CreatedAt:         b.CreatedAt,
	}
}

// ToBranchResponse converts a Branch to its API representation
func ToBranchResponse(b *domain.Branch) domain.BranchResponse {
	return domain.BranchResponse{
		ID:                    b.ID,
		BankID:                b.BankID,
		Name:                  b.Name,
		ExpectedFrequencyDays: b.ExpectedFrequencyDays,
		ExpectedWeeklyRevenue: b.ExpectedWeeklyRevenue,
		Address:               b.Address,
		City:                  b.City,
		District:              b.District,
		ContactName:           b.ContactName,
		ContactRole:           b.ContactRole,
		Phone:                 b.Phone,
		Email:                 b.Email,
		Whatsapp:              b.Whatsapp,
		Notes:                 b.Notes,
		IsActive:              b.IsActive,
		CreatedAt:             b.CreatedAt,
	}
}

// ToClientResponse converts a Client to its API representation
func ToClientResponse(c *domain.Client) domain.ClientResponse {
	return domain.ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}

// ToPropertyTypeResponse converts a PropertyType to its API representation
func ToPropertyTypeResponse(pt *domain.PropertyType) domain.PropertyTypeResponse {
	return domain.PropertyTypeResponse{
		ID:        pt.ID,
		Name:      pt.Name,
		CreatedAt: pt.CreatedAt,
	}
}
