package models

import "time"

// FolderStatus represents valid employee folder statuses
type FolderStatus string

const (
	FolderStatusActive  FolderStatus = "active"
	FolderStatusDeleted FolderStatus = "deleted"
)

// EmployeeFolder represents an employee's document folder record.
// At most one active record should exist per (tenant, employee email);
// that invariant is enforced by the folder service lock, not the schema.
type EmployeeFolder struct {
	ID             int          `json:"id" db:"id"`
	TenantID       string       `json:"tenant_id" db:"tenant_id"`
	EmployeeEmail  string       `json:"employee_email" db:"employee_email"`
	EmployeeName   string       `json:"employee_name" db:"employee_name"`
	Status         FolderStatus `json:"status" db:"status"`
	DriveFolderID  *string      `json:"drive_folder_id,omitempty" db:"drive_folder_id"`
	DriveFolderURL *string      `json:"drive_folder_url,omitempty" db:"drive_folder_url"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// IsActive checks if the folder record is active
func (f *EmployeeFolder) IsActive() bool {
	return f.Status == FolderStatusActive
}
