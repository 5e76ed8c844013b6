// Package folders creates and reconciles employee document folders. All
// creation runs under a named advisory lock so concurrent triggers
// (duplicate webhooks, parallel imports) cannot produce duplicate records.
package folders

import (
	"context"
	"fmt"
	"log"
	"time"

	"staffhub/internal/drive"
	"staffhub/internal/lock"
	"staffhub/internal/models"
	"staffhub/internal/repository"
)

const employeesFolderName = "Employees"

// lockKey builds the advisory lock key for an employee email
func lockKey(email string) string {
	return "employee_folder_" + email
}

// Service coordinates folder creation across the store and the drive
type Service struct {
	folders     repository.FolderRepository
	employees   repository.EmployeeRepository
	tenants     repository.TenantRepository
	storage     drive.Storage
	locker      lock.Locker
	lockTimeout time.Duration
}

// NewService creates a folder service
func NewService(
	folders repository.FolderRepository,
	employees repository.EmployeeRepository,
	tenants repository.TenantRepository,
	storage drive.Storage,
	locker lock.Locker,
	lockTimeout time.Duration,
) *Service {
	if lockTimeout <= 0 {
		lockTimeout = 30 * time.Second
	}
	return &Service{
		folders:     folders,
		employees:   employees,
		tenants:     tenants,
		storage:     storage,
		locker:      locker,
		lockTimeout: lockTimeout,
	}
}

// Result reports the outcome of a single folder creation
type Result struct {
	Folder   *models.EmployeeFolder `json:"folder"`
	Created  bool                   `json:"created"`
	Existing bool                   `json:"existing"`
}

// CreateFolder creates the employee's folder record and remote folder,
// or returns the existing record. The whole sequence runs inside the
// critical section for the employee's email, so a second caller either
// waits and then sees the record, or times out with lock.ErrTimeout.
//
// If the remote folder is created but the record insert fails, the remote
// folder is not rolled back; CleanupDuplicates is the reconciliation path.
func (s *Service) CreateFolder(ctx context.Context, tenantID, email, employeeName string) (*Result, error) {
	if email == "" {
		return nil, fmt.Errorf("employee email is required")
	}

	handle, err := s.locker.Acquire(ctx, lockKey(email), s.lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to lock folder creation for %s: %w", email, err)
	}
	defer handle.Release()

	existing, err := s.folders.GetActiveByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Result{Folder: existing, Existing: true}, nil
	}

	if employeeName == "" {
		if employee, err := s.employees.GetByEmail(ctx, tenantID, email); err == nil {
			employeeName = employee.FullName()
		} else {
			employeeName = email
		}
	}

	companyName := tenantID
	if settings, err := s.tenants.GetSettings(ctx, tenantID); err == nil && settings != nil && settings.CompanyName != "" {
		companyName = settings.CompanyName
	}

	companyFolder, err := s.storage.EnsureFolder(ctx, companyName, "")
	if err != nil {
		return nil, fmt.Errorf("failed to ensure company folder: %w", err)
	}

	parent, err := s.storage.EnsureFolder(ctx, employeesFolderName, companyFolder.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure employees folder: %w", err)
	}

	remote, err := s.storage.CreateFolder(ctx, employeeName, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee folder: %w", err)
	}

	record := &models.EmployeeFolder{
		TenantID:       tenantID,
		EmployeeEmail:  email,
		EmployeeName:   employeeName,
		Status:         models.FolderStatusActive,
		DriveFolderID:  &remote.ID,
		DriveFolderURL: &remote.URL,
	}
	if err := s.folders.Create(ctx, record); err != nil {
		// Remote folder survives; log the id so operators can reconcile
		log.Printf("Folder record insert failed for %s (remote folder %s left in place): %v", email, remote.ID, err)
		return nil, err
	}

	return &Result{Folder: record, Created: true}, nil
}

// BulkResult tallies a bulk creation pass
type BulkResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// CreateMissingFolders creates folders for every employee of the tenant
// that has no active record. One employee's failure is counted and logged
// without aborting the rest.
func (s *Service) CreateMissingFolders(ctx context.Context, tenantID string) (*BulkResult, error) {
	employees, err := s.employees.ListWithoutFolder(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees without folder: %w", err)
	}

	result := &BulkResult{}
	for _, employee := range employees {
		created, err := s.CreateFolder(ctx, tenantID, employee.Email, employee.FullName())
		if err != nil {
			log.Printf("Bulk folder creation failed for %s: %v", employee.Email, err)
			result.Errors++
			continue
		}
		if created.Created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	return result, nil
}

// CleanupResult tallies a duplicate cleanup pass
type CleanupResult struct {
	Groups  int `json:"groups"`
	Removed int `json:"removed"`
	Errors  int `json:"errors"`
}

// CleanupDuplicates removes all but the most recently created record for
// every email that has more than one. Compensates for data created before
// the lock existed; not part of the normal create path.
func (s *Service) CleanupDuplicates(ctx context.Context) (*CleanupResult, error) {
	duplicates, err := s.folders.ListDuplicates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicates: %w", err)
	}

	result := &CleanupResult{}
	lastEmail := ""
	for _, folder := range duplicates {
		if folder.EmployeeEmail != lastEmail {
			// Rows are ordered newest first per email; keep the first of each group
			lastEmail = folder.EmployeeEmail
			result.Groups++
			continue
		}

		if err := s.folders.Delete(ctx, folder.ID); err != nil {
			log.Printf("Failed to delete duplicate folder %d for %s: %v", folder.ID, folder.EmployeeEmail, err)
			result.Errors++
			continue
		}
		if folder.DriveFolderID != nil {
			if err := s.storage.DeleteFile(ctx, *folder.DriveFolderID); err != nil {
				log.Printf("Failed to delete remote folder %s: %v", *folder.DriveFolderID, err)
			}
		}
		result.Removed++
	}

	return result, nil
}
