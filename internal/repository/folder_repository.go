package repository

import (
	"context"
	"database/sql"
	"fmt"

	"staffhub/internal/models"
)

type folderRepository struct {
	db *sql.DB
}

// NewFolderRepository creates a new employee folder repository
func NewFolderRepository(db *sql.DB) FolderRepository {
	return &folderRepository{db: db}
}

// Create inserts a new employee folder record
func (r *folderRepository) Create(ctx context.Context, folder *models.EmployeeFolder) error {
	query := `
		INSERT INTO employee_folders (tenant_id, employee_email, employee_name, status, drive_folder_id, drive_folder_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		folder.TenantID,
		folder.EmployeeEmail,
		folder.EmployeeName,
		folder.Status,
		folder.DriveFolderID,
		folder.DriveFolderURL,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create folder record: %w", err)
	}

	return nil
}

// GetActiveByEmail retrieves the active folder record for an employee email.
// Returns (nil, nil) when no active record exists.
func (r *folderRepository) GetActiveByEmail(ctx context.Context, tenantID, email string) (*models.EmployeeFolder, error) {
	query := `
		SELECT id, tenant_id, employee_email, employee_name, status, drive_folder_id, drive_folder_url, created_at, updated_at
		FROM employee_folders
		WHERE tenant_id = $1 AND employee_email = $2 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`

	folder := &models.EmployeeFolder{}
	err := r.db.QueryRowContext(ctx, query, tenantID, email).Scan(
		&folder.ID,
		&folder.TenantID,
		&folder.EmployeeEmail,
		&folder.EmployeeName,
		&folder.Status,
		&folder.DriveFolderID,
		&folder.DriveFolderURL,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder by email: %w", err)
	}

	return folder, nil
}

// SetStatus updates the status flag of a folder record (soft delete path)
func (r *folderRepository) SetStatus(ctx context.Context, id int, status models.FolderStatus) error {
	query := `
		UPDATE employee_folders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update folder status: %w", err)
	}

	return nil
}

// Delete physically removes a folder record. Only the duplicate cleanup
// uses this; normal operation soft-deletes via SetStatus.
func (r *folderRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM employee_folders WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete folder record: %w", err)
	}

	return nil
}

// ListDuplicates returns all records whose employee email appears more than
// once, ordered by email and newest first within each email group
func (r *folderRepository) ListDuplicates(ctx context.Context) ([]*models.EmployeeFolder, error) {
	query := `
		SELECT id, tenant_id, employee_email, employee_name, status, drive_folder_id, drive_folder_url, created_at, updated_at
		FROM employee_folders
		WHERE employee_email IN (
			SELECT employee_email FROM employee_folders GROUP BY employee_email HAVING COUNT(*) > 1
		)
		ORDER BY employee_email, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicate folders: %w", err)
	}
	defer rows.Close()

	return scanFolders(rows)
}

// ListActive returns all active folder records for a tenant
func (r *folderRepository) ListActive(ctx context.Context, tenantID string) ([]*models.EmployeeFolder, error) {
	query := `
		SELECT id, tenant_id, employee_email, employee_name, status, drive_folder_id, drive_folder_url, created_at, updated_at
		FROM employee_folders
		WHERE tenant_id = $1 AND status = 'active'
		ORDER BY employee_email
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active folders: %w", err)
	}
	defer rows.Close()

	return scanFolders(rows)
}

func scanFolders(rows *sql.Rows) ([]*models.EmployeeFolder, error) {
	var folders []*models.EmployeeFolder
	for rows.Next() {
		folder := &models.EmployeeFolder{}
		err := rows.Scan(
			&folder.ID,
			&folder.TenantID,
			&folder.EmployeeEmail,
			&folder.EmployeeName,
			&folder.Status,
			&folder.DriveFolderID,
			&folder.DriveFolderURL,
			&folder.CreatedAt,
			&folder.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder row: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folder rows: %w", err)
	}

	return folders, nil
}
