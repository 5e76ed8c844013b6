package repository

import (
	"context"
	"database/sql"
	"fmt"

	"staffhub/internal/models"
)

type employeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

// GetByEmail retrieves an employee by email within a tenant
func (r *employeeRepository) GetByEmail(ctx context.Context, tenantID, email string) (*models.Employee, error) {
	query := `
		SELECT id, tenant_id, email, first_name, last_name, phone, created_at
		FROM employees
		WHERE tenant_id = $1 AND email = $2
	`

	employee := &models.Employee{}
	err := r.db.QueryRowContext(ctx, query, tenantID, email).Scan(
		&employee.ID,
		&employee.TenantID,
		&employee.Email,
		&employee.FirstName,
		&employee.LastName,
		&employee.Phone,
		&employee.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("employee not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return employee, nil
}

// ListWithoutFolder returns the tenant's employees that have no active folder record
func (r *employeeRepository) ListWithoutFolder(ctx context.Context, tenantID string) ([]*models.Employee, error) {
	query := `
		SELECT e.id, e.tenant_id, e.email, e.first_name, e.last_name, e.phone, e.created_at
		FROM employees e
		LEFT JOIN employee_folders f
			ON f.tenant_id = e.tenant_id AND f.employee_email = e.email AND f.status = 'active'
		WHERE e.tenant_id = $1 AND f.id IS NULL
		ORDER BY e.email
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees without folder: %w", err)
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		employee := &models.Employee{}
		err := rows.Scan(
			&employee.ID,
			&employee.TenantID,
			&employee.Email,
			&employee.FirstName,
			&employee.LastName,
			&employee.Phone,
			&employee.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee row: %w", err)
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employee rows: %w", err)
	}

	return employees, nil
}
