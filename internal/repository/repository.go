package repository

import (
	"context"
	"database/sql"

	"staffhub/internal/models"
)

// TenantRepository defines tenant messaging settings data access operations
type TenantRepository interface {
	GetSettings(ctx context.Context, tenantID string) (*models.TenantSettings, error)
	IncrementSent(ctx context.Context, tenantID string, count int) error
	ResetDailyCounters(ctx context.Context) (int64, error)
	ResetMonthlyCounters(ctx context.Context) (int64, error)
}

// FolderRepository defines employee folder data access operations
type FolderRepository interface {
	Create(ctx context.Context, folder *models.EmployeeFolder) error
	GetActiveByEmail(ctx context.Context, tenantID, email string) (*models.EmployeeFolder, error)
	SetStatus(ctx context.Context, id int, status models.FolderStatus) error
	Delete(ctx context.Context, id int) error
	ListDuplicates(ctx context.Context) ([]*models.EmployeeFolder, error)
	ListActive(ctx context.Context, tenantID string) ([]*models.EmployeeFolder, error)
}

// EmployeeRepository defines employee data access operations
type EmployeeRepository interface {
	GetByEmail(ctx context.Context, tenantID, email string) (*models.Employee, error)
	ListWithoutFolder(ctx context.Context, tenantID string) ([]*models.Employee, error)
}

// MessageLogRepository defines message delivery log data access operations
type MessageLogRepository interface {
	CreateBatch(ctx context.Context, logs []*models.MessageLog) error
}

// DB is a wrapper around *sql.DB to allow passing in transaction
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
