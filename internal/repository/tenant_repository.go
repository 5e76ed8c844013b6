package repository

import (
	"context"
	"database/sql"
	"fmt"

	"staffhub/internal/models"
)

type tenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *sql.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// GetSettings retrieves the messaging settings row for a tenant.
// Returns (nil, nil) when the tenant has no settings row.
func (r *tenantRepository) GetSettings(ctx context.Context, tenantID string) (*models.TenantSettings, error) {
	query := `
		SELECT tenant_id, company_name, api_token, phone_number,
		       daily_limit, monthly_limit, sent_today, sent_month, active, updated_at
		FROM tenant_messaging_settings
		WHERE tenant_id = $1
	`

	settings := &models.TenantSettings{}
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&settings.TenantID,
		&settings.CompanyName,
		&settings.APIToken,
		&settings.PhoneNumber,
		&settings.DailyLimit,
		&settings.MonthlyLimit,
		&settings.SentToday,
		&settings.SentMonth,
		&settings.Active,
		&settings.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant settings: %w", err)
	}

	return settings, nil
}

// IncrementSent adds count to the daily and monthly send counters
func (r *tenantRepository) IncrementSent(ctx context.Context, tenantID string, count int) error {
	query := `
		UPDATE tenant_messaging_settings
		SET sent_today = sent_today + $2,
			sent_month = sent_month + $2,
			updated_at = NOW()
		WHERE tenant_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, count)
	if err != nil {
		return fmt.Errorf("failed to increment send counters: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no settings row for tenant %s", tenantID)
	}

	return nil
}

// ResetDailyCounters zeroes sent_today for all tenants
func (r *tenantRepository) ResetDailyCounters(ctx context.Context) (int64, error) {
	query := `UPDATE tenant_messaging_settings SET sent_today = 0, updated_at = NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily counters: %w", err)
	}

	return result.RowsAffected()
}

// ResetMonthlyCounters zeroes sent_month for all tenants
func (r *tenantRepository) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	query := `UPDATE tenant_messaging_settings SET sent_month = 0, updated_at = NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reset monthly counters: %w", err)
	}

	return result.RowsAffected()
}
