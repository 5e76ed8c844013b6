package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMockDB creates a sqlmock-backed database handle
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	return db, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}

func TestGetSettings(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	columns := []string{
		"tenant_id", "company_name", "api_token", "phone_number",
		"daily_limit", "monthly_limit", "sent_today", "sent_month", "active", "updated_at",
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM tenant_messaging_settings")).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("acme", "Acme Corp", "token-1", "15550001111", 1000, 10000, 42, 310, true, time.Now()))

	repo := NewTenantRepository(db)
	settings, err := repo.GetSettings(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if settings == nil {
		t.Fatal("Expected settings but got nil")
	}
	if settings.CompanyName != "Acme Corp" {
		t.Errorf("Expected company name %q but got %q", "Acme Corp", settings.CompanyName)
	}
	if settings.SentToday != 42 {
		t.Errorf("Expected sent_today 42 but got %d", settings.SentToday)
	}
	if !settings.Active {
		t.Error("Expected settings to be active")
	}

	expectationsMet(t, mock)
}

func TestGetSettingsMissingTenant(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM tenant_messaging_settings")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	repo := NewTenantRepository(db)
	settings, err := repo.GetSettings(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Expected no error for missing tenant but got: %v", err)
	}
	if settings != nil {
		t.Errorf("Expected nil settings for missing tenant but got %+v", settings)
	}

	expectationsMet(t, mock)
}

func TestIncrementSent(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tenant_messaging_settings")).
		WithArgs("acme", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewTenantRepository(db)
	if err := repo.IncrementSent(context.Background(), "acme", 5); err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	expectationsMet(t, mock)
}

func TestIncrementSentMissingTenant(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tenant_messaging_settings")).
		WithArgs("ghost", 5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTenantRepository(db)
	err := repo.IncrementSent(context.Background(), "ghost", 5)
	if err == nil {
		t.Fatal("Expected error for missing tenant but got nil")
	}

	expectationsMet(t, mock)
}

func TestResetDailyCounters(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SET sent_today = 0")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewTenantRepository(db)
	rows, err := repo.ResetDailyCounters(context.Background())
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if rows != 3 {
		t.Errorf("Expected 3 rows reset but got %d", rows)
	}

	expectationsMet(t, mock)
}

func TestResetMonthlyCounters(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SET sent_month = 0")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewTenantRepository(db)
	rows, err := repo.ResetMonthlyCounters(context.Background())
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if rows != 2 {
		t.Errorf("Expected 2 rows reset but got %d", rows)
	}

	expectationsMet(t, mock)
}
