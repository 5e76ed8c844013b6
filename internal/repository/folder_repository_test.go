package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"staffhub/internal/models"
)

var folderColumns = []string{
	"id", "tenant_id", "employee_email", "employee_name", "status",
	"drive_folder_id", "drive_folder_url", "created_at", "updated_at",
}

func strPtr(s string) *string { return &s }

func TestCreateFolder(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employee_folders")).
		WithArgs("acme", "jane.doe@acme.example", "Jane Doe", models.FolderStatusActive, "drv-1", "https://drive.google.com/drive/folders/drv-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))

	repo := NewFolderRepository(db)
	folder := &models.EmployeeFolder{
		TenantID:       "acme",
		EmployeeEmail:  "jane.doe@acme.example",
		EmployeeName:   "Jane Doe",
		Status:         models.FolderStatusActive,
		DriveFolderID:  strPtr("drv-1"),
		DriveFolderURL: strPtr("https://drive.google.com/drive/folders/drv-1"),
	}

	if err := repo.Create(context.Background(), folder); err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if folder.ID != 7 {
		t.Errorf("Expected generated id 7 but got %d", folder.ID)
	}

	expectationsMet(t, mock)
}

func TestGetActiveByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM employee_folders")).
		WithArgs("acme", "jane.doe@acme.example").
		WillReturnRows(sqlmock.NewRows(folderColumns).
			AddRow(7, "acme", "jane.doe@acme.example", "Jane Doe", "active", "drv-1", "https://drive.google.com/drive/folders/drv-1", now, now))

	repo := NewFolderRepository(db)
	folder, err := repo.GetActiveByEmail(context.Background(), "acme", "jane.doe@acme.example")
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if folder == nil {
		t.Fatal("Expected folder but got nil")
	}
	if !folder.IsActive() {
		t.Errorf("Expected active folder but got status %q", folder.Status)
	}
	if folder.DriveFolderID == nil || *folder.DriveFolderID != "drv-1" {
		t.Errorf("Expected drive folder id drv-1 but got %v", folder.DriveFolderID)
	}

	expectationsMet(t, mock)
}

func TestGetActiveByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM employee_folders")).
		WithArgs("acme", "nobody@acme.example").
		WillReturnError(sql.ErrNoRows)

	repo := NewFolderRepository(db)
	folder, err := repo.GetActiveByEmail(context.Background(), "acme", "nobody@acme.example")
	if err != nil {
		t.Fatalf("Expected no error for missing folder but got: %v", err)
	}
	if folder != nil {
		t.Errorf("Expected nil folder but got %+v", folder)
	}

	expectationsMet(t, mock)
}

func TestListDuplicates(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("HAVING COUNT(*) > 1")).
		WillReturnRows(sqlmock.NewRows(folderColumns).
			AddRow(9, "acme", "jane.doe@acme.example", "Jane Doe", "active", "drv-9", "https://drive.google.com/drive/folders/drv-9", now, now).
			AddRow(7, "acme", "jane.doe@acme.example", "Jane Doe", "active", "drv-7", "https://drive.google.com/drive/folders/drv-7", now.Add(-time.Hour), now))

	repo := NewFolderRepository(db)
	folders, err := repo.ListDuplicates(context.Background())
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("Expected 2 duplicate records but got %d", len(folders))
	}
	if folders[0].ID != 9 {
		t.Errorf("Expected newest record first (id 9) but got %d", folders[0].ID)
	}

	expectationsMet(t, mock)
}

func TestSetStatus(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE employee_folders")).
		WithArgs(7, models.FolderStatusDeleted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewFolderRepository(db)
	if err := repo.SetStatus(context.Background(), 7, models.FolderStatusDeleted); err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	expectationsMet(t, mock)
}

func TestListWithoutFolder(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	columns := []string{"id", "tenant_id", "email", "first_name", "last_name", "phone", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN employee_folders")).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "acme", "john.smith@acme.example", "John", "Smith", "15550004444", time.Now()))

	repo := NewEmployeeRepository(db)
	employees, err := repo.ListWithoutFolder(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if len(employees) != 1 {
		t.Fatalf("Expected 1 employee but got %d", len(employees))
	}
	if employees[0].Email != "john.smith@acme.example" {
		t.Errorf("Unexpected employee email %q", employees[0].Email)
	}

	expectationsMet(t, mock)
}

func TestCreateLogBatch(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO message_logs"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO message_logs")).
		WithArgs("acme", "batch-1", "15550003333", "text", true, "wamid.1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO message_logs")).
		WithArgs("acme", "batch-1", "15550004444", "text", false, nil, "gateway rejected recipient").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(2, time.Now()))
	mock.ExpectCommit()

	id := "wamid.1"
	errMsg := "gateway rejected recipient"
	logs := []*models.MessageLog{
		{TenantID: "acme", BatchID: "batch-1", Recipient: "15550003333", MessageType: "text", Success: true, ProviderMessageID: &id},
		{TenantID: "acme", BatchID: "batch-1", Recipient: "15550004444", MessageType: "text", Success: false, LastError: &errMsg},
	}

	repo := NewMessageLogRepository(db)
	if err := repo.CreateBatch(context.Background(), logs); err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if logs[0].ID != 1 || logs[1].ID != 2 {
		t.Errorf("Expected generated ids 1 and 2 but got %d and %d", logs[0].ID, logs[1].ID)
	}

	expectationsMet(t, mock)
}
