package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"staffhub/internal/config"
	"staffhub/internal/drive"
	"staffhub/internal/folders"
	"staffhub/internal/lock"
	"staffhub/internal/models"
	"staffhub/internal/queue"
)

// Repository and client stubs. Handler tests exercise routing, decoding and
// error mapping; service behavior is covered by the service packages.

type stubTenantRepo struct{}

func (s *stubTenantRepo) GetSettings(ctx context.Context, tenantID string) (*models.TenantSettings, error) {
	return &models.TenantSettings{
		TenantID:     tenantID,
		CompanyName:  "Acme Corp",
		APIToken:     "token",
		PhoneNumber:  "15550001111",
		DailyLimit:   1000,
		MonthlyLimit: 10000,
		Active:       true,
	}, nil
}
func (s *stubTenantRepo) IncrementSent(ctx context.Context, tenantID string, count int) error {
	return nil
}
func (s *stubTenantRepo) ResetDailyCounters(ctx context.Context) (int64, error)   { return 0, nil }
func (s *stubTenantRepo) ResetMonthlyCounters(ctx context.Context) (int64, error) { return 0, nil }

type stubFolderRepo struct {
	nextID  int
	records []*models.EmployeeFolder
}

func (s *stubFolderRepo) Create(ctx context.Context, folder *models.EmployeeFolder) error {
	s.nextID++
	folder.ID = s.nextID
	folder.CreatedAt = time.Now()
	copied := *folder
	s.records = append(s.records, &copied)
	return nil
}

func (s *stubFolderRepo) GetActiveByEmail(ctx context.Context, tenantID, email string) (*models.EmployeeFolder, error) {
	for _, record := range s.records {
		if record.TenantID == tenantID && record.EmployeeEmail == email && record.IsActive() {
			return record, nil
		}
	}
	return nil, nil
}

func (s *stubFolderRepo) SetStatus(ctx context.Context, id int, status models.FolderStatus) error {
	return nil
}
func (s *stubFolderRepo) Delete(ctx context.Context, id int) error { return nil }
func (s *stubFolderRepo) ListDuplicates(ctx context.Context) ([]*models.EmployeeFolder, error) {
	return nil, nil
}
func (s *stubFolderRepo) ListActive(ctx context.Context, tenantID string) ([]*models.EmployeeFolder, error) {
	return s.records, nil
}

type stubEmployeeRepo struct{}

func (s *stubEmployeeRepo) GetByEmail(ctx context.Context, tenantID, email string) (*models.Employee, error) {
	return nil, fmt.Errorf("employee not found")
}
func (s *stubEmployeeRepo) ListWithoutFolder(ctx context.Context, tenantID string) ([]*models.Employee, error) {
	return nil, nil
}

type stubStorage struct {
	nextID int
}

func (s *stubStorage) CreateFolder(ctx context.Context, name, parentID string) (*drive.Folder, error) {
	s.nextID++
	id := fmt.Sprintf("drv-%d", s.nextID)
	return &drive.Folder{ID: id, Name: name, URL: "https://drive.google.com/drive/folders/" + id}, nil
}
func (s *stubStorage) EnsureFolder(ctx context.Context, name, parentID string) (*drive.Folder, error) {
	return s.CreateFolder(ctx, name, parentID)
}
func (s *stubStorage) FindFolder(ctx context.Context, name, parentID string) (*drive.Folder, error) {
	return nil, nil
}
func (s *stubStorage) DeleteFile(ctx context.Context, id string) error { return nil }

type stubLogRepo struct{}

func (s *stubLogRepo) CreateBatch(ctx context.Context, logs []*models.MessageLog) error { return nil }

type stubSender struct{}

func (s *stubSender) Send(ctx context.Context, token, phoneNumber string, msg models.Message) (string, error) {
	return "wamid.stub", nil
}

type stubLimiter struct{}

func (s *stubLimiter) Count(ctx context.Context, tenantID string) (int64, error) { return 0, nil }
func (s *stubLimiter) Add(ctx context.Context, tenantID string, n int) error     { return nil }

func newTestRouter(t *testing.T) (*mux.Router, *queue.Service) {
	t.Helper()

	cfg := config.QueueConfig{
		BatchSize:     10,
		MaxRetries:    3,
		WindowCap:     20,
		WindowSize:    time.Minute,
		LockTimeout:   time.Second,
		CleanupMaxAge: 24 * time.Hour,
	}

	queueSvc := queue.NewService(cfg, &stubTenantRepo{}, &stubLogRepo{}, &stubSender{}, &stubLimiter{}, nil)
	t.Cleanup(queueSvc.Shutdown)

	folderSvc := folders.NewService(
		&stubFolderRepo{}, &stubEmployeeRepo{}, &stubTenantRepo{},
		&stubStorage{}, lock.NewMemoryLocker(), time.Second,
	)

	queueHandler := NewQueueHandler(queueSvc)
	folderHandler := NewFolderHandler(folderSvc)

	router := mux.NewRouter()
	router.HandleFunc("/tenants/{tenantId}/messages", queueHandler.Enqueue).Methods("POST")
	router.HandleFunc("/tenants/{tenantId}/queue", queueHandler.Status).Methods("GET")
	router.HandleFunc("/tenants/{tenantId}/queue/pause", queueHandler.Pause).Methods("POST")
	router.HandleFunc("/tenants/{tenantId}/queue/resume", queueHandler.Resume).Methods("POST")
	router.HandleFunc("/tenants/{tenantId}/queue/batches/{batchId}", queueHandler.Cancel).Methods("DELETE")
	router.HandleFunc("/folders", folderHandler.Create).Methods("POST")
	router.HandleFunc("/folders/bulk", folderHandler.BulkCreate).Methods("POST")
	router.HandleFunc("/folders/cleanup", folderHandler.CleanupDuplicates).Methods("POST")

	return router, queueSvc
}

func newJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return errResp
}

func TestEnqueueAccepted(t *testing.T) {
	router, queueSvc := newTestRouter(t)
	queueSvc.PauseQueue("acme")

	body := map[string]interface{}{
		"messages": []map[string]string{
			{"to": "15550003333", "type": "text", "body": "hello"},
		},
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, newJSONRequest(t, "POST", "/tenants/acme/messages", body))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202 but got %d: %s", resp.Code, resp.Body.String())
	}

	var result queue.EnqueueResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.BatchID == "" {
		t.Error("Expected a batch id in the response")
	}
	if result.QueueLength != 1 {
		t.Errorf("Expected queue length 1 but got %d", result.QueueLength)
	}
}

func TestEnqueueInvalidMessage(t *testing.T) {
	router, _ := newTestRouter(t)

	body := map[string]interface{}{
		"messages": []map[string]string{
			{"to": "15550003333", "type": "text"}, // missing body
		},
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, newJSONRequest(t, "POST", "/tenants/acme/messages", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 but got %d", resp.Code)
	}
	errResp := decodeError(t, resp)
	if errResp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR but got %q", errResp.Error.Code)
	}
}

func TestEnqueueEmptyBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/tenants/acme/messages", bytes.NewReader(nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 but got %d", resp.Code)
	}
	errResp := decodeError(t, resp)
	if errResp.Error.Code != "INVALID_JSON" {
		t.Errorf("Expected INVALID_JSON but got %q", errResp.Error.Code)
	}
}

func TestQueueStatusAndCancel(t *testing.T) {
	router, queueSvc := newTestRouter(t)
	queueSvc.PauseQueue("acme")

	body := map[string]interface{}{
		"messages": []map[string]string{
			{"to": "15550003333", "type": "text", "body": "hello"},
		},
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, newJSONRequest(t, "POST", "/tenants/acme/messages", body))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202 but got %d", resp.Code)
	}
	var enqueued queue.EnqueueResult
	if err := json.NewDecoder(resp.Body).Decode(&enqueued); err != nil {
		t.Fatalf("Failed to decode enqueue response: %v", err)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest("GET", "/tenants/acme/queue", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 but got %d", resp.Code)
	}
	var status queue.QueueStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode status response: %v", err)
	}
	if status.Length != 1 || !status.Paused {
		t.Errorf("Expected paused queue of length 1 but got %+v", status)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest("DELETE", "/tenants/acme/queue/batches/"+enqueued.BatchID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 but got %d", resp.Code)
	}

	// Second cancel finds nothing
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest("DELETE", "/tenants/acme/queue/batches/"+enqueued.BatchID, nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404 but got %d", resp.Code)
	}
	errResp := decodeError(t, resp)
	if errResp.Error.Code != "BATCH_NOT_FOUND" {
		t.Errorf("Expected BATCH_NOT_FOUND but got %q", errResp.Error.Code)
	}
}

func TestCreateFolderEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	body := CreateFolderRequest{
		TenantID:      "acme",
		EmployeeEmail: "jane.doe@acme.example",
		EmployeeName:  "Jane Doe",
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, newJSONRequest(t, "POST", "/folders", body))
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 but got %d: %s", resp.Code, resp.Body.String())
	}
	var result folders.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !result.Created || result.Folder == nil {
		t.Errorf("Expected created folder but got %+v", result)
	}

	// Same request again hits the existing record and returns 200
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, newJSONRequest(t, "POST", "/folders", body))
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for existing folder but got %d", resp.Code)
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !result.Existing {
		t.Errorf("Expected existing folder but got %+v", result)
	}
}

func TestCreateFolderMissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, newJSONRequest(t, "POST", "/folders", CreateFolderRequest{TenantID: "acme"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 but got %d", resp.Code)
	}
	errResp := decodeError(t, resp)
	if errResp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR but got %q", errResp.Error.Code)
	}
}
