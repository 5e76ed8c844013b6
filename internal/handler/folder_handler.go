package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"staffhub/internal/folders"
)

// FolderHandler handles HTTP requests for employee folder operations
type FolderHandler struct {
	folderService *folders.Service
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService *folders.Service) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
	}
}

// CreateFolderRequest is the POST body for creating an employee folder
type CreateFolderRequest struct {
	TenantID      string `json:"tenant_id"`
	EmployeeEmail string `json:"employee_email"`
	EmployeeName  string `json:"employee_name,omitempty"`
}

// Create handles POST /folders
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if req.TenantID == "" || req.EmployeeEmail == "" {
		WriteValidationError(w, "tenant_id and employee_email are required")
		return
	}

	result, err := h.folderService.CreateFolder(r.Context(), req.TenantID, req.EmployeeEmail, req.EmployeeName)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	if result.Created {
		WriteCreated(w, result)
		return
	}
	WriteOK(w, result)
}

// BulkCreateRequest is the POST body for a bulk creation pass
type BulkCreateRequest struct {
	TenantID string `json:"tenant_id"`
}

// BulkCreate handles POST /folders/bulk
func (h *FolderHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if req.TenantID == "" {
		WriteValidationError(w, "tenant_id is required")
		return
	}

	result, err := h.folderService.CreateMissingFolders(r.Context(), req.TenantID)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// CleanupDuplicates handles POST /folders/cleanup
func (h *FolderHandler) CleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	result, err := h.folderService.CleanupDuplicates(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}
