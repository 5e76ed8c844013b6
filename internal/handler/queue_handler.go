package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"staffhub/internal/models"
	"staffhub/internal/queue"
)

// QueueHandler handles HTTP requests for the tenant message queues
type QueueHandler struct {
	queueService *queue.Service
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queueService *queue.Service) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
	}
}

// EnqueueRequest is the POST body for enqueuing a batch
type EnqueueRequest struct {
	Messages []models.Message    `json:"messages"`
	Options  models.BatchOptions `json:"options"`
}

// Enqueue handles POST /tenants/{tenantId}/messages
func (h *QueueHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	result, err := h.queueService.Enqueue(tenantID, req.Messages, req.Options)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	// 202: the batch is queued, not yet delivered
	WriteAccepted(w, result)
}

// Status handles GET /tenants/{tenantId}/queue
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]
	WriteOK(w, h.queueService.GetQueueStatus(tenantID))
}

// Cancel handles DELETE /tenants/{tenantId}/queue/batches/{batchId}
func (h *QueueHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.queueService.CancelBatch(vars["tenantId"], vars["batchId"]); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]bool{"cancelled": true})
}

// Pause handles POST /tenants/{tenantId}/queue/pause
func (h *QueueHandler) Pause(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]
	h.queueService.PauseQueue(tenantID)
	WriteOK(w, h.queueService.GetQueueStatus(tenantID))
}

// Resume handles POST /tenants/{tenantId}/queue/resume
func (h *QueueHandler) Resume(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]
	h.queueService.ResumeQueue(tenantID)
	WriteOK(w, h.queueService.GetQueueStatus(tenantID))
}
