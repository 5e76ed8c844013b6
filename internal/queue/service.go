// Package queue implements the per-tenant outbound message queue. Each
// tenant owns a FIFO of message batches drained by at most one goroutine
// at a time; the drain loop enforces batch sizing, inter-batch delays and
// the tenant's send ceilings.
package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"staffhub/internal/config"
	"staffhub/internal/models"
	"staffhub/internal/ratelimit"
	"staffhub/internal/repository"
)

// Sender sends a single message through the provider on behalf of a tenant
type Sender interface {
	Send(ctx context.Context, token, phoneNumber string, msg models.Message) (string, error)
}

// EventPublisher receives terminal batch outcomes. Optional; a nil
// publisher disables event emission.
type EventPublisher interface {
	PublishBatchResult(batch *models.MessageBatch) error
}

// Service owns all tenant queues. Queues and drain flags are fields of
// the service instance so tests and multi-instance deployments get
// isolated state.
type Service struct {
	cfg       config.QueueConfig
	tenants   repository.TenantRepository
	logs      repository.MessageLogRepository
	sender    Sender
	limiter   ratelimit.Limiter
	publisher EventPublisher

	mu       sync.Mutex
	queues   map[string][]*models.MessageBatch
	draining map[string]chan struct{}
	paused   map[string]bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewService creates a queue service. publisher may be nil.
func NewService(
	cfg config.QueueConfig,
	tenants repository.TenantRepository,
	logs repository.MessageLogRepository,
	sender Sender,
	limiter ratelimit.Limiter,
	publisher EventPublisher,
) *Service {
	return &Service{
		cfg:       cfg,
		tenants:   tenants,
		logs:      logs,
		sender:    sender,
		limiter:   limiter,
		publisher: publisher,
		queues:    make(map[string][]*models.MessageBatch),
		draining:  make(map[string]chan struct{}),
		paused:    make(map[string]bool),
		stop:      make(chan struct{}),
	}
}

// EnqueueResult is returned to the producer immediately
type EnqueueResult struct {
	BatchID     string `json:"batch_id"`
	QueueLength int    `json:"queue_length"`
}

// Enqueue appends a batch to the tenant's queue and starts a drain loop
// if none is running. It never performs external calls and never blocks
// on delivery.
func (s *Service) Enqueue(tenantID string, messages []models.Message, opts models.BatchOptions) (*EnqueueResult, error) {
	if tenantID == "" {
		return nil, &ValidationError{Message: "tenant id is required"}
	}
	if len(messages) == 0 {
		return nil, &ValidationError{Message: "at least one message required"}
	}
	for i := range messages {
		if err := messages[i].Validate(); err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("message %d: %v", i, err)}
		}
	}

	batch := &models.MessageBatch{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Messages:  messages,
		Options:   opts,
		Status:    models.BatchStatusQueued,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.queues[tenantID] = append(s.queues[tenantID], batch)
	length := len(s.queues[tenantID])
	s.mu.Unlock()

	s.maybeStartDrain(tenantID)

	return &EnqueueResult{BatchID: batch.ID, QueueLength: length}, nil
}

// maybeStartDrain launches a drain goroutine for the tenant unless one is
// already running or the queue is paused
func (s *Service) maybeStartDrain(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draining[tenantID] != nil || s.paused[tenantID] || len(s.queues[tenantID]) == 0 {
		return
	}

	select {
	case <-s.stop:
		return
	default:
	}

	done := make(chan struct{})
	s.draining[tenantID] = done
	go s.drain(tenantID, done)
}

// drain processes the tenant's queue head until the queue empties, the
// head batch is scheduled for the future, or the queue is paused
func (s *Service) drain(tenantID string, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.draining[tenantID] == done {
			delete(s.draining, tenantID)
		}
		s.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		s.mu.Lock()
		if s.paused[tenantID] {
			s.mu.Unlock()
			return
		}
		pending := s.queues[tenantID]
		if len(pending) == 0 {
			s.mu.Unlock()
			return
		}

		batch := pending[0]
		now := time.Now()
		if !batch.Ready(now) {
			// Strict head-of-line blocking: a future-scheduled head holds
			// back everything behind it. The loop exits and a timer
			// restarts it when the head comes due.
			wait := batch.Options.ScheduledTime.Sub(now)
			s.mu.Unlock()
			time.AfterFunc(wait, func() { s.maybeStartDrain(tenantID) })
			return
		}
		batch.Status = models.BatchStatusProcessing
		s.mu.Unlock()

		err := s.processBatch(batch)
		if err != nil {
			s.mu.Lock()
			batch.Retries++
			attempt := batch.Retries
			canRetry := batch.CanRetry(s.cfg.MaxRetries)
			if canRetry {
				batch.Status = models.BatchStatusQueued
			} else {
				batch.Status = models.BatchStatusFailed
			}
			s.mu.Unlock()

			if canRetry {
				log.Printf("Batch %s attempt %d failed, retrying: %v", batch.ID, attempt, err)
				if !s.sleep(time.Duration(attempt) * s.cfg.RetryDelay) {
					return
				}
			} else {
				log.Printf("Batch %s failed permanently after %d attempts: %v", batch.ID, attempt, err)
				s.removeHead(tenantID, batch)
				s.publishResult(batch)
			}
		} else {
			s.mu.Lock()
			batch.Status = models.BatchStatusCompleted
			s.mu.Unlock()
			s.removeHead(tenantID, batch)
			s.publishResult(batch)
		}

		// Inter-batch delay smooths load against the provider
		if !s.sleep(s.cfg.BatchDelay) {
			return
		}
	}
}

// processBatch resolves tenant configuration, checks ceilings and sends
// the batch in sub-batches. Per-message failures are recorded in the
// batch results; only configuration and ceiling violations fail the batch.
func (s *Service) processBatch(batch *models.MessageBatch) error {
	ctx := context.Background()

	settings, err := s.tenants.GetSettings(ctx, batch.TenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant settings: %w", err)
	}
	if settings == nil || !settings.Active {
		return &ConfigMissingError{TenantID: batch.TenantID}
	}

	if err := s.checkRateLimits(ctx, settings); err != nil {
		return err
	}

	// A retried batch resends everything, so previous partial results are discarded
	batch.Results = nil

	for start := 0; start < len(batch.Messages); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(batch.Messages) {
			end = len(batch.Messages)
		}

		sent := 0
		for _, msg := range batch.Messages[start:end] {
			result := models.MessageResult{To: msg.To}

			providerID, sendErr := s.sender.Send(ctx, settings.APIToken, settings.PhoneNumber, msg)
			if sendErr != nil {
				result.Error = sendErr.Error()
			} else {
				now := time.Now()
				result.Success = true
				result.MessageID = providerID
				result.SentAt = &now
				sent++
			}

			batch.Results = append(batch.Results, result)
		}

		if sent > 0 {
			if err := s.tenants.IncrementSent(ctx, batch.TenantID, sent); err != nil {
				log.Printf("Failed to update send counters for tenant %s: %v", batch.TenantID, err)
			}
			if err := s.limiter.Add(ctx, batch.TenantID, sent); err != nil {
				log.Printf("Failed to update velocity window for tenant %s: %v", batch.TenantID, err)
			}
		}

		if end < len(batch.Messages) {
			if !s.sleep(s.cfg.SubBatchDelay) {
				break
			}
		}
	}

	s.logResults(ctx, batch)
	return nil
}

// checkRateLimits raises a typed error when any ceiling is already reached
func (s *Service) checkRateLimits(ctx context.Context, settings *models.TenantSettings) error {
	if settings.SentToday >= settings.DailyLimit {
		return &RateLimitError{
			TenantID: settings.TenantID,
			Scope:    "daily",
			Limit:    settings.DailyLimit,
			Current:  int64(settings.SentToday),
		}
	}
	if settings.SentMonth >= settings.MonthlyLimit {
		return &RateLimitError{
			TenantID: settings.TenantID,
			Scope:    "monthly",
			Limit:    settings.MonthlyLimit,
			Current:  int64(settings.SentMonth),
		}
	}

	count, err := s.limiter.Count(ctx, settings.TenantID)
	if err != nil {
		return fmt.Errorf("failed to read velocity window: %w", err)
	}
	if count >= int64(s.cfg.WindowCap) {
		return &RateLimitError{
			TenantID: settings.TenantID,
			Scope:    "velocity",
			Limit:    s.cfg.WindowCap,
			Current:  count,
		}
	}

	return nil
}

// logResults persists per-message outcomes; failure to log never fails the batch
func (s *Service) logResults(ctx context.Context, batch *models.MessageBatch) {
	if s.logs == nil || len(batch.Results) == 0 {
		return
	}

	logs := make([]*models.MessageLog, 0, len(batch.Results))
	for i, result := range batch.Results {
		entry := &models.MessageLog{
			TenantID:    batch.TenantID,
			BatchID:     batch.ID,
			Recipient:   result.To,
			MessageType: string(batch.Messages[i].Type),
			Success:     result.Success,
		}
		if result.MessageID != "" {
			id := result.MessageID
			entry.ProviderMessageID = &id
		}
		if result.Error != "" {
			msg := result.Error
			entry.LastError = &msg
		}
		logs = append(logs, entry)
	}

	if err := s.logs.CreateBatch(ctx, logs); err != nil {
		log.Printf("Failed to persist message logs for batch %s: %v", batch.ID, err)
	}
}

// removeHead pops the batch from the queue head if it is still there
func (s *Service) removeHead(tenantID string, batch *models.MessageBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.queues[tenantID]
	if len(pending) > 0 && pending[0] == batch {
		s.queues[tenantID] = pending[1:]
	}
}

func (s *Service) publishResult(batch *models.MessageBatch) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBatchResult(batch); err != nil {
		log.Printf("Failed to publish delivery event for batch %s: %v", batch.ID, err)
	}
}

// sleep waits for d unless the service is shutting down
func (s *Service) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.stop:
		return false
	}
}

// BatchSummary is a read-only view of a queued batch
type BatchSummary struct {
	ID            string             `json:"id"`
	Status        models.BatchStatus `json:"status"`
	Messages      int                `json:"messages"`
	Retries       int                `json:"retries"`
	ScheduledTime *time.Time         `json:"scheduled_time,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// QueueStatus is a read-only snapshot of one tenant's queue
type QueueStatus struct {
	TenantID        string        `json:"tenant_id"`
	Length          int           `json:"length"`
	Processing      bool          `json:"processing"`
	Paused          bool          `json:"paused"`
	PendingMessages int           `json:"pending_messages"`
	NextBatch       *BatchSummary `json:"next_batch,omitempty"`
}

// GetQueueStatus returns a snapshot of the tenant's queue
func (s *Service) GetQueueStatus(tenantID string) *QueueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &QueueStatus{
		TenantID:   tenantID,
		Length:     len(s.queues[tenantID]),
		Processing: s.draining[tenantID] != nil,
		Paused:     s.paused[tenantID],
	}

	for _, batch := range s.queues[tenantID] {
		status.PendingMessages += len(batch.Messages)
	}

	if len(s.queues[tenantID]) > 0 {
		head := s.queues[tenantID][0]
		status.NextBatch = &BatchSummary{
			ID:            head.ID,
			Status:        head.Status,
			Messages:      len(head.Messages),
			Retries:       head.Retries,
			ScheduledTime: head.Options.ScheduledTime,
			CreatedAt:     head.CreatedAt,
		}
	}

	return status
}

// CancelBatch removes a batch that has not started processing
func (s *Service) CancelBatch(tenantID, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.queues[tenantID]
	for i, batch := range pending {
		if batch.ID != batchID {
			continue
		}
		if batch.Status == models.BatchStatusProcessing {
			return ErrBatchInFlight
		}
		s.queues[tenantID] = append(pending[:i], pending[i+1:]...)
		return nil
	}

	return ErrBatchNotFound
}

// PauseQueue stops draining the tenant's queue after the in-flight batch,
// if any, finishes
func (s *Service) PauseQueue(tenantID string) {
	s.mu.Lock()
	s.paused[tenantID] = true
	s.mu.Unlock()
}

// ResumeQueue re-enables and restarts draining
func (s *Service) ResumeQueue(tenantID string) {
	s.mu.Lock()
	delete(s.paused, tenantID)
	s.mu.Unlock()

	s.maybeStartDrain(tenantID)
}

// Cleanup drops queued batches older than maxAge that are not mid-processing
// and returns how many were removed
func (s *Service) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for tenantID, pending := range s.queues {
		kept := pending[:0]
		for _, batch := range pending {
			if batch.Status != models.BatchStatusProcessing && batch.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, batch)
		}
		s.queues[tenantID] = kept
	}

	return removed
}

// Wait blocks until the tenant's current drain pass finishes. Used by
// tests and shutdown paths that need deterministic completion.
func (s *Service) Wait(tenantID string) {
	for {
		s.mu.Lock()
		done := s.draining[tenantID]
		s.mu.Unlock()

		if done == nil {
			return
		}
		<-done
	}
}

// Shutdown stops all drain loops. In-flight sub-batches finish; queued
// batches stay in memory and are lost with the process.
func (s *Service) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	tenants := make([]string, 0, len(s.draining))
	for tenantID := range s.draining {
		tenants = append(tenants, tenantID)
	}
	s.mu.Unlock()

	for _, tenantID := range tenants {
		s.Wait(tenantID)
	}
}
