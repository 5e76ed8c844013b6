package models

import "time"

// BatchStatus represents valid batch statuses
type BatchStatus string

const (
	BatchStatusQueued     BatchStatus = "queued"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// BatchOptions holds optional enqueue parameters
type BatchOptions struct {
	Priority      int        `json:"priority,omitempty"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	CampaignID    string     `json:"campaign_id,omitempty"`
}

// MessageBatch is a group of outbound messages queued and processed together.
// A batch is mutated in place by the drain loop that owns its tenant queue.
type MessageBatch struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Messages  []Message       `json:"messages"`
	Options   BatchOptions    `json:"options"`
	Status    BatchStatus     `json:"status"`
	Retries   int             `json:"retries"`
	Results   []MessageResult `json:"results"`
	CreatedAt time.Time       `json:"created_at"`
}

// Ready reports whether the batch may be processed now.
// A batch with a future scheduled time is not ready and, being at the
// head of a FIFO queue, holds back everything behind it.
func (b *MessageBatch) Ready(now time.Time) bool {
	return b.Options.ScheduledTime == nil || !b.Options.ScheduledTime.After(now)
}

// CanRetry reports whether the batch may be re-queued after a failed
// attempt. maxRetries retries are allowed on top of the initial attempt.
func (b *MessageBatch) CanRetry(maxRetries int) bool {
	return b.Retries <= maxRetries
}

// SentCount returns the number of successful results so far
func (b *MessageBatch) SentCount() int {
	n := 0
	for _, r := range b.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failed results so far
func (b *MessageBatch) FailedCount() int {
	return len(b.Results) - b.SentCount()
}
