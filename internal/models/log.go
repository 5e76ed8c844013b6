package models

import "time"

// MessageLog is the persisted outcome of a single send attempt
type MessageLog struct {
	ID                int       `json:"id" db:"id"`
	TenantID          string    `json:"tenant_id" db:"tenant_id"`
	BatchID           string    `json:"batch_id" db:"batch_id"`
	Recipient         string    `json:"recipient" db:"recipient"`
	MessageType       string    `json:"message_type" db:"message_type"`
	Success           bool      `json:"success" db:"success"`
	ProviderMessageID *string   `json:"provider_message_id,omitempty" db:"provider_message_id"`
	LastError         *string   `json:"last_error,omitempty" db:"last_error"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
