package models

import (
	"fmt"
	"time"
)

// MessageType represents valid outbound message types
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeDocument MessageType = "document"
)

// Message represents a single outbound message inside a batch
type Message struct {
	To       string      `json:"to"`
	Type     MessageType `json:"type"`
	Body     string      `json:"body,omitempty"`
	MediaURL string      `json:"media_url,omitempty"`
	Filename string      `json:"filename,omitempty"`
}

// Validate checks if the message fields are valid
func (m *Message) Validate() error {
	if m.To == "" {
		return fmt.Errorf("recipient is required")
	}
	switch m.Type {
	case MessageTypeText:
		if m.Body == "" {
			return fmt.Errorf("body is required for text messages")
		}
	case MessageTypeImage, MessageTypeDocument:
		if m.MediaURL == "" {
			return fmt.Errorf("media_url is required for %s messages", m.Type)
		}
	default:
		return fmt.Errorf("invalid type: must be 'text', 'image' or 'document'")
	}
	return nil
}

// MessageResult records the outcome of a single send attempt
type MessageResult struct {
	To        string     `json:"to"`
	Success   bool       `json:"success"`
	MessageID string     `json:"message_id,omitempty"`
	Error     string     `json:"error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}
