// Package events publishes batch delivery events to RabbitMQ so downstream
// consumers (audit trail, notification fan-out) can react without polling.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"staffhub/internal/models"
)

// DeliveryEvent is emitted once per batch reaching a terminal status
type DeliveryEvent struct {
	EventID    string             `json:"event_id"`
	BatchID    string             `json:"batch_id"`
	TenantID   string             `json:"tenant_id"`
	CampaignID string             `json:"campaign_id,omitempty"`
	Status     models.BatchStatus `json:"status"`
	Sent       int                `json:"sent"`
	Failed     int                `json:"failed"`
	Retries    int                `json:"retries"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// Publisher publishes delivery events to a durable queue
type Publisher struct {
	conn      *Connection
	queueName string
}

// NewPublisher declares the queue and returns a publisher
func NewPublisher(conn *Connection, queueName string) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Publisher{
		conn:      conn,
		queueName: queueName,
	}, nil
}

// PublishBatchResult builds and publishes the delivery event for a terminal batch
func (p *Publisher) PublishBatchResult(batch *models.MessageBatch) error {
	event := DeliveryEvent{
		EventID:    uuid.New().String(),
		BatchID:    batch.ID,
		TenantID:   batch.TenantID,
		CampaignID: batch.Options.CampaignID,
		Status:     batch.Status,
		Sent:       batch.SentCount(),
		Failed:     batch.FailedCount(),
		Retries:    batch.Retries,
		OccurredAt: time.Now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery event: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	err = ch.Publish(
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish delivery event: %w", err)
	}

	return nil
}
