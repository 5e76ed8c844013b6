package repository

import (
	"context"
	"database/sql"
	"fmt"

	"staffhub/internal/models"
)

type messageLogRepository struct {
	db *sql.DB
}

// NewMessageLogRepository creates a new message log repository
func NewMessageLogRepository(db *sql.DB) MessageLogRepository {
	return &messageLogRepository{db: db}
}

// CreateBatch inserts the delivery outcomes of a processed batch
func (r *messageLogRepository) CreateBatch(ctx context.Context, logs []*models.MessageLog) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO message_logs (tenant_id, batch_id, recipient, message_type, success, provider_message_id, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range logs {
		err := stmt.QueryRowContext(
			ctx,
			entry.TenantID,
			entry.BatchID,
			entry.Recipient,
			entry.MessageType,
			entry.Success,
			entry.ProviderMessageID,
			entry.LastError,
		).Scan(&entry.ID, &entry.CreatedAt)

		if err != nil {
			return fmt.Errorf("failed to create message log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
