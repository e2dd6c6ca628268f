package repository

import (
	"context"

	"github.com/rongwang/property-rental-server/internal/models"
)

func (r *SQLRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (sender_user_id, receiver_user_id, subject, body, message_datetime, status_id, row_version)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		RETURNING id
	`
	id, err := r.insertReturningID(ctx, query,
		m.SenderUserID, m.ReceiverUserID, m.Subject, m.Body, m.MessageDateTime, m.StatusID)
	if err != nil {
		return err
	}
	m.ID = id
	m.RowVersion = 1
	return nil
}

func (r *SQLRepository) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	var message models.Message
	found, err := r.get(ctx, &message, `SELECT * FROM messages WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &message, nil
}

// ListMessagesForUser returns messages sent or received by userID, newest first.
func (r *SQLRepository) ListMessagesForUser(ctx context.Context, userID int64) ([]models.Message, error) {
	query := `
		SELECT * FROM messages
		WHERE sender_user_id = ? OR receiver_user_id = ?
		ORDER BY message_datetime DESC, id DESC
	`
	messages := []models.Message{}
	if err := r.db.SelectContext(ctx, &messages, r.db.Rebind(query), userID, userID); err != nil {
		return nil, err
	}
	return messages, nil
}

// UpdateMessageStatus persists m.StatusID when m.RowVersion is current.
func (r *SQLRepository) UpdateMessageStatus(ctx context.Context, m *models.Message) error {
	query := `
		UPDATE messages
		SET status_id = ?, row_version = row_version + 1
		WHERE id = ? AND row_version = ?
	`
	if err := r.execVersioned(ctx, "messages", "id", m.ID, query, m.StatusID, m.ID, m.RowVersion); err != nil {
		return err
	}
	m.RowVersion++
	return nil
}
