package db

import (
	"context"
	"fmt"
	"time"
)

// Delivery outcomes stored with each contact message.
const (
	MessageSuccess = "success"
	MessageFailed  = "failed"
)

// Message is one contact form submission and how its delivery went.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertMessage stores a submission. A zero CreatedAt means now.
func (d *DB) InsertMessage(ctx context.Context, m Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := d.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, message, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, m.Status, m.Error, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting contact message: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit submissions, newest first.
func (d *DB) RecentMessages(ctx context.Context, limit int) ([]Message, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, name, email, subject, message, status, error, created_at
		FROM contact_messages
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying contact messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var created sqlTime
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Status, &m.Error, &created); err != nil {
			return nil, fmt.Errorf("scanning contact message: %w", err)
		}
		m.CreatedAt = created.Time
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountMessages returns the number of stored submissions and how many of
// them failed delivery.
func (d *DB) CountMessages(ctx context.Context) (total, failed int64, err error) {
	err = d.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM contact_messages`, MessageFailed).Scan(&total, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("counting contact messages: %w", err)
	}
	return total, failed, nil
}
