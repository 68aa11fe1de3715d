package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reminder is a timed note. Importance reuses the todo Priority scale.
type Reminder struct {
	ID           uuid.UUID
	UserID       string
	Text         string
	Importance   Priority
	ReminderDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Store) CreateReminder(ctx context.Context, r *Reminder) error {
	if r.Importance == "" {
		r.Importance = PriorityMedium
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO reminders (user_id, reminder_text, importance, reminder_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		r.UserID, r.Text, r.Importance, r.ReminderDate)
	if err := row.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

func (s *Store) ListReminders(ctx context.Context, userID string) ([]Reminder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, reminder_text, importance, reminder_date, created_at, updated_at
		FROM reminders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.UserID, &r.Text, &r.Importance,
			&r.ReminderDate, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// ReminderUpdate carries the fields update_reminder may change.
type ReminderUpdate struct {
	Text         *string
	Importance   *Priority
	ReminderDate *time.Time
}

func (s *Store) UpdateReminder(ctx context.Context, userID string, id uuid.UUID, u ReminderUpdate) (*Reminder, error) {
	var r Reminder
	row := s.pool.QueryRow(ctx, `
		UPDATE reminders SET
			reminder_text = COALESCE($3, reminder_text),
			importance    = COALESCE($4, importance),
			reminder_date = COALESCE($5, reminder_date),
			updated_at    = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, reminder_text, importance, reminder_date, created_at, updated_at`,
		id, userID, u.Text, u.Importance, u.ReminderDate)
	if err := row.Scan(&r.ID, &r.UserID, &r.Text, &r.Importance,
		&r.ReminderDate, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Store) DeleteReminder(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
