package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CalendarEvent is a scheduled block of time on the user's calendar.
type CalendarEvent struct {
	ID          uuid.UUID
	UserID      string
	Title       string
	Description string
	From        time.Time
	To          time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Store) CreateCalendarEvent(ctx context.Context, e *CalendarEvent) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO calendar_events (user_id, title, description, event_from, event_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		e.UserID, e.Title, e.Description, e.From, e.To)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// ListCalendarEvents returns the user's events ordered by start time.
func (s *Store) ListCalendarEvents(ctx context.Context, userID string) ([]CalendarEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, description, event_from, event_to, created_at, updated_at
		FROM calendar_events WHERE user_id = $1 ORDER BY event_from`, userID)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	var events []CalendarEvent
	for rows.Next() {
		var e CalendarEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Description,
			&e.From, &e.To, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CalendarEventUpdate carries the fields update_calendar_event may change.
type CalendarEventUpdate struct {
	Title       *string
	Description *string
	From        *time.Time
	To          *time.Time
}

func (s *Store) UpdateCalendarEvent(ctx context.Context, userID string, id uuid.UUID, u CalendarEventUpdate) (*CalendarEvent, error) {
	var e CalendarEvent
	row := s.pool.QueryRow(ctx, `
		UPDATE calendar_events SET
			title       = COALESCE($3, title),
			description = COALESCE($4, description),
			event_from  = COALESCE($5, event_from),
			event_to    = COALESCE($6, event_to),
			updated_at  = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, description, event_from, event_to, created_at, updated_at`,
		id, userID, u.Title, u.Description, u.From, u.To)
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Description,
		&e.From, &e.To, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *Store) DeleteCalendarEvent(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
