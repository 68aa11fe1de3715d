package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority orders work items. The same scale is used for reminder
// importance; the assistant prompt exposes both with identical wording.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority normalizes free-form model output into a Priority,
// defaulting to medium for anything unrecognized.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	case PriorityUrgent:
		return PriorityUrgent
	default:
		return PriorityMedium
	}
}

// Todo is a single work item owned by a user, optionally assigned to a
// team member.
type Todo struct {
	ID          uuid.UUID
	UserID      string
	Title       string
	Description string
	Completed   bool
	Priority    Priority
	DueDate     *time.Time
	TeamID      *uuid.UUID
	AssigneeID  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateTodo inserts a todo. A nil due date defaults to the time of
// creation so "remind me to X" without a date still sorts sensibly.
func (s *Store) CreateTodo(ctx context.Context, t *Todo) error {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.DueDate == nil {
		now := time.Now().UTC()
		t.DueDate = &now
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO todos (user_id, title, description, priority, due_date, team_id, assignee_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, completed, created_at, updated_at`,
		t.UserID, t.Title, t.Description, t.Priority, t.DueDate, t.TeamID, t.AssigneeID)
	if err := row.Scan(&t.ID, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

// ListTodos returns the user's todos, newest first.
func (s *Store) ListTodos(ctx context.Context, userID string) ([]Todo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, description, completed, priority, due_date,
		       team_id, assignee_id, created_at, updated_at
		FROM todos WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []Todo
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed,
			&t.Priority, &t.DueDate, &t.TeamID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// CompleteTodo marks a todo done.
func (s *Store) CompleteTodo(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE todos SET completed = TRUE, updated_at = now()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("complete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TodoUpdate carries the fields update_todo may change. Nil means leave
// the column alone.
type TodoUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
	DueDate     *time.Time
}

// UpdateTodo applies a partial update and returns the new row.
func (s *Store) UpdateTodo(ctx context.Context, userID string, id uuid.UUID, u TodoUpdate) (*Todo, error) {
	var t Todo
	row := s.pool.QueryRow(ctx, `
		UPDATE todos SET
			title       = COALESCE($3, title),
			description = COALESCE($4, description),
			completed   = COALESCE($5, completed),
			priority    = COALESCE($6, priority),
			due_date    = COALESCE($7, due_date),
			updated_at  = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, description, completed, priority, due_date,
		          team_id, assignee_id, created_at, updated_at`,
		id, userID, u.Title, u.Description, u.Completed, u.Priority, u.DueDate)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed,
		&t.Priority, &t.DueDate, &t.TeamID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// DeleteTodo removes a todo owned by the user.
func (s *Store) DeleteTodo(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
