package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Team groups users for shared todos.
type Team struct {
	ID          uuid.UUID
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// TeamMember is one membership row joined with its display fields.
type TeamMember struct {
	ID          uuid.UUID
	TeamID      uuid.UUID
	UserID      string
	Email       string
	DisplayName string
	Role        string
	JoinedAt    time.Time
}

func (s *Store) CreateTeam(ctx context.Context, t *Team) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO teams (name, description) VALUES ($1, $2)
		RETURNING id, is_active, created_at`,
		t.Name, t.Description)
	if err := row.Scan(&t.ID, &t.IsActive, &t.CreatedAt); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// ListTeams returns the active teams the user belongs to.
func (s *Store) ListTeams(ctx context.Context, userID string) ([]Team, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.name, t.description, t.is_active, t.created_at
		FROM teams t
		JOIN team_memberships m ON m.team_id = t.id
		WHERE m.user_id = $1 AND t.is_active
		ORDER BY t.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// TeamByName resolves a team the user belongs to by its display name.
func (s *Store) TeamByName(ctx context.Context, userID, name string) (*Team, error) {
	var t Team
	row := s.pool.QueryRow(ctx, `
		SELECT t.id, t.name, t.description, t.is_active, t.created_at
		FROM teams t
		JOIN team_memberships m ON m.team_id = t.id
		WHERE m.user_id = $1 AND lower(t.name) = lower($2) AND t.is_active`,
		userID, name)
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.IsActive, &t.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Store) ListTeamMembers(ctx context.Context, teamID uuid.UUID) ([]TeamMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, team_id, user_id, email, display_name, role, joined_at
		FROM team_memberships WHERE team_id = $1 ORDER BY joined_at`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Email, &m.DisplayName, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) AddTeamMember(ctx context.Context, m *TeamMember) error {
	if m.Role == "" {
		m.Role = "member"
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO team_memberships (team_id, user_id, email, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id, user_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING id, joined_at`,
		m.TeamID, m.UserID, m.Email, m.DisplayName, m.Role)
	if err := row.Scan(&m.ID, &m.JoinedAt); err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (s *Store) RemoveTeamMember(ctx context.Context, teamID uuid.UUID, email string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM team_memberships WHERE team_id = $1 AND lower(email) = lower($2)`,
		teamID, email)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
