package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/convonet/assistant/pkg/core/types"
	"github.com/convonet/assistant/pkg/store"
)

// TeamSource contributes the team collaboration tools.
type TeamSource struct {
	Store *store.Store
}

func (s TeamSource) Name() string { return "teams" }

func (s TeamSource) Executors(context.Context) ([]Executor, error) {
	return []Executor{
		getTeamsTool{st: s.Store},
		getTeamMembersTool{st: s.Store},
		createTeamTool{st: s.Store},
		addTeamMemberTool{st: s.Store},
		removeTeamMemberTool{st: s.Store},
		createTeamTodoTool{st: s.Store},
	}, nil
}

type getTeamsTool struct{ st *store.Store }

func (getTeamsTool) Name() string { return "get_teams" }

func (getTeamsTool) Definition() types.Tool {
	return types.Tool{
		Name:        "get_teams",
		Description: "List the teams the user belongs to.",
		InputSchema: types.ObjectSchema(nil),
	}
}

func (t getTeamsTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	teams, err := t.st.ListTeams(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(teams) == 0 {
		return "You are not a member of any team.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You belong to %d teams:\n", len(teams))
	for _, tm := range teams {
		fmt.Fprintf(&b, "- %s (id %s)", tm.Name, tm.ID)
		if tm.Description != "" {
			fmt.Fprintf(&b, ": %s", tm.Description)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

type getTeamMembersTool struct{ st *store.Store }

func (getTeamMembersTool) Name() string { return "get_team_members" }

func (getTeamMembersTool) Definition() types.Tool {
	return types.Tool{
		Name:        "get_team_members",
		Description: "List the members of a team by team id.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"team_id": types.StringSchema("ID of the team"),
		}, "team_id"),
	}
}

func (t getTeamMembersTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	if UserFrom(ctx) == "" {
		return "", errMissingUser
	}
	teamID, err := uuidArg(input, "team_id")
	if err != nil {
		return "", err
	}
	members, err := t.st.ListTeamMembers(ctx, teamID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "That team has no members.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The team has %d members:\n", len(members))
	for _, m := range members {
		name := m.DisplayName
		if name == "" {
			name = m.Email
		}
		fmt.Fprintf(&b, "- %s (%s, %s)\n", name, m.Email, m.Role)
	}
	return b.String(), nil
}

type createTeamTool struct{ st *store.Store }

func (createTeamTool) Name() string { return "create_team" }

func (createTeamTool) Definition() types.Tool {
	return types.Tool{
		Name:        "create_team",
		Description: "Create a new team and join it as owner.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"name":        types.StringSchema("Name of the team"),
			"description": types.StringSchema("Optional team description"),
		}, "name"),
	}
}

func (t createTeamTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	name, err := stringArg(input, "name")
	if err != nil {
		return "", err
	}

	team := &store.Team{Name: name}
	if desc, _ := optStringArg(input, "description"); desc != nil {
		team.Description = *desc
	}
	if err := t.st.CreateTeam(ctx, team); err != nil {
		return "", err
	}
	owner := &store.TeamMember{TeamID: team.ID, UserID: userID, Email: userID, Role: "owner"}
	if err := t.st.AddTeamMember(ctx, owner); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created team %q (id %s).", team.Name, team.ID), nil
}

type addTeamMemberTool struct{ st *store.Store }

func (addTeamMemberTool) Name() string { return "add_team_member" }

func (addTeamMemberTool) Definition() types.Tool {
	return types.Tool{
		Name:        "add_team_member",
		Description: "Add a member to one of the user's teams by team name and email.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"team_name": types.StringSchema("Name of the team"),
			"email":     types.StringSchema("Email address of the new member"),
			"role":      types.EnumSchema("Membership role", "member", "admin"),
		}, "team_name", "email"),
	}
}

func (t addTeamMemberTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	teamName, err := stringArg(input, "team_name")
	if err != nil {
		return "", err
	}
	email, err := stringArg(input, "email")
	if err != nil {
		return "", err
	}

	team, err := t.st.TeamByName(ctx, userID, teamName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("You have no team named %q.", teamName), nil
		}
		return "", err
	}

	m := &store.TeamMember{TeamID: team.ID, UserID: email, Email: email}
	if role, _ := optStringArg(input, "role"); role != nil {
		m.Role = *role
	}
	if err := t.st.AddTeamMember(ctx, m); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s to team %q as %s.", email, team.Name, m.Role), nil
}

type removeTeamMemberTool struct{ st *store.Store }

func (removeTeamMemberTool) Name() string { return "remove_team_member" }

func (removeTeamMemberTool) Definition() types.Tool {
	return types.Tool{
		Name:        "remove_team_member",
		Description: "Remove a member from one of the user's teams by team name and email.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"team_name": types.StringSchema("Name of the team"),
			"email":     types.StringSchema("Email address of the member to remove"),
		}, "team_name", "email"),
	}
}

func (t removeTeamMemberTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	teamName, err := stringArg(input, "team_name")
	if err != nil {
		return "", err
	}
	email, err := stringArg(input, "email")
	if err != nil {
		return "", err
	}

	team, err := t.st.TeamByName(ctx, userID, teamName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("You have no team named %q.", teamName), nil
		}
		return "", err
	}
	if err := t.st.RemoveTeamMember(ctx, team.ID, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("%s is not a member of team %q.", email, team.Name), nil
		}
		return "", err
	}
	return fmt.Sprintf("Removed %s from team %q.", email, team.Name), nil
}

type createTeamTodoTool struct{ st *store.Store }

func (createTeamTodoTool) Name() string { return "create_team_todo" }

func (createTeamTodoTool) Definition() types.Tool {
	return types.Tool{
		Name:        "create_team_todo",
		Description: "Create a todo for a team, optionally assigned to a member by email.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"team_name":      types.StringSchema("Name of the team"),
			"title":          types.StringSchema("Short title of the todo"),
			"description":    types.StringSchema("Optional longer description"),
			"priority":       types.EnumSchema("Priority level", priorityValues...),
			"due_date":       types.StringSchema("Due date, RFC 3339 or YYYY-MM-DD"),
			"assignee_email": types.StringSchema("Email of the member to assign"),
		}, "team_name", "title"),
	}
}

func (t createTeamTodoTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	teamName, err := stringArg(input, "team_name")
	if err != nil {
		return "", err
	}
	title, err := stringArg(input, "title")
	if err != nil {
		return "", err
	}

	team, err := t.st.TeamByName(ctx, userID, teamName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("You have no team named %q.", teamName), nil
		}
		return "", err
	}

	todo := &store.Todo{UserID: userID, Title: title, TeamID: &team.ID}
	if desc, _ := optStringArg(input, "description"); desc != nil {
		todo.Description = *desc
	}
	if p, _ := optStringArg(input, "priority"); p != nil {
		todo.Priority = store.ParsePriority(*p)
	}
	if todo.DueDate, err = optTimeArg(input, "due_date"); err != nil {
		return "", err
	}

	assignee := ""
	if a, _ := optStringArg(input, "assignee_email"); a != nil {
		members, err := t.st.ListTeamMembers(ctx, team.ID)
		if err != nil {
			return "", err
		}
		for _, m := range members {
			if strings.EqualFold(m.Email, *a) {
				memberID := m.ID
				todo.AssigneeID = &memberID
				assignee = m.Email
				break
			}
		}
		if assignee == "" {
			return fmt.Sprintf("%s is not a member of team %q.", *a, team.Name), nil
		}
	}

	if err := t.st.CreateTodo(ctx, todo); err != nil {
		return "", err
	}
	if assignee != "" {
		return fmt.Sprintf("Created team todo %q for %q, assigned to %s.", todo.Title, team.Name, assignee), nil
	}
	return fmt.Sprintf("Created team todo %q for %q.", todo.Title, team.Name), nil
}
