package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/convonet/assistant/pkg/core/types"
	"github.com/convonet/assistant/pkg/store"
)

// CalendarSource contributes the calendar event CRUD tools.
type CalendarSource struct {
	Store *store.Store
}

func (s CalendarSource) Name() string { return "calendar" }

func (s CalendarSource) Executors(context.Context) ([]Executor, error) {
	return []Executor{
		createEventTool{st: s.Store},
		getEventsTool{st: s.Store},
		updateEventTool{st: s.Store},
		deleteEventTool{st: s.Store},
	}, nil
}

type createEventTool struct{ st *store.Store }

func (createEventTool) Name() string { return "create_calendar_event" }

func (createEventTool) Definition() types.Tool {
	return types.Tool{
		Name:        "create_calendar_event",
		Description: "Create a calendar event with a start and end time.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"title":       types.StringSchema("Title of the event"),
			"description": types.StringSchema("Optional event description"),
			"event_from":  types.StringSchema("Start time, RFC 3339 or YYYY-MM-DD HH:MM"),
			"event_to":    types.StringSchema("End time, RFC 3339 or YYYY-MM-DD HH:MM"),
		}, "title", "event_from", "event_to"),
	}
}

func (t createEventTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	title, err := stringArg(input, "title")
	if err != nil {
		return "", err
	}
	from, err := timeArg(input, "event_from")
	if err != nil {
		return "", err
	}
	to, err := timeArg(input, "event_to")
	if err != nil {
		return "", err
	}
	if !to.After(from) {
		return "", fmt.Errorf("event_to must be after event_from")
	}

	e := &store.CalendarEvent{UserID: userID, Title: title, From: from, To: to}
	if desc, _ := optStringArg(input, "description"); desc != nil {
		e.Description = *desc
	}
	if err := t.st.CreateCalendarEvent(ctx, e); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created event %q from %s to %s (id %s).",
		e.Title, e.From.Format("2006-01-02 15:04"), e.To.Format("15:04"), e.ID), nil
}

type getEventsTool struct{ st *store.Store }

func (getEventsTool) Name() string { return "get_calendar_events" }

func (getEventsTool) Definition() types.Tool {
	return types.Tool{
		Name:        "get_calendar_events",
		Description: "List the user's calendar events ordered by start time.",
		InputSchema: types.ObjectSchema(nil),
	}
}

func (t getEventsTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	events, err := t.st.ListCalendarEvents(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "Your calendar is empty.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d events:\n", len(events))
	for _, e := range events {
		fmt.Fprintf(&b, "- %s from %s to %s (id %s)\n",
			e.Title, e.From.Format("2006-01-02 15:04"), e.To.Format("15:04"), e.ID)
	}
	return b.String(), nil
}

type updateEventTool struct{ st *store.Store }

func (updateEventTool) Name() string { return "update_calendar_event" }

func (updateEventTool) Definition() types.Tool {
	return types.Tool{
		Name:        "update_calendar_event",
		Description: "Update fields of an existing calendar event. Only the given fields change.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"id":          types.StringSchema("ID of the event to update"),
			"title":       types.StringSchema("New title"),
			"description": types.StringSchema("New description"),
			"event_from":  types.StringSchema("New start time, RFC 3339 or YYYY-MM-DD HH:MM"),
			"event_to":    types.StringSchema("New end time, RFC 3339 or YYYY-MM-DD HH:MM"),
		}, "id"),
	}
}

func (t updateEventTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	id, err := uuidArg(input, "id")
	if err != nil {
		return "", err
	}

	var u store.CalendarEventUpdate
	if u.Title, err = optStringArg(input, "title"); err != nil {
		return "", err
	}
	if u.Description, err = optStringArg(input, "description"); err != nil {
		return "", err
	}
	if u.From, err = optTimeArg(input, "event_from"); err != nil {
		return "", err
	}
	if u.To, err = optTimeArg(input, "event_to"); err != nil {
		return "", err
	}

	e, err := t.st.UpdateCalendarEvent(ctx, userID, id, u)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("No event with id %s was found.", id), nil
		}
		return "", err
	}
	return fmt.Sprintf("Updated event %q, now from %s to %s.",
		e.Title, e.From.Format("2006-01-02 15:04"), e.To.Format("15:04")), nil
}

type deleteEventTool struct{ st *store.Store }

func (deleteEventTool) Name() string { return "delete_calendar_event" }

func (deleteEventTool) Definition() types.Tool {
	return types.Tool{
		Name:        "delete_calendar_event",
		Description: "Delete a calendar event by its id.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"id": types.StringSchema("ID of the event to delete"),
		}, "id"),
	}
}

func (t deleteEventTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	id, err := uuidArg(input, "id")
	if err != nil {
		return "", err
	}
	if err := t.st.DeleteCalendarEvent(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("No event with id %s was found.", id), nil
		}
		return "", err
	}
	return fmt.Sprintf("Event %s deleted.", id), nil
}
