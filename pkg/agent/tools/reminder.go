package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/convonet/assistant/pkg/core/types"
	"github.com/convonet/assistant/pkg/store"
)

// ReminderSource contributes the reminder CRUD tools.
type ReminderSource struct {
	Store *store.Store
}

func (s ReminderSource) Name() string { return "reminders" }

func (s ReminderSource) Executors(context.Context) ([]Executor, error) {
	return []Executor{
		createReminderTool{st: s.Store},
		getRemindersTool{st: s.Store},
		updateReminderTool{st: s.Store},
		deleteReminderTool{st: s.Store},
	}, nil
}

type createReminderTool struct{ st *store.Store }

func (createReminderTool) Name() string { return "create_reminder" }

func (createReminderTool) Definition() types.Tool {
	return types.Tool{
		Name:        "create_reminder",
		Description: "Create a reminder, optionally scheduled for a specific time.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"reminder_text": types.StringSchema("What to be reminded about"),
			"importance":    types.EnumSchema("Importance level", priorityValues...),
			"reminder_date": types.StringSchema("When to remind, RFC 3339 or YYYY-MM-DD"),
		}, "reminder_text"),
	}
}

func (t createReminderTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	text, err := stringArg(input, "reminder_text")
	if err != nil {
		return "", err
	}
	when, err := optTimeArg(input, "reminder_date")
	if err != nil {
		return "", err
	}

	r := &store.Reminder{UserID: userID, Text: text, ReminderDate: when}
	if p, _ := optStringArg(input, "importance"); p != nil {
		r.Importance = store.ParsePriority(*p)
	}
	if err := t.st.CreateReminder(ctx, r); err != nil {
		return "", err
	}
	if r.ReminderDate != nil {
		return fmt.Sprintf("Created reminder %q for %s (id %s).",
			r.Text, r.ReminderDate.Format("2006-01-02 15:04"), r.ID), nil
	}
	return fmt.Sprintf("Created reminder %q (id %s).", r.Text, r.ID), nil
}

type getRemindersTool struct{ st *store.Store }

func (getRemindersTool) Name() string { return "get_reminders" }

func (getRemindersTool) Definition() types.Tool {
	return types.Tool{
		Name:        "get_reminders",
		Description: "List the user's reminders, newest first.",
		InputSchema: types.ObjectSchema(nil),
	}
}

func (t getRemindersTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	reminders, err := t.st.ListReminders(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(reminders) == 0 {
		return "You have no reminders.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d reminders:\n", len(reminders))
	for _, r := range reminders {
		fmt.Fprintf(&b, "- %s [%s] (id %s)", r.Text, r.Importance, r.ID)
		if r.ReminderDate != nil {
			fmt.Fprintf(&b, " at %s", r.ReminderDate.Format("2006-01-02 15:04"))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

type updateReminderTool struct{ st *store.Store }

func (updateReminderTool) Name() string { return "update_reminder" }

func (updateReminderTool) Definition() types.Tool {
	return types.Tool{
		Name:        "update_reminder",
		Description: "Update fields of an existing reminder. Only the given fields change.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"id":            types.StringSchema("ID of the reminder to update"),
			"reminder_text": types.StringSchema("New reminder text"),
			"importance":    types.EnumSchema("New importance level", priorityValues...),
			"reminder_date": types.StringSchema("New reminder time, RFC 3339 or YYYY-MM-DD"),
		}, "id"),
	}
}

func (t updateReminderTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	id, err := uuidArg(input, "id")
	if err != nil {
		return "", err
	}

	var u store.ReminderUpdate
	if u.Text, err = optStringArg(input, "reminder_text"); err != nil {
		return "", err
	}
	if u.ReminderDate, err = optTimeArg(input, "reminder_date"); err != nil {
		return "", err
	}
	if p, _ := optStringArg(input, "importance"); p != nil {
		pr := store.ParsePriority(*p)
		u.Importance = &pr
	}

	r, err := t.st.UpdateReminder(ctx, userID, id, u)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("No reminder with id %s was found.", id), nil
		}
		return "", err
	}
	return fmt.Sprintf("Updated reminder %q (importance %s).", r.Text, r.Importance), nil
}

type deleteReminderTool struct{ st *store.Store }

func (deleteReminderTool) Name() string { return "delete_reminder" }

func (deleteReminderTool) Definition() types.Tool {
	return types.Tool{
		Name:        "delete_reminder",
		Description: "Delete a reminder by its id.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"id": types.StringSchema("ID of the reminder to delete"),
		}, "id"),
	}
}

func (t deleteReminderTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	id, err := uuidArg(input, "id")
	if err != nil {
		return "", err
	}
	if err := t.st.DeleteReminder(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("No reminder with id %s was found.", id), nil
		}
		return "", err
	}
	return fmt.Sprintf("Reminder %s deleted.", id), nil
}
