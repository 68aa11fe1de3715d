package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/convonet/assistant/pkg/core/types"
	"github.com/convonet/assistant/pkg/store"
)

// TodoSource contributes the todo CRUD tools.
type TodoSource struct {
	Store *store.Store
}

func (s TodoSource) Name() string { return "todos" }

func (s TodoSource) Executors(context.Context) ([]Executor, error) {
	return []Executor{
		createTodoTool{st: s.Store},
		getTodosTool{st: s.Store},
		completeTodoTool{st: s.Store},
		updateTodoTool{st: s.Store},
		deleteTodoTool{st: s.Store},
	}, nil
}

var priorityValues = []string{"low", "medium", "high", "urgent"}

type createTodoTool struct{ st *store.Store }

func (createTodoTool) Name() string { return "create_todo" }

func (createTodoTool) Definition() types.Tool {
	return types.Tool{
		Name:        "create_todo",
		Description: "Create a new todo item. The due date defaults to today when not given.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"title":       types.StringSchema("Short title of the todo"),
			"description": types.StringSchema("Optional longer description"),
			"priority":    types.EnumSchema("Priority level", priorityValues...),
			"due_date":    types.StringSchema("Due date, RFC 3339 or YYYY-MM-DD"),
		}, "title"),
	}
}

func (t createTodoTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	title, err := stringArg(input, "title")
	if err != nil {
		return "", err
	}
	desc, err := optStringArg(input, "description")
	if err != nil {
		return "", err
	}
	due, err := optTimeArg(input, "due_date")
	if err != nil {
		return "", err
	}

	todo := &store.Todo{UserID: userID, Title: title, DueDate: due}
	if desc != nil {
		todo.Description = *desc
	}
	if p, _ := optStringArg(input, "priority"); p != nil {
		todo.Priority = store.ParsePriority(*p)
	}
	if err := t.st.CreateTodo(ctx, todo); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created todo %q (id %s, priority %s, due %s).",
		todo.Title, todo.ID, todo.Priority, todo.DueDate.Format("2006-01-02")), nil
}

type getTodosTool struct{ st *store.Store }

func (getTodosTool) Name() string { return "get_todos" }

func (getTodosTool) Definition() types.Tool {
	return types.Tool{
		Name:        "get_todos",
		Description: "List the user's todo items, newest first.",
		InputSchema: types.ObjectSchema(nil),
	}
}

func (t getTodosTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	todos, err := t.st.ListTodos(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(todos) == 0 {
		return "You have no todos.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d todos:\n", len(todos))
	for _, td := range todos {
		status := "open"
		if td.Completed {
			status = "done"
		}
		fmt.Fprintf(&b, "- %s [%s, %s] (id %s)", td.Title, td.Priority, status, td.ID)
		if td.DueDate != nil {
			fmt.Fprintf(&b, " due %s", td.DueDate.Format("2006-01-02"))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

type completeTodoTool struct{ st *store.Store }

func (completeTodoTool) Name() string { return "complete_todo" }

func (completeTodoTool) Definition() types.Tool {
	return types.Tool{
		Name:        "complete_todo",
		Description: "Mark a todo item as completed by its id.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"id": types.StringSchema("ID of the todo to complete"),
		}, "id"),
	}
}

func (t completeTodoTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	id, err := uuidArg(input, "id")
	if err != nil {
		return "", err
	}
	if err := t.st.CompleteTodo(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("No todo with id %s was found.", id), nil
		}
		return "", err
	}
	return fmt.Sprintf("Todo %s marked as completed.", id), nil
}

type updateTodoTool struct{ st *store.Store }

func (updateTodoTool) Name() string { return "update_todo" }

func (updateTodoTool) Definition() types.Tool {
	return types.Tool{
		Name:        "update_todo",
		Description: "Update fields of an existing todo. Only the given fields change.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"id":          types.StringSchema("ID of the todo to update"),
			"title":       types.StringSchema("New title"),
			"description": types.StringSchema("New description"),
			"completed":   types.BoolSchema("New completion state"),
			"priority":    types.EnumSchema("New priority level", priorityValues...),
			"due_date":    types.StringSchema("New due date, RFC 3339 or YYYY-MM-DD"),
		}, "id"),
	}
}

func (t updateTodoTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	id, err := uuidArg(input, "id")
	if err != nil {
		return "", err
	}

	var u store.TodoUpdate
	if u.Title, err = optStringArg(input, "title"); err != nil {
		return "", err
	}
	if u.Description, err = optStringArg(input, "description"); err != nil {
		return "", err
	}
	if u.Completed, err = optBoolArg(input, "completed"); err != nil {
		return "", err
	}
	if u.DueDate, err = optTimeArg(input, "due_date"); err != nil {
		return "", err
	}
	if p, _ := optStringArg(input, "priority"); p != nil {
		pr := store.ParsePriority(*p)
		u.Priority = &pr
	}

	todo, err := t.st.UpdateTodo(ctx, userID, id, u)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("No todo with id %s was found.", id), nil
		}
		return "", err
	}
	return fmt.Sprintf("Updated todo %q (priority %s).", todo.Title, todo.Priority), nil
}

type deleteTodoTool struct{ st *store.Store }

func (deleteTodoTool) Name() string { return "delete_todo" }

func (deleteTodoTool) Definition() types.Tool {
	return types.Tool{
		Name:        "delete_todo",
		Description: "Delete a todo item by its id.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"id": types.StringSchema("ID of the todo to delete"),
		}, "id"),
	}
}

func (t deleteTodoTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	id, err := uuidArg(input, "id")
	if err != nil {
		return "", err
	}
	if err := t.st.DeleteTodo(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("No todo with id %s was found.", id), nil
		}
		return "", err
	}
	return fmt.Sprintf("Todo %s deleted.", id), nil
}
