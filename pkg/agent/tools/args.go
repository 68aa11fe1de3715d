package tools

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var errMissingUser = errors.New("no authenticated user on this turn")

// stringArg reads a required string argument.
func stringArg(input map[string]any, key string) (string, error) {
	v, ok := input[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

// optStringArg reads an optional string argument; nil when absent.
func optStringArg(input map[string]any, key string) (*string, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("argument %q must be a string", key)
	}
	return &s, nil
}

// optBoolArg reads an optional boolean argument; nil when absent.
func optBoolArg(input map[string]any, key string) (*bool, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("argument %q must be a boolean", key)
	}
	return &b, nil
}

// uuidArg reads a required UUID string argument.
func uuidArg(input map[string]any, key string) (uuid.UUID, error) {
	s, err := stringArg(input, key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("argument %q is not a valid id: %w", key, err)
	}
	return id, nil
}

// timeLayouts are the formats models actually emit for datetimes.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// optTimeArg reads an optional datetime argument; nil when absent.
func optTimeArg(input map[string]any, key string) (*time.Time, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("argument %q must be a datetime string", key)
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("argument %q has unrecognized datetime %q", key, s)
}

// timeArg reads a required datetime argument.
func timeArg(input map[string]any, key string) (time.Time, error) {
	t, err := optTimeArg(input, key)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, fmt.Errorf("missing required argument %q", key)
	}
	return *t, nil
}
