package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/convonet/assistant/pkg/core/types"
)

// IntegrationSource contributes tools backed by an external calendar-sync
// service. The service is optional: if the probe fails at assembly time
// the whole source is skipped and the assistant runs without it.
type IntegrationSource struct {
	BaseURL string
	Client  *http.Client
}

func (s IntegrationSource) Name() string { return "integrations" }

func (s IntegrationSource) httpClient() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 5 * time.Second}
}

// Executors probes the integration service before contributing tools.
func (s IntegrationSource) Executors(ctx context.Context) ([]Executor, error) {
	if s.BaseURL == "" {
		return nil, fmt.Errorf("integration service not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/healthz", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe integration service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("integration service unhealthy: status %d", resp.StatusCode)
	}
	return []Executor{syncCalendarTool{src: s}}, nil
}

type syncCalendarTool struct{ src IntegrationSource }

func (syncCalendarTool) Name() string { return "sync_external_calendar" }

func (syncCalendarTool) Definition() types.Tool {
	return types.Tool{
		Name:        "sync_external_calendar",
		Description: "Pull the user's external calendar into the assistant's calendar.",
		InputSchema: types.ObjectSchema(nil),
	}
}

func (t syncCalendarTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	userID := UserFrom(ctx)
	if userID == "" {
		return "", errMissingUser
	}
	url := fmt.Sprintf("%s/v1/sync?user_id=%s", t.src.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.src.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar sync: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("calendar sync failed: status %d", resp.StatusCode)
	}
	summary := strings.TrimSpace(string(body))
	if summary == "" {
		summary = "Your external calendar is synced."
	}
	return summary, nil
}
