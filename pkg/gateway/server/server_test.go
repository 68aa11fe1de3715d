package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/convonet/assistant/pkg/agent/runloop"
	"github.com/convonet/assistant/pkg/gateway/config"
	"github.com/convonet/assistant/pkg/prefs"
)

type echoRunner struct{}

func (echoRunner) RunTurn(_ context.Context, req runloop.TurnRequest) runloop.TurnOutcome {
	return runloop.Answered("echo: " + req.Prompt)
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		RunDeadline:     12 * time.Second,
		WSDeadline:      20 * time.Second,
		ToolTimeout:     6 * time.Second,
		AnthropicAPIKey: "k",
	}
	s := New(cfg, slog.Default(), Deps{
		Runner:   echoRunner{},
		Resolver: prefs.NewResolver(nil, "claude", slog.Default()),
		Monitor:  runloop.NewMonitor(16),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServerRoutes(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("middleware chain must stamp a request id")
	}

	runResp, err := http.Post(srv.URL+"/v1/agent/run", "application/json",
		strings.NewReader(`{"prompt":"hi","user_id":"u1"}`))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer runResp.Body.Close()
	var body struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(runResp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Response != "echo: hi" {
		t.Errorf("response = %q", body.Response)
	}

	provResp, err := http.Get(srv.URL + "/v1/llm-provider?user_id=u1")
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	provResp.Body.Close()
	if provResp.StatusCode != http.StatusOK {
		t.Errorf("provider status = %d", provResp.StatusCode)
	}

	turnsResp, err := http.Get(srv.URL + "/v1/agent/turns")
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	turnsResp.Body.Close()
	if turnsResp.StatusCode != http.StatusOK {
		t.Errorf("turns status = %d", turnsResp.StatusCode)
	}
}
