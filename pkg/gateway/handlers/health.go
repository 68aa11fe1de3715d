package handlers

import (
	"net/http"

	"github.com/convonet/assistant/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// ReadyHandler reports whether the configured budgets are coherent and at
// least one provider credential is present.
type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK     bool     `json:"ok"`
		Issues []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)
	if h.Config.RunDeadline <= 0 || h.Config.WSDeadline <= 0 {
		issues = append(issues, "turn deadlines must be > 0")
	}
	if h.Config.ToolTimeout <= 0 || h.Config.ToolTimeout >= h.Config.RunDeadline {
		issues = append(issues, "tool timeout must be > 0 and < run deadline")
	}
	if h.Config.AnthropicAPIKey == "" && h.Config.OpenAIAPIKey == "" && h.Config.GeminiAPIKey == "" {
		issues = append(issues, "no provider api key configured")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, readyResp{OK: ok, Issues: issues})
}
