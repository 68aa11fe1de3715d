package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/convonet/assistant/pkg/agent/runloop"
	"github.com/convonet/assistant/pkg/gateway/mw"
)

const maxRunBodyBytes = 64 << 10

type runRequest struct {
	Prompt   string `json:"prompt"`
	UserID   string `json:"user_id"`
	Reset    bool   `json:"reset,omitempty"`
	Provider string `json:"provider,omitempty"`
}

type runResponse struct {
	Kind     runloop.OutcomeKind `json:"kind"`
	Response string              `json:"response"`
	Transfer *runloop.Transfer   `json:"transfer,omitempty"`

	// Legacy telephony fields, carrying the sentinel serialization.
	LegacyResponse string `json:"legacy_response"`
	TransferMarker string `json:"transfer_marker,omitempty"`
}

// RunHandler serves the synchronous turn path used by the telephony
// webhook. The whole turn runs under Deadline so the response beats the
// caller's own webhook timeout.
type RunHandler struct {
	Runner   Runner
	Monitor  *runloop.Monitor
	Deadline time.Duration
	Logger   *slog.Logger
}

func (h RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRunBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req runRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	start := time.Now()
	outcome := h.Runner.RunTurn(r.Context(), runloop.TurnRequest{
		Prompt:      req.Prompt,
		UserID:      req.UserID,
		ResetThread: req.Reset,
		Deadline:    h.Deadline,
		Provider:    req.Provider,
	})
	h.Monitor.Observe(req.UserID, outcome, time.Since(start))

	if h.Logger != nil {
		reqID, _ := mw.RequestIDFrom(r.Context())
		h.Logger.Info("turn complete",
			"request_id", reqID,
			"user_id", req.UserID,
			"kind", outcome.Kind,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	legacy, marker := outcome.Sentinels()
	writeJSON(w, http.StatusOK, runResponse{
		Kind:           outcome.Kind,
		Response:       outcome.Response,
		Transfer:       outcome.Transfer,
		LegacyResponse: legacy,
		TransferMarker: marker,
	})
}

// TurnsHandler exposes the monitor ring read-only.
type TurnsHandler struct {
	Monitor *runloop.Monitor
}

func (h TurnsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	type turnsResp struct {
		Turns []runloop.TurnRecord `json:"turns"`
	}
	writeJSON(w, http.StatusOK, turnsResp{Turns: h.Monitor.Recent()})
}
