// Package handlers holds the HTTP and websocket caller surface. Turn
// outcomes cross this boundary in two forms at once: the tagged outcome
// for new callers and the legacy sentinel strings the telephony side
// still parses.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/convonet/assistant/pkg/agent/runloop"
)

// Runner is the slice of the turn controller the handlers need.
type Runner interface {
	RunTurn(ctx context.Context, req runloop.TurnRequest) runloop.TurnOutcome
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
