package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/convonet/assistant/pkg/agent/runloop"
	"github.com/convonet/assistant/pkg/core"
)

type fakeRunner struct {
	outcome runloop.TurnOutcome
	lastReq runloop.TurnRequest
}

func (f *fakeRunner) RunTurn(_ context.Context, req runloop.TurnRequest) runloop.TurnOutcome {
	f.lastReq = req
	return f.outcome
}

func postRun(t *testing.T, h RunHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/agent/run", strings.NewReader(body))
	h.ServeHTTP(rec, req)
	return rec
}

func TestRunHandlerAnswer(t *testing.T) {
	runner := &fakeRunner{outcome: runloop.Answered("You have 3 todos.")}
	h := RunHandler{Runner: runner, Monitor: runloop.NewMonitor(8), Deadline: 12 * time.Second}

	rec := postRun(t, h, `{"prompt":"what's on my list","user_id":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp runResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != runloop.OutcomeAnswered || resp.Response != "You have 3 todos." {
		t.Errorf("resp = %+v", resp)
	}
	if resp.LegacyResponse != "You have 3 todos." || resp.TransferMarker != "" {
		t.Errorf("legacy fields = %q / %q", resp.LegacyResponse, resp.TransferMarker)
	}
	if runner.lastReq.UserID != "u1" || runner.lastReq.Deadline != 12*time.Second {
		t.Errorf("turn request = %+v", runner.lastReq)
	}
}

func TestRunHandlerTransferCarriesMarker(t *testing.T) {
	runner := &fakeRunner{outcome: runloop.TransferTo(runloop.Transfer{
		Extension: "2002", Department: "billing", Reason: "invoice question",
	})}
	h := RunHandler{Runner: runner, Monitor: runloop.NewMonitor(8)}

	rec := postRun(t, h, `{"prompt":"talk to billing","user_id":"u1"}`)
	var resp runResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	if resp.Kind != runloop.OutcomeTransferRequested || resp.Transfer == nil {
		t.Fatalf("resp = %+v", resp)
	}
	if !strings.HasPrefix(resp.TransferMarker, "TRANSFER_INITIATED:") {
		t.Errorf("marker = %q", resp.TransferMarker)
	}
	if strings.Contains(resp.Response, "TRANSFER_INITIATED") {
		t.Errorf("spoken response leaked the marker: %q", resp.Response)
	}
}

func TestRunHandlerFailureUsesSentinel(t *testing.T) {
	runner := &fakeRunner{outcome: runloop.Failed(core.ErrTurnDeadline, "turn budget exhausted")}
	h := RunHandler{Runner: runner, Monitor: runloop.NewMonitor(8)}

	rec := postRun(t, h, `{"prompt":"hi","user_id":"u1"}`)
	var resp runResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	if !strings.HasPrefix(resp.LegacyResponse, "AGENT_TIMEOUT: ") {
		t.Errorf("legacy = %q", resp.LegacyResponse)
	}
	if strings.HasPrefix(resp.Response, "AGENT_") {
		t.Errorf("spoken response must not be a sentinel: %q", resp.Response)
	}
}

func TestRunHandlerValidation(t *testing.T) {
	h := RunHandler{Runner: &fakeRunner{}, Monitor: runloop.NewMonitor(8)}
	cases := []struct {
		name string
		body string
	}{
		{"empty prompt", `{"prompt":"","user_id":"u1"}`},
		{"missing user", `{"prompt":"hi"}`},
		{"bad json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postRun(t, h, tc.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rec.Code)
			}
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/agent/run", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", rec.Code)
	}
}

func TestTurnsHandlerListsObservedTurns(t *testing.T) {
	monitor := runloop.NewMonitor(8)
	runner := &fakeRunner{outcome: runloop.Answered("done")}
	run := RunHandler{Runner: runner, Monitor: monitor}
	postRun(t, run, `{"prompt":"hi","user_id":"u1"}`)

	rec := httptest.NewRecorder()
	TurnsHandler{Monitor: monitor}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/agent/turns", nil))

	var resp struct {
		Turns []runloop.TurnRecord `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Turns) != 1 || resp.Turns[0].UserID != "u1" || resp.Turns[0].Kind != runloop.OutcomeAnswered {
		t.Errorf("turns = %+v", resp.Turns)
	}
}
