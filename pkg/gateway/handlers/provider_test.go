package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/convonet/assistant/pkg/prefs"
)

func TestProviderHandlerGetFallsBack(t *testing.T) {
	h := ProviderHandler{Resolver: prefs.NewResolver(nil, "gemini", slog.Default())}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/llm-provider?user_id=u1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp providerResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Provider != "gemini" || resp.UserID != "u1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestProviderHandlerGetRequiresUser(t *testing.T) {
	h := ProviderHandler{Resolver: prefs.NewResolver(nil, "claude", slog.Default())}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/llm-provider", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestProviderHandlerSetRejectsUnknown(t *testing.T) {
	h := ProviderHandler{Resolver: prefs.NewResolver(nil, "claude", slog.Default())}
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"user_id":"u1","provider":"cohere"}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/llm-provider", body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestProviderHandlerSetWithoutStore(t *testing.T) {
	h := ProviderHandler{Resolver: prefs.NewResolver(nil, "claude", slog.Default())}
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"user_id":"u1","provider":"openai"}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/llm-provider", body))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}
