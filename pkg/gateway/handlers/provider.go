package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/convonet/assistant/pkg/prefs"
)

// ProviderHandler serves the web selector's provider preference reads and
// writes.
type ProviderHandler struct {
	Resolver *prefs.Resolver
}

type providerResponse struct {
	UserID   string `json:"user_id"`
	Provider string `json:"provider"`
}

type setProviderRequest struct {
	UserID   string `json:"user_id"`
	Provider string `json:"provider"`
}

func (h ProviderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.set(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h ProviderHandler) get(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	writeJSON(w, http.StatusOK, providerResponse{
		UserID:   userID,
		Provider: h.Resolver.Provider(r.Context(), userID),
	})
}

func (h ProviderHandler) set(w http.ResponseWriter, r *http.Request) {
	var req setProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := h.Resolver.SetProvider(r.Context(), req.UserID, req.Provider); err != nil {
		if errors.Is(err, prefs.ErrUnknownProvider) {
			writeError(w, http.StatusBadRequest, "provider must be one of claude|gemini|openai")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "preference store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, providerResponse{
		UserID:   req.UserID,
		Provider: strings.ToLower(strings.TrimSpace(req.Provider)),
	})
}
