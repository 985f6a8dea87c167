package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"reposched/internal/controller/middleware"
	"reposched/internal/logger"
	"reposched/internal/store"
	"reposched/pkg/api"
)

// SetCredential handles PUT /credentials.
// The token is read at execution time, so it applies to already scheduled jobs.
func (h *Handlers) SetCredential(w http.ResponseWriter, r *http.Request) {
	var req api.SetCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		h.httpError(w, "Token is required", http.StatusBadRequest)
		return
	}

	cred := store.Credential{
		OwnerRef:  middleware.OwnerFromContext(r.Context()),
		Token:     token,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.backend.PutCredential(r.Context(), cred); err != nil {
		logger.FromContext(r.Context(), h.log).Error("failed to store credential", "error", err)
		h.httpError(w, "Failed to store credential", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
