package handler

import (
	"net/http"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/listing"
	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/internal/services/assistant"
	"github.com/ClareAI/astra-voice-admin/internal/services/user"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AssistantHandler handles HTTP requests for assistants
type AssistantHandler struct {
	assistants *assistant.AssistantService
	users      *user.UserService
	notices    notify.Notifier
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistants *assistant.AssistantService, users *user.UserService, notices notify.Notifier) *AssistantHandler {
	return &AssistantHandler{assistants: assistants, users: users, notices: notices}
}

// ListAssistants godoc
// @Summary List assistants
// @Description List assistants, optionally for one owner and filtered by a search term over name, type and owner
// @Tags assistants
// @Produce json
// @Param q query string false "Search term"
// @Param userId query string false "Owner user ID"
// @Success 200 {array} domain.Assistant
// @Router /api/assistants [get]
func (h *AssistantHandler) ListAssistants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	userID := r.URL.Query().Get("userId")

	items, err := h.assistants.List(ctx, "")
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Owner names are only needed to search rows without an embedded user.
	var users []domain.User
	if query != "" {
		if users, err = h.users.List(ctx); err != nil {
			logger.Warn(ctx, "owner lookup unavailable for assistant search", zap.Error(err))
			users = nil
		}
	}

	writeJSON(w, http.StatusOK, listing.Assistants(items, query, userID, users))
}

// GetAssistant godoc
// @Summary Get assistant by ID
// @Tags assistants
// @Produce json
// @Param id path string true "Assistant ID"
// @Success 200 {object} domain.Assistant
// @Failure 404 {object} errorResponse
// @Router /api/assistants/{id} [get]
func (h *AssistantHandler) GetAssistant(w http.ResponseWriter, r *http.Request) {
	a, err := h.assistants.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpdateStatus godoc
// @Summary Change an assistant's status
// @Tags assistants
// @Accept json
// @Produce json
// @Param id path string true "Assistant ID"
// @Param body body domain.StatusRequest true "New status"
// @Success 200 {object} domain.Assistant
// @Failure 400 {object} errorResponse
// @Router /api/assistants/{id}/status [patch]
func (h *AssistantHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.assistants.SetStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		report(r.Context(), h.notices, err, "")
		writeError(w, r, err)
		return
	}
	report(r.Context(), h.notices, nil, "Assistant "+a.AgentName+" is now "+string(a.Status))
	writeJSON(w, http.StatusOK, a)
}

// DeleteAssistant godoc
// @Summary Delete an assistant
// @Tags assistants
// @Param id path string true "Assistant ID"
// @Success 204
// @Router /api/assistants/{id} [delete]
func (h *AssistantHandler) DeleteAssistant(w http.ResponseWriter, r *http.Request) {
	err := h.assistants.Delete(r.Context(), mux.Vars(r)["id"])
	report(r.Context(), h.notices, err, "Assistant deleted")
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetupAssistantRoutes sets up assistant routes. Creation and edits go
// through the wizard routes.
func (h *AssistantHandler) SetupAssistantRoutes(router *mux.Router) {
	router.HandleFunc("/assistants", h.ListAssistants).Methods("GET")
	router.HandleFunc("/assistants/{id}", h.GetAssistant).Methods("GET")
	router.HandleFunc("/assistants/{id}/status", h.UpdateStatus).Methods("PATCH")
	router.HandleFunc("/assistants/{id}", h.DeleteAssistant).Methods("DELETE")
}
