package handler

import (
	"net/http"

	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/gorilla/mux"
)

// ConsoleHandler serves console chrome: UI preferences and pending notifications.
type ConsoleHandler struct {
	sessions SessionService
	notices  *notify.Recorder
}

// NewConsoleHandler creates a new console handler
func NewConsoleHandler(sessions SessionService, notices *notify.Recorder) *ConsoleHandler {
	return &ConsoleHandler{sessions: sessions, notices: notices}
}

// Preferences is the persisted UI state.
type Preferences struct {
	SidebarCollapsed bool `json:"sidebarCollapsed"`
}

// GetPreferences godoc
// @Summary Get UI preferences
// @Tags console
// @Produce json
// @Success 200 {object} Preferences
// @Router /api/preferences [get]
func (h *ConsoleHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	collapsed, err := h.sessions.Preferences().SidebarCollapsed(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Preferences{SidebarCollapsed: collapsed})
}

// UpdatePreferences godoc
// @Summary Update UI preferences
// @Description Preferences survive sign-out.
// @Tags console
// @Accept json
// @Produce json
// @Param body body Preferences true "Preferences"
// @Success 200 {object} Preferences
// @Router /api/preferences [put]
func (h *ConsoleHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var body Preferences
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessions.Preferences().SetSidebarCollapsed(r.Context(), body.SidebarCollapsed); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// DrainNotifications godoc
// @Summary Take pending notifications
// @Description Returns the success and error toasts raised since the last call and clears them.
// @Tags console
// @Produce json
// @Success 200 {array} notify.Notification
// @Router /api/notifications [get]
func (h *ConsoleHandler) DrainNotifications(w http.ResponseWriter, r *http.Request) {
	out := h.notices.Drain()
	if out == nil {
		out = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, out)
}

// SetupConsoleRoutes sets up preference and notification routes
func (h *ConsoleHandler) SetupConsoleRoutes(router *mux.Router) {
	router.HandleFunc("/preferences", h.GetPreferences).Methods("GET")
	router.HandleFunc("/preferences", h.UpdatePreferences).Methods("PUT")
	router.HandleFunc("/notifications", h.DrainNotifications).Methods("GET")
}
