package handler

import (
	"net/http"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/services/voice"
	"github.com/gorilla/mux"
)

// VoiceHandler serves the voice catalog
type VoiceHandler struct {
	voices *voice.VoiceService
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(voices *voice.VoiceService) *VoiceHandler {
	return &VoiceHandler{voices: voices}
}

// ListVoices godoc
// @Summary List catalog voices
// @Tags voices
// @Produce json
// @Param provider query string false "Synthesizer provider (polly, elevenlabs)"
// @Success 200 {array} domain.Voice
// @Router /api/voices [get]
func (h *VoiceHandler) ListVoices(w http.ResponseWriter, r *http.Request) {
	var (
		voices []domain.Voice
		err    error
	)
	if provider := r.URL.Query().Get("provider"); provider != "" {
		voices, err = h.voices.ByProvider(r.Context(), provider)
	} else {
		voices, err = h.voices.Catalog(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voices)
}

// GetVoice godoc
// @Summary Get a catalog voice
// @Tags voices
// @Produce json
// @Param id path string true "Voice ID"
// @Success 200 {object} domain.Voice
// @Router /api/voices/{id} [get]
func (h *VoiceHandler) GetVoice(w http.ResponseWriter, r *http.Request) {
	v, err := h.voices.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SetupVoiceRoutes sets up voice routes
func (h *VoiceHandler) SetupVoiceRoutes(router *mux.Router) {
	router.HandleFunc("/voices", h.ListVoices).Methods("GET")
	router.HandleFunc("/voices/{id}", h.GetVoice).Methods("GET")
}
