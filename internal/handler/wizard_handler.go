package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/config"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/internal/repository"
	"github.com/ClareAI/astra-voice-admin/internal/services/assignment"
	"github.com/ClareAI/astra-voice-admin/internal/services/assistant"
	"github.com/ClareAI/astra-voice-admin/internal/services/voice"
	"github.com/ClareAI/astra-voice-admin/internal/wizard"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// WizardHandler drives the assistant configuration wizard. Each wizard
// session is a saved draft, so an operator can leave and resume it.
type WizardHandler struct {
	drafts      repository.WizardDraftRepository
	assistants  *assistant.AssistantService
	voices      *voice.VoiceService
	assignments *assignment.AssignmentService
	sessions    SessionService
	notices     notify.Notifier
	options     config.WizardOptions
}

// NewWizardHandler creates a new wizard handler
func NewWizardHandler(
	drafts repository.WizardDraftRepository,
	assistants *assistant.AssistantService,
	voices *voice.VoiceService,
	assignments *assignment.AssignmentService,
	sessions SessionService,
	notices notify.Notifier,
	options config.WizardOptions,
) *WizardHandler {
	return &WizardHandler{
		drafts:      drafts,
		assistants:  assistants,
		voices:      voices,
		assignments: assignments,
		sessions:    sessions,
		notices:     notices,
		options:     options,
	}
}

// WizardView is a wizard session as returned to the console.
type WizardView struct {
	ID            string                `json:"id"`
	Step          int                   `json:"step"`
	StepName      string                `json:"stepName"`
	Furthest      int                   `json:"furthest"`
	Editing       bool                  `json:"editing"`
	SelectedVoice string                `json:"selectedVoice,omitempty"`
	Draft         domain.AssistantDraft `json:"draft"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// StartWizardRequest starts a wizard, for a new assistant or to edit AssistantID.
type StartWizardRequest struct {
	AssistantID string `json:"assistantId,omitempty"`
}

// VoiceModeRequest switches between the static library and assigned voices.
type VoiceModeRequest struct {
	Mode domain.VoiceMode `json:"mode"`
}

// ProviderRequest switches the synthesizer provider.
type ProviderRequest struct {
	Provider string `json:"provider"`
}

// SelectVoiceRequest picks a catalog voice.
type SelectVoiceRequest struct {
	VoiceID string `json:"voiceId"`
}

// SelectAssignedVoiceRequest picks one of the owner's assigned voices.
type SelectAssignedVoiceRequest struct {
	AssignmentID string `json:"assignmentId"`
}

// GoToRequest jumps to an already reached step.
type GoToRequest struct {
	Step int `json:"step"`
}

// SubmitResponse lists the assistants saved by a submit.
type SubmitResponse struct {
	Assistants []domain.Assistant `json:"assistants"`
}

func (h *WizardHandler) operator() string {
	if p := h.sessions.Status().Profile; p != nil {
		if p.Email != "" {
			return p.Email
		}
		return p.ID
	}
	return ""
}

// load returns the operator's saved draft and a wizard resumed from it.
func (h *WizardHandler) load(ctx context.Context, id string) (*domain.WizardDraft, *wizard.Wizard, error) {
	rec, err := h.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.Operator != h.operator() {
		return nil, nil, fmt.Errorf("wizard draft %s: %w", id, domain.ErrNotFound)
	}
	wz := wizard.Resume(rec.Draft, wizard.Step(rec.Step), wizard.Step(rec.Furthest), h.assistants, h.notices)
	return rec, wz, nil
}

func (h *WizardHandler) save(ctx context.Context, rec *domain.WizardDraft, wz *wizard.Wizard) error {
	rec.Step = int(wz.Current())
	rec.Furthest = int(wz.Furthest())
	rec.Draft = wz.Draft()
	rec.AssistantID = rec.Draft.AssistantID
	if err := h.drafts.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save wizard draft: %w", err)
	}
	return nil
}

func view(rec *domain.WizardDraft, wz *wizard.Wizard) WizardView {
	d := wz.Draft()
	return WizardView{
		ID:            rec.ID,
		Step:          int(wz.Current()),
		StepName:      wz.Current().String(),
		Furthest:      int(wz.Furthest()),
		Editing:       wz.Editing(),
		SelectedVoice: wizard.SelectedVoice(&d),
		Draft:         d,
		UpdatedAt:     rec.UpdatedAt,
	}
}

// GetOptions godoc
// @Summary Wizard selector options
// @Tags wizard
// @Produce json
// @Success 200 {object} config.WizardOptions
// @Router /api/wizard/options [get]
func (h *WizardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.options)
}

// ListDrafts godoc
// @Summary List the operator's wizard drafts
// @Tags wizard
// @Produce json
// @Success 200 {array} WizardView
// @Router /api/wizard/drafts [get]
func (h *WizardHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	recs, err := h.drafts.GetByOperator(r.Context(), h.operator())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]WizardView, 0, len(recs))
	for _, rec := range recs {
		wz := wizard.Resume(rec.Draft, wizard.Step(rec.Step), wizard.Step(rec.Furthest), h.assistants, h.notices)
		out = append(out, view(rec, wz))
	}
	writeJSON(w, http.StatusOK, out)
}

// StartDraft godoc
// @Summary Start a wizard
// @Description Starts a new assistant with defaults, or loads an existing assistant for editing. Every step of an edited assistant is reachable at once.
// @Tags wizard
// @Accept json
// @Produce json
// @Param body body StartWizardRequest false "Assistant to edit"
// @Success 201 {object} WizardView
// @Router /api/wizard/drafts [post]
func (h *WizardHandler) StartDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req StartWizardRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	var wz *wizard.Wizard
	if req.AssistantID != "" {
		a, err := h.assistants.Get(ctx, req.AssistantID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		wz = wizard.Resume(wizard.FromAssistant(*a), wizard.StepBasics, wizard.StepTask, h.assistants, h.notices)
	} else {
		wz = wizard.New(wizard.NewDraft(), h.assistants, h.notices)
	}

	d := wz.Draft()
	rec, err := h.drafts.Create(ctx, &domain.WizardDraft{
		Operator:    h.operator(),
		AssistantID: d.AssistantID,
		Step:        int(wz.Current()),
		Furthest:    int(wz.Furthest()),
		Draft:       d,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info(ctx, "wizard started",
		zap.String("draft_id", rec.ID),
		zap.String("assistant_id", d.AssistantID),
	)
	writeJSON(w, http.StatusCreated, view(rec, wz))
}

// GetDraft godoc
// @Summary Get a wizard draft
// @Tags wizard
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} WizardView
// @Router /api/wizard/drafts/{id} [get]
func (h *WizardHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	rec, wz, err := h.load(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view(rec, wz))
}

// UpdateDraft godoc
// @Summary Replace the draft's fields
// @Description The owner of an assistant being edited is kept.
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param draft body domain.AssistantDraft true "Draft"
// @Success 200 {object} WizardView
// @Router /api/wizard/drafts/{id} [put]
func (h *WizardHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var body domain.AssistantDraft
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutate(w, r, func(ctx context.Context, wz *wizard.Wizard) error {
		wz.Edit(func(domain.AssistantDraft) domain.AssistantDraft { return body })
		return nil
	})
}

// SetVoiceMode godoc
// @Summary Switch voice mode
// @Description Switching between manual and assigned clears the selected voice.
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param body body VoiceModeRequest true "Mode"
// @Success 200 {object} WizardView
// @Router /api/wizard/drafts/{id}/voice-mode [post]
func (h *WizardHandler) SetVoiceMode(w http.ResponseWriter, r *http.Request) {
	var req VoiceModeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Mode != domain.VoiceModeManual && req.Mode != domain.VoiceModeAssigned {
		writeError(w, r, badRequest(fmt.Sprintf("Unknown voice mode %q", req.Mode)))
		return
	}
	h.mutate(w, r, func(ctx context.Context, wz *wizard.Wizard) error {
		wz.Edit(func(d domain.AssistantDraft) domain.AssistantDraft { return wizard.SetVoiceMode(d, req.Mode) })
		return nil
	})
}

// SetSynthesizerProvider godoc
// @Summary Switch synthesizer provider
// @Description Applies the provider's model, engine and sampling defaults.
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param body body ProviderRequest true "Provider"
// @Success 200 {object} WizardView
// @Router /api/wizard/drafts/{id}/synthesizer-provider [post]
func (h *WizardHandler) SetSynthesizerProvider(w http.ResponseWriter, r *http.Request) {
	var req ProviderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Provider == "" {
		writeError(w, r, badRequest("Provider is required"))
		return
	}
	h.mutate(w, r, func(ctx context.Context, wz *wizard.Wizard) error {
		wz.Edit(func(d domain.AssistantDraft) domain.AssistantDraft { return wizard.SetSynthesizerProvider(d, req.Provider) })
		return nil
	})
}

// SelectVoice godoc
// @Summary Pick a catalog voice
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param body body SelectVoiceRequest true "Voice"
// @Success 200 {object} WizardView
// @Router /api/wizard/drafts/{id}/voice [post]
func (h *WizardHandler) SelectVoice(w http.ResponseWriter, r *http.Request) {
	var req SelectVoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutate(w, r, func(ctx context.Context, wz *wizard.Wizard) error {
		v, err := h.voices.Get(ctx, wizard.NormalizeVoiceID(req.VoiceID))
		if err != nil {
			return err
		}
		wz.Edit(func(d domain.AssistantDraft) domain.AssistantDraft { return wizard.SelectVoice(d, *v) })
		return nil
	})
}

// SelectAssignedVoice godoc
// @Summary Pick one of the owner's assigned voices
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param body body SelectAssignedVoiceRequest true "Assignment"
// @Success 200 {object} WizardView
// @Failure 404 {object} errorResponse
// @Router /api/wizard/drafts/{id}/assigned-voice [post]
func (h *WizardHandler) SelectAssignedVoice(w http.ResponseWriter, r *http.Request) {
	var req SelectAssignedVoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutate(w, r, func(ctx context.Context, wz *wizard.Wizard) error {
		a, err := h.findAssignment(ctx, wz.Draft().UserIDs, req.AssignmentID)
		if err != nil {
			return err
		}
		wz.Edit(func(d domain.AssistantDraft) domain.AssistantDraft { return wizard.SelectAssignedVoice(d, *a) })
		return nil
	})
}

// findAssignment looks the assignment up among the active assignments of the
// draft's owners.
func (h *WizardHandler) findAssignment(ctx context.Context, userIDs []string, id string) (*domain.VoiceAssignment, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("%w: select an owner before picking an assigned voice", domain.ErrInvalidInput)
	}
	for _, uid := range userIDs {
		active, err := h.assignments.ActiveForUser(ctx, uid)
		if err != nil {
			return nil, err
		}
		for _, a := range active {
			if a.ID == id {
				return &a, nil
			}
		}
	}
	return nil, fmt.Errorf("voice assignment %s: %w", id, domain.ErrNotFound)
}

// Next godoc
// @Summary Advance to the next step
// @Description Fails with 422 naming the missing field when the current step is incomplete.
// @Tags wizard
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} WizardView
// @Failure 422 {object} errorResponse
// @Router /api/wizard/drafts/{id}/next [post]
func (h *WizardHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, wz *wizard.Wizard) error { return wz.Next() })
}

// Back godoc
// @Summary Go back one step
// @Tags wizard
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} WizardView
// @Router /api/wizard/drafts/{id}/back [post]
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, wz *wizard.Wizard) error {
		wz.Back()
		return nil
	})
}

// GoTo godoc
// @Summary Jump to a reached step
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param body body GoToRequest true "Step"
// @Success 200 {object} WizardView
// @Failure 409 {object} errorResponse
// @Router /api/wizard/drafts/{id}/goto [post]
func (h *WizardHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	var req GoToRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutate(w, r, func(ctx context.Context, wz *wizard.Wizard) error { return wz.GoTo(wizard.Step(req.Step)) })
}

// Submit godoc
// @Summary Save the assistant
// @Description Validates every step and creates one assistant per selected owner, or updates the edited assistant. The draft is discarded on success. A failing step becomes the current step.
// @Tags wizard
// @Produce json
// @Param id path string true "Draft ID"
// @Success 201 {object} SubmitResponse
// @Failure 422 {object} errorResponse
// @Router /api/wizard/drafts/{id}/submit [post]
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, wz, err := h.load(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := wz.Submit(ctx)
	if err != nil {
		var stepErr *wizard.StepError
		// Keep the jump to the failing step, or the owners still to create.
		if errors.As(err, &stepErr) || len(saved) > 0 {
			if saveErr := h.save(ctx, rec, wz); saveErr != nil {
				logger.Warn(ctx, "failed to save wizard draft", zap.String("draft_id", rec.ID), zap.Error(saveErr))
			}
		}
		if len(saved) > 0 {
			logger.Warn(ctx, "wizard submit partially applied",
				zap.String("draft_id", rec.ID),
				zap.Int("saved", len(saved)),
			)
		}
		writeError(w, r, err)
		return
	}

	if err := h.drafts.Delete(ctx, rec.ID); err != nil {
		logger.Warn(ctx, "failed to discard submitted wizard draft", zap.String("draft_id", rec.ID), zap.Error(err))
	}
	status := http.StatusCreated
	if wz.Editing() {
		status = http.StatusOK
	}
	writeJSON(w, status, SubmitResponse{Assistants: saved})
}

// DeleteDraft godoc
// @Summary Discard a wizard draft
// @Tags wizard
// @Param id path string true "Draft ID"
// @Success 204
// @Router /api/wizard/drafts/{id} [delete]
func (h *WizardHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	rec, _, err := h.load(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.drafts.Delete(r.Context(), rec.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutate loads the draft, applies fn and saves the result. The draft is not
// saved when fn fails.
func (h *WizardHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, wz *wizard.Wizard) error) {
	ctx := r.Context()
	rec, wz, err := h.load(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(ctx, wz); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.save(ctx, rec, wz); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view(rec, wz))
}

// SetupWizardRoutes sets up wizard routes
func (h *WizardHandler) SetupWizardRoutes(router *mux.Router) {
	router.HandleFunc("/wizard/options", h.GetOptions).Methods("GET")
	router.HandleFunc("/wizard/drafts", h.ListDrafts).Methods("GET")
	router.HandleFunc("/wizard/drafts", h.StartDraft).Methods("POST")
	router.HandleFunc("/wizard/drafts/{id}", h.GetDraft).Methods("GET")
	router.HandleFunc("/wizard/drafts/{id}", h.UpdateDraft).Methods("PUT")
	router.HandleFunc("/wizard/drafts/{id}", h.DeleteDraft).Methods("DELETE")
	router.HandleFunc("/wizard/drafts/{id}/voice-mode", h.SetVoiceMode).Methods("POST")
	router.HandleFunc("/wizard/drafts/{id}/synthesizer-provider", h.SetSynthesizerProvider).Methods("POST")
	router.HandleFunc("/wizard/drafts/{id}/voice", h.SelectVoice).Methods("POST")
	router.HandleFunc("/wizard/drafts/{id}/assigned-voice", h.SelectAssignedVoice).Methods("POST")
	router.HandleFunc("/wizard/drafts/{id}/next", h.Next).Methods("POST")
	router.HandleFunc("/wizard/drafts/{id}/back", h.Back).Methods("POST")
	router.HandleFunc("/wizard/drafts/{id}/goto", h.GoTo).Methods("POST")
	router.HandleFunc("/wizard/drafts/{id}/submit", h.Submit).Methods("POST")
}
