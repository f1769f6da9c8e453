package handler

import (
	"net/http"
	"strconv"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/listing"
	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/internal/services/assignment"
	"github.com/gorilla/mux"
)

// AssignmentHandler handles HTTP requests for voice assignments
type AssignmentHandler struct {
	assignments *assignment.AssignmentService
	notices     notify.Notifier
}

// NewAssignmentHandler creates a new voice assignment handler
func NewAssignmentHandler(assignments *assignment.AssignmentService, notices notify.Notifier) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, notices: notices}
}

// ListAssignments godoc
// @Summary List voice assignments
// @Tags voice-assignments
// @Produce json
// @Param q query string false "Search term"
// @Param userId query string false "User ID"
// @Success 200 {array} domain.VoiceAssignment
// @Router /api/voice-assignments [get]
func (h *AssignmentHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	items, err := h.assignments.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, listing.Assignments(items, q.Get("q"), q.Get("userId")))
}

// ListUserAssignments godoc
// @Summary List one user's voice assignments
// @Description With active=true only active, non-deleted assignments are returned; these are the voices the wizard offers in assigned mode.
// @Tags voice-assignments
// @Produce json
// @Param userId path string true "User ID"
// @Param active query bool false "Only assignable voices"
// @Success 200 {array} domain.VoiceAssignment
// @Router /api/voice-assignments/user/{userId} [get]
func (h *AssignmentHandler) ListUserAssignments(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	active, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	var (
		items []domain.VoiceAssignment
		err   error
	)
	if active {
		items, err = h.assignments.ActiveForUser(r.Context(), userID)
	} else {
		items, err = h.assignments.ListByUser(r.Context(), userID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateAssignment godoc
// @Summary Assign a voice to a user
// @Tags voice-assignments
// @Accept json
// @Produce json
// @Param body body domain.AssignVoiceRequest true "Assignment"
// @Success 201 {object} domain.VoiceAssignment
// @Failure 400 {object} errorResponse
// @Router /api/voice-assignments [post]
func (h *AssignmentHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req domain.AssignVoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.assignments.Assign(r.Context(), req)
	report(r.Context(), h.notices, err, "Voice assigned")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// UpdateAssignment godoc
// @Summary Update a voice assignment
// @Tags voice-assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param body body domain.UpdateAssignmentRequest true "Fields to change"
// @Success 200 {object} domain.VoiceAssignment
// @Router /api/voice-assignments/{id} [put]
func (h *AssignmentHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.assignments.Update(r.Context(), mux.Vars(r)["id"], req)
	report(r.Context(), h.notices, err, "Voice assignment updated")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAssignment godoc
// @Summary Delete a voice assignment
// @Tags voice-assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /api/voice-assignments/{id} [delete]
func (h *AssignmentHandler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	err := h.assignments.Delete(r.Context(), mux.Vars(r)["id"])
	report(r.Context(), h.notices, err, "Voice assignment deleted")
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetupAssignmentRoutes sets up voice assignment routes
func (h *AssignmentHandler) SetupAssignmentRoutes(router *mux.Router) {
	router.HandleFunc("/voice-assignments", h.ListAssignments).Methods("GET")
	router.HandleFunc("/voice-assignments", h.CreateAssignment).Methods("POST")
	router.HandleFunc("/voice-assignments/user/{userId}", h.ListUserAssignments).Methods("GET")
	router.HandleFunc("/voice-assignments/{id}", h.UpdateAssignment).Methods("PUT")
	router.HandleFunc("/voice-assignments/{id}", h.DeleteAssignment).Methods("DELETE")
}
