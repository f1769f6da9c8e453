package handler

import (
	"fmt"
	"net/http"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/listing"
	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/internal/services/user"
	"github.com/gorilla/mux"
)

// UserHandler handles HTTP requests for platform users
type UserHandler struct {
	users   *user.UserService
	notices notify.Notifier
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *user.UserService, notices notify.Notifier) *UserHandler {
	return &UserHandler{users: users, notices: notices}
}

// ApprovalResponse carries a user's approval flag after a toggle.
type ApprovalResponse struct {
	ID         string `json:"id"`
	IsApproval int    `json:"isApproval"`
}

// ListUsers godoc
// @Summary List users
// @Description List platform users, optionally filtered by a search term over name, email and company
// @Tags users
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {array} domain.User
// @Router /api/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing.Users(users, r.URL.Query().Get("q")))
}

// ListOwners godoc
// @Summary List assignable owners
// @Description Users that may own assistants: approved and holding a bearer token
// @Tags users
// @Produce json
// @Success 200 {array} domain.User
// @Router /api/users/owners [get]
func (h *UserHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.users.Owners(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, owners)
}

// GetUser godoc
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.User
// @Failure 404 {object} errorResponse
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// CreateUser godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body domain.CreateUserRequest true "User"
// @Success 201 {object} domain.User
// @Failure 400 {object} errorResponse
// @Router /api/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.users.Create(r.Context(), req)
	if err != nil {
		report(r.Context(), h.notices, err, "")
		writeError(w, r, err)
		return
	}
	report(r.Context(), h.notices, nil, fmt.Sprintf("User %s created", u.Email))
	writeJSON(w, http.StatusCreated, u)
}

// UpdateUser godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body domain.UpdateUserRequest true "Fields to change"
// @Success 200 {object} domain.User
// @Router /api/users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.users.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		report(r.Context(), h.notices, err, "")
		writeError(w, r, err)
		return
	}
	report(r.Context(), h.notices, nil, fmt.Sprintf("User %s updated", u.Email))
	writeJSON(w, http.StatusOK, u)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Param id path string true "User ID"
// @Success 204
// @Router /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.users.Delete(r.Context(), mux.Vars(r)["id"])
	report(r.Context(), h.notices, err, "User deleted")
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleApproval godoc
// @Summary Toggle a user's approval
// @Description Flips the approval flag. The cached list reflects the change at once and is rolled back if the backend rejects it.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} ApprovalResponse
// @Router /api/users/{id}/approval [patch]
func (h *UserHandler) ToggleApproval(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	approval, err := h.users.ToggleApproval(r.Context(), id)
	if err != nil {
		report(r.Context(), h.notices, err, "")
		writeError(w, r, err)
		return
	}
	state := "pending"
	if approval == domain.ApprovalApproved {
		state = "approved"
	}
	report(r.Context(), h.notices, nil, fmt.Sprintf("User %s is now %s", id, state))
	writeJSON(w, http.StatusOK, ApprovalResponse{ID: id, IsApproval: approval})
}

// SetupUserRoutes sets up user routes
func (h *UserHandler) SetupUserRoutes(router *mux.Router) {
	router.HandleFunc("/users", h.ListUsers).Methods("GET")
	router.HandleFunc("/users", h.CreateUser).Methods("POST")
	router.HandleFunc("/users/owners", h.ListOwners).Methods("GET")
	router.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	router.HandleFunc("/users/{id}", h.UpdateUser).Methods("PUT")
	router.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")
	router.HandleFunc("/users/{id}/approval", h.ToggleApproval).Methods("PATCH")
}
