package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/session"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SessionService is the operator session surface the handlers use.
type SessionService interface {
	SessionChecker
	Status() session.Status
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AdminProfile, error)
	Logout(ctx context.Context) error
	Preferences() *session.Preferences
}

// AuthHandler handles sign-in, sign-out and session status.
type AuthHandler struct {
	sessions SessionService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// LoginBody is the body of POST /auth/login. Redirect is the path to return
// to after signing in, as carried by the login page's redirect parameter.
type LoginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Redirect string `json:"redirect,omitempty"`
}

// LoginResponse is returned after a successful sign-in.
type LoginResponse struct {
	User     *domain.AdminProfile `json:"user"`
	Redirect string               `json:"redirect"`
}

// StatusResponse describes the reconciled session.
type StatusResponse struct {
	Authenticated bool                 `json:"authenticated"`
	Loading       bool                 `json:"loading"`
	Guard         string               `json:"guard"`
	User          *domain.AdminProfile `json:"user,omitempty"`
}

// Login godoc
// @Summary Sign in
// @Description Authenticate the operator and persist the session
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginBody true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		writeError(w, r, badRequest("Email and password are required"))
		return
	}

	profile, err := h.sessions.Login(r.Context(), domain.LoginRequest{
		Email:    strings.TrimSpace(body.Email),
		Password: body.Password,
	})
	if err != nil {
		logger.Warn(r.Context(), "sign in failed", zap.String("email", body.Email), zap.Error(err))
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{User: profile, Redirect: safeRedirect(body.Redirect)})
}

// Logout godoc
// @Summary Sign out
// @Description Clear the operator session. Backend failures do not keep the session alive.
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status godoc
// @Summary Session status
// @Tags auth
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /auth/status [get]
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

func (h *AuthHandler) status() StatusResponse {
	s := h.sessions.Status()
	guard := session.Unauthenticated
	switch {
	case s.IsAuthenticated:
		guard = session.Authenticated
	case s.IsLoading:
		guard = session.Verifying
	}
	return StatusResponse{
		Authenticated: s.IsAuthenticated,
		Loading:       s.IsLoading,
		Guard:         guard.String(),
		User:          s.Profile,
	}
}

// LoginPage answers the guard's redirect target. A signed-in operator is sent
// straight on to the preserved path.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	target := safeRedirect(r.URL.Query().Get("redirect"))
	if h.sessions.Status().IsAuthenticated {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"loginRequired": true,
		"redirect":      target,
	})
}

// safeRedirect only accepts local absolute paths.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, session.LoginPath) {
		return "/"
	}
	return target
}

// SetupAuthRoutes sets up the public auth routes
func (h *AuthHandler) SetupAuthRoutes(router *mux.Router) {
	router.HandleFunc(session.LoginPath, h.LoginPage).Methods("GET")
	router.HandleFunc("/auth/login", h.Login).Methods("POST")
	router.HandleFunc("/auth/logout", h.Logout).Methods("POST")
	router.HandleFunc("/auth/status", h.Status).Methods("GET")
}
