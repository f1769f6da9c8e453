package handler

import (
	"net/http"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/config"
	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/internal/repository"
	"github.com/ClareAI/astra-voice-admin/internal/services/assignment"
	"github.com/ClareAI/astra-voice-admin/internal/services/assistant"
	"github.com/ClareAI/astra-voice-admin/internal/services/user"
	"github.com/ClareAI/astra-voice-admin/internal/services/voice"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/gorilla/mux"
)

// defaultVerifyWait bounds how long a guarded request waits for an in-flight
// session verification.
const defaultVerifyWait = 10 * time.Second

// Dependencies are the services the handlers are built on.
type Dependencies struct {
	Config      config.Config
	Sessions    SessionService
	Users       *user.UserService
	Assistants  *assistant.AssistantService
	Voices      *voice.VoiceService
	Assignments *assignment.AssignmentService
	RepoManager repository.RepositoryManager
	Notices     *notify.Recorder
	VerifyWait  time.Duration
	// EventsPing is the keepalive period of the event stream.
	EventsPing time.Duration
	// Audit receives successful console writes; nil disables auditing.
	Audit AuditPublisher
}

// HandlerManager manages all handlers and their initialization
type HandlerManager struct {
	config      config.Config
	sessions    SessionService
	users       *user.UserService
	assistants  *assistant.AssistantService
	voices      *voice.VoiceService
	assignments *assignment.AssignmentService
	repoManager repository.RepositoryManager
	notices     *notify.Recorder
	verifyWait  time.Duration
	eventsPing  time.Duration
	audit       AuditPublisher
}

// NewHandlerManager creates the handler manager from its dependencies
func NewHandlerManager(deps Dependencies) *HandlerManager {
	notices := deps.Notices
	if notices == nil {
		notices = notify.NewRecorder(0, notify.LogNotifier{})
	}
	wait := deps.VerifyWait
	if wait <= 0 {
		wait = defaultVerifyWait
	}
	return &HandlerManager{
		config:      deps.Config,
		sessions:    deps.Sessions,
		users:       deps.Users,
		assistants:  deps.Assistants,
		voices:      deps.Voices,
		assignments: deps.Assignments,
		repoManager: deps.RepoManager,
		notices:     notices,
		verifyWait:  wait,
		eventsPing:  deps.EventsPing,
		audit:       deps.Audit,
	}
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	// Apply global middleware
	router.Use(RequestIDMiddleware)
	if hm.config.EnableCORS {
		router.Use(CORSMiddleware(hm.config.AllowedOrigins))
	}
	router.Use(GlobalLoggingMiddleware)

	router.HandleFunc("/healthz", hm.health).Methods("GET")

	// Public sign-in routes
	NewAuthHandler(hm.sessions).SetupAuthRoutes(router)

	// Guarded console API
	hm.SetupAPIRoutes(router)

	// Preflight requests never reach the guard
	router.PathPrefix("/").HandlerFunc(handleCORS).Methods("OPTIONS")

	logger.Base().Info("all application routes registered")
}

// SetupAPIRoutes sets up the guarded console API
func (hm *HandlerManager) SetupAPIRoutes(router *mux.Router) {
	apiRouter := router.PathPrefix("/api").Subrouter()

	apiRouter.Use(LoggingMiddleware)
	apiRouter.Use(GuardMiddleware(hm.sessions, hm.verifyWait))
	apiRouter.Use(ValidationMiddleware)
	if hm.audit != nil {
		apiRouter.Use(AuditMiddleware(hm.audit, hm.sessions))
	}

	NewUserHandler(hm.users, hm.notices).SetupUserRoutes(apiRouter)
	NewAssistantHandler(hm.assistants, hm.users, hm.notices).SetupAssistantRoutes(apiRouter)
	NewVoiceHandler(hm.voices).SetupVoiceRoutes(apiRouter)
	NewAssignmentHandler(hm.assignments, hm.notices).SetupAssignmentRoutes(apiRouter)
	NewWizardHandler(
		hm.repoManager.WizardDraft(),
		hm.assistants,
		hm.voices,
		hm.assignments,
		hm.sessions,
		hm.notices,
		config.DefaultWizardOptions(),
	).SetupWizardRoutes(apiRouter)
	NewConsoleHandler(hm.sessions, hm.notices).SetupConsoleRoutes(apiRouter)
	NewEventsHandler(hm.sessions, hm.notices, hm.config.AllowedOrigins, hm.eventsPing).SetupEventsRoutes(apiRouter)

	logger.Base().Info("console api routes registered")
}

// GetRepoManager returns the repository manager
func (hm *HandlerManager) GetRepoManager() repository.RepositoryManager {
	return hm.repoManager
}

// Notices returns the notification recorder shared by the handlers
func (hm *HandlerManager) Notices() *notify.Recorder {
	return hm.notices
}

func (hm *HandlerManager) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if err := hm.repoManager.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// handleCORS answers preflight requests; the CORS middleware has set the headers.
func handleCORS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
