package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/app"
	"github.com/ClareAI/astra-voice-admin/internal/config"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/wizard"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	mu       sync.Mutex
	users    []domain.User
	created  []domain.AssistantPayload
	deleted  []string
	loggedIn bool
}

func reply(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.APIResponse[interface{}]{Success: true, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": msg})
}

func (b *backend) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			fail(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		reply(w, http.StatusOK, domain.LoginResult{Token: "tok", User: domain.AdminProfile{ID: "admin-1", Email: req.Email}})
	}).Methods("POST")

	authed := r.NewRoute().Subrouter()
	authed.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	authed.HandleFunc("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, domain.AdminProfile{ID: "admin-1", Email: "ops@astra.io"})
	}).Methods("GET")
	authed.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, nil)
	}).Methods("POST")
	authed.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, b.users)
	}).Methods("GET")
	authed.HandleFunc("/users/{id}/approval", func(w http.ResponseWriter, r *http.Request) {
		var req domain.ApprovalRequest
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.users {
			if b.users[i].ID == mux.Vars(r)["id"] {
				b.users[i].IsApproval = req.IsApproval
				reply(w, http.StatusOK, b.users[i])
				return
			}
		}
		fail(w, http.StatusNotFound, "user not found")
	}).Methods("PATCH")
	authed.HandleFunc("/assistants", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []domain.Assistant{
			{ID: "a1", UserID: "u1", AgentName: "Support Bot", AgentType: domain.AgentTypeConversation, Status: domain.AssistantStatusActive},
			{ID: "a2", UserID: "u2", AgentName: "Sales Bot", AgentType: domain.AgentTypeConversation, Status: domain.AssistantStatusDraft},
		})
	}).Methods("GET")
	authed.HandleFunc("/assistants", func(w http.ResponseWriter, r *http.Request) {
		var p domain.AssistantPayload
		json.NewDecoder(r.Body).Decode(&p)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.created = append(b.created, p)
		reply(w, http.StatusCreated, domain.Assistant{ID: fmt.Sprintf("new-%d", len(b.created)), UserID: p.UserID, AgentName: p.AgentName})
	}).Methods("POST")
	authed.HandleFunc("/admin/voices/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] != "aria-11" {
			fail(w, http.StatusNotFound, "voice not found")
			return
		}
		reply(w, http.StatusOK, domain.Voice{ID: "v-aria", VoiceID: "aria-11", Name: "Aria", Provider: "elevenlabs", Language: "en-US"})
	}).Methods("GET")
	authed.HandleFunc("/admin/voices", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []domain.Voice{
			{ID: "v-kajal", VoiceID: "Kajal", Name: "Kajal", Provider: "polly", Language: "en-IN"},
			{ID: "v-aria", VoiceID: "aria-11", Name: "Aria", Provider: "elevenlabs", Language: "en-US"},
		})
	}).Methods("GET")
	authed.HandleFunc("/assign-user-voice", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []domain.VoiceAssignment{
			{ID: "as-1", UserID: "u1", VoiceID: "abc", VoiceName: "Aria", VoiceProvider: "elevenlabs", Status: domain.AssignmentActive},
			{ID: "as-3", UserID: "u2", VoiceID: "def", VoiceName: "Brian", VoiceProvider: "polly", Status: domain.AssignmentActive},
		})
	}).Methods("GET")
	authed.HandleFunc("/assign-user-voice/user/{userId}", func(w http.ResponseWriter, r *http.Request) {
		out := []domain.VoiceAssignment{}
		if mux.Vars(r)["userId"] == "u1" {
			out = append(out, domain.VoiceAssignment{ID: "as-1", UserID: "u1", VoiceID: "elevenlabs-abc", VoiceName: "Aria", VoiceProvider: "elevenlabs", Status: domain.AssignmentActive})
		}
		reply(w, http.StatusOK, out)
	}).Methods("GET")
	authed.HandleFunc("/assign-user-voice/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.deleted = append(b.deleted, mux.Vars(r)["id"])
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")
	return r
}

type harness struct {
	t       *testing.T
	backend *backend
	api     string
	session string
}

func newHarness(t *testing.T) *harness {
	b := &backend{users: []domain.User{
		{ID: "u1", Name: "Ann Lee", Email: "ann@acme.io", CompanyName: "Acme", IsApproval: domain.ApprovalApproved},
		{ID: "u2", Name: "Bob Ray", Email: "bob@globex.io", CompanyName: "Globex"},
	}}
	srv := httptest.NewServer(b.router())
	t.Cleanup(srv.Close)
	return &harness{t: t, backend: b, api: srv.URL, session: filepath.Join(t.TempDir(), "session.json")}
}

// run executes one CLI invocation in a fresh process-like App, the way
// separate astra-admin runs share only the session file.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.Config{
		API: config.APIServiceConfig{APIServiceURL: h.api, Timeout: 2 * time.Second},
		Session: config.SessionConfig{
			Store:        config.SessionStoreFile,
			FilePath:     h.session,
			PollInterval: time.Hour,
		},
		CacheStale: time.Minute,
	}
	var out bytes.Buffer
	a, err := app.New(ctx, cfg, app.Options{Notifier: Printer{W: &out}})
	require.NoError(h.t, err)
	defer a.Close()

	env := &Env{App: a, Out: &out, Err: &out, Password: func() (string, error) { return "secret", nil }}
	err = Root(env).Execute(ctx, &out, args)
	return out.String(), err
}

func TestLoginStatusLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("status")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", out)

	_, err = h.run("users", "list")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, 3, ExitCode(err))

	out, err = h.run("login", "ops@astra.io")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as ops@astra.io")

	out, err = h.run("status", "--json")
	require.NoError(t, err)
	var st StatusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.Authenticated)
	assert.Equal(t, "authenticated", st.Guard)
	require.NotNil(t, st.User)
	assert.Equal(t, "ops@astra.io", st.User.Email)

	_, err = h.run("logout")
	require.NoError(t, err)
	out, err = h.run("status")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", out)
}

func TestLogin_PasswordFileAndRejection(t *testing.T) {
	h := newHarness(t)
	pw := filepath.Join(t.TempDir(), "pw")
	require.NoError(t, os.WriteFile(pw, []byte("wrong\n"), 0o600))

	_, err := h.run("login", "ops@astra.io", "--password-file", pw)
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", Describe(err))

	require.NoError(t, os.WriteFile(pw, []byte("secret\n"), 0o600))
	_, err = h.run("login", "ops@astra.io", "--password-file", pw)
	require.NoError(t, err)
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Equal(t, 2, ExitCode(err))

	_, err = h.run("userz")
	assert.ErrorIs(t, err, ErrUsage)

	_, err = h.run("users", "list", "--bogus")
	assert.ErrorIs(t, err, ErrUsage)

	out, err := h.run("--help")
	require.NoError(t, err)
	assert.Contains(t, out, "assistants")
}

func TestUsersListAndApprove(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "ops@astra.io")
	require.NoError(t, err)

	out, err := h.run("users", "list", "-q", "globex")
	require.NoError(t, err)
	assert.Contains(t, out, "Bob Ray")
	assert.NotContains(t, out, "Ann Lee")

	out, err = h.run("users", "approve", "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2 is now approved\n", out)
	assert.Equal(t, domain.ApprovalApproved, h.backend.users[1].IsApproval)

	out, err = h.run("users", "approve", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1 is now pending\n", out)
}

func TestAssistantsList_FiltersByOwnerAndQuery(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "ops@astra.io")
	require.NoError(t, err)

	out, err := h.run("assistants", "list", "--user", "u2")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales Bot")
	assert.NotContains(t, out, "Support Bot")

	out, err = h.run("assistants", "list", "-q", "ann")
	require.NoError(t, err)
	assert.Contains(t, out, "Support Bot")
	assert.NotContains(t, out, "Sales Bot")
}

func TestVoicesAndAssignments(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "ops@astra.io")
	require.NoError(t, err)

	out, err := h.run("voices", "list", "--provider", "polly")
	require.NoError(t, err)
	assert.Contains(t, out, "Kajal")
	assert.NotContains(t, out, "Aria")

	out, err = h.run("assignments", "list", "--user", "u2")
	require.NoError(t, err)
	assert.Contains(t, out, "Brian")
	assert.NotContains(t, out, "as-1")

	_, err = h.run("assignments", "delete", "as-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"as-3"}, h.backend.deleted)
}

const assistantYAML = `
userIds: [u1, u2]
agentName: Front Desk
welcomeMessage: Hello, how can I help?
systemPrompt: You answer calls for Acme.
llm:
  model: gpt-4o-mini
voiceName: Kajal
task:
  call_terminate: 300
`

func writeFile(t *testing.T, body string) string {
	p := filepath.Join(t.TempDir(), "assistant.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestAssistantsCreate_OnePerOwner(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "ops@astra.io")
	require.NoError(t, err)

	out, err := h.run("assistants", "create", "-f", writeFile(t, assistantYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "2 assistants created")

	require.Len(t, h.backend.created, 2)
	assert.Equal(t, "u1", h.backend.created[0].UserID)
	assert.Equal(t, "u2", h.backend.created[1].UserID)
	p := h.backend.created[0]
	assert.Equal(t, "gpt-4o-mini", p.LLMConfig.Model)
	assert.Equal(t, "openai", p.LLMConfig.Provider)
	assert.Equal(t, wizard.ProviderPolly, p.SynthesizerConfig.Provider)
	require.NotNil(t, p.TaskConfig.CallTerminate)
	assert.Equal(t, 300, *p.TaskConfig.CallTerminate)
}

func TestAssistantsCreate_VoiceFlags(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "ops@astra.io")
	require.NoError(t, err)
	file := writeFile(t, assistantYAML)

	_, err = h.run("assistants", "create", "-f", file, "--user", "u1", "--voice", "elevenlabs-aria-11")
	require.NoError(t, err)
	require.Len(t, h.backend.created, 1)
	sc := h.backend.created[0].SynthesizerConfig
	assert.Equal(t, wizard.ProviderElevenLabs, sc.Provider)
	assert.Equal(t, "Aria", sc.ProviderConfig.Voice)
	assert.Equal(t, "aria-11", sc.ProviderConfig.VoiceID)

	_, err = h.run("assistants", "create", "-f", file, "--user", "u1", "--assignment", "as-1")
	require.NoError(t, err)
	require.Len(t, h.backend.created, 2)
	assert.Equal(t, "abc", h.backend.created[1].SynthesizerConfig.ProviderConfig.VoiceID)

	_, err = h.run("assistants", "create", "-f", file, "--user", "u2", "--assignment", "as-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.run("assistants", "create", "-f", file, "--voice", "x", "--assignment", "as-1")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestAssistantsCreate_MissingCallTerminate(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "ops@astra.io")
	require.NoError(t, err)

	body := strings.Replace(assistantYAML, "task:\n  call_terminate: 300\n", "", 1)
	_, err = h.run("assistants", "create", "-f", writeFile(t, body))
	var se *wizard.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, wizard.StepTask, se.Step)
	assert.Contains(t, Describe(err), "step 5")
	assert.Empty(t, h.backend.created)
}

func TestLoadAssistantFile(t *testing.T) {
	d, err := LoadAssistantFile(strings.NewReader(assistantYAML))
	require.NoError(t, err)
	assert.Equal(t, "Front Desk", d.AgentName)
	assert.Equal(t, []string{"u1", "u2"}, d.UserIDs)
	assert.Equal(t, "deepgram", d.TranscriberConfig.Provider)
	assert.Equal(t, domain.VoiceModeManual, d.VoiceMode)

	_, err = LoadAssistantFile(strings.NewReader("agentNmae: typo\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	d, err = LoadAssistantFile(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, wizard.NewDraft(), d)
}
