package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	apihttp "github.com/ClareAI/astra-voice-admin/internal/adapters/http"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/listing"
	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/internal/wizard"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Root builds the astra-admin command tree over env.
func Root(env *Env) *Command {
	return &Command{
		Name:    "astra-admin",
		Summary: "Operate the voice platform admin API from the terminal",
		Subcommands: []*Command{
			loginCommand(env),
			logoutCommand(env),
			statusCommand(env),
			usersCommand(env),
			assistantsCommand(env),
			voicesCommand(env),
			assignmentsCommand(env),
		},
	}
}

func loginCommand(env *Env) *Command {
	var passwordFile, redirect string
	return &Command{
		Name:    "login",
		Summary: "Sign in and save the session",
		Usage:   "astra-admin login <email> [--password-file path]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVar(&passwordFile, "password-file", "", "read the password from this file instead of prompting")
			fs.StringVar(&redirect, "redirect", "", "print this console path after signing in")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: login takes exactly one email", ErrUsage)
			}
			var password string
			var err error
			if passwordFile != "" {
				password, err = readPasswordFile(passwordFile)
			} else {
				password, err = env.Password()
			}
			if err != nil {
				return err
			}

			profile, err := env.App.Sessions.Login(ctx, domain.LoginRequest{Email: args[0], Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Signed in as %s\n", profile.Email)
			if redirect != "" {
				fmt.Fprintf(env.Out, "Continue at %s\n", redirect)
			}
			return nil
		},
	}
}

func logoutCommand(env *Env) *Command {
	return &Command{
		Name:    "logout",
		Summary: "Sign out and clear the saved session",
		Run: func(ctx context.Context, args []string) error {
			if err := env.App.Sessions.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "Signed out")
			return nil
		},
	}
}

// StatusOutput is the JSON form of the status command.
type StatusOutput struct {
	Authenticated bool                 `json:"authenticated"`
	Guard         string               `json:"guard"`
	User          *domain.AdminProfile `json:"user,omitempty"`
}

func statusCommand(env *Env) *Command {
	var asJSON bool
	return &Command{
		Name:    "status",
		Summary: "Show whether a verified session is saved",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
			fs.BoolVar(&asJSON, "json", false, "output as JSON")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			decision := env.App.Sessions.Check(ctx, "/")
			st := env.App.Sessions.Status()
			out := StatusOutput{Authenticated: decision.Allow, Guard: decision.State.String()}
			if decision.Allow {
				out.User = st.Profile
			}
			if asJSON {
				return env.json(out)
			}
			if !out.Authenticated {
				fmt.Fprintln(env.Out, "Not signed in")
				return nil
			}
			who := "unknown operator"
			if out.User != nil {
				who = out.User.Email
			}
			fmt.Fprintf(env.Out, "Signed in as %s\n", who)
			return nil
		},
	}
}

func usersCommand(env *Env) *Command {
	var query string
	var asJSON bool
	return &Command{
		Name:    "users",
		Summary: "List users and manage approval",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List users, optionally filtered",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
					fs.StringVarP(&query, "query", "q", "", "match name, email, company or id")
					fs.BoolVar(&asJSON, "json", false, "output as JSON")
					return fs
				},
				Run: func(ctx context.Context, args []string) error {
					if err := env.requireSession(ctx, "/users"); err != nil {
						return err
					}
					users, err := env.App.Users.List(ctx)
					if err != nil {
						return err
					}
					users = listing.Users(users, query)
					if asJSON {
						return env.json(users)
					}
					rows := make([][]string, 0, len(users))
					for _, u := range users {
						rows = append(rows, []string{u.ID, u.Name, u.Email, u.CompanyName, approvalLabel(u.IsApproval)})
					}
					return env.table("ID\tNAME\tEMAIL\tCOMPANY\tAPPROVAL", rows)
				},
			},
			{
				Name:    "approve",
				Summary: "Toggle a user's approval",
				Usage:   "astra-admin users approve <id>",
				Run: func(ctx context.Context, args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("%w: approve takes exactly one user id", ErrUsage)
					}
					if err := env.requireSession(ctx, "/users"); err != nil {
						return err
					}
					next, err := env.App.Users.ToggleApproval(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(env.Out, "%s is now %s\n", args[0], approvalLabel(next))
					return nil
				},
			},
		},
	}
}

func approvalLabel(v int) string {
	if v == domain.ApprovalApproved {
		return "approved"
	}
	return "pending"
}

func assistantsCommand(env *Env) *Command {
	var query, userID string
	var asJSON bool

	var file, voiceID, assignmentID string
	var users []string

	return &Command{
		Name:    "assistants",
		Summary: "List, create and manage assistants",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List assistants, optionally by owner or search",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
					fs.StringVarP(&query, "query", "q", "", "match assistant name, type, status or owner")
					fs.StringVar(&userID, "user", "", "only this owner's assistants")
					fs.BoolVar(&asJSON, "json", false, "output as JSON")
					return fs
				},
				Run: func(ctx context.Context, args []string) error {
					if err := env.requireSession(ctx, "/assistants"); err != nil {
						return err
					}
					items, err := env.App.Assistants.List(ctx, "")
					if err != nil {
						return err
					}
					var owners []domain.User
					if query != "" {
						if owners, err = env.App.Users.List(ctx); err != nil {
							return err
						}
					}
					items = listing.Assistants(items, query, userID, owners)
					if asJSON {
						return env.json(items)
					}
					rows := make([][]string, 0, len(items))
					for _, a := range items {
						rows = append(rows, []string{a.ID, a.AgentName, string(a.AgentType), string(a.Status), a.UserID})
					}
					return env.table("ID\tNAME\tTYPE\tSTATUS\tOWNER", rows)
				},
			},
			{
				Name:    "create",
				Summary: "Create assistants from a YAML file",
				Usage:   "astra-admin assistants create -f assistant.yaml [--user id]... [--voice id | --assignment id]",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
					fs.StringVarP(&file, "file", "f", "", "assistant YAML file, - for stdin")
					fs.StringSliceVar(&users, "user", nil, "owner id, repeatable; replaces userIds from the file")
					fs.StringVar(&voiceID, "voice", "", "catalog voice to use")
					fs.StringVar(&assignmentID, "assignment", "", "owner's assigned voice to use")
					return fs
				},
				Run: func(ctx context.Context, args []string) error {
					if file == "" {
						return fmt.Errorf("%w: --file is required", ErrUsage)
					}
					if voiceID != "" && assignmentID != "" {
						return fmt.Errorf("%w: --voice and --assignment are exclusive", ErrUsage)
					}
					if err := env.requireSession(ctx, "/assistants/new"); err != nil {
						return err
					}

					draft, err := openAssistantFile(file)
					if err != nil {
						return err
					}
					if len(users) > 0 {
						draft.UserIDs = users
					}
					if draft, err = env.applyVoice(ctx, draft, voiceID, assignmentID); err != nil {
						return err
					}

					wz := wizard.Resume(draft, wizard.StepTask, wizard.StepTask, env.App.Assistants, env.App.Notices)
					saved, err := wz.Submit(ctx)
					for _, a := range saved {
						fmt.Fprintf(env.Out, "%s\t%s\t%s\n", a.ID, a.AgentName, a.UserID)
					}
					return err
				},
			},
			{
				Name:    "status",
				Summary: "Set an assistant's status",
				Usage:   "astra-admin assistants status <id> <draft|active|inactive|deleted>",
				Run: func(ctx context.Context, args []string) error {
					if len(args) != 2 {
						return fmt.Errorf("%w: status takes an assistant id and a status", ErrUsage)
					}
					if err := env.requireSession(ctx, "/assistants"); err != nil {
						return err
					}
					a, err := env.App.Assistants.SetStatus(ctx, args[0], domain.AssistantStatus(args[1]))
					if err != nil {
						return err
					}
					fmt.Fprintf(env.Out, "%s is now %s\n", a.AgentName, a.Status)
					return nil
				},
			},
			{
				Name:    "delete",
				Summary: "Delete an assistant",
				Usage:   "astra-admin assistants delete <id>",
				Run: func(ctx context.Context, args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("%w: delete takes exactly one assistant id", ErrUsage)
					}
					if err := env.requireSession(ctx, "/assistants"); err != nil {
						return err
					}
					if err := env.App.Assistants.Delete(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(env.Out, "Deleted %s\n", args[0])
					return nil
				},
			},
		},
	}
}

func (e *Env) applyVoice(ctx context.Context, d domain.AssistantDraft, voiceID, assignmentID string) (domain.AssistantDraft, error) {
	switch {
	case voiceID != "":
		v, err := e.App.Voices.Get(ctx, wizard.NormalizeVoiceID(voiceID))
		if err != nil {
			return d, err
		}
		return wizard.SelectVoice(d, *v), nil
	case assignmentID != "":
		for _, uid := range d.UserIDs {
			active, err := e.App.Assignments.ActiveForUser(ctx, uid)
			if err != nil {
				return d, err
			}
			for _, a := range active {
				if a.ID == assignmentID {
					return wizard.SelectAssignedVoice(d, a), nil
				}
			}
		}
		return d, fmt.Errorf("assignment %s: %w", assignmentID, domain.ErrNotFound)
	}
	return d, nil
}

func openAssistantFile(path string) (domain.AssistantDraft, error) {
	if path == "-" {
		return LoadAssistantFile(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.AssistantDraft{}, err
	}
	defer f.Close()
	return LoadAssistantFile(f)
}

// LoadAssistantFile reads a YAML assistant definition over the wizard's
// defaults. Unknown keys are rejected.
func LoadAssistantFile(r io.Reader) (domain.AssistantDraft, error) {
	d := wizard.NewDraft()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return d, fmt.Errorf("%w: assistant file: %v", domain.ErrInvalidInput, err)
	}
	return d, nil
}

func voicesCommand(env *Env) *Command {
	var provider string
	var asJSON bool
	return &Command{
		Name:    "voices",
		Summary: "Browse the voice catalog",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List catalog voices",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
					fs.StringVar(&provider, "provider", "", "only voices of this synthesizer provider")
					fs.BoolVar(&asJSON, "json", false, "output as JSON")
					return fs
				},
				Run: func(ctx context.Context, args []string) error {
					if err := env.requireSession(ctx, "/voices"); err != nil {
						return err
					}
					var voices []domain.Voice
					var err error
					if provider == "" {
						voices, err = env.App.Voices.Catalog(ctx)
					} else {
						voices, err = env.App.Voices.ByProvider(ctx, provider)
					}
					if err != nil {
						return err
					}
					if asJSON {
						return env.json(voices)
					}
					rows := make([][]string, 0, len(voices))
					for _, v := range voices {
						rows = append(rows, []string{v.ID, v.Name, v.Provider, v.Language})
					}
					return env.table("ID\tNAME\tPROVIDER\tLANGUAGE", rows)
				},
			},
		},
	}
}

func assignmentsCommand(env *Env) *Command {
	var query, userID string
	var asJSON bool
	return &Command{
		Name:    "assignments",
		Summary: "List and remove voice assignments",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List voice assignments",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
					fs.StringVarP(&query, "query", "q", "", "match voice, provider, project or user")
					fs.StringVar(&userID, "user", "", "only this user's assignments")
					fs.BoolVar(&asJSON, "json", false, "output as JSON")
					return fs
				},
				Run: func(ctx context.Context, args []string) error {
					if err := env.requireSession(ctx, "/voice-assignments"); err != nil {
						return err
					}
					items, err := env.App.Assignments.List(ctx)
					if err != nil {
						return err
					}
					items = listing.Assignments(items, query, userID)
					if asJSON {
						return env.json(items)
					}
					rows := make([][]string, 0, len(items))
					for _, a := range items {
						rows = append(rows, []string{a.ID, a.UserID, a.VoiceName, a.VoiceProvider, string(a.Status)})
					}
					return env.table("ID\tUSER\tVOICE\tPROVIDER\tSTATUS", rows)
				},
			},
			{
				Name:    "delete",
				Summary: "Delete a voice assignment",
				Usage:   "astra-admin assignments delete <id>",
				Run: func(ctx context.Context, args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("%w: delete takes exactly one assignment id", ErrUsage)
					}
					if err := env.requireSession(ctx, "/voice-assignments"); err != nil {
						return err
					}
					if err := env.App.Assignments.Delete(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(env.Out, "Deleted %s\n", args[0])
					return nil
				},
			},
		},
	}
}

// Printer reports wizard notifications on a terminal. Error notices are
// dropped since the failing command returns the same error.
type Printer struct {
	W io.Writer
}

var _ notify.Notifier = Printer{}

func (p Printer) Success(_ context.Context, msg string) {
	fmt.Fprintln(p.W, msg)
}

func (p Printer) Error(context.Context, string) {}

// Describe renders err for the terminal, preferring the API's own message.
func Describe(err error) string {
	return apihttp.UserMessage(err)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	case errors.Is(err, ErrNotSignedIn):
		return 3
	}
	return 1
}
