package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ClareAI/astra-voice-admin/internal/app"
	"golang.org/x/term"
)

// ErrNotSignedIn is returned by data commands when there is no valid session.
var ErrNotSignedIn = errors.New("not signed in, run 'astra-admin login <email>'")

// Env is what every command runs against.
type Env struct {
	App *app.App
	Out io.Writer
	Err io.Writer
	// Password reads the login password when no --password-file is given.
	Password func() (string, error)
}

// requireSession waits out any in-flight verification and fails when the
// operator is not signed in.
func (e *Env) requireSession(ctx context.Context, path string) error {
	if d := e.App.Sessions.Check(ctx, path); !d.Allow {
		return ErrNotSignedIn
	}
	return nil
}

func (e *Env) table(header string, rows [][]string) error {
	tw := tabwriter.NewWriter(e.Out, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func (e *Env) json(v interface{}) error {
	enc := json.NewEncoder(e.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TerminalPassword prompts on stderr and reads stdin with echo disabled.
func TerminalPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: no terminal for the password prompt, use --password-file", ErrUsage)
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func readPasswordFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read password file: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
