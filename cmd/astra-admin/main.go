// astra-admin is the operator CLI for the voice platform admin API. It shares
// the console server's session store, so signing in here also signs in the
// console and the other way round.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ClareAI/astra-voice-admin/cmd/astra-admin/cli"
	"github.com/ClareAI/astra-voice-admin/internal/app"
	"github.com/ClareAI/astra-voice-admin/internal/config"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	// Logs stay quiet unless LOG_ENV asks for them.
	if env := os.Getenv("LOG_ENV"); env == "" {
		logger.SetBase(zap.NewNop())
	} else if _, err := logger.Init(env); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logger: %v\n", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, config.LoadConfig(), app.Options{Notifier: cli.Printer{W: os.Stderr}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer a.Close()

	env := &cli.Env{App: a, Out: os.Stdout, Err: os.Stderr, Password: cli.TerminalPassword}
	if err := cli.Root(env).Execute(ctx, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", cli.Describe(err))
		return cli.ExitCode(err)
	}
	return 0
}
