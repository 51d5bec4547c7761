package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/spkwatch/internal/cli"
	"github.com/matzehuels/spkwatch/pkg/errors"
)

// Exit codes.
const (
	exitError    = 1
	exitUsage    = 2
	exitCanceled = 130 // Standard shell convention for SIGINT
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errors.UserMessage(err))
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}

func exitCode(err error) int {
	if stderrors.Is(err, context.Canceled) {
		return exitCanceled
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidPackage, errors.ErrCodeInvalidPath:
		return exitUsage
	}
	return exitError
}
