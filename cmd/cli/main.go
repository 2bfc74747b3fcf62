package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/stepflow/internal/app"
	"github.com/specialistvlad/stepflow/internal/cli"
	"github.com/specialistvlad/stepflow/steps/demo"
)

// main is the entrypoint for the stepflow binary.
func main() {
	// Minimal logger until the configured one takes over.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run holds the application logic so it stays testable and returns errors
// instead of exiting.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	stepflowApp, err := app.NewApp(outW, appConfig, &demo.Module{})
	if err != nil {
		return err
	}
	return stepflowApp.Run(context.Background())
}
