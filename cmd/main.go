package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ytrec/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "ytrec",
		Usage:    "Enrich YouTube playlists and turn them into matched recommendations",
		Version:  "0.3.0",
		Flags:    globalFlags(),
		Before:   runner.Configure,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Error("not authenticated: run `ytrec auth login` or set YOUTUBE_API_KEY")
		}
		logger.Fatalf("application error: %v", err)
	}
}
