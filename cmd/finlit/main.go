package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/p-n-ai/pai-finlit/internal/cli"
	"github.com/p-n-ai/pai-finlit/internal/platform/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Content fallbacks are logged as warnings; keep them on stderr so
	// command output stays clean.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	root := cli.NewRootCmd(&cli.App{
		ContentURL: cfg.Content.BaseURL,
		Timeout:    cfg.Content.Timeout,
	})
	return root.ExecuteContext(context.Background())
}
