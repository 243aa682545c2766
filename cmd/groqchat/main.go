package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PabloGalante/groq-chat/internal/adapters/tui"
	"github.com/PabloGalante/groq-chat/internal/app/archive"
	"github.com/PabloGalante/groq-chat/internal/app/conversation"
	"github.com/PabloGalante/groq-chat/internal/bootstrap"
	"github.com/PabloGalante/groq-chat/internal/config"
	"github.com/PabloGalante/groq-chat/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "groqchat:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI.
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	observability.Configure(cfg.LogLevel, logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, err := bootstrap.Gateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error initializing LLM gateway: %w", err)
	}
	cat, err := bootstrap.Catalog(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := bootstrap.Archive(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sess := conversation.New(gateway, cat)
	model := tui.New(ctx, sess, archive.NewService(store))

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
