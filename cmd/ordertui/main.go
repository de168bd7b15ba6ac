package main

import (
	"context"
	"fmt"
	"orderchat/internal/config"
	"orderchat/internal/infrastructure"
	"orderchat/internal/interfaces/tui"
	"orderchat/internal/usecases"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// the terminal belongs to the UI, logs go next to the database
	logPath := filepath.Join(filepath.Dir(cfg.SQLitePath), "ordertui.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(logFile).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	store, err := infrastructure.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SyncCatalog(ctx, cfg.CatalogCSV, log); err != nil {
		log.Warn().Err(err).Msg("failed to sync products from CSV")
	}

	widget := usecases.NewChatWidget(cfg.LocalOwnerID, store, store,
		usecases.WithTypingDelay(cfg.TypingDelay),
		usecases.WithLogger(log),
	)
	defer widget.Close()

	model := tui.New(ctx, widget)
	widget.Connect()
	widget.ToggleChat()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
