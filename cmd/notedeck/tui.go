package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/notedeck/internal/app"
	"github.com/marcus/notedeck/internal/config"
	"github.com/marcus/notedeck/internal/plugin"
	"github.com/marcus/notedeck/internal/plugins/notes"
	"github.com/marcus/notedeck/internal/state"
)

const logFileName = "notedeck.log"

func runTUI(ctx context.Context, opts *rootOptions, segment string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The alt screen owns stdout, so the TUI logs to a file.
	logger, closeLog, err := openLogFile(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := state.Init(); err != nil {
		logger.Warn("state init failed", "err", err)
	}

	client, err := app.NewAPI(cfg, logger)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	pctx := &plugin.Context{
		Config: cfg,
		Logger: logger,
		API:    client,
		Query:  app.NewQuery(cfg, logger),
		Keymap: app.NewKeymap(cfg, logger),
		Epoch:  1,
	}

	p := notes.New(notes.Options{Category: resolveCategory(segment, cfg)})
	if err := p.Init(pctx); err != nil {
		return fmt.Errorf("init notes: %w", err)
	}
	defer p.Stop()

	var reloads <-chan config.ReloadedMsg
	if w, err := config.NewWatcher(opts.configFile(), 0, logger); err != nil {
		logger.Warn("config hot reload disabled", "err", err)
	} else {
		defer w.Close()
		reloads = w.Changes()
	}

	model := app.New(p, pctx, app.Options{Reloads: reloads})
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// openLogFile opens the TUI log for appending.
func openLogFile(opts *rootOptions) (*slog.Logger, func(), error) {
	path := config.ExpandPath(opts.logFile)
	if path == "" {
		path = filepath.Join(config.Dir(), logFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}
