package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/desertthunder/tunecache/internal/tasks"
	"github.com/desertthunder/tunecache/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Browse launches the interactive terminal UI for syncing and browsing songs.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("browse needs an interactive terminal; use list or sync instead")
	}

	store, err := r.songStore(ctx)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logCfg := r.config.Log
	if logCfg.File == "" {
		logCfg.File = filepath.Join("tmp", "tunecache-tui.log")
	}
	fileLogger, closer, err := shared.NewLoggerFromConfig(io.Discard, logCfg)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	previous := r.logger
	r.SetLogger(fileLogger)
	defer r.SetLogger(previous)

	loop := tasks.NewMainLoop()
	defer loop.Close()

	model := ui.NewModel(ctx, r.engineFactory(ctx, store, r.monitor, loop, nil, false))
	defer model.Close()

	p := tea.NewProgram(model, tea.WithContext(ctx))
	model.SetSender(p.Send)
	model.SetOpener(r.openURL)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
