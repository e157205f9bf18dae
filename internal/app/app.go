package app

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/mention-popup/internal/backend"
	"github.com/atomicstack/mention-popup/internal/collections"
	"github.com/atomicstack/mention-popup/internal/logging/events"
	"github.com/atomicstack/mention-popup/internal/source"
	"github.com/atomicstack/mention-popup/internal/ui"
)

const (
	FocusText = ui.FocusText
	FocusRich = ui.FocusRich
)

// Config describes user-provided application options.
type Config struct {
	SocketPath         string
	CollectionsFile    string
	Width              int
	Height             int
	ShowFooter         bool
	Focus              string
	RepositionInterval time.Duration
}

// Build constructs the UI model and attaches the configured collections to
// both of its hosts.
func Build(cfg Config) (*ui.Model, error) {
	socketPath, err := source.ResolveSocketPath(cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("resolve socket path: %w", err)
	}
	model := ui.NewModel(ui.Options{
		Width:              cfg.Width,
		Height:             cfg.Height,
		ShowFooter:         cfg.ShowFooter,
		Focus:              cfg.Focus,
		RepositionInterval: cfg.RepositionInterval,
	})
	set, err := collections.LoadSet(cfg.CollectionsFile, collections.Options{
		SocketPath: socketPath,
		Lookup:     model.Document().Lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	events.App.Collections(cfg.CollectionsFile, len(set.Collections))
	if err := model.Attach(set.Collections); err != nil {
		return nil, err
	}
	if len(set.Feeds) > 0 {
		model.Watch(backend.NewWatcher(set.Feeds))
	}
	return model, nil
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	model, err := Build(cfg)
	if err != nil {
		return err
	}
	defer model.StopWatching()
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = program.Run()
	events.App.Exit(err)
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
