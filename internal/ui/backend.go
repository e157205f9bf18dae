package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/mention-popup/internal/backend"
	"github.com/atomicstack/mention-popup/internal/logging"
)

func waitForBackendEvent(w *backend.Watcher) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-w.Events()
		if !ok {
			return backendDoneMsg{}
		}
		return backendEventMsg{event: evt}
	}
}

type backendEventMsg struct {
	event backend.Event
}

type backendDoneMsg struct{}

// Watch makes the model apply feed events from w. Call before the program
// starts so Init picks it up.
func (m *Model) Watch(w *backend.Watcher) {
	m.backend = w
}

// StopWatching stops the feed watcher, if any.
func (m *Model) StopWatching() {
	if m.backend != nil {
		m.backend.Stop()
	}
}

func (m *Model) handleBackendEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg := msg.(backendEventMsg)
	cmd := m.applyBackendEvent(eventMsg.event)
	if m.backend != nil {
		return tea.Batch(cmd, waitForBackendEvent(m.backend))
	}
	return cmd
}

func (m *Model) handleBackendDoneMsg(tea.Msg) tea.Cmd {
	m.backend = nil
	return nil
}

// applyBackendEvent replaces the watched collection's values on every host.
// A failed poll keeps the previous list.
func (m *Model) applyBackendEvent(evt backend.Event) tea.Cmd {
	if evt.Err != nil {
		m.errMsg = fmt.Sprintf("Refresh failed: %v", evt.Err)
		logging.Error(fmt.Errorf("feed for collection %d: %w", evt.Collection, evt.Err))
		return nil
	}
	m.errMsg = ""
	var cmds []tea.Cmd
	for _, ctrl := range m.controllers() {
		cmd, err := ctrl.Append(evt.Collection, true, evt.Candidates...)
		if err != nil {
			logging.Error(fmt.Errorf("apply feed to %s: %w", ctrl.Host().ID(), err))
			continue
		}
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}
