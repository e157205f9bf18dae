package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/atomicstack/mention-popup/internal/dom"
	"github.com/atomicstack/mention-popup/internal/host"
	"github.com/atomicstack/mention-popup/internal/logging"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg := msg.(tea.KeyMsg)
	if key.Matches(keyMsg, m.keys.Interrupt) {
		logging.Trace("ui.key", map[string]interface{}{"key": "ctrl+c", "action": "quit"})
		return tea.Quit
	}
	target := m.focused()
	ev := dom.NewEvent(dom.EventKeyDown)
	ev.Key = keyMsg.String()
	consumed := m.doc.Dispatch(target, ev)
	if ev.DefaultPrevented() {
		return consumed
	}
	var cmd tea.Cmd
	switch {
	case key.Matches(keyMsg, m.keys.Focus):
		cmd = m.toggleFocus()
	case key.Matches(keyMsg, m.keys.Quit):
		cmd = tea.Quit
	default:
		cmd = m.edit(target, keyMsg)
	}
	return tea.Batch(consumed, cmd)
}

func (m *Model) toggleFocus() tea.Cmd {
	cmds := make([]tea.Cmd, 0, 2)
	for _, ctrl := range m.controllers() {
		cmds = append(cmds, ctrl.HideMenu())
	}
	if m.focus == FocusText {
		m.focus = FocusRich
	} else {
		m.focus = FocusText
	}
	return tea.Batch(cmds...)
}

// edit applies the default action of a key the engine did not consume and
// notifies the host's listeners of the change.
func (m *Model) edit(target host.Host, msg tea.KeyMsg) tea.Cmd {
	changed, moved := false, false
	switch f := target.(type) {
	case *host.TextField:
		switch msg.Type {
		case tea.KeyRunes:
			f.Insert(string(msg.Runes))
			changed = true
		case tea.KeySpace:
			f.Insert(" ")
			changed = true
		case tea.KeyBackspace:
			changed = f.DeleteBackward()
		case tea.KeyLeft:
			moved = f.MoveCaret(-1)
		case tea.KeyRight:
			moved = f.MoveCaret(1)
		case tea.KeyHome:
			moved = f.SetCaret(0)
		case tea.KeyEnd:
			moved = f.SetCaret(len([]rune(f.Value())))
		}
	case *host.Editable:
		switch msg.Type {
		case tea.KeyRunes:
			f.TypeText(string(msg.Runes))
			changed = true
		case tea.KeySpace:
			f.TypeText(" ")
			changed = true
		case tea.KeyEnter:
			f.TypeText("\n")
			changed = true
		case tea.KeyBackspace:
			changed = f.Backspace()
		case tea.KeyLeft:
			moved = f.MoveCaret(-1)
		case tea.KeyRight:
			moved = f.MoveCaret(1)
		}
	}
	var cmds []tea.Cmd
	switch {
	case changed:
		cmds = append(cmds, m.doc.Dispatch(target, dom.NewEvent(dom.EventInput)))
	case moved:
		cmds = append(cmds, m.doc.Dispatch(target, dom.NewEvent(dom.EventSelectionChange)))
	default:
		return nil
	}
	if target == m.editor {
		cmds = append(cmds, m.revealCaret())
	}
	return tea.Batch(cmds...)
}

// revealCaret scrolls the editor pane so the caret line is visible.
func (m *Model) revealCaret() tea.Cmd {
	line := m.editor.CaretRect().Y - m.pane.ContentOrigin().Y
	scroll := m.pane.Scroll.Y
	switch {
	case line < scroll:
		scroll = line
	case line >= scroll+m.pane.Size.Y:
		scroll = line - m.pane.Size.Y + 1
	default:
		return nil
	}
	return m.doc.ScrollBox(m.pane, dom.Point{X: m.pane.Scroll.X, Y: scroll})
}

func (m *Model) handleMouseMsg(msg tea.Msg) tea.Cmd {
	mouse := msg.(tea.MouseMsg)
	p := dom.Point{X: mouse.X, Y: mouse.Y}
	switch mouse.Button {
	case tea.MouseButtonWheelUp:
		if m.inPane(p) {
			return m.scrollPane(-1)
		}
		return nil
	case tea.MouseButtonWheelDown:
		if m.inPane(p) {
			return m.scrollPane(1)
		}
		return nil
	case tea.MouseButtonLeft:
		if mouse.Action != tea.MouseActionPress {
			return nil
		}
	default:
		return nil
	}
	for _, ctrl := range m.controllers() {
		mnu := ctrl.Menu()
		if !mnu.Contains(p) {
			continue
		}
		ev := dom.NewEvent(dom.EventClick)
		ev.Point = p
		if idx, ok := mnu.RowAt(p); ok {
			ev.Index = idx
		}
		return m.doc.Dispatch(mnu, ev)
	}
	ev := dom.NewEvent(dom.EventClick)
	ev.Point = p
	switch {
	case m.inText(p):
		m.focus = FocusText
		m.text.SetCaret(columnOffset(m.text.Value(), p.X-m.text.Origin.X))
		return m.doc.Dispatch(m.text, ev)
	case m.inPane(p):
		m.focus = FocusRich
		origin := m.pane.ContentOrigin()
		m.editor.SetCaretOffset(lineColumnOffset(m.editor.Text(), p.Y-origin.Y, p.X-origin.X))
		return m.doc.Dispatch(m.editor, ev)
	}
	return m.doc.Dispatch(m.page, ev)
}

func (m *Model) textRect() dom.Rect {
	return dom.Rect{X: m.text.Origin.X, Y: m.text.Origin.Y, Width: max(1, m.width-2), Height: 1}
}

func (m *Model) paneRect() dom.Rect {
	return dom.Rect{X: m.pane.Origin.X, Y: m.pane.Origin.Y, Width: m.pane.Size.X, Height: m.pane.Size.Y}
}

func (m *Model) inText(p dom.Point) bool { return m.textRect().Contains(p) }
func (m *Model) inPane(p dom.Point) bool { return m.paneRect().Contains(p) }

func (m *Model) scrollPane(delta int) tea.Cmd {
	lines := strings.Count(m.editor.Text(), "\n") + 1
	limit := max(0, lines-m.pane.Size.Y)
	next := min(max(0, m.pane.Scroll.Y+delta), limit)
	if next == m.pane.Scroll.Y {
		return nil
	}
	return m.doc.ScrollBox(m.pane, dom.Point{X: m.pane.Scroll.X, Y: next})
}

// columnOffset maps a cell column to the rune offset of the character
// occupying it, clamped to the end of s.
func columnOffset(s string, col int) int {
	if col <= 0 {
		return 0
	}
	width, offset := 0, 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > col {
			return offset
		}
		width += w
		offset++
	}
	return offset
}

// lineColumnOffset maps a line and cell column inside s to a rune offset.
func lineColumnOffset(s string, line, col int) int {
	lines := strings.Split(s, "\n")
	if line < 0 {
		return 0
	}
	offset := 0
	if line >= len(lines) {
		line = len(lines) - 1
		col = runewidth.StringWidth(lines[line])
	}
	for i := 0; i < line; i++ {
		offset += len([]rune(lines[i])) + 1
	}
	return offset + columnOffset(lines[line], col)
}
