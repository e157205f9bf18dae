package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/atomicstack/mention-popup/internal/host"
	"github.com/atomicstack/mention-popup/internal/menu"
)

const title = "mention-popup"

type cell struct {
	r     rune
	style *lipgloss.Style
	// raw is pre-rendered output drawn instead of r.
	raw string
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderHeader())
	lines = append(lines, strings.Split(m.renderText(), "\n")...)
	lines = append(lines, strings.Split(m.renderEditor(), "\n")...)
	lines = append(lines, m.renderStatus())
	if m.showFooter {
		lines = append(lines, m.renderFooter())
	}
	out := strings.Join(lines, "\n")
	for _, ctrl := range m.controllers() {
		view := ctrl.View()
		if !view.Visible {
			continue
		}
		out = compose(out, renderMenu(view), view.Absolute.X, view.Absolute.Y)
	}
	return out
}

func (m *Model) renderHeader() string {
	label := "text field"
	if m.focus == FocusRich {
		label = "rich editor"
	}
	line := fmt.Sprintf("%s  %s", styles.Header.Render(title), styles.HostLabel.Render("focus: "+label))
	return ansi.Truncate(line, m.width, "")
}

func (m *Model) hostStyle(focused bool) lipgloss.Style {
	if focused {
		return *styles.FocusedHost
	}
	return *styles.Host
}

func (m *Model) renderText() string {
	inner := max(1, m.width-2)
	focused := m.focus == FocusText
	cells := make([]cell, 0, len(m.text.Value())+1)
	for _, r := range m.text.Value() {
		cells = append(cells, cell{r: r})
	}
	line := renderCells(m.withCursor(cells, m.text.Caret(), focused))
	return m.hostStyle(focused).Width(inner).Render(ansi.Truncate(line, inner, ""))
}

func (m *Model) renderEditor() string {
	inner := max(1, m.width-2)
	focused := m.focus == FocusRich
	var cells []cell
	for _, seg := range m.editor.Segments() {
		if seg.Newline {
			cells = append(cells, cell{r: '\n'})
			continue
		}
		style := segmentStyle(seg)
		for _, r := range seg.Text {
			cells = append(cells, cell{r: r, style: style})
		}
	}
	cells = m.withCursor(cells, m.editor.CaretOffset(), focused)
	var rows [][]cell
	start := 0
	for i, c := range cells {
		if c.r == '\n' && c.style == nil {
			rows = append(rows, cells[start:i])
			start = i + 1
		}
	}
	rows = append(rows, cells[start:])
	visible := make([]string, 0, m.pane.Size.Y)
	for i := m.pane.Scroll.Y; i < m.pane.Scroll.Y+m.pane.Size.Y; i++ {
		if i < 0 || i >= len(rows) {
			visible = append(visible, "")
			continue
		}
		visible = append(visible, ansi.Truncate(renderCells(rows[i]), inner, ""))
	}
	return m.hostStyle(focused).Width(inner).Height(m.pane.Size.Y).Render(strings.Join(visible, "\n"))
}

func segmentStyle(seg host.Segment) *lipgloss.Style {
	switch {
	case seg.Atomic:
		return styles.Atomic
	case seg.Class != "":
		return styles.Mention
	}
	return nil
}

// withCursor draws the caret over the cell at offset, inserting a blank cell
// when the caret sits before a line break or at the end.
func (m *Model) withCursor(cells []cell, offset int, focused bool) []cell {
	if !focused || offset < 0 || offset > len(cells) {
		return cells
	}
	if offset < len(cells) && cells[offset].r != '\n' {
		m.cursor.SetChar(string(cells[offset].r))
		cells[offset].raw = m.cursor.View()
		return cells
	}
	m.cursor.SetChar(" ")
	out := make([]cell, 0, len(cells)+1)
	out = append(out, cells[:offset]...)
	out = append(out, cell{r: ' ', raw: m.cursor.View()})
	return append(out, cells[offset:]...)
}

func renderCells(cells []cell) string {
	var b strings.Builder
	var run []rune
	var current *lipgloss.Style
	flush := func() {
		if len(run) == 0 {
			return
		}
		if current != nil {
			b.WriteString(current.Render(string(run)))
		} else {
			b.WriteString(string(run))
		}
		run = run[:0]
	}
	for _, c := range cells {
		if c.raw != "" {
			flush()
			b.WriteString(c.raw)
			continue
		}
		if c.style != current {
			flush()
			current = c.style
		}
		run = append(run, c.r)
	}
	flush()
	return b.String()
}

func (m *Model) renderStatus() string {
	var line string
	switch {
	case m.errMsg != "":
		line = styles.Error.Render(m.errMsg)
	case m.currentInfo() != "":
		line = styles.Status.Render(m.infoMsg)
	default:
		line = m.activeSummary()
	}
	return ansi.Truncate(line, m.width, "")
}

func (m *Model) activeSummary() string {
	ctrl := m.activeController()
	if ctrl == nil {
		return ""
	}
	state, ok := ctrl.State()
	if !ok {
		return ""
	}
	summary := fmt.Sprintf("%s%s", state.Trigger, state.Query)
	view := ctrl.View()
	if view.Visible && view.Total > len(view.Items) && len(view.Items) > 0 {
		summary += fmt.Sprintf("  %d-%d of %d", view.Offset+1, view.Offset+len(view.Items), view.Total)
	}
	return styles.Status.Render(summary)
}

func (m *Model) renderFooter() string {
	open := false
	if ctrl := m.activeController(); ctrl != nil {
		open = ctrl.IsActive()
	}
	m.help.Width = m.width
	return styles.Footer.Render(m.help.ShortHelpView(m.keys.helpFor(open)))
}

// renderMenu draws the popup for view. Its outer size matches view.Width and
// view.Height so mouse hits line up with what is drawn.
func renderMenu(view menu.View) string {
	inner := max(1, view.Width-menu.FrameWidth)
	var rows []string
	if len(view.Items) == 0 {
		style := styles.NoMatch
		if view.Loading {
			style = styles.Loading
		}
		rows = append(rows, style.Render(runewidth.FillRight(stripMarkup(view.Content), inner)))
	}
	for _, item := range view.Items {
		style := styles.Item
		switch {
		case item.Disabled:
			style = styles.DisabledItem
		case item.Highlighted:
			style = styles.SelectedItem
		}
		rows = append(rows, style.Render(runewidth.FillRight(runewidth.Truncate(item.Text, inner, ""), inner)))
	}
	return styles.Menu.Width(inner + 2).Render(strings.Join(rows, "\n"))
}

// stripMarkup returns the text content of an HTML fragment, or s unchanged
// when it does not parse.
func stripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div})
	if err != nil {
		return s
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}

// compose paints overlay onto base with its top-left corner at column x,
// row y. Rows of base to the right of the overlay lose their styling.
func compose(base, overlay string, x, y int) string {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	lines := strings.Split(base, "\n")
	for i, row := range strings.Split(overlay, "\n") {
		target := y + i
		for target >= len(lines) {
			lines = append(lines, "")
		}
		under := lines[target]
		left := ansi.Truncate(under, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := cutFrom(ansi.Strip(under), x+ansi.StringWidth(row))
		lines[target] = left + row + right
	}
	return strings.Join(lines, "\n")
}

// cutFrom returns the part of plain text s that starts at cell col. A wide
// rune straddling col is replaced by spaces for its visible half.
func cutFrom(s string, col int) string {
	width := 0
	for i, r := range s {
		if width >= col {
			return s[i:]
		}
		w := runewidth.RuneWidth(r)
		if width+w > col {
			rest := s[i+len(string(r)):]
			return strings.Repeat(" ", width+w-col) + rest
		}
		width += w
	}
	return ""
}
