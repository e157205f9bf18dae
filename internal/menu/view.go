package menu

import (
	"strings"

	"github.com/muesli/reflow/truncate"

	"github.com/atomicstack/mention-popup/internal/dom"
)

// ItemView is one rendered row: the list item of container > list > item.
type ItemView struct {
	// Index maps the row back to the result list.
	Index       int
	Text        string
	Class       string
	Matched     []int
	Disabled    bool
	Highlighted bool
}

// View is the render model of the popup.
type View struct {
	ID       string
	Visible  bool
	Position dom.Point
	Absolute dom.Point
	Width    int
	Height   int
	Items    []ItemView
	// Content replaces the rows for no-match and loading states.
	Content string
	Loading bool
	Offset  int
	Total   int
}

// View builds the render model for the current state.
func (m *Menu) View() View {
	if m.phase != Open {
		return View{ID: m.id}
	}
	width, height := m.Size()
	v := View{
		ID:       m.id,
		Visible:  true,
		Position: m.position,
		Absolute: m.absolute,
		Width:    width,
		Height:   height,
		Items:    m.rows(),
		Offset:   m.offset,
		Total:    len(m.items),
		Loading:  m.loading,
	}
	if len(v.Items) == 0 {
		v.Content = m.contentText()
	}
	return v
}

// RowAt maps a page point inside the popup to a row index.
func (m *Menu) RowAt(p dom.Point) (int, bool) {
	if m.phase != Open || len(m.items) == 0 {
		return -1, false
	}
	width, height := m.Size()
	box := dom.Rect{X: m.absolute.X, Y: m.absolute.Y, Width: width, Height: height}
	if !box.Contains(p) {
		return -1, false
	}
	row := p.Y - m.absolute.Y - 1
	if row < 0 || row >= height-FrameHeight {
		return -1, false
	}
	idx := m.offset + row
	if idx >= len(m.items) {
		return -1, false
	}
	return idx, true
}

// Contains reports whether p lies on the popup.
func (m *Menu) Contains(p dom.Point) bool {
	if m.phase != Open {
		return false
	}
	width, height := m.Size()
	return dom.Rect{X: m.absolute.X, Y: m.absolute.Y, Width: width, Height: height}.Contains(p)
}

func (m *Menu) rows() []ItemView {
	if len(m.items) == 0 {
		return nil
	}
	end := len(m.items)
	if m.MaxVisible > 0 && m.offset+m.MaxVisible < end {
		end = m.offset + m.MaxVisible
	}
	out := make([]ItemView, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		item := m.items[i]
		text := item.String
		if m.Render != nil {
			text = m.Render(item)
		}
		highlighted := i == m.cursor
		out = append(out, ItemView{
			Index:       i,
			Text:        m.truncate(text),
			Class:       m.classFor(highlighted),
			Matched:     item.Matched,
			Disabled:    item.Candidate.Disabled,
			Highlighted: highlighted,
		})
	}
	return out
}

func (m *Menu) classFor(highlighted bool) string {
	classes := make([]string, 0, 2)
	if m.ItemClass != "" {
		classes = append(classes, m.ItemClass)
	}
	if highlighted {
		sel := m.SelectClass
		if sel == "" {
			sel = DefaultSelectClass
		}
		classes = append(classes, sel)
	}
	return strings.Join(classes, " ")
}

func (m *Menu) contentText() string {
	return m.truncate(strings.ReplaceAll(m.content, "\n", " "))
}

func (m *Menu) truncate(s string) string {
	if m.MaxWidth <= 0 {
		return s
	}
	return truncate.StringWithTail(s, uint(m.MaxWidth), "…")
}
