// Package menu holds the popup state for one host: visibility phase, the
// candidate rows with their highlight, and the popup's placement.
package menu

import (
	"github.com/atomicstack/mention-popup/internal/dom"
	"github.com/atomicstack/mention-popup/internal/match"
)

// Phase is the popup lifecycle state.
type Phase int

const (
	Closed Phase = iota
	Opening
	Open
	Closing
)

func (p Phase) String() string {
	switch p {
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	}
	return "closed"
}

const (
	DefaultSelectClass = "highlight"
	DefaultMaxVisible  = 10
	DefaultMaxWidth    = 40
)

// Menu is the popup surface. It is a document element so clicks on it can be
// routed back with the item index attached.
type Menu struct {
	id          string
	phase       Phase
	items       []match.Result
	content     string
	loading     bool
	cursor      int
	offset      int
	position    dom.Point
	absolute    dom.Point
	ItemClass   string
	SelectClass string
	MaxVisible  int
	MaxWidth    int
	// Render produces the row text for a result. The matched string is used
	// when nil.
	Render func(match.Result) string
	// OnActive fires once on every Closed to Open and Open to Closed change.
	OnActive func(active bool)
	// OnPhase observes every phase step.
	OnPhase func(from, to Phase)
}

// New builds a closed menu with the given surface id.
func New(id string) *Menu {
	if id == "" {
		id = dom.NewID()
	}
	return &Menu{
		id:          id,
		SelectClass: DefaultSelectClass,
		MaxVisible:  DefaultMaxVisible,
		MaxWidth:    DefaultMaxWidth,
	}
}

func (m *Menu) ID() string            { return m.id }
func (m *Menu) Phase() Phase          { return m.phase }
func (m *Menu) IsOpen() bool          { return m.phase == Open }
func (m *Menu) Loading() bool         { return m.loading }
func (m *Menu) Cursor() int           { return m.cursor }
func (m *Menu) Items() []match.Result { return m.items }

// Show opens the menu with results, highlighting the first enabled row.
func (m *Menu) Show(items []match.Result) {
	m.items = items
	m.content = ""
	m.loading = false
	m.cursor = m.firstEnabled()
	m.offset = 0
	m.open()
}

// ShowContent opens the menu with free content instead of rows, used for the
// no-match and loading templates.
func (m *Menu) ShowContent(content string, loading bool) {
	m.items = nil
	m.content = content
	m.loading = loading
	m.cursor = 0
	m.offset = 0
	m.open()
}

// Hide closes the menu. It reports whether the menu was open.
func (m *Menu) Hide() bool {
	if m.phase == Closed {
		return false
	}
	m.transition(Closing)
	m.items = nil
	m.content = ""
	m.loading = false
	m.cursor = 0
	m.offset = 0
	m.transition(Closed)
	if m.OnActive != nil {
		m.OnActive(false)
	}
	return true
}

func (m *Menu) open() {
	if m.phase == Open {
		return
	}
	m.transition(Opening)
	m.transition(Open)
	if m.OnActive != nil {
		m.OnActive(true)
	}
}

func (m *Menu) transition(to Phase) {
	from := m.phase
	m.phase = to
	if m.OnPhase != nil {
		m.OnPhase(from, to)
	}
}

// Highlighted returns the highlighted result.
func (m *Menu) Highlighted() (match.Result, bool) {
	if m.phase != Open || m.cursor < 0 || m.cursor >= len(m.items) {
		return match.Result{}, false
	}
	return m.items[m.cursor], true
}

// Item returns the result displayed at row i.
func (m *Menu) Item(i int) (match.Result, bool) {
	if i < 0 || i >= len(m.items) {
		return match.Result{}, false
	}
	return m.items[i], true
}
