package dom

import tea "github.com/charmbracelet/bubbletea"

const (
	EventInput           = "input"
	EventKeyDown         = "keydown"
	EventClick           = "click"
	EventScroll          = "scroll"
	EventResize          = "resize"
	EventSelectionChange = "selectionchange"
)

// Event carries a dispatched notification.
type Event struct {
	Type   string
	Target Element
	// Key is the normalised key name for keydown events ("up", "enter", "a").
	Key string
	// Index is the menu item index for clicks on the menu surface, -1 otherwise.
	Index int
	Point Point
	// Bubbles makes the event visit document listeners after the target.
	Bubbles bool

	defaultPrevented bool
	stopped          bool
}

// NewEvent returns an event with no item index.
func NewEvent(typ string) *Event {
	return &Event{Type: typ, Index: -1, Bubbles: bubbles(typ)}
}

func bubbles(typ string) bool {
	switch typ {
	case EventScroll, EventResize:
		return false
	}
	return true
}

// PreventDefault marks the event as consumed so the embedding application
// skips its default action (inserting a newline on enter, moving focus on tab).
func (e *Event) PreventDefault() { e.defaultPrevented = true }

func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation prevents the event from reaching document listeners.
func (e *Event) StopPropagation() { e.stopped = true }

// Handler reacts to an event and may return a command for the runtime.
type Handler func(*Event) tea.Cmd
