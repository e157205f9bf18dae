package dom

import (
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	ErrDuplicateID = errors.New("dom: duplicate element id")
	ErrEmptyID     = errors.New("dom: element id is empty")
)

// Listener identifies a registered handler so it can be removed later.
type Listener struct {
	id     uint64
	target string
	typ    string
}

type listenerEntry struct {
	id      uint64
	handler Handler
	removed bool
}

// Document owns the addressable elements and routes events between them.
// It is driven from a single goroutine; the mutex guards against the
// embedding application reading counters from elsewhere.
type Document struct {
	mu        sync.Mutex
	elements  map[string]Element
	listeners map[string]map[string][]*listenerEntry
	nextID    uint64
	width     int
	height    int
	scroll    Point
}

// NewDocument builds a document with the given viewport size.
func NewDocument(width, height int) *Document {
	d := &Document{
		elements:  make(map[string]Element),
		listeners: make(map[string]map[string][]*listenerEntry),
		width:     width,
		height:    height,
	}
	d.elements[WindowID] = Window
	d.elements[DocumentID] = d
	return d
}

func (d *Document) ID() string { return DocumentID }

// Register makes an element addressable by id.
func (d *Document) Register(el Element) error {
	if el == nil || el.ID() == "" {
		return ErrEmptyID
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.elements[el.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, el.ID())
	}
	d.elements[el.ID()] = el
	return nil
}

// Unregister removes an element and every listener bound to it.
func (d *Document) Unregister(id string) {
	if id == WindowID || id == DocumentID {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, id)
	for _, entries := range d.listeners[id] {
		for _, e := range entries {
			e.removed = true
		}
	}
	delete(d.listeners, id)
}

// Lookup finds a registered element.
func (d *Document) Lookup(id string) (Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	return el, ok
}

// AddListener binds handler to events of typ on target.
func (d *Document) AddListener(target Element, typ string, handler Handler) Listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	entry := &listenerEntry{id: d.nextID, handler: handler}
	byType, ok := d.listeners[target.ID()]
	if !ok {
		byType = make(map[string][]*listenerEntry)
		d.listeners[target.ID()] = byType
	}
	byType[typ] = append(byType[typ], entry)
	return Listener{id: entry.id, target: target.ID(), typ: typ}
}

// RemoveListener unbinds a listener. Removing twice is a no-op.
func (d *Document) RemoveListener(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	byType := d.listeners[l.target]
	entries := byType[l.typ]
	for i, e := range entries {
		if e.id != l.id {
			continue
		}
		e.removed = true
		byType[l.typ] = append(entries[:i:i], entries[i+1:]...)
		if len(byType[l.typ]) == 0 {
			delete(byType, l.typ)
		}
		if len(byType) == 0 {
			delete(d.listeners, l.target)
		}
		return
	}
}

// ListenerCount reports the number of live listeners.
func (d *Document) ListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, byType := range d.listeners {
		for _, entries := range byType {
			total += len(entries)
		}
	}
	return total
}

// Dispatch delivers ev to listeners on target and, for bubbling events, to
// document listeners afterwards. The returned command batches whatever the
// handlers returned.
func (d *Document) Dispatch(target Element, ev *Event) tea.Cmd {
	if target == nil || ev == nil {
		return nil
	}
	ev.Target = target
	var cmds []tea.Cmd
	cmds = append(cmds, d.deliver(target.ID(), ev)...)
	if ev.Bubbles && !ev.stopped && target.ID() != DocumentID {
		cmds = append(cmds, d.deliver(DocumentID, ev)...)
	}
	return tea.Batch(cmds...)
}

func (d *Document) deliver(id string, ev *Event) []tea.Cmd {
	d.mu.Lock()
	snapshot := append([]*listenerEntry(nil), d.listeners[id][ev.Type]...)
	d.mu.Unlock()
	var cmds []tea.Cmd
	for _, e := range snapshot {
		d.mu.Lock()
		removed := e.removed
		d.mu.Unlock()
		if removed {
			continue
		}
		if cmd := e.handler(ev); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if ev.stopped {
			break
		}
	}
	return cmds
}

// Viewport is the visible page area.
func (d *Document) Viewport() Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Rect{X: d.scroll.X, Y: d.scroll.Y, Width: d.width, Height: d.height}
}

// Resize updates the viewport size and notifies window listeners.
func (d *Document) Resize(width, height int) tea.Cmd {
	d.mu.Lock()
	d.width, d.height = width, height
	d.mu.Unlock()
	return d.Dispatch(Window, NewEvent(EventResize))
}

// ScrollWindow moves the viewport and fires a scroll event on the window.
func (d *Document) ScrollWindow(to Point) tea.Cmd {
	d.mu.Lock()
	d.scroll = to
	d.mu.Unlock()
	return d.Dispatch(Window, NewEvent(EventScroll))
}

// ScrollBox moves a box's content and fires a scroll event on it.
func (d *Document) ScrollBox(b *Box, to Point) tea.Cmd {
	if b == nil {
		return nil
	}
	b.Scroll = to
	return d.Dispatch(b, NewEvent(EventScroll))
}
