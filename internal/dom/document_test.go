package dom

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	d := NewDocument(80, 24)
	require.NoError(t, d.Register(NewBox("menu", Point{})))
	err := d.Register(NewBox("menu", Point{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))

	generated := NewBox("", Point{})
	assert.NotEmpty(t, generated.ID())
	require.NoError(t, d.Register(generated))

	_, ok := d.Lookup(generated.ID())
	assert.True(t, ok)
	d.Unregister(generated.ID())
	_, ok = d.Lookup(generated.ID())
	assert.False(t, ok)
}

func TestDispatchBubblesToDocument(t *testing.T) {
	d := NewDocument(80, 24)
	box := NewBox("host", Point{})
	require.NoError(t, d.Register(box))

	var order []string
	d.AddListener(box, EventClick, func(ev *Event) tea.Cmd {
		order = append(order, "target")
		return nil
	})
	d.AddListener(d, EventClick, func(ev *Event) tea.Cmd {
		order = append(order, "document:"+ev.Target.ID())
		return nil
	})
	d.Dispatch(box, NewEvent(EventClick))
	assert.Equal(t, []string{"target", "document:host"}, order)

	order = nil
	d.Dispatch(box, NewEvent(EventScroll))
	assert.Empty(t, order, "scroll must not reach click listeners")
}

func TestStopPropagation(t *testing.T) {
	d := NewDocument(80, 24)
	box := NewBox("host", Point{})
	called := false
	d.AddListener(box, EventClick, func(ev *Event) tea.Cmd {
		ev.StopPropagation()
		return nil
	})
	d.AddListener(d, EventClick, func(*Event) tea.Cmd {
		called = true
		return nil
	})
	d.Dispatch(box, NewEvent(EventClick))
	assert.False(t, called)
}

func TestRemoveListenerIsIdempotent(t *testing.T) {
	d := NewDocument(80, 24)
	box := NewBox("host", Point{})
	calls := 0
	l := d.AddListener(box, EventInput, func(*Event) tea.Cmd {
		calls++
		return nil
	})
	require.Equal(t, 1, d.ListenerCount())
	d.RemoveListener(l)
	d.RemoveListener(l)
	assert.Equal(t, 0, d.ListenerCount())
	d.Dispatch(box, NewEvent(EventInput))
	assert.Zero(t, calls)
}

func TestListenerRemovedDuringDispatchDoesNotFire(t *testing.T) {
	d := NewDocument(80, 24)
	box := NewBox("host", Point{})
	var second Listener
	fired := false
	d.AddListener(box, EventInput, func(*Event) tea.Cmd {
		d.RemoveListener(second)
		return nil
	})
	second = d.AddListener(box, EventInput, func(*Event) tea.Cmd {
		fired = true
		return nil
	})
	d.Dispatch(box, NewEvent(EventInput))
	assert.False(t, fired)
}

func TestDispatchBatchesCommands(t *testing.T) {
	d := NewDocument(80, 24)
	box := NewBox("host", Point{})
	type ping struct{}
	d.AddListener(box, EventInput, func(*Event) tea.Cmd {
		return func() tea.Msg { return ping{} }
	})
	cmd := d.Dispatch(box, NewEvent(EventInput))
	require.NotNil(t, cmd)
	_, ok := cmd().(ping)
	assert.True(t, ok)
}

func TestScrollWindowMovesViewport(t *testing.T) {
	d := NewDocument(80, 24)
	scrolled := 0
	d.AddListener(Window, EventScroll, func(*Event) tea.Cmd {
		scrolled++
		return nil
	})
	d.ScrollWindow(Point{Y: 5})
	assert.Equal(t, 1, scrolled)
	assert.Equal(t, Rect{Y: 5, Width: 80, Height: 24}, d.Viewport())

	box := NewBox("pane", Point{X: 10, Y: 2})
	d.ScrollBox(box, Point{Y: 3})
	assert.Equal(t, 1, scrolled, "box scroll must not reach window listeners")
	assert.Equal(t, Point{X: 10, Y: -1}, box.ContentOrigin())
}

func TestUnregisterDropsListeners(t *testing.T) {
	d := NewDocument(80, 24)
	box := NewBox("host", Point{})
	require.NoError(t, d.Register(box))
	d.AddListener(box, EventInput, func(*Event) tea.Cmd { return nil })
	d.AddListener(box, EventClick, func(*Event) tea.Cmd { return nil })
	d.Unregister(box.ID())
	assert.Equal(t, 0, d.ListenerCount())
}
