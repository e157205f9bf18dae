package menu

import (
	"github.com/mattn/go-runewidth"

	"github.com/atomicstack/mention-popup/internal/dom"
)

const (
	// FrameWidth and FrameHeight are the cells taken by the popup border and
	// horizontal padding.
	FrameWidth  = 4
	FrameHeight = 2
)

// Size returns the popup's outer size in cells.
func (m *Menu) Size() (int, int) {
	view := m.rows()
	width := 0
	for _, row := range view {
		if w := runewidth.StringWidth(row.Text); w > width {
			width = w
		}
	}
	if len(view) == 0 {
		width = runewidth.StringWidth(m.contentText())
	}
	height := len(view)
	if height == 0 {
		height = 1
	}
	return width + FrameWidth, height + FrameHeight
}

// Place positions the popup below the caret, flipping above it when the
// viewport has no room below and shifting left at the right edge. The
// returned point is relative to container's content origin; adding that
// origin back yields the same page position as placement without a
// container.
func (m *Menu) Place(caret, viewport dom.Rect, container *dom.Box) dom.Point {
	width, height := m.Size()
	abs := dom.Point{X: caret.X, Y: caret.Bottom()}
	if abs.Y+height > viewport.Bottom() && caret.Y-height >= viewport.Y {
		abs.Y = caret.Y - height
	}
	if abs.X+width > viewport.Right() {
		abs.X = viewport.Right() - width
	}
	if abs.X < viewport.X {
		abs.X = viewport.X
	}
	m.absolute = abs
	m.position = abs
	if container != nil {
		m.position = abs.Sub(container.ContentOrigin())
	}
	return m.position
}

// Position is the last placement relative to the container.
func (m *Menu) Position() dom.Point { return m.position }

// Absolute is the last placement in page coordinates.
func (m *Menu) Absolute() dom.Point { return m.absolute }
