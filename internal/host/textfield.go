package host

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/atomicstack/mention-popup/internal/dom"
)

// TextField is a plain text control. Its value is a rune buffer; newlines are
// kept when MultiLine is set and dropped otherwise.
type TextField struct {
	id        string
	value     []rune
	caret     int
	Origin    dom.Point
	Parent    *dom.Box
	MultiLine bool
}

// NewTextField constructs an empty field placed at origin. Origin is relative
// to the parent's content when a parent is set, the page otherwise.
func NewTextField(id string, origin dom.Point) *TextField {
	if id == "" {
		id = dom.NewID()
	}
	return &TextField{id: id, Origin: origin}
}

func (f *TextField) ID() string            { return f.id }
func (f *TextField) Rich() bool            { return false }
func (f *TextField) Scroller() *dom.Box    { return f.Parent }
func (f *TextField) Value() string         { return string(f.value) }
func (f *TextField) Caret() int            { return f.caret }
func (f *TextField) CaretOffset() int      { return f.caret }
func (f *TextField) PrecedingText() string { return string(f.value[:f.caret]) }

// SetValue replaces the value and moves the caret to the end.
func (f *TextField) SetValue(v string) {
	f.value = []rune(f.sanitize(v))
	f.caret = len(f.value)
}

// SetCaret moves the caret, clamping to the value bounds.
func (f *TextField) SetCaret(pos int) bool {
	if pos < 0 {
		pos = 0
	}
	if pos > len(f.value) {
		pos = len(f.value)
	}
	old := f.caret
	f.caret = pos
	return old != f.caret
}

// MoveCaret shifts the caret by delta runes.
func (f *TextField) MoveCaret(delta int) bool {
	return f.SetCaret(f.caret + delta)
}

// Insert types s at the caret.
func (f *TextField) Insert(s string) {
	runes := []rune(f.sanitize(s))
	if len(runes) == 0 {
		return
	}
	next := make([]rune, 0, len(f.value)+len(runes))
	next = append(next, f.value[:f.caret]...)
	next = append(next, runes...)
	next = append(next, f.value[f.caret:]...)
	f.value = next
	f.caret += len(runes)
}

// DeleteBackward removes the grapheme cluster before the caret.
func (f *TextField) DeleteBackward() bool {
	if f.caret == 0 {
		return false
	}
	size := lastGraphemeRunes(string(f.value[:f.caret]))
	f.value = append(f.value[:f.caret-size:f.caret-size], f.value[f.caret:]...)
	f.caret -= size
	return true
}

// Splice implements Host.
func (f *TextField) Splice(remove int, content string) error {
	if remove < 0 || remove > f.caret {
		return fmt.Errorf("%w: remove %d with caret at %d", ErrSpliceRange, remove, f.caret)
	}
	tail := append([]rune(nil), f.value[f.caret:]...)
	f.value = f.value[:f.caret-remove]
	f.caret -= remove
	inserted := []rune(f.sanitize(content))
	f.value = append(f.value, inserted...)
	f.value = append(f.value, tail...)
	f.caret += len(inserted)
	return nil
}

// Lines returns the value split on newlines.
func (f *TextField) Lines() []string {
	return strings.Split(string(f.value), "\n")
}

// CaretRect implements Host.
func (f *TextField) CaretRect() dom.Rect {
	return caretRect(string(f.value[:f.caret]), f.Origin, f.Parent)
}

func (f *TextField) sanitize(s string) string {
	if f.MultiLine {
		return s
	}
	return strings.ReplaceAll(s, "\n", "")
}

func caretRect(before string, origin dom.Point, parent *dom.Box) dom.Rect {
	line := strings.Count(before, "\n")
	col := runewidth.StringWidth(before[strings.LastIndex(before, "\n")+1:])
	rect := dom.Rect{X: origin.X + col, Y: origin.Y + line, Width: 1, Height: 1}
	if parent != nil {
		rect = rect.Translate(parent.ContentOrigin())
	}
	return rect
}

func lastGraphemeRunes(s string) int {
	last := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		last = len(gr.Runes())
	}
	if last == 0 {
		return 1
	}
	return last
}
