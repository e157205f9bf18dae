// Package host models the two kinds of editable element a mention engine can
// be attached to: a plain text field holding a single value and a rich
// editable region holding an HTML node tree. Both expose the same capability
// set so the locator and the replacement logic never branch on host type.
package host

import (
	"errors"

	"github.com/atomicstack/mention-popup/internal/dom"
)

var (
	// ErrSpliceRange is returned when a splice asks for more text than lies
	// between the caret and the start of its line or block.
	ErrSpliceRange = errors.New("host: splice range exceeds preceding text")
)

// Host is the capability interface used by the mention engine.
type Host interface {
	dom.Element
	// Rich reports whether content is HTML rather than plain text.
	Rich() bool
	// PrecedingText returns at least the text between the start of the
	// caret's line or block and the caret.
	PrecedingText() string
	// CaretOffset is the rune offset of the caret in the host's text content.
	CaretOffset() int
	// CaretRect is the caret's page rectangle.
	CaretRect() dom.Rect
	// Splice removes remove runes before the caret, inserts content and
	// leaves the caret immediately after the inserted content.
	Splice(remove int, content string) error
	// Scroller returns the scrollable ancestor of the host, if any.
	Scroller() *dom.Box
}
