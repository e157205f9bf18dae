package dom

import "github.com/google/uuid"

const (
	WindowID   = "window"
	DocumentID = "document"
)

// Element is anything addressable by the document: hosts, containers, the
// menu surface, the window.
type Element interface {
	ID() string
}

type windowElement struct{}

func (windowElement) ID() string { return WindowID }

// Window is the top level scroll target.
var Window Element = windowElement{}

// NewID returns a generated element id.
func NewID() string {
	return uuid.NewString()
}

// Box is a plain element with a page origin and a scroll offset. It serves as
// a menu container, a scrollable ancestor of a host, or a closeOnScroll
// target.
type Box struct {
	id     string
	Origin Point
	Scroll Point
	Size   Point
}

// NewBox constructs a box, generating an id when none is given.
func NewBox(id string, origin Point) *Box {
	if id == "" {
		id = NewID()
	}
	return &Box{id: id, Origin: origin}
}

func (b *Box) ID() string { return b.id }

// ContentOrigin is the page position of the box content after scrolling.
func (b *Box) ContentOrigin() Point {
	if b == nil {
		return Point{}
	}
	return b.Origin.Sub(b.Scroll)
}
