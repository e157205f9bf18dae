package host

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/atomicstack/mention-popup/internal/dom"
)

// Editable is a rich editable region backed by an HTML node tree. The caret
// is a DOM position: a text node and a rune offset into it, or an element and
// a child index.
//
// Layout is line based: <br> starts a new line. Elements marked
// contenteditable="false" are atomic islands; the caret never enters them and
// a backspace removes them whole.
type Editable struct {
	id          string
	root        *html.Node
	caretNode   *html.Node
	caretOffset int
	Origin      dom.Point
	Parent      *dom.Box
}

// Segment is a run of rendered content for display.
type Segment struct {
	Text    string
	Class   string
	Atomic  bool
	Newline bool
}

// NewEditable constructs an empty editable region.
func NewEditable(id string, origin dom.Point) *Editable {
	if id == "" {
		id = dom.NewID()
	}
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "contenteditable", Val: "true"}},
	}
	return &Editable{id: id, root: root, caretNode: root, Origin: origin}
}

func (e *Editable) ID() string         { return e.id }
func (e *Editable) Rich() bool         { return true }
func (e *Editable) Scroller() *dom.Box { return e.Parent }

// Root exposes the content tree.
func (e *Editable) Root() *html.Node { return e.root }

// SetHTML replaces the content and moves the caret to the end.
func (e *Editable) SetHTML(markup string) error {
	nodes, err := parseFragment(markup)
	if err != nil {
		return err
	}
	for c := e.root.FirstChild; c != nil; {
		next := c.NextSibling
		e.root.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		e.root.AppendChild(n)
	}
	e.caretNode, e.caretOffset = e.root, childCount(e.root)
	return nil
}

// HTML serialises the content the way a browser reports innerHTML.
func (e *Editable) HTML() string {
	var b strings.Builder
	for c := e.root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return strings.ReplaceAll(b.String(), "\u00a0", "&nbsp;")
}

// Text returns the text content with <br> rendered as a newline.
func (e *Editable) Text() string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				b.WriteString(c.Data)
			case isBreak(c):
				b.WriteByte('\n')
			case c.Type == html.ElementNode:
				walk(c)
			}
		}
	}
	walk(e.root)
	return b.String()
}

// Segments flattens the content for rendering.
func (e *Editable) Segments() []Segment {
	var out []Segment
	var walk func(n *html.Node, class string, atomic bool)
	walk = func(n *html.Node, class string, atomic bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				if c.Data != "" {
					out = append(out, Segment{Text: c.Data, Class: class, Atomic: atomic})
				}
			case isBreak(c):
				out = append(out, Segment{Newline: true})
			case c.Type == html.ElementNode:
				cls := class
				if v := attr(c, "class"); v != "" {
					cls = v
				}
				walk(c, cls, atomic || isAtomic(c))
			}
		}
	}
	walk(e.root, "", false)
	return out
}

// CaretOffset implements Host.
func (e *Editable) CaretOffset() int {
	return e.offsetOf(e.caretNode, e.caretOffset)
}

// SetCaretOffset places the caret at a text content offset. Offsets inside
// an atomic island resolve to the position after it.
func (e *Editable) SetCaretOffset(n int) {
	if n < 0 {
		n = 0
	}
	total := 0
	var walk func(p *html.Node) bool
	walk = func(p *html.Node) bool {
		i := 0
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				l := runeLen(c.Data)
				if n <= total+l {
					e.caretNode, e.caretOffset = c, n-total
					return true
				}
				total += l
			case isBreak(c) || isAtomic(c):
				if n <= total {
					e.caretNode, e.caretOffset = p, i
					return true
				}
				total += segmentLen(c)
			case c.Type == html.ElementNode:
				if walk(c) {
					return true
				}
			}
			i++
		}
		return false
	}
	if !walk(e.root) {
		e.caretNode, e.caretOffset = e.root, childCount(e.root)
	}
}

// MoveCaret shifts the caret by delta text positions.
func (e *Editable) MoveCaret(delta int) bool {
	old := e.CaretOffset()
	e.SetCaretOffset(old + delta)
	return e.CaretOffset() != old
}

// PlaceCaret sets the caret to a DOM position inside the tree.
func (e *Editable) PlaceCaret(node *html.Node, offset int) error {
	if node == nil || !e.contains(node) {
		return fmt.Errorf("host: caret node outside editable %s", e.id)
	}
	limit := childCount(node)
	if node.Type == html.TextNode {
		limit = runeLen(node.Data)
	}
	if offset < 0 || offset > limit {
		return fmt.Errorf("host: caret offset %d out of range", offset)
	}
	e.caretNode, e.caretOffset = node, offset
	return nil
}

// TypeText inserts text at the caret. Newlines become <br> elements.
func (e *Editable) TypeText(s string) {
	for _, r := range s {
		if r == '\n' {
			e.insertNode(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
			continue
		}
		e.insertRune(r)
	}
}

// Backspace removes the grapheme before the caret, or a whole <br> or atomic
// island when one sits immediately before it.
func (e *Editable) Backspace() bool {
	if e.caretNode.Type == html.TextNode && e.caretOffset > 0 {
		e.deleteInText(e.caretNode, e.caretOffset, lastGraphemeRunes(prefix(e.caretNode.Data, e.caretOffset)))
		return true
	}
	n := e.nodeBeforeCaret()
	for n != nil {
		switch {
		case n.Type == html.TextNode:
			if n.Data == "" {
				n = previousLeaf(n, e.root)
				continue
			}
			l := runeLen(n.Data)
			e.deleteInText(n, l, lastGraphemeRunes(n.Data))
			return true
		case isBlock(n):
			return false
		case isBreak(n) || isAtomic(n):
			parent := n.Parent
			idx := indexOf(n)
			parent.RemoveChild(n)
			e.caretNode, e.caretOffset = parent, idx
			return true
		default:
			n = previousLeaf(n, e.root)
		}
	}
	return false
}

// PrecedingText implements Host. The walk crosses text nodes and inline
// elements and stops at line breaks, blocks and atomic islands.
func (e *Editable) PrecedingText() string {
	var parts []string
	var prev, parent *html.Node
	if e.caretNode.Type == html.TextNode {
		parts = append(parts, prefix(e.caretNode.Data, e.caretOffset))
		prev, parent = e.caretNode.PrevSibling, e.caretNode.Parent
	} else {
		prev, parent = childAt(e.caretNode, e.caretOffset-1), e.caretNode
	}
walk:
	for {
		for prev == nil {
			if parent == nil || parent == e.root || isBlock(parent) {
				break walk
			}
			prev, parent = parent.PrevSibling, parent.Parent
		}
		switch {
		case prev.Type == html.TextNode:
			parts = append(parts, prev.Data)
			prev = prev.PrevSibling
		case isBreak(prev) || isAtomic(prev) || isBlock(prev):
			break walk
		case prev.Type == html.ElementNode:
			parent, prev = prev, prev.LastChild
		default:
			prev = prev.PrevSibling
		}
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
	}
	return b.String()
}

// Splice implements Host. The removed runes may span several text nodes
// within the caret's line; the content is parsed as an HTML fragment.
func (e *Editable) Splice(remove int, content string) error {
	if remove < 0 || remove > runeLen(e.PrecedingText()) {
		return fmt.Errorf("%w: remove %d", ErrSpliceRange, remove)
	}
	nodes, err := parseFragment(content)
	if err != nil {
		return err
	}
	for remove > 0 {
		t, off := e.textBeforeCaret()
		if t == nil {
			return fmt.Errorf("%w: ran out of text", ErrSpliceRange)
		}
		k := remove
		if off < k {
			k = off
		}
		e.deleteInText(t, off, k)
		remove -= k
	}
	parent, ref := e.splitAtCaret()
	for _, n := range nodes {
		parent.InsertBefore(n, ref)
	}
	marker := &html.Node{Type: html.ElementNode, Data: "caret"}
	parent.InsertBefore(marker, ref)
	normalize(e.root)
	e.resolveMarker(marker)
	return nil
}

// CaretRect implements Host.
func (e *Editable) CaretRect() dom.Rect {
	text := []rune(e.Text())
	off := e.CaretOffset()
	if off > len(text) {
		off = len(text)
	}
	return caretRect(string(text[:off]), e.Origin, e.Parent)
}

func (e *Editable) insertRune(r rune) {
	if e.caretNode.Type == html.TextNode {
		runes := []rune(e.caretNode.Data)
		runes = append(runes[:e.caretOffset], append([]rune{r}, runes[e.caretOffset:]...)...)
		e.caretNode.Data = string(runes)
		e.caretOffset++
		return
	}
	if before := childAt(e.caretNode, e.caretOffset-1); before != nil && before.Type == html.TextNode {
		before.Data += string(r)
		e.caretNode, e.caretOffset = before, runeLen(before.Data)
		return
	}
	if after := childAt(e.caretNode, e.caretOffset); after != nil && after.Type == html.TextNode {
		after.Data = string(r) + after.Data
		e.caretNode, e.caretOffset = after, 1
		return
	}
	text := &html.Node{Type: html.TextNode, Data: string(r)}
	e.caretNode.InsertBefore(text, childAt(e.caretNode, e.caretOffset))
	e.caretNode, e.caretOffset = text, 1
}

func (e *Editable) insertNode(n *html.Node) {
	parent, ref := e.splitAtCaret()
	parent.InsertBefore(n, ref)
	e.caretNode, e.caretOffset = parent, indexOf(n)+1
}

// splitAtCaret returns the insertion point at the caret, splitting the caret's
// text node when needed.
func (e *Editable) splitAtCaret() (parent, ref *html.Node) {
	if e.caretNode.Type != html.TextNode {
		return e.caretNode, childAt(e.caretNode, e.caretOffset)
	}
	t := e.caretNode
	runes := []rune(t.Data)
	t.Data = string(runes[:e.caretOffset])
	ref = t.NextSibling
	if e.caretOffset < len(runes) {
		after := &html.Node{Type: html.TextNode, Data: string(runes[e.caretOffset:])}
		t.Parent.InsertBefore(after, ref)
		ref = after
	}
	return t.Parent, ref
}

func (e *Editable) resolveMarker(marker *html.Node) {
	parent := marker.Parent
	left, right := marker.PrevSibling, marker.NextSibling
	idx := indexOf(marker)
	parent.RemoveChild(marker)
	leftText := left != nil && left.Type == html.TextNode
	rightText := right != nil && right.Type == html.TextNode
	switch {
	case leftText && rightText:
		off := runeLen(left.Data)
		left.Data += right.Data
		parent.RemoveChild(right)
		e.caretNode, e.caretOffset = left, off
	case leftText:
		e.caretNode, e.caretOffset = left, runeLen(left.Data)
	case rightText:
		e.caretNode, e.caretOffset = right, 0
	default:
		e.caretNode, e.caretOffset = parent, idx
	}
}

func (e *Editable) textBeforeCaret() (*html.Node, int) {
	if e.caretNode.Type == html.TextNode && e.caretOffset > 0 {
		return e.caretNode, e.caretOffset
	}
	for n := e.nodeBeforeCaret(); n != nil; n = previousLeaf(n, e.root) {
		if isBreak(n) || isAtomic(n) || isBlock(n) {
			return nil, 0
		}
		if n.Type == html.TextNode && n.Data != "" {
			return n, runeLen(n.Data)
		}
	}
	return nil, 0
}

func (e *Editable) deleteInText(t *html.Node, end, count int) {
	runes := []rune(t.Data)
	t.Data = string(runes[:end-count]) + string(runes[end:])
	e.caretNode, e.caretOffset = t, end-count
}

// nodeBeforeCaret returns the deepest leaf immediately preceding the caret.
func (e *Editable) nodeBeforeCaret() *html.Node {
	if e.caretNode.Type == html.TextNode {
		return previousLeaf(e.caretNode, e.root)
	}
	if c := childAt(e.caretNode, e.caretOffset-1); c != nil {
		return lastLeaf(c)
	}
	if e.caretNode != e.root && isBlock(e.caretNode) {
		return e.caretNode
	}
	return previousLeaf(e.caretNode, e.root)
}

func (e *Editable) offsetOf(container *html.Node, offset int) int {
	total := 0
	found := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		i := 0
		for c := n.FirstChild; c != nil && !found; c = c.NextSibling {
			if n == container && i == offset {
				found = true
				return
			}
			switch {
			case c == container && c.Type == html.TextNode:
				total += offset
				found = true
				return
			case c.Type == html.TextNode:
				total += runeLen(c.Data)
			case isBreak(c) || isAtomic(c):
				total += segmentLen(c)
			case c.Type == html.ElementNode:
				walk(c)
			}
			i++
		}
		if n == container {
			found = true
		}
	}
	walk(e.root)
	return total
}

func (e *Editable) contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == e.root {
			return true
		}
	}
	return false
}

func parseFragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("host: parse fragment: %w", err)
	}
	return nodes, nil
}

// normalize merges adjacent text nodes and drops empty ones, leaving atomic
// islands untouched.
func normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode && c.Data == "":
			n.RemoveChild(c)
		case c.Type == html.TextNode:
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				after := next.NextSibling
				n.RemoveChild(next)
				next = after
			}
		case c.Type == html.ElementNode && !isAtomic(c):
			normalize(c)
		}
		c = next
	}
}

func previousLeaf(n, root *html.Node) *html.Node {
	for n != nil && n != root {
		if n.PrevSibling != nil {
			return lastLeaf(n.PrevSibling)
		}
		n = n.Parent
		if n != nil && isBlock(n) && n != root {
			return n
		}
	}
	return nil
}

func lastLeaf(n *html.Node) *html.Node {
	for n.Type == html.ElementNode && n.LastChild != nil && !isAtomic(n) && !isBlock(n) {
		n = n.LastChild
	}
	return n
}

func isBreak(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Br
}

func isAtomic(n *html.Node) bool {
	return n.Type == html.ElementNode && strings.EqualFold(attr(n, "contenteditable"), "false")
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Div, atom.P, atom.Li, atom.Ul, atom.Ol, atom.Blockquote, atom.Pre,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func segmentLen(n *html.Node) int {
	if isBreak(n) {
		return 1
	}
	total := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				total += runeLen(c.Data)
			case isBreak(c):
				total++
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return total
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func childAt(n *html.Node, idx int) *html.Node {
	if idx < 0 {
		return nil
	}
	c := n.FirstChild
	for i := 0; c != nil && i < idx; i++ {
		c = c.NextSibling
	}
	return c
}

func childCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func indexOf(n *html.Node) int {
	idx := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		idx++
	}
	return idx
}

func prefix(s string, n int) string {
	return string([]rune(s)[:n])
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
