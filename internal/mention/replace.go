package mention

import (
	"strings"
	"unicode"

	"github.com/atomicstack/mention-popup/internal/dom"
	"github.com/atomicstack/mention-popup/internal/logging"
	"github.com/atomicstack/mention-popup/internal/logging/events"
)

// commit replaces the trigger and query with the rendered selection for row i.
// Disabled rows and empty renders are rejected without touching the host.
func (c *Controller) commit(i int) bool {
	st := c.state
	if st == nil || !c.menu.IsOpen() {
		return false
	}
	res, ok := c.menu.Item(i)
	if !ok {
		return false
	}
	if res.Candidate.Disabled {
		events.Commit.Rejected(c.host.ID(), i, "disabled")
		return false
	}
	col := c.collections[st.Collection]
	content := col.renderSelection(c.templateContext(), res)
	if content == "" {
		events.Commit.Rejected(c.host.ID(), i, "empty template")
		return false
	}
	content += c.suffix(col, content)

	remove := c.host.CaretOffset() - st.Start
	if remove != st.Span {
		logging.Trace("commit.span-drift", map[string]interface{}{"host": c.host.ID(), "span": st.Span, "remove": remove})
	}
	if err := c.host.Splice(remove, content); err != nil {
		logging.Error(err)
		events.Commit.Rejected(c.host.ID(), i, err.Error())
		return false
	}
	c.close("commit")
	c.dismissed = -1
	events.Commit.Applied(c.host.ID(), res.Index, c.host.CaretOffset())

	ev := dom.NewEvent(EventReplaced)
	ev.Index = res.Index
	c.queue(ev)
	return true
}

// suffix returns the separator placed after a replacement: a space for plain
// hosts and a non-breaking space for rich ones, unless the content already
// ends in whitespace or the collection sets its own.
func (c *Controller) suffix(col *Collection, content string) string {
	if col.ReplaceTextSuffix != nil {
		return *col.ReplaceTextSuffix
	}
	if endsInSpace(content) {
		return ""
	}
	if c.host.Rich() {
		return "&nbsp;"
	}
	return " "
}

func endsInSpace(s string) bool {
	if strings.HasSuffix(s, "&nbsp;") {
		return true
	}
	r := []rune(s)
	return len(r) > 0 && unicode.IsSpace(r[len(r)-1])
}
