package mention

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/atomicstack/mention-popup/internal/dom"
	"github.com/atomicstack/mention-popup/internal/host"
	"github.com/atomicstack/mention-popup/internal/match"
)

const (
	plainHost = "text"
	richHost  = "contenteditable"
)

var hostKinds = []string{plainHost, richHost}

type fixture struct {
	t        *testing.T
	doc      *dom.Document
	reg      *Registry
	host     host.Host
	field    *host.TextField
	editable *host.Editable
	ctrl     *Controller
	active   int
	inactive int
	noMatch  int
	replaced []int
}

func newFixture(t *testing.T, kind string) *fixture {
	t.Helper()
	doc := dom.NewDocument(80, 24)
	f := &fixture{t: t, doc: doc, reg: NewRegistry(doc)}
	switch kind {
	case plainHost:
		f.field = host.NewTextField("input", dom.Point{X: 2, Y: 1})
		f.field.MultiLine = true
		f.host = f.field
	case richHost:
		f.editable = host.NewEditable("input", dom.Point{X: 2, Y: 1})
		f.host = f.editable
	default:
		t.Fatalf("unknown host kind %q", kind)
	}
	require.NoError(t, doc.Register(f.host))
	doc.AddListener(f.host, EventActiveTrue, func(*dom.Event) tea.Cmd { f.active++; return nil })
	doc.AddListener(f.host, EventActiveFalse, func(*dom.Event) tea.Cmd { f.inactive++; return nil })
	doc.AddListener(f.host, EventNoMatch, func(*dom.Event) tea.Cmd { f.noMatch++; return nil })
	doc.AddListener(f.host, EventReplaced, func(ev *dom.Event) tea.Cmd {
		f.replaced = append(f.replaced, ev.Index)
		return nil
	})
	return f
}

func (f *fixture) attach(cols ...*Collection) *Controller {
	f.t.Helper()
	ctrl, err := f.reg.Attach(f.host.ID(), Config{Collections: cols})
	require.NoError(f.t, err)
	f.ctrl = ctrl
	return ctrl
}

// typeRaw types text one rune at a time, dispatching an input event per rune,
// and returns the commands without running them.
func (f *fixture) typeRaw(text string) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range text {
		if f.field != nil {
			f.field.Insert(string(r))
		} else {
			f.editable.TypeText(string(r))
		}
		cmds = append(cmds, f.doc.Dispatch(f.host, dom.NewEvent(dom.EventInput)))
	}
	return tea.Batch(cmds...)
}

func (f *fixture) fillIn(text string) {
	f.run(f.typeRaw(text))
}

// run executes cmd and feeds every resulting message back through the
// registry until nothing is left.
func (f *fixture) run(cmd tea.Cmd) {
	for _, msg := range collect(cmd) {
		next, _ := f.reg.Update(msg)
		f.run(next)
	}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func (f *fixture) click(i int) {
	ev := dom.NewEvent(dom.EventClick)
	ev.Index = i
	f.run(f.doc.Dispatch(f.ctrl.Menu(), ev))
}

func (f *fixture) key(k string) bool {
	ev := dom.NewEvent(dom.EventKeyDown)
	ev.Key = k
	f.run(f.doc.Dispatch(f.host, ev))
	return ev.DefaultPrevented()
}

func (f *fixture) items() []string {
	view := f.ctrl.View()
	out := make([]string, len(view.Items))
	for i, item := range view.Items {
		out[i] = item.Text
	}
	return out
}

func (f *fixture) value() string {
	if f.field != nil {
		return f.field.Value()
	}
	return f.editable.Text()
}

func people() *match.Static {
	return &match.Static{
		{Key: "Jordan Humphreys", Value: "Jordan Humphreys", Meta: map[string]any{"email": "getstarted@zurb.com"}},
		{Key: "Sir Walter Riley", Value: "Sir Walter Riley", Meta: map[string]any{"email": "getstarted+riley@zurb.com"}},
	}
}

func taxes() *match.Static {
	return &match.Static{
		{Key: "Tributação e Divisas", Value: "Tributação e Divisas"},
		{Key: "Tributação e Impostos", Value: "Tributação e Impostos"},
		{Key: "Tributação e Taxas", Value: "Tributação e Taxas"},
	}
}

func bigList() *match.Static {
	list := make(match.Static, 0, 100)
	for i := 0; i < 100; i++ {
		list = append(list, match.Candidate{Key: fmt.Sprintf("Candidate %02d Ann", i), Value: fmt.Sprintf("c%02d", i)})
	}
	return &list
}

func valueTemplate(_ TemplateContext, res match.Result) string {
	return res.Candidate.Value
}
