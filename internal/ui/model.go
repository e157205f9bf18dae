package ui

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/mention-popup/internal/backend"
	"github.com/atomicstack/mention-popup/internal/dom"
	"github.com/atomicstack/mention-popup/internal/host"
	"github.com/atomicstack/mention-popup/internal/mention"
	"github.com/atomicstack/mention-popup/internal/theme"
)

const (
	FocusText = "text"
	FocusRich = "rich"
)

// Element ids registered with the document.
const (
	PageID   = "page"
	TextID   = "text"
	EditorID = "editor"
	PaneID   = "editor-pane"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	infoDuration  = 5 * time.Second

	headerRows  = 1
	textRows    = 3
	statusRows  = 1
	footerRows  = 1
	minEditRows = 3
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Options configures a Model.
type Options struct {
	Width              int
	Height             int
	ShowFooter         bool
	Focus              string
	RepositionInterval time.Duration
}

// Model implements the Bubble Tea model for the mention page.
type Model struct {
	doc      *dom.Document
	registry *mention.Registry
	page     *dom.Box
	pane     *dom.Box
	text     *host.TextField
	editor   *host.Editable

	focus       string
	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool
	reposition  time.Duration

	errMsg     string
	infoMsg    string
	infoExpire time.Time
	backend    *backend.Watcher

	keys   keyMap
	help   help.Model
	cursor cursor.Model

	handlers map[reflect.Type]msgHandler
}

// NewModel builds the page, registers its elements with a fresh document and
// returns a model ready for Attach.
func NewModel(opts Options) *Model {
	m := &Model{
		focus:      FocusText,
		width:      defaultWidth,
		height:     defaultHeight,
		showFooter: opts.ShowFooter,
		reposition: opts.RepositionInterval,
		keys:       defaultKeyMap(),
		help:       help.New(),
	}
	if opts.Focus == FocusRich {
		m.focus = FocusRich
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	m.cursor = newCaret()
	m.doc = dom.NewDocument(m.width, m.height)
	m.registry = mention.NewRegistry(m.doc)
	m.page = dom.NewBox(PageID, dom.Point{})
	m.text = host.NewTextField(TextID, dom.Point{X: 1, Y: headerRows + 1})
	m.pane = dom.NewBox(PaneID, dom.Point{X: 1, Y: headerRows + textRows + 1})
	m.editor = host.NewEditable(EditorID, dom.Point{})
	m.editor.Parent = m.pane
	for _, el := range []dom.Element{m.page, m.text, m.pane, m.editor} {
		// ids are constants and the document is fresh
		_ = m.doc.Register(el)
	}
	m.layout()
	m.registerHandlers()
	return m
}

// newCaret returns the cursor drawn at the focused host's caret. It stays
// static so rendering never depends on blink ticks.
func newCaret() cursor.Model {
	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = *styles.Cursor
	}
	c.SetMode(cursor.CursorStatic)
	c.Focus()
	c.SetChar(" ")
	return c
}

// Document exposes the element registry so collection files can resolve
// container and scroll target ids.
func (m *Model) Document() *dom.Document { return m.doc }

// Registry exposes the mention registry.
func (m *Model) Registry() *mention.Registry { return m.registry }

// TextField returns the single-line host.
func (m *Model) TextField() *host.TextField { return m.text }

// Editor returns the rich host.
func (m *Model) Editor() *host.Editable { return m.editor }

// Focus reports which host receives keys.
func (m *Model) Focus() string { return m.focus }

// Attach binds the collections to both hosts.
func (m *Model) Attach(cols []*mention.Collection) error {
	var errs []error
	for _, id := range []string{TextID, EditorID} {
		cfg := mention.Config{
			Collections:        cols,
			RepositionInterval: m.reposition,
			MaxWidth:           m.menuMaxWidth(),
		}
		if _, err := m.registry.Attach(id, cfg); err != nil {
			errs = append(errs, fmt.Errorf("attach %s: %w", id, err))
			continue
		}
		m.doc.AddListener(m.hostByID(id), mention.EventReplaced, m.onReplaced)
		m.doc.AddListener(m.hostByID(id), mention.EventNoMatch, m.onNoMatch)
	}
	return errors.Join(errs...)
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	if m.backend != nil {
		return waitForBackendEvent(m.backend)
	}
	return nil
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if handler := m.handlerFor(msg); handler != nil {
		return m, handler(msg)
	}
	if cmd, ok := m.registry.Update(msg); ok {
		return m, cmd
	}
	return m, nil
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.MouseMsg{}):      m.handleMouseMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(backendEventMsg{}):   m.handleBackendEventMsg,
		reflect.TypeOf(backendDoneMsg{}):    m.handleBackendDoneMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	size := msg.(tea.WindowSizeMsg)
	if !m.fixedWidth {
		m.width = size.Width
	}
	if !m.fixedHeight {
		m.height = size.Height
	}
	m.layout()
	return m.doc.Resize(m.width, m.height)
}

// layout sizes the editor pane to whatever the header, text field, status
// line and footer leave over.
func (m *Model) layout() {
	m.pane.Size = dom.Point{X: max(1, m.width-2), Y: m.editorRows()}
}

func (m *Model) editorRows() int {
	rows := m.height - headerRows - textRows - 2 - statusRows
	if m.showFooter {
		rows -= footerRows
	}
	return max(minEditRows, rows)
}

func (m *Model) menuMaxWidth() int {
	return max(10, m.width/2)
}

func (m *Model) focused() host.Host {
	if m.focus == FocusRich {
		return m.editor
	}
	return m.text
}

func (m *Model) hostByID(id string) host.Host {
	if id == EditorID {
		return m.editor
	}
	return m.text
}

func (m *Model) controllers() []*mention.Controller {
	return m.registry.Controllers()
}

func (m *Model) activeController() *mention.Controller {
	ctrl, ok := m.registry.Controller(m.focused().ID())
	if !ok {
		return nil
	}
	return ctrl
}

func (m *Model) onReplaced(ev *dom.Event) tea.Cmd {
	m.errMsg = ""
	if ev.Target != nil {
		m.setInfo(fmt.Sprintf("Inserted mention in %s", ev.Target.ID()))
	}
	return nil
}

func (m *Model) onNoMatch(*dom.Event) tea.Cmd {
	m.setInfo("No matches")
	return nil
}

func (m *Model) setInfo(msg string) {
	m.infoMsg = msg
	m.infoExpire = time.Now().Add(infoDuration)
}

func (m *Model) currentInfo() string {
	if m.infoMsg == "" {
		return ""
	}
	if time.Now().After(m.infoExpire) {
		m.infoMsg = ""
		return ""
	}
	return m.infoMsg
}
