package mention

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/mention-popup/internal/dom"
	"github.com/atomicstack/mention-popup/internal/host"
	"github.com/atomicstack/mention-popup/internal/locator"
	"github.com/atomicstack/mention-popup/internal/logging"
	"github.com/atomicstack/mention-popup/internal/logging/events"
	"github.com/atomicstack/mention-popup/internal/match"
	"github.com/atomicstack/mention-popup/internal/menu"
)

// Controller drives one attached host.
type Controller struct {
	doc         *dom.Document
	host        host.Host
	collections []*Collection
	rules       []locator.Rule
	menu        *menu.Menu
	throttle    *menu.Throttle
	tracker     match.Tracker
	listeners   []dom.Listener
	state       *ActiveState
	session     uint64
	tickSeq     uint64
	moveSeq     uint64
	// dismissed is the trigger start closed with escape, -1 when none.
	dismissed int
	queued    []*dom.Event
	detached  bool
}

func newController(doc *dom.Document, h host.Host, cfg Config, rules []locator.Rule, session uint64) *Controller {
	menuID := cfg.MenuID
	if menuID == "" {
		menuID = h.ID() + "-menu"
	}
	c := &Controller{
		doc:         doc,
		host:        h,
		collections: cfg.Collections,
		rules:       rules,
		menu:        menu.New(menuID),
		throttle:    menu.NewThrottle(cfg.RepositionInterval),
		session:     session,
		dismissed:   -1,
	}
	if cfg.MaxVisible > 0 {
		c.menu.MaxVisible = cfg.MaxVisible
	}
	if cfg.MaxWidth > 0 {
		c.menu.MaxWidth = cfg.MaxWidth
	}
	c.menu.OnActive = func(active bool) {
		typ := EventActiveFalse
		if active {
			typ = EventActiveTrue
		}
		c.queue(dom.NewEvent(typ))
	}
	c.menu.OnPhase = func(from, to menu.Phase) {
		logging.Trace("menu.phase", map[string]interface{}{"host": h.ID(), "from": from.String(), "to": to.String()})
	}
	return c
}

// Host returns the attached host.
func (c *Controller) Host() host.Host { return c.host }

// Menu exposes the popup surface.
func (c *Controller) Menu() *menu.Menu { return c.menu }

// IsActive reports whether the menu is open.
func (c *Controller) IsActive() bool { return c.menu.IsOpen() }

// View returns the popup render model.
func (c *Controller) View() menu.View { return c.menu.View() }

// State returns a copy of the active state.
func (c *Controller) State() (ActiveState, bool) {
	if c.state == nil {
		return ActiveState{}, false
	}
	return *c.state, true
}

// HideMenu closes the menu and forgets the active trigger.
func (c *Controller) HideMenu() tea.Cmd {
	c.close("api")
	return c.flush()
}

// SelectItemAtIndex commits the result shown at row i.
func (c *Controller) SelectItemAtIndex(i int) tea.Cmd {
	c.commit(i)
	return c.flush()
}

// Append adds values to a static collection, refreshing an open menu that
// belongs to it.
func (c *Controller) Append(collection int, replace bool, values ...match.Candidate) (tea.Cmd, error) {
	if collection < 0 || collection >= len(c.collections) {
		return nil, ErrNoValues
	}
	static, ok := c.collections[collection].Values.(*match.Static)
	if !ok {
		return nil, ErrNotStatic
	}
	static.Append(replace, values...)
	if c.state == nil || c.state.Collection != collection {
		return nil, nil
	}
	return tea.Batch(c.runSearch(), c.flush()), nil
}

func (c *Controller) bind() {
	add := func(target dom.Element, typ string, fn dom.Handler) {
		c.listeners = append(c.listeners, c.doc.AddListener(target, typ, fn))
	}
	add(c.host, dom.EventInput, c.onInput)
	add(c.host, dom.EventSelectionChange, c.onInput)
	add(c.host, dom.EventClick, c.onInput)
	add(c.host, dom.EventKeyDown, c.onKeyDown)
	add(c.menu, dom.EventClick, c.onMenuClick)
	add(c.doc, dom.EventClick, c.onDocumentClick)
	add(dom.Window, dom.EventScroll, c.onScroll)
	add(dom.Window, dom.EventResize, c.onResize)

	scrollTargets := map[string]dom.Element{}
	if box := c.host.Scroller(); box != nil {
		scrollTargets[box.ID()] = box
	}
	for _, col := range c.collections {
		if col.CloseOnScroll != nil && col.CloseOnScroll.ID() != dom.WindowID {
			scrollTargets[col.CloseOnScroll.ID()] = col.CloseOnScroll
		}
	}
	for _, target := range scrollTargets {
		add(target, dom.EventScroll, c.onScroll)
	}
}

func (c *Controller) unbind() tea.Cmd {
	for _, l := range c.listeners {
		c.doc.RemoveListener(l)
	}
	c.listeners = nil
	c.close("detach")
	c.detached = true
	return c.flush()
}

func (c *Controller) onInput(ev *dom.Event) tea.Cmd {
	events.Host.Event(c.host.ID(), ev.Type)
	return tea.Batch(c.evaluate(), c.flush())
}

func (c *Controller) onKeyDown(ev *dom.Event) tea.Cmd {
	if !c.menu.IsOpen() || c.state == nil {
		return nil
	}
	switch ev.Key {
	case "up", "ctrl+p":
		if c.menu.MoveUp() {
			events.Menu.Cursor(c.host.ID(), c.menu.Cursor())
		}
	case "down", "ctrl+n":
		if c.menu.MoveDown() {
			events.Menu.Cursor(c.host.ID(), c.menu.Cursor())
		}
	case "home":
		c.menu.MoveHome()
	case "end":
		c.menu.MoveEnd()
	case "pgup":
		c.menu.MovePageUp()
	case "pgdown":
		c.menu.MovePageDown()
	case "enter", "tab":
		if _, ok := c.menu.Highlighted(); ok {
			c.commit(c.menu.Cursor())
		}
	case "esc":
		c.dismissed = c.state.Start
		c.close("escape")
	default:
		return nil
	}
	ev.PreventDefault()
	return c.flush()
}

func (c *Controller) onMenuClick(ev *dom.Event) tea.Cmd {
	ev.StopPropagation()
	if ev.Index < 0 {
		return nil
	}
	c.commit(ev.Index)
	return c.flush()
}

func (c *Controller) onDocumentClick(ev *dom.Event) tea.Cmd {
	if ev.Target == nil {
		return nil
	}
	switch ev.Target.ID() {
	case c.host.ID(), c.menu.ID():
		return nil
	}
	if c.state == nil && !c.menu.IsOpen() {
		return nil
	}
	c.close("outside-click")
	return c.flush()
}

func (c *Controller) onScroll(ev *dom.Event) tea.Cmd {
	if !c.menu.IsOpen() {
		return nil
	}
	if col := c.activeCollection(); col != nil && col.CloseOnScroll != nil && col.CloseOnScroll.ID() == ev.Target.ID() {
		c.close("scroll")
		return c.flush()
	}
	return c.reposition()
}

func (c *Controller) onResize(*dom.Event) tea.Cmd {
	if !c.menu.IsOpen() {
		return nil
	}
	return c.reposition()
}

// evaluate re-locates the trigger at the caret and refreshes the state.
func (c *Controller) evaluate() tea.Cmd {
	loc := locator.Locate(c.host.PrecedingText(), c.rules)
	if !loc.Found {
		if c.state != nil {
			events.Locator.Lost(c.host.ID())
		}
		c.close("lost")
		c.dismissed = -1
		return nil
	}
	start := c.host.CaretOffset() - loc.Span
	if c.dismissed >= 0 {
		if c.dismissed == start {
			return nil
		}
		c.dismissed = -1
	}
	if st := c.state; st != nil && st.Collection == loc.Rule && st.Start == start && st.Query == loc.Query {
		return nil
	}
	if c.state != nil && (c.state.Collection != loc.Rule || c.state.Start != start) {
		c.close("retarget")
	}
	if c.state == nil {
		c.state = &ActiveState{}
	}
	c.state.Collection = loc.Rule
	c.state.Trigger = loc.Trigger
	c.state.Query = loc.Query
	c.state.Start = start
	c.state.Span = loc.Span
	events.Locator.Found(c.host.ID(), loc.Trigger, loc.Query, start)
	return c.search()
}

func (c *Controller) search() tea.Cmd {
	col := c.activeCollection()
	if col.SearchDelay <= 0 {
		return c.runSearch()
	}
	c.tickSeq++
	msg := searchTickMsg{hostID: c.host.ID(), session: c.session, seq: c.tickSeq}
	return tea.Tick(col.SearchDelay, func(time.Time) tea.Msg { return msg })
}

func (c *Controller) runSearch() tea.Cmd {
	st := c.state
	if st == nil {
		return nil
	}
	col := c.collections[st.Collection]
	if !col.Values.Deferred() {
		candidates, err := col.Values.Resolve(context.Background(), st.Query)
		if err != nil {
			logging.Error(err)
			candidates = nil
		}
		c.present(candidates)
		return nil
	}
	ctx, gen := c.tracker.Begin(context.Background())
	st.Pending = gen
	events.Fetch.Begin(c.host.ID(), gen, st.Query)
	if col.LoadingItemTemplate != "" {
		c.menu.ShowContent(col.LoadingItemTemplate, true)
		c.place()
	}
	source, query := col.Values, st.Query
	msg := ResultsMsg{HostID: c.host.ID(), Gen: gen, session: c.session}
	return func() tea.Msg {
		msg.Candidates, msg.Err = source.Resolve(ctx, query)
		return msg
	}
}

func (c *Controller) handleResults(msg ResultsMsg) tea.Cmd {
	if c.state == nil || !c.tracker.Current(msg.Gen) {
		events.Fetch.Stale(c.host.ID(), msg.Gen)
		return nil
	}
	c.tracker.Finish(msg.Gen)
	c.state.Pending = 0
	if msg.Err != nil {
		events.Fetch.Error(c.host.ID(), msg.Err)
		logging.Error(msg.Err)
		msg.Candidates = nil
	}
	events.Fetch.Done(c.host.ID(), msg.Gen, len(msg.Candidates))
	c.present(msg.Candidates)
	return c.flush()
}

func (c *Controller) handleTick(msg searchTickMsg) tea.Cmd {
	if msg.seq != c.tickSeq || c.state == nil {
		return nil
	}
	return tea.Batch(c.runSearch(), c.flush())
}

func (c *Controller) handleReposition(msg repositionMsg) tea.Cmd {
	if msg.seq != c.moveSeq || !c.menu.IsOpen() {
		return nil
	}
	c.place()
	return nil
}

// present filters candidates for the current query and shows the outcome.
func (c *Controller) present(candidates []match.Candidate) {
	st := c.state
	col := c.collections[st.Collection]
	results := match.Filter(st.Query, candidates, col.SearchOpts, col.lookup())
	results = match.Limit(results, col.MenuItemLimit)
	st.Results = results

	c.menu.ItemClass = col.ItemClass
	c.menu.SelectClass = col.SelectClass
	if c.menu.SelectClass == "" {
		c.menu.SelectClass = menu.DefaultSelectClass
	}
	c.menu.Render = col.renderItem

	if len(results) == 0 {
		c.queue(dom.NewEvent(EventNoMatch))
		content := col.renderNoMatch(c.templateContext())
		if content == "" {
			c.menu.Hide()
			return
		}
		c.menu.ShowContent(content, false)
	} else {
		c.menu.Show(results)
	}
	events.Menu.Open(c.host.ID(), st.Trigger, len(results))
	c.place()
}

func (c *Controller) place() {
	col := c.activeCollection()
	if col == nil || !col.PositionMenu {
		return
	}
	pos := c.menu.Place(c.host.CaretRect(), c.doc.Viewport(), col.MenuContainer)
	events.Menu.Position(c.host.ID(), pos.X, pos.Y)
}

func (c *Controller) reposition() tea.Cmd {
	ok, wait := c.throttle.Allow()
	if ok {
		c.place()
		return nil
	}
	c.moveSeq++
	msg := repositionMsg{hostID: c.host.ID(), session: c.session, seq: c.moveSeq}
	return tea.Tick(wait, func(time.Time) tea.Msg { return msg })
}

// close destroys the active state and hides the menu.
func (c *Controller) close(reason string) {
	if c.state == nil && !c.menu.IsOpen() {
		return
	}
	c.state = nil
	c.tracker.Invalidate()
	c.tickSeq++
	c.moveSeq++
	if c.menu.Hide() {
		events.Menu.Close(c.host.ID(), reason)
	}
}

func (c *Controller) activeCollection() *Collection {
	if c.state == nil {
		return nil
	}
	return c.collections[c.state.Collection]
}

func (c *Controller) templateContext() TemplateContext {
	ctx := TemplateContext{Host: c.host, Rich: c.host.Rich()}
	if c.state != nil {
		ctx.Trigger = c.state.Trigger
		ctx.Query = c.state.Query
		ctx.Collection = c.collections[c.state.Collection]
	}
	return ctx
}

func (c *Controller) queue(ev *dom.Event) {
	c.queued = append(c.queued, ev)
}

// flush dispatches queued host events in order.
func (c *Controller) flush(cmds ...tea.Cmd) tea.Cmd {
	for len(c.queued) > 0 {
		ev := c.queued[0]
		c.queued = c.queued[1:]
		cmds = append(cmds, c.doc.Dispatch(c.host, ev))
	}
	return tea.Batch(cmds...)
}
