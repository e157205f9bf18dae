package mention

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/mention-popup/internal/dom"
	"github.com/atomicstack/mention-popup/internal/host"
	"github.com/atomicstack/mention-popup/internal/logging/events"
)

// Registry maps host element ids to their controllers. It is the only place
// controllers are kept.
type Registry struct {
	doc         *dom.Document
	controllers map[string]*Controller
	order       []string
	sessions    uint64
}

// NewRegistry builds an empty registry bound to doc.
func NewRegistry(doc *dom.Document) *Registry {
	return &Registry{doc: doc, controllers: make(map[string]*Controller)}
}

// Attach wires a controller onto the host registered under hostID.
func (r *Registry) Attach(hostID string, cfg Config) (*Controller, error) {
	el, ok := r.doc.Lookup(hostID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHost, hostID)
	}
	h, ok := el.(host.Host)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotEditable, hostID)
	}
	if _, exists := r.controllers[hostID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAttached, hostID)
	}
	rules, err := cfg.rules()
	if err != nil {
		return nil, err
	}
	r.sessions++
	c := newController(r.doc, h, cfg, rules, r.sessions)
	if err := r.doc.Register(c.menu); err != nil {
		return nil, fmt.Errorf("register menu: %w", err)
	}
	c.bind()
	r.controllers[hostID] = c
	r.order = append(r.order, hostID)
	events.Host.Attach(hostID, len(cfg.Collections))
	return c, nil
}

// Detach removes every listener of the host's controller and destroys its
// menu. Unknown or already detached hosts are ignored.
func (r *Registry) Detach(hostID string) tea.Cmd {
	c, ok := r.controllers[hostID]
	if !ok {
		return nil
	}
	delete(r.controllers, hostID)
	for i, id := range r.order {
		if id == hostID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	cmd := c.unbind()
	r.doc.Unregister(c.menu.ID())
	events.Host.Detach(hostID)
	return cmd
}

// Controller looks up the controller of a host.
func (r *Registry) Controller(hostID string) (*Controller, bool) {
	c, ok := r.controllers[hostID]
	return c, ok
}

// Controllers returns attached controllers in attach order.
func (r *Registry) Controllers() []*Controller {
	out := make([]*Controller, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.controllers[id])
	}
	return out
}

// Update routes asynchronous messages to their controller. It reports false
// for messages it does not own.
func (r *Registry) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case ResultsMsg:
		if c := r.live(msg.HostID, msg.session); c != nil {
			return c.handleResults(msg), true
		}
		events.Fetch.Stale(msg.HostID, msg.Gen)
		return nil, true
	case searchTickMsg:
		if c := r.live(msg.hostID, msg.session); c != nil {
			return c.handleTick(msg), true
		}
		return nil, true
	case repositionMsg:
		if c := r.live(msg.hostID, msg.session); c != nil {
			return c.handleReposition(msg), true
		}
		return nil, true
	}
	return nil, false
}

func (r *Registry) live(hostID string, session uint64) *Controller {
	c, ok := r.controllers[hostID]
	if !ok || c.session != session || c.detached {
		return nil
	}
	return c
}
