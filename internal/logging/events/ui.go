package events

import "github.com/atomicstack/mention-popup/internal/logging"

type MenuTracer struct{}

type LocatorTracer struct{}

type FetchTracer struct{}

type CommitTracer struct{}

type HostTracer struct{}

var (
	Menu    = MenuTracer{}
	Locator = LocatorTracer{}
	Fetch   = FetchTracer{}
	Commit  = CommitTracer{}
	Host    = HostTracer{}
)

func (MenuTracer) Open(hostID, trigger string, items int) {
	logging.Trace("menu.open", map[string]interface{}{"host": hostID, "trigger": trigger, "items": items})
}

func (MenuTracer) Close(hostID, reason string) {
	logging.Trace("menu.close", map[string]interface{}{"host": hostID, "reason": reason})
}

func (MenuTracer) Cursor(hostID string, cursor int) {
	logging.Trace("menu.cursor", map[string]interface{}{"host": hostID, "cursor": cursor})
}

func (MenuTracer) Position(hostID string, x, y int) {
	logging.Trace("menu.position", map[string]interface{}{"host": hostID, "x": x, "y": y})
}

func (LocatorTracer) Found(hostID, trigger, query string, start int) {
	logging.Trace("locator.found", map[string]interface{}{
		"host":    hostID,
		"trigger": trigger,
		"query":   query,
		"start":   start,
	})
}

func (LocatorTracer) Lost(hostID string) {
	logging.Trace("locator.lost", map[string]interface{}{"host": hostID})
}

func (FetchTracer) Begin(hostID string, gen uint64, query string) {
	logging.Trace("fetch.begin", map[string]interface{}{"host": hostID, "gen": gen, "query": query})
}

func (FetchTracer) Stale(hostID string, gen uint64) {
	logging.Trace("fetch.stale", map[string]interface{}{"host": hostID, "gen": gen})
}

func (FetchTracer) Done(hostID string, gen uint64, count int) {
	logging.Trace("fetch.done", map[string]interface{}{"host": hostID, "gen": gen, "count": count})
}

func (FetchTracer) Error(hostID string, err error) {
	if err == nil {
		return
	}
	logging.Trace("fetch.error", map[string]interface{}{"host": hostID, "error": err.Error()})
}

func (CommitTracer) Applied(hostID string, index, caret int) {
	logging.Trace("commit.applied", map[string]interface{}{"host": hostID, "index": index, "caret": caret})
}

func (CommitTracer) Rejected(hostID string, index int, reason string) {
	logging.Trace("commit.rejected", map[string]interface{}{"host": hostID, "index": index, "reason": reason})
}

func (HostTracer) Attach(hostID string, collections int) {
	logging.Trace("host.attach", map[string]interface{}{"host": hostID, "collections": collections})
}

func (HostTracer) Detach(hostID string) {
	logging.Trace("host.detach", map[string]interface{}{"host": hostID})
}

func (HostTracer) Event(hostID, eventType string) {
	logging.Trace("host.event", map[string]interface{}{"host": hostID, "type": eventType})
}
