package mention

import "github.com/atomicstack/mention-popup/internal/match"

const (
	EventActiveTrue  = "tribute-active-true"
	EventActiveFalse = "tribute-active-false"
	EventReplaced    = "tribute-replaced"
	EventNoMatch     = "tribute-no-match"
)

// ResultsMsg carries candidates from a deferred source back to the event
// loop. Results whose generation is no longer current are dropped.
type ResultsMsg struct {
	HostID     string
	Gen        uint64
	Candidates []match.Candidate
	Err        error

	session uint64
}

type searchTickMsg struct {
	hostID  string
	session uint64
	seq     uint64
}

type repositionMsg struct {
	hostID  string
	session uint64
	seq     uint64
}
