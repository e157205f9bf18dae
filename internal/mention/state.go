package mention

import "github.com/atomicstack/mention-popup/internal/match"

// ActiveState is the per host runtime state of a located trigger. It lives
// from detection until commit, close or loss of the trigger.
type ActiveState struct {
	Collection int
	Trigger    string
	Query      string
	// Start is the trigger's rune offset in the host text.
	Start int
	// Span counts the trigger and query runes.
	Span    int
	Results []match.Result
	// Pending is the generation of an in-flight fetch, zero when idle.
	Pending uint64
}
