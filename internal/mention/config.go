package mention

import (
	"errors"
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/atomicstack/mention-popup/internal/locator"
)

var (
	ErrUnknownHost          = errors.New("mention: unknown host element")
	ErrNotEditable          = errors.New("mention: element is not an editable host")
	ErrAlreadyAttached      = errors.New("mention: host already attached")
	ErrNoCollections        = errors.New("mention: no collections configured")
	ErrNoValues             = errors.New("mention: collection has no values source")
	ErrDuplicateTrigger     = errors.New("mention: duplicate trigger")
	ErrMultipleAutocomplete = errors.New("mention: more than one autocomplete collection")
	ErrNotStatic            = errors.New("mention: collection values are not a static list")
)

// Config is the per host configuration passed to Attach.
type Config struct {
	Collections []*Collection
	// MenuID names the popup surface element. Defaults to "<host>-menu".
	MenuID string
	// RepositionInterval throttles menu repositioning on scroll.
	RepositionInterval time.Duration
	MaxVisible         int
	MaxWidth           int
}

// Validate checks trigger uniqueness, autocomplete exclusivity and separator
// patterns.
func (c Config) Validate() error {
	_, err := c.rules()
	return err
}

func (c Config) rules() ([]locator.Rule, error) {
	if len(c.Collections) == 0 {
		return nil, ErrNoCollections
	}
	seen := make(map[string]struct{}, len(c.Collections))
	autocomplete := false
	rules := make([]locator.Rule, len(c.Collections))
	for i, col := range c.Collections {
		if col == nil || col.Values == nil {
			return nil, fmt.Errorf("collection %d: %w", i, ErrNoValues)
		}
		rule := locator.Rule{
			Trigger:             col.trigger(),
			Autocomplete:        col.AutocompleteMode,
			RequireLeadingSpace: col.RequireLeadingSpace,
			AllowSpaces:         col.AllowSpaces,
		}
		if col.AutocompleteMode {
			if autocomplete {
				return nil, ErrMultipleAutocomplete
			}
			autocomplete = true
			if col.AutocompleteSeparator != "" {
				re, err := regexp2.Compile(col.AutocompleteSeparator, regexp2.ECMAScript)
				if err != nil {
					return nil, fmt.Errorf("collection %d: autocomplete separator: %w", i, err)
				}
				rule.Separator = re
			}
		} else {
			if _, dup := seen[rule.Trigger]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateTrigger, rule.Trigger)
			}
			seen[rule.Trigger] = struct{}{}
		}
		rules[i] = rule
	}
	return rules, nil
}
