// Package mention wires trigger detection, candidate matching, the popup menu
// and text replacement onto editable hosts registered in a document.
package mention

import (
	"html"
	"time"

	"github.com/atomicstack/mention-popup/internal/dom"
	"github.com/atomicstack/mention-popup/internal/host"
	"github.com/atomicstack/mention-popup/internal/match"
)

const (
	DefaultTrigger  = "@"
	DefaultLookup   = "key"
	DefaultFillAttr = "value"
	DefaultNoMatch  = "No Match Found!"
	MentionClass    = "tribute-mention"
)

// TemplateContext is handed to every template.
type TemplateContext struct {
	Host       host.Host
	Rich       bool
	Trigger    string
	Query      string
	Collection *Collection
}

// Content renders free text for a state. An empty result suppresses it.
type Content func(TemplateContext) string

// Text returns a Content that always renders s.
func Text(s string) Content {
	return func(TemplateContext) string { return s }
}

// Collection is one configured trigger with its candidates and templates.
// Build collections with NewCollection so defaults are applied; the zero
// values of RequireLeadingSpace and PositionMenu turn those features off.
type Collection struct {
	Trigger string
	Values  match.Source
	// Lookup names the candidate field matched against the query.
	Lookup string
	// LookupFunc overrides Lookup.
	LookupFunc match.Lookup
	// FillAttr names the candidate field inserted by the default template.
	FillAttr string
	// SelectTemplate renders the replacement. An empty result aborts the
	// selection and leaves the menu open.
	SelectTemplate   func(TemplateContext, match.Result) string
	MenuItemTemplate func(match.Result) string
	// NoMatchTemplate renders the menu content for an empty result set. Nil
	// uses DefaultNoMatch; a template rendering "" hides the menu instead.
	NoMatchTemplate     Content
	LoadingItemTemplate string
	MenuItemLimit       int
	ItemClass           string
	SelectClass         string
	SearchOpts          match.SearchOpts
	AutocompleteMode    bool
	// AutocompleteSeparator is an ECMAScript pattern splitting words in
	// autocomplete mode.
	AutocompleteSeparator string
	MenuContainer         *dom.Box
	// CloseOnScroll closes the menu on scroll of exactly this element:
	// dom.Window or a specific box. Nil disables it.
	CloseOnScroll       dom.Element
	RequireLeadingSpace bool
	AllowSpaces         bool
	// ReplaceTextSuffix overrides the separator appended after a
	// replacement when non-nil.
	ReplaceTextSuffix *string
	SearchDelay       time.Duration
	PositionMenu      bool
}

// NewCollection returns a collection with defaults applied.
func NewCollection(trigger string, values match.Source) *Collection {
	if trigger == "" {
		trigger = DefaultTrigger
	}
	return &Collection{
		Trigger:             trigger,
		Values:              values,
		Lookup:              DefaultLookup,
		FillAttr:            DefaultFillAttr,
		RequireLeadingSpace: true,
		PositionMenu:        true,
	}
}

// Suffix is a helper for ReplaceTextSuffix.
func Suffix(s string) *string { return &s }

func (c *Collection) lookup() match.Lookup {
	if c.LookupFunc != nil {
		return c.LookupFunc
	}
	name := c.Lookup
	if name == "" {
		name = DefaultLookup
	}
	return match.FieldLookup(name)
}

func (c *Collection) trigger() string {
	if c.AutocompleteMode {
		return ""
	}
	if c.Trigger == "" {
		return DefaultTrigger
	}
	return c.Trigger
}

func (c *Collection) renderSelection(ctx TemplateContext, res match.Result) string {
	if c.SelectTemplate != nil {
		return c.SelectTemplate(ctx, res)
	}
	attr := c.FillAttr
	if attr == "" {
		attr = DefaultFillAttr
	}
	fill := res.Candidate.Field(attr)
	if fill == "" {
		return ""
	}
	if ctx.Rich {
		return `<span class="` + MentionClass + `">` + html.EscapeString(ctx.Trigger+fill) + `</span>`
	}
	return ctx.Trigger + fill
}

func (c *Collection) renderNoMatch(ctx TemplateContext) string {
	if c.NoMatchTemplate == nil {
		return DefaultNoMatch
	}
	return c.NoMatchTemplate(ctx)
}

func (c *Collection) renderItem(res match.Result) string {
	if c.MenuItemTemplate != nil {
		return c.MenuItemTemplate(res)
	}
	return res.String
}
