// Package collections compiles YAML collection definitions into mention
// collections.
package collections

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/atomicstack/mention-popup/internal/backend"
	"github.com/atomicstack/mention-popup/internal/dom"
	"github.com/atomicstack/mention-popup/internal/logging"
	"github.com/atomicstack/mention-popup/internal/match"
	"github.com/atomicstack/mention-popup/internal/mention"
	"github.com/atomicstack/mention-popup/internal/source"
)

//go:embed default.yaml
var defaultFile []byte

// File is the on-disk layout.
type File struct {
	Collections []Spec `yaml:"collections"`
}

// Spec describes one collection.
type Spec struct {
	Trigger               string           `yaml:"trigger"`
	Values                []map[string]any `yaml:"values"`
	Source                *SourceSpec      `yaml:"source"`
	Lookup                string           `yaml:"lookup"`
	FillAttr              string           `yaml:"fillAttr"`
	SelectTemplate        string           `yaml:"selectTemplate"`
	MenuItemTemplate      string           `yaml:"menuItemTemplate"`
	NoMatchTemplate       *string          `yaml:"noMatchTemplate"`
	LoadingItemTemplate   string           `yaml:"loadingItemTemplate"`
	MenuItemLimit         int              `yaml:"menuItemLimit"`
	ItemClass             string           `yaml:"itemClass"`
	SelectClass           string           `yaml:"selectClass"`
	SearchOpts            SearchSpec       `yaml:"searchOpts"`
	AutocompleteMode      bool             `yaml:"autocompleteMode"`
	AutocompleteSeparator string           `yaml:"autocompleteSeparator"`
	MenuContainer         string           `yaml:"menuContainer"`
	CloseOnScroll         string           `yaml:"closeOnScroll"`
	RequireLeadingSpace   *bool            `yaml:"requireLeadingSpace"`
	AllowSpaces           bool             `yaml:"allowSpaces"`
	ReplaceTextSuffix     *string          `yaml:"replaceTextSuffix"`
	SearchDelay           string           `yaml:"searchDelay"`
	PositionMenu          *bool            `yaml:"positionMenu"`
	// Watch polls Source in the background at this interval and serves
	// the latest list from memory instead of fetching per query.
	Watch string `yaml:"watch"`
}

type SearchSpec struct {
	Pre   string `yaml:"pre"`
	Post  string `yaml:"post"`
	Skip  bool   `yaml:"skip"`
	Fuzzy bool   `yaml:"fuzzy"`
}

// SourceSpec selects a provider. Exactly one field must be set.
type SourceSpec struct {
	HTTP    *HTTPSpec    `yaml:"http"`
	Command *CommandSpec `yaml:"command"`
	Tmux    string       `yaml:"tmux"`
}

type HTTPSpec struct {
	URL      string            `yaml:"url"`
	Items    string            `yaml:"items"`
	Key      string            `yaml:"key"`
	Value    string            `yaml:"value"`
	Disabled string            `yaml:"disabled"`
	Headers  map[string]string `yaml:"headers"`
	Timeout  string            `yaml:"timeout"`
}

type CommandSpec struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
	Dir  string   `yaml:"dir"`
}

// Options carries what compilation needs from the running application.
type Options struct {
	SocketPath string
	// Lookup resolves element ids used by menuContainer and closeOnScroll.
	Lookup func(id string) (dom.Element, bool)
}

// TemplateData is the dot value of select and menu item templates.
type TemplateData struct {
	Trigger string
	Query   string
	Rich    bool
	Index   int
	Key     string
	Value   string
	String  string
	Meta    map[string]any
}

// Default returns the built-in collections.
func Default(opts Options) ([]*mention.Collection, error) {
	return Parse(defaultFile, opts)
}

// Set is a compiled document: the collections in order and the background
// feeds that keep watched collections current.
type Set struct {
	Collections []*mention.Collection
	Feeds       []backend.Feed
}

// Load reads path, falling back to the built-in file when path is empty.
func Load(path string, opts Options) ([]*mention.Collection, error) {
	set, err := LoadSet(path, opts)
	return set.Collections, err
}

// LoadSet is Load including feeds.
func LoadSet(path string, opts Options) (Set, error) {
	if strings.TrimSpace(path) == "" {
		return ParseSet(defaultFile, opts)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read collections: %w", err)
	}
	set, err := ParseSet(data, opts)
	if err != nil {
		return Set{}, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes and compiles a collections document.
func Parse(data []byte, opts Options) ([]*mention.Collection, error) {
	set, err := ParseSet(data, opts)
	return set.Collections, err
}

// ParseSet is Parse including feeds.
func ParseSet(data []byte, opts Options) (Set, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return Set{}, fmt.Errorf("decode collections: %w", err)
	}
	var set Set
	for i, spec := range file.Collections {
		col, feed, err := spec.compile(opts)
		if err != nil {
			return Set{}, fmt.Errorf("collection %d (%q): %w", i, spec.Trigger, err)
		}
		set.Collections = append(set.Collections, col)
		if feed != nil {
			feed.Collection = i
			set.Feeds = append(set.Feeds, *feed)
		}
	}
	if err := (mention.Config{Collections: set.Collections}).Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

func (s Spec) compile(opts Options) (*mention.Collection, *backend.Feed, error) {
	values, err := s.values(opts)
	if err != nil {
		return nil, nil, err
	}
	var feed *backend.Feed
	if s.Watch != "" {
		every, err := time.ParseDuration(s.Watch)
		if err != nil || every <= 0 {
			return nil, nil, fmt.Errorf("watch %q: invalid duration", s.Watch)
		}
		if s.Source == nil {
			return nil, nil, fmt.Errorf("watch requires a source")
		}
		feed = &backend.Feed{Trigger: s.Trigger, Source: values, Interval: every}
		values = &match.Static{}
	}
	col, err := s.configure(mention.NewCollection(s.Trigger, values), opts)
	if err != nil {
		return nil, nil, err
	}
	return col, feed, nil
}

func (s Spec) configure(col *mention.Collection, opts Options) (*mention.Collection, error) {
	if s.Lookup != "" {
		col.Lookup = s.Lookup
	}
	if s.FillAttr != "" {
		col.FillAttr = s.FillAttr
	}
	if s.SelectTemplate != "" {
		tmpl, err := parseTemplate("selectTemplate", s.SelectTemplate)
		if err != nil {
			return nil, err
		}
		col.SelectTemplate = func(ctx mention.TemplateContext, res match.Result) string {
			return execute(tmpl, templateData(ctx, res))
		}
	}
	if s.MenuItemTemplate != "" {
		tmpl, err := parseTemplate("menuItemTemplate", s.MenuItemTemplate)
		if err != nil {
			return nil, err
		}
		col.MenuItemTemplate = func(res match.Result) string {
			return execute(tmpl, templateData(mention.TemplateContext{}, res))
		}
	}
	if s.NoMatchTemplate != nil {
		col.NoMatchTemplate = mention.Text(*s.NoMatchTemplate)
	}
	col.LoadingItemTemplate = s.LoadingItemTemplate
	col.MenuItemLimit = s.MenuItemLimit
	col.ItemClass = s.ItemClass
	col.SelectClass = s.SelectClass
	col.SearchOpts = match.SearchOpts{Pre: s.SearchOpts.Pre, Post: s.SearchOpts.Post, Skip: s.SearchOpts.Skip, Fuzzy: s.SearchOpts.Fuzzy}
	col.AutocompleteMode = s.AutocompleteMode
	col.AutocompleteSeparator = s.AutocompleteSeparator
	col.RequireLeadingSpace = lo.FromPtrOr(s.RequireLeadingSpace, true)
	col.PositionMenu = lo.FromPtrOr(s.PositionMenu, true)
	col.AllowSpaces = s.AllowSpaces
	col.ReplaceTextSuffix = s.ReplaceTextSuffix
	if s.SearchDelay != "" {
		d, err := time.ParseDuration(s.SearchDelay)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("searchDelay %q: invalid duration", s.SearchDelay)
		}
		col.SearchDelay = d
	}
	if s.MenuContainer != "" {
		el, err := lookup(opts, s.MenuContainer)
		if err != nil {
			return nil, fmt.Errorf("menuContainer: %w", err)
		}
		box, ok := el.(*dom.Box)
		if !ok {
			return nil, fmt.Errorf("menuContainer: %s is not a container", s.MenuContainer)
		}
		col.MenuContainer = box
	}
	switch s.CloseOnScroll {
	case "":
	case dom.WindowID:
		col.CloseOnScroll = dom.Window
	default:
		el, err := lookup(opts, s.CloseOnScroll)
		if err != nil {
			return nil, fmt.Errorf("closeOnScroll: %w", err)
		}
		col.CloseOnScroll = el
	}
	return col, nil
}

func (s Spec) values(opts Options) (match.Source, error) {
	if s.Source == nil {
		if len(s.Values) == 0 {
			return nil, fmt.Errorf("values or source required")
		}
		static := make(match.Static, 0, len(s.Values))
		for _, raw := range s.Values {
			static = append(static, candidate(raw))
		}
		return &static, nil
	}
	if len(s.Values) > 0 {
		return nil, fmt.Errorf("values and source are mutually exclusive")
	}
	src := s.Source
	set := lo.Count([]bool{src.HTTP != nil, src.Command != nil, src.Tmux != ""}, true)
	if set != 1 {
		return nil, fmt.Errorf("source needs exactly one of http, command or tmux")
	}
	switch {
	case src.HTTP != nil:
		return src.HTTP.build()
	case src.Command != nil:
		if strings.TrimSpace(src.Command.Name) == "" {
			return nil, fmt.Errorf("command source: name required")
		}
		return source.Command{Name: src.Command.Name, Args: src.Command.Args, Dir: src.Command.Dir}, nil
	default:
		kind := source.TmuxKind(src.Tmux)
		if kind != source.TmuxSessions && kind != source.TmuxWindows {
			return nil, fmt.Errorf("tmux source: unknown kind %q", src.Tmux)
		}
		return source.Tmux{SocketPath: opts.SocketPath, Kind: kind}, nil
	}
}

func (h *HTTPSpec) build() (match.Source, error) {
	src, err := source.NewHTTP(h.URL)
	if err != nil {
		return nil, err
	}
	src.Items = h.Items
	if h.Key != "" {
		src.Key = h.Key
	}
	if h.Value != "" {
		src.Value = h.Value
	}
	src.Disabled = h.Disabled
	if len(h.Headers) > 0 {
		src.Header = make(http.Header, len(h.Headers))
		for k, v := range h.Headers {
			src.Header[k] = []string{os.ExpandEnv(v)}
		}
	}
	if h.Timeout != "" {
		d, err := time.ParseDuration(h.Timeout)
		if err != nil {
			return nil, fmt.Errorf("http timeout %q: %w", h.Timeout, err)
		}
		src.Client = &http.Client{Timeout: d}
	}
	return src, nil
}

func candidate(raw map[string]any) match.Candidate {
	c := match.Candidate{Meta: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "key":
			c.Key = fmt.Sprint(v)
		case "value":
			c.Value = fmt.Sprint(v)
		case "disabled":
			c.Disabled, _ = v.(bool)
		default:
			c.Meta[k] = v
		}
	}
	if c.Value == "" {
		c.Value = c.Key
	}
	return c
}

func lookup(opts Options, id string) (dom.Element, error) {
	if opts.Lookup == nil {
		return nil, fmt.Errorf("element %q: no document", id)
	}
	el, ok := opts.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("element %q not found", id)
	}
	return el, nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return tmpl, nil
}

func templateData(ctx mention.TemplateContext, res match.Result) TemplateData {
	return TemplateData{
		Trigger: ctx.Trigger,
		Query:   ctx.Query,
		Rich:    ctx.Rich,
		Index:   res.Index,
		Key:     res.Candidate.Key,
		Value:   res.Candidate.Value,
		String:  res.String,
		Meta:    res.Candidate.Meta,
	}
}

// execute renders tmpl, returning "" on failure so the selection is
// rejected instead of inserting partial output.
func execute(tmpl *template.Template, data TemplateData) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logging.Error(fmt.Errorf("%s: %w", tmpl.Name(), err))
		return ""
	}
	return buf.String()
}
