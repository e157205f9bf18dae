// Package match resolves and filters candidates for a typed query.
package match

import (
	"context"
	"fmt"
	"strings"
)

// Candidate is one selectable entry.
type Candidate struct {
	Key      string
	Value    string
	Disabled bool
	Meta     map[string]any
}

// Field returns a named attribute. "key" and "value" address the built-in
// fields; anything else is looked up in Meta.
func (c Candidate) Field(name string) string {
	switch strings.ToLower(name) {
	case "", "key":
		return c.Key
	case "value":
		return c.Value
	}
	if v, ok := c.Meta[name]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Source supplies candidates for a query. Deferred sources are resolved off
// the event loop and report back asynchronously.
type Source interface {
	Resolve(ctx context.Context, query string) ([]Candidate, error)
	Deferred() bool
}

// Static is an in-memory candidate list.
type Static []Candidate

func (s *Static) Resolve(context.Context, string) ([]Candidate, error) {
	return append([]Candidate(nil), (*s)...), nil
}

func (s *Static) Deferred() bool { return false }

// Append adds candidates, or replaces the list when replace is set.
func (s *Static) Append(replace bool, values ...Candidate) {
	if replace {
		*s = append(Static(nil), values...)
		return
	}
	*s = append(*s, values...)
}

// Func computes candidates synchronously from the query.
type Func func(query string) []Candidate

func (f Func) Resolve(_ context.Context, query string) ([]Candidate, error) {
	return f(query), nil
}

func (f Func) Deferred() bool { return false }

// Async fetches candidates in the background. Implementations should honour
// ctx cancellation; results for superseded queries are discarded either way.
type Async func(ctx context.Context, query string) ([]Candidate, error)

func (f Async) Resolve(ctx context.Context, query string) ([]Candidate, error) {
	return f(ctx, query)
}

func (f Async) Deferred() bool { return true }
