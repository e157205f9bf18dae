// Package source provides candidate providers backed by outside systems:
// JSON endpoints, external commands and the running tmux server.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/atomicstack/mention-popup/internal/logging"
	"github.com/atomicstack/mention-popup/internal/match"
)

const (
	defaultHTTPTimeout = 5 * time.Second
	maxBodyBytes       = 4 << 20
)

// HTTP fetches candidates from a JSON endpoint. The URL is a text/template
// rendered with the query; {{query .}} yields the query-escaped form.
type HTTP struct {
	URL *template.Template
	// Items is the gjson path of the candidate array. Empty means the
	// document root.
	Items string
	// Key, Value and Disabled are gjson paths relative to each item.
	Key      string
	Value    string
	Disabled string
	Client   *http.Client
	Header   http.Header

	group singleflight.Group
}

// NewHTTP parses rawURL as a URL template.
func NewHTTP(rawURL string) (*HTTP, error) {
	tmpl, err := template.New("url").Funcs(template.FuncMap{
		"query": url.QueryEscape,
		"path":  url.PathEscape,
	}).Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url template: %w", err)
	}
	return &HTTP{URL: tmpl, Key: "key", Value: "value"}, nil
}

func (h *HTTP) Deferred() bool { return true }

// Resolve requests the rendered URL. Identical concurrent requests share one
// round trip.
func (h *HTTP) Resolve(ctx context.Context, query string) ([]match.Candidate, error) {
	target, err := h.render(query)
	if err != nil {
		return nil, err
	}
	ch := h.group.DoChan(target, func() (interface{}, error) {
		// detached so one caller giving up does not fail the others
		return h.fetch(context.WithoutCancel(ctx), target)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		body := res.Val.([]byte)
		return h.decode(body)
	}
}

func (h *HTTP) render(query string) (string, error) {
	if h.URL == nil {
		return "", fmt.Errorf("http source: no url template")
	}
	var buf bytes.Buffer
	if err := h.URL.Execute(&buf, query); err != nil {
		return "", fmt.Errorf("render url: %w", err)
	}
	return buf.String(), nil
}

func (h *HTTP) fetch(ctx context.Context, target string) ([]byte, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, values := range h.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http source: %w", err)
	}
	defer resp.Body.Close()
	logging.Trace("source.http", map[string]interface{}{
		"url":     target,
		"status":  resp.StatusCode,
		"elapsed": time.Since(started).String(),
	})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http source: %s: %s", target, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("http source: read body: %w", err)
	}
	return body, nil
}

func (h *HTTP) decode(body []byte) ([]match.Candidate, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("http source: response is not valid json")
	}
	list := gjson.ParseBytes(body)
	if h.Items != "" {
		list = list.Get(h.Items)
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("http source: %q is not an array", h.Items)
	}
	var out []match.Candidate
	list.ForEach(func(_, item gjson.Result) bool {
		c := h.candidate(item)
		if c.Key != "" {
			out = append(out, c)
		}
		return true
	})
	return lo.UniqBy(out, func(c match.Candidate) string { return c.Key }), nil
}

func (h *HTTP) candidate(item gjson.Result) match.Candidate {
	if item.Type == gjson.String {
		return match.Candidate{Key: item.String(), Value: item.String()}
	}
	c := match.Candidate{
		Key:   strings.TrimSpace(item.Get(h.path(h.Key, "key")).String()),
		Value: item.Get(h.path(h.Value, "value")).String(),
	}
	if c.Value == "" {
		c.Value = c.Key
	}
	if h.Disabled != "" {
		c.Disabled = item.Get(h.Disabled).Bool()
	}
	if item.IsObject() {
		c.Meta = make(map[string]any)
		item.ForEach(func(k, v gjson.Result) bool {
			c.Meta[k.String()] = v.Value()
			return true
		})
	}
	return c
}

func (h *HTTP) path(p, fallback string) string {
	if p == "" {
		return fallback
	}
	return p
}
