package source

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"

	gotmux "github.com/atomicstack/gotmuxcc/gotmuxcc"

	"github.com/atomicstack/mention-popup/internal/format/table"
	"github.com/atomicstack/mention-popup/internal/match"
)

// TmuxKind selects what a Tmux source lists.
type TmuxKind string

const (
	TmuxSessions TmuxKind = "sessions"
	TmuxWindows  TmuxKind = "windows"
)

type tmuxClient interface {
	ListSessions() ([]*gotmux.Session, error)
	ListAllWindows() ([]*gotmux.Window, error)
	ListClients() ([]*gotmux.Client, error)
	Close() error
}

var newTmux = func(socketPath string) (tmuxClient, error) {
	if socketPath != "" {
		return gotmux.NewTmux(socketPath)
	}
	return gotmux.DefaultTmux()
}

// Tmux lists sessions or windows of a running tmux server.
type Tmux struct {
	SocketPath string
	Kind       TmuxKind
}

func (t Tmux) Deferred() bool { return true }

func (t Tmux) Resolve(ctx context.Context, _ string) ([]match.Candidate, error) {
	client, err := newTmux(t.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("tmux source: %w", err)
	}
	defer client.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch t.Kind {
	case TmuxWindows:
		return windowCandidates(client)
	case TmuxSessions, "":
		return sessionCandidates(client)
	}
	return nil, fmt.Errorf("tmux source: unknown kind %q", t.Kind)
}

func sessionCandidates(client tmuxClient) ([]match.Candidate, error) {
	sessions, err := client.ListSessions()
	if err != nil {
		return nil, err
	}
	attached := attachedClients(client)
	out := make([]match.Candidate, 0, len(sessions))
	for _, s := range sessions {
		if s == nil || s.Name == "" {
			continue
		}
		clients := attached[s.Name]
		out = append(out, match.Candidate{
			Key:   s.Name,
			Value: s.Name,
			Meta: map[string]any{
				"label":    sessionLabel(s.Name, s.Windows, len(clients) > 0),
				"windows":  s.Windows,
				"attached": len(clients) > 0,
				"clients":  clients,
			},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	addRows(out)
	return out, nil
}

// addRows stores a column-aligned "row" field on each session for menu item
// templates.
func addRows(sessions []match.Candidate) {
	rows := make([][]string, len(sessions))
	for i, c := range sessions {
		n, _ := c.Meta["windows"].(int)
		windows := fmt.Sprintf("%d window", n)
		if n != 1 {
			windows += "s"
		}
		state := ""
		if attached, _ := c.Meta["attached"].(bool); attached {
			state = "attached"
		}
		rows[i] = []string{c.Key, windows, state}
	}
	for i, row := range table.Format(rows, []table.Alignment{table.AlignLeft, table.AlignRight}) {
		sessions[i].Meta["row"] = row
	}
}

func windowCandidates(client tmuxClient) ([]match.Candidate, error) {
	windows, err := client.ListAllWindows()
	if err != nil {
		return nil, err
	}
	out := make([]match.Candidate, 0, len(windows))
	for _, w := range windows {
		if w == nil {
			continue
		}
		session := firstSession(w)
		target := fmt.Sprintf("%s:%d", session, w.Index)
		out = append(out, match.Candidate{
			Key:   fmt.Sprintf("%s %s", target, w.Name),
			Value: target,
			Meta: map[string]any{
				"id":      w.Id,
				"name":    w.Name,
				"session": session,
				"active":  w.Active,
			},
		})
	}
	return out, nil
}

func sessionLabel(name string, windows int, attached bool) string {
	label := fmt.Sprintf("%s: %d window", name, windows)
	if windows != 1 {
		label += "s"
	}
	if attached {
		label += " (attached)"
	}
	return label
}

// attachedClients maps session names to the non control-mode clients
// attached to them. The control-mode connection used for listing is skipped.
func attachedClients(client tmuxClient) map[string][]string {
	clients, err := client.ListClients()
	if err != nil {
		return nil
	}
	result := make(map[string][]string)
	for _, c := range clients {
		if c == nil || c.ControlMode || c.Session == "" {
			continue
		}
		result[c.Session] = append(result[c.Session], c.Name)
	}
	return result
}

func firstSession(w *gotmux.Window) string {
	if len(w.ActiveSessionsList) > 0 {
		return w.ActiveSessionsList[0]
	}
	if len(w.LinkedSessionsList) > 0 {
		return w.LinkedSessionsList[0]
	}
	return strings.TrimSpace(w.Session)
}

// ResolveSocketPath picks the tmux socket: the explicit value, then
// TRIBUTE_TMUX_SOCKET, then $TMUX, then the default per-user socket.
func ResolveSocketPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("TRIBUTE_TMUX_SOCKET"); env != "" {
		return env, nil
	}
	if tmuxEnv := os.Getenv("TMUX"); tmuxEnv != "" {
		parts := strings.Split(tmuxEnv, ",")
		if len(parts) > 0 && parts[0] != "" {
			return parts[0], nil
		}
	}
	baseDir := os.Getenv("TMUX_TMPDIR")
	if baseDir == "" {
		baseDir = "/tmp"
	}
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, fmt.Sprintf("tmux-%s", u.Uid), "default"), nil
}
