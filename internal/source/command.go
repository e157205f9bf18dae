package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/samber/lo"

	"github.com/atomicstack/mention-popup/internal/match"
)

// Command runs an external program with the query appended as the last
// argument. Each non-empty output line is one candidate, "key<TAB>value" or
// just "key".
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) Deferred() bool { return true }

func (c Command) Resolve(ctx context.Context, query string) ([]match.Candidate, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("command source: no command")
	}
	args := append(append([]string(nil), c.Args...), query)
	cmd := exec.CommandContext(ctx, c.Name, args...) //nolint:gosec
	cmd.Dir = c.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("command source: %s: %w: %s", c.Name, err, msg)
		}
		return nil, fmt.Errorf("command source: %s: %w", c.Name, err)
	}
	return parseLines(string(out)), nil
}

func parseLines(out string) []match.Candidate {
	return lo.FilterMap(strings.Split(out, "\n"), func(line string, _ int) (match.Candidate, bool) {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			return match.Candidate{}, false
		}
		key, value, ok := strings.Cut(line, "\t")
		key = strings.TrimSpace(key)
		if key == "" {
			return match.Candidate{}, false
		}
		if !ok || value == "" {
			value = key
		}
		return match.Candidate{Key: key, Value: value}, true
	})
}
