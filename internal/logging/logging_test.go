package logging

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestTraceOnlyWhenEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trace.log")
	Configure(path)
	t.Cleanup(func() {
		SetTraceEnabled(false)
		Configure("")
	})

	SetTraceEnabled(false)
	Trace("menu.open", map[string]interface{}{"host": "a"})
	SetTraceEnabled(true)
	Trace("menu.close", map[string]interface{}{"host": "b"})

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 trace line, got %d", len(lines))
	}
	if lines[0]["event"] != "menu.close" {
		t.Fatalf("expected menu.close event, got %v", lines[0]["event"])
	}
	payload, ok := lines[0]["payload"].(map[string]interface{})
	if !ok || payload["host"] != "b" {
		t.Fatalf("unexpected payload %#v", lines[0]["payload"])
	}
}

func TestErrorAlwaysWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error.log")
	Configure(path)
	t.Cleanup(func() { Configure("") })

	Error(nil)
	Error(errors.New("boom"))

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected one error entry, got %d", len(lines))
	}
	if lines[0]["event"] != "boom" || lines[0]["level"] != "error" {
		t.Fatalf("unexpected entry %#v", lines[0])
	}
}
