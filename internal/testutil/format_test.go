package testutil

import (
	"bytes"
	"go/format"
	"os"
	"path/filepath"
	"testing"
)

// Files with aligned one-line method groups and grouped imports.
var gofmtFiles = []string{
	"main.go",
	"main_test.go",
	"internal/dom/geometry.go",
	"internal/host/editable.go",
	"internal/host/textfield.go",
	"internal/menu/menu.go",
	"internal/source/tmux_test.go",
	"internal/ui/view.go",
	"internal/ui/view_test.go",
}

func TestSourcesAreGofmtClean(t *testing.T) {
	root := RepoRoot(t)
	for _, name := range gofmtFiles {
		src, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		formatted, err := format.Source(src)
		if err != nil {
			t.Fatalf("format %s: %v", name, err)
		}
		if !bytes.Equal(src, formatted) {
			t.Fatalf("%s is not gofmt-formatted", name)
		}
	}
}
