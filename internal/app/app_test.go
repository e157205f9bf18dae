package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atomicstack/mention-popup/internal/ui"
)

func TestBuildAttachesDefaultCollections(t *testing.T) {
	model, err := Build(Config{SocketPath: "/tmp/test.sock", Width: 60, Height: 16, Focus: FocusRich})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if got := len(model.Registry().Controllers()); got != 2 {
		t.Fatalf("expected 2 attached hosts, got %d", got)
	}
	if model.Focus() != ui.FocusRich {
		t.Fatalf("expected rich focus, got %q", model.Focus())
	}
}

func TestBuildLoadsCollectionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")
	data := []byte("collections:\n  - trigger: \"+\"\n    menuContainer: editor-pane\n    values:\n      - key: one\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	model, err := Build(Config{SocketPath: "/tmp/test.sock", CollectionsFile: path})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	ctrl, ok := model.Registry().Controller(ui.TextID)
	if !ok {
		t.Fatalf("expected text controller")
	}
	if ctrl.IsActive() {
		t.Fatalf("expected idle controller")
	}
}

func TestBuildReportsBadCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")
	if err := os.WriteFile(path, []byte("collections:\n  - trigger: \"+\"\n    bogus: 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Build(Config{SocketPath: "/tmp/test.sock", CollectionsFile: path}); err == nil {
		t.Fatalf("expected unknown field to fail")
	}
}

func TestBuildRejectsUnknownContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")
	data := []byte("collections:\n  - trigger: \"+\"\n    menuContainer: nowhere\n    values:\n      - key: one\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Build(Config{SocketPath: "/tmp/test.sock", CollectionsFile: path}); err == nil {
		t.Fatalf("expected unknown container id to fail")
	}
}

func TestBuildStartsWatcherForWatchedCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")
	data := []byte("collections:\n  - trigger: \"!\"\n    watch: 1h\n    source:\n      command:\n        name: echo\n        args: [hello]\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	model, err := Build(Config{SocketPath: "/tmp/test.sock", CollectionsFile: path})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer model.StopWatching()
	if model.Init() == nil {
		t.Fatalf("expected Init to subscribe to feed events")
	}
}
