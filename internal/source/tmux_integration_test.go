package source

import (
	"context"
	"testing"

	"github.com/atomicstack/mention-popup/internal/testutil"
)

func TestTmuxSourceAgainstServer(t *testing.T) {
	socket, cleanup, logDir := testutil.StartTmuxServer(t)
	defer cleanup()
	t.Cleanup(func() {
		testutil.AssertNoServerCrash(t, logDir)
	})
	if err := testutil.Command(socket, "new-session", "-d", "-s", "alpha").Run(); err != nil {
		t.Skipf("skipping: unable to create session: %v", err)
	}

	sessions, err := Tmux{SocketPath: socket, Kind: TmuxSessions}.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("resolve sessions: %v", err)
	}
	found := false
	for _, c := range sessions {
		if c.Key == "alpha" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session alpha in %#v", sessions)
	}

	windows, err := Tmux{SocketPath: socket, Kind: TmuxWindows}.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("resolve windows: %v", err)
	}
	if len(windows) < 2 {
		t.Fatalf("expected windows from both sessions, got %#v", windows)
	}
}
