package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicstack/mention-popup/internal/match"
)

func TestParseLines(t *testing.T) {
	got := parseLines("ann\tAnn Lee\r\n\nbob\n  \n\tno key\n")
	assert.Equal(t, []match.Candidate{
		{Key: "ann", Value: "Ann Lee"},
		{Key: "bob", Value: "bob"},
	}, got)
}

func TestCommandResolve(t *testing.T) {
	src := Command{Name: "sh", Args: []string{"-c", `printf 'q=%s\tquery\nfixed\n' "$1"`, "sh"}}
	got, err := src.Resolve(context.Background(), "jo")
	require.NoError(t, err)
	assert.Equal(t, []match.Candidate{
		{Key: "q=jo", Value: "query"},
		{Key: "fixed", Value: "fixed"},
	}, got)
}

func TestCommandFailure(t *testing.T) {
	_, err := Command{Name: "sh", Args: []string{"-c", "echo broken >&2; exit 3", "sh"}}.Resolve(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	_, err = Command{}.Resolve(context.Background(), "")
	assert.Error(t, err)
}

func TestCommandCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Command{Name: "sh", Args: []string{"-c", "sleep 5", "sh"}}.Resolve(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
