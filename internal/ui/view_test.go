package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/atomicstack/mention-popup/internal/match"
	"github.com/atomicstack/mention-popup/internal/mention"
	"github.com/atomicstack/mention-popup/internal/menu"
	"github.com/atomicstack/mention-popup/internal/testutil"
)

func TestComposeGolden(t *testing.T) {
	base := "hello world\n0123456789\nabcdefghij"
	first := compose(base, "XY\nZW", 3, 1)
	second := compose("ab", "XY", 4, 0)
	testutil.AssertGolden(t, "overlay.txt", first+"\n--\n"+second)
}

func TestComposeExtendsBase(t *testing.T) {
	got := compose("one", "AB\nCD", 0, 1)
	if got != "one\nAB\nCD" {
		t.Fatalf("expected overlay rows to extend the base, got %q", got)
	}
}

func TestComposeKeepsStyledPrefix(t *testing.T) {
	base := styles.Header.Render("abcdef")
	got := compose(base, "Z", 2, 0)
	if ansi.Strip(got) != "abZdef" {
		t.Fatalf("expected %q, got %q", "abZdef", ansi.Strip(got))
	}
}

func TestCutFromWideRunes(t *testing.T) {
	cases := []struct {
		text string
		col  int
		want string
	}{
		{"abcdef", 2, "cdef"},
		{"abc", 5, ""},
		{"日本語", 2, "本語"},
		{"日本語", 3, " 語"},
	}
	for _, tc := range cases {
		if got := cutFrom(tc.text, tc.col); got != tc.want {
			t.Fatalf("cutFrom(%q, %d): expected %q, got %q", tc.text, tc.col, tc.want, got)
		}
	}
}

func TestStripMarkup(t *testing.T) {
	if got := stripMarkup("<div><em>Loading</em> people…</div>"); got != "Loading people…" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := stripMarkup("plain"); got != "plain" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRenderMenuMatchesViewSize(t *testing.T) {
	mnu := menu.New("m")
	mnu.Show([]match.Result{
		{String: "Jordan Humphreys", Candidate: match.Candidate{Key: "Jordan Humphreys"}},
		{String: "Ann", Candidate: match.Candidate{Key: "Ann", Disabled: true}},
	})
	view := mnu.View()
	out := renderMenu(view)
	lines := strings.Split(out, "\n")
	if len(lines) != view.Height {
		t.Fatalf("expected %d lines, got %d:\n%s", view.Height, len(lines), out)
	}
	for _, line := range lines {
		if w := ansi.StringWidth(line); w != view.Width {
			t.Fatalf("expected width %d, got %d for %q", view.Width, w, ansi.Strip(line))
		}
	}
	if !strings.Contains(ansi.Strip(out), "Jordan Humphreys") {
		t.Fatalf("expected item text in popup:\n%s", out)
	}
}

func TestRenderMenuContent(t *testing.T) {
	mnu := menu.New("m")
	mnu.ShowContent("<li>Loading...</li>", true)
	out := ansi.Strip(renderMenu(mnu.View()))
	if !strings.Contains(out, "Loading...") || strings.Contains(out, "<li>") {
		t.Fatalf("expected stripped loading content, got:\n%s", out)
	}
}

func TestViewShowsHostsAndPopup(t *testing.T) {
	m := newTestModel(t, Options{ShowFooter: true})
	h := NewHarness(m)
	h.Type("hi @")
	view := ansi.Strip(h.View())
	if !strings.Contains(view, "hi @") {
		t.Fatalf("expected typed text in view:\n%s", view)
	}
	if !strings.Contains(view, "Sir Walter Riley") {
		t.Fatalf("expected popup rows in view:\n%s", view)
	}
	if !strings.Contains(view, "navigate") {
		t.Fatalf("expected menu key help in footer:\n%s", view)
	}
	lines := strings.Split(view, "\n")
	popup := textController(t, m).View()
	row := lines[popup.Absolute.Y+1]
	if !strings.Contains(row, "Jordan Humphreys") {
		t.Fatalf("expected first item on row %d, got %q", popup.Absolute.Y+1, row)
	}
}

func TestViewFooterWhenClosed(t *testing.T) {
	m := newTestModel(t, Options{ShowFooter: true})
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "switch field") {
		t.Fatalf("expected idle key help in footer:\n%s", view)
	}
	if strings.Contains(view, "navigate") {
		t.Fatalf("did not expect menu help while closed:\n%s", view)
	}
}

func TestViewHeightMatchesLayout(t *testing.T) {
	m := newTestModel(t, Options{Width: 50, Height: 20, ShowFooter: true})
	lines := strings.Split(m.View(), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
}

func TestViewRendersRichMentions(t *testing.T) {
	m := newTestModel(t, Options{Focus: FocusRich})
	if err := m.Editor().SetHTML(`hey <span class="` + mention.MentionClass + `">@Ann</span> there`); err != nil {
		t.Fatalf("set html: %v", err)
	}
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "hey @Ann there") {
		t.Fatalf("expected editor content in view:\n%s", view)
	}
}

func TestStatusShowsActiveQuery(t *testing.T) {
	m := newTestModel(t, Options{})
	h := NewHarness(m)
	h.Type("@jo")
	if got := ansi.Strip(m.renderStatus()); got != "@jo" {
		t.Fatalf("expected status %q, got %q", "@jo", got)
	}
}

func TestCaretDrawnByCursorModel(t *testing.T) {
	m := newTestModel(t, Options{})
	h := NewHarness(m)
	h.Type("ab")
	h.Press(tea.KeyLeft)

	want := newCaret()
	want.SetChar("b")
	cells := m.withCursor([]cell{{r: 'a'}, {r: 'b'}}, m.TextField().Caret(), true)
	if cells[1].raw != want.View() {
		t.Fatalf("expected caret cell %q, got %q", want.View(), cells[1].raw)
	}
	if got := ansi.Strip(renderCells(cells)); got != "ab" {
		t.Fatalf("expected caret to keep the text, got %q", got)
	}

	cells = m.withCursor([]cell{{r: 'a'}, {r: 'b'}}, 2, true)
	if len(cells) != 3 || ansi.Strip(renderCells(cells)) != "ab " {
		t.Fatalf("expected trailing caret cell, got %q", ansi.Strip(renderCells(cells)))
	}
	cells = m.withCursor([]cell{{r: 'a'}, {r: 'b'}}, 1, false)
	if cells[1].raw != "" {
		t.Fatalf("expected no caret on an unfocused host")
	}
	if m.cursor.Mode() != cursor.CursorStatic {
		t.Fatalf("expected static caret, got %s", m.cursor.Mode())
	}
}
