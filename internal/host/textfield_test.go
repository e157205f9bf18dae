package host

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicstack/mention-popup/internal/dom"
)

func TestTextFieldInsertAndSplice(t *testing.T) {
	f := NewTextField("input", dom.Point{})
	f.Insert(" @sir")
	require.Equal(t, " @sir", f.PrecedingText())

	require.NoError(t, f.Splice(4, "@Sir Walter Riley "))
	assert.Equal(t, " @Sir Walter Riley ", f.Value())
	assert.Equal(t, len([]rune(" @Sir Walter Riley ")), f.Caret())
}

func TestTextFieldSpliceKeepsTrailingText(t *testing.T) {
	f := NewTextField("input", dom.Point{})
	f.SetValue("hi @jo, bye")
	f.SetCaret(6)
	require.Equal(t, "hi @jo", f.PrecedingText())

	require.NoError(t, f.Splice(3, "@Jordan "))
	assert.Equal(t, "hi @Jordan , bye", f.Value())
	assert.Equal(t, 11, f.Caret())
}

func TestTextFieldSpliceRejectsOverrun(t *testing.T) {
	f := NewTextField("input", dom.Point{})
	f.SetValue("@a")
	err := f.Splice(3, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpliceRange))
	assert.Equal(t, "@a", f.Value())
}

func TestTextFieldDeleteBackwardRemovesGrapheme(t *testing.T) {
	f := NewTextField("input", dom.Point{})
	f.SetValue("ae\u0301")
	require.True(t, f.DeleteBackward())
	assert.Equal(t, "a", f.Value())
	require.True(t, f.DeleteBackward())
	assert.False(t, f.DeleteBackward())
}

func TestTextFieldSingleLineDropsNewlines(t *testing.T) {
	f := NewTextField("input", dom.Point{})
	f.Insert("a\nb")
	assert.Equal(t, "ab", f.Value())

	f.MultiLine = true
	f.Insert("\nc")
	assert.Equal(t, []string{"ab", "c"}, f.Lines())
}

func TestTextFieldCaretRect(t *testing.T) {
	f := NewTextField("input", dom.Point{X: 2, Y: 1})
	f.MultiLine = true
	f.SetValue("one\n漢字")
	assert.Equal(t, dom.Rect{X: 6, Y: 2, Width: 1, Height: 1}, f.CaretRect())

	pane := dom.NewBox("pane", dom.Point{X: 10, Y: 10})
	pane.Scroll = dom.Point{Y: 4}
	f.Parent = pane
	assert.Equal(t, dom.Rect{X: 16, Y: 8, Width: 1, Height: 1}, f.CaretRect())
}
