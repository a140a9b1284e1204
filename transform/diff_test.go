package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalDiff(t *testing.T) {
	p := Proposal{Path: "a.py", Base: "a\nb\nc\n", Proposed: "a\nB\nc\n"}

	lines := p.Diff()
	require.Len(t, lines, 4)
	assert.Equal(t, DiffLine{Op: OpEqual, Text: "a", OldLine: 1, NewLine: 1}, lines[0])
	assert.Equal(t, DiffLine{Op: OpDelete, Text: "b", OldLine: 2}, lines[1])
	assert.Equal(t, DiffLine{Op: OpInsert, Text: "B", NewLine: 2}, lines[2])
	assert.Equal(t, DiffLine{Op: OpEqual, Text: "c", OldLine: 3, NewLine: 3}, lines[3])
	assert.True(t, p.Changed())
}

func TestUnified(t *testing.T) {
	p := Proposal{Path: "a.py", Base: "a\nb\nc\n", Proposed: "a\nB\nc\n"}
	want := "--- a.py\n+++ a.py\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n"
	assert.Equal(t, want, p.Unified(3))
}

func TestUnifiedSeparateHunks(t *testing.T) {
	base := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n"
	proposed := "one\n2\n3\n4\n5\n6\n7\n8\n9\nten\n"
	out := Proposal{Path: "n.txt", Base: base, Proposed: proposed}.Unified(1)

	want := "--- n.txt\n+++ n.txt\n" +
		"@@ -1,2 +1,2 @@\n-1\n+one\n 2\n" +
		"@@ -9,2 +9,2 @@\n 9\n-10\n+ten\n"
	assert.Equal(t, want, out)
}

func TestUnifiedNoChange(t *testing.T) {
	p := Proposal{Path: "a.py", Base: "same\n", Proposed: "same\n"}
	assert.False(t, p.Changed())
	assert.Equal(t, "--- a.py\n+++ a.py\n", p.Unified(3))
}

func TestUnifiedPureInsertion(t *testing.T) {
	p := Proposal{Path: "a.py", Base: "a\nc\n", Proposed: "a\nb\nc\n"}
	assert.Equal(t, "--- a.py\n+++ a.py\n@@ -1,0 +2 @@\n+b\n", p.Unified(0))
}

func TestLineSelection(t *testing.T) {
	content := "one\ntwo\nthree"

	testCases := []struct {
		name       string
		start, end int
		want       string
		wantErr    bool
	}{
		{"first line", 1, 1, "one", false},
		{"middle", 2, 2, "two", false},
		{"last line without newline", 3, 3, "three", false},
		{"range", 1, 2, "one\ntwo", false},
		{"past end", 2, 4, "", true},
		{"zero", 0, 1, "", true},
		{"reversed", 2, 1, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sel, err := LineSelection(content, tc.start, tc.end)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, sel.Text)
			assert.True(t, sel.Anchored())
			assert.Equal(t, tc.want, content[sel.Start:sel.End])
		})
	}
}

func TestLineSelectionCRLF(t *testing.T) {
	content := "one\r\ntwo\r\nthree"

	sel, err := LineSelection(content, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "one\r\ntwo", sel.Text)
	assert.Equal(t, "one\r\ntwo\r\n", content[:sel.End+2])

	sel, err = LineSelection(content, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, "three", sel.Text)
}

func TestSelectionAnchoring(t *testing.T) {
	assert.False(t, TextSelection("x").Anchored())
	assert.False(t, Selection{Text: "x"}.Anchored())
	sel, err := RangeSelection("abc", 1, 2)
	require.NoError(t, err)
	assert.True(t, sel.Anchored())
	assert.Equal(t, "b", sel.Text)

	_, err = RangeSelection("abc", 2, 5)
	assert.Error(t, err)
}

func TestSubstitute(t *testing.T) {
	out, err := substitute("x x x", TextSelection("x"), "y")
	require.NoError(t, err)
	assert.Equal(t, "y x x", out)

	_, err = substitute("abc", TextSelection("zzz"), "y")
	assert.ErrorIs(t, err, ErrStaleSelection)

	_, err = substitute("ab", Selection{Text: "abc", Start: 0, End: 3}, "y")
	assert.ErrorIs(t, err, ErrStaleSelection)
}
