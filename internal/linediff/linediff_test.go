package linediff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb"))
	assert.Equal(t, []string{""}, SplitLines("\n"))
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\n\nb\n"))
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, CountLines(""))
	assert.Equal(t, 1, CountLines("x"))
	assert.Equal(t, 1, CountLines("x\n"))
	assert.Equal(t, 3, CountLines("a\nb\nc"))
	assert.Equal(t, 2, CountLines("\n\n"))
}

func TestAlign_Identical(t *testing.T) {
	lines := []string{"a", "b", "c"}
	assert.Equal(t, []int{0, 1, 2}, Align(lines, lines))
}

func TestAlign_Insertion(t *testing.T) {
	got := Align([]string{"a", "c"}, []string{"a", "b", "c"})
	assert.Equal(t, []int{0, -1, 1}, got)
}

func TestAlign_Deletion(t *testing.T) {
	got := Align([]string{"a", "b", "c"}, []string{"a", "c"})
	assert.Equal(t, []int{0, 2}, got)
}

func TestAlign_Replacement(t *testing.T) {
	got := Align([]string{"a", "b", "c", "d", "e"}, []string{"a", "X", "c", "Y", "e"})
	assert.Equal(t, []int{0, -1, 2, -1, 4}, got)
}

func TestAlign_EmptySides(t *testing.T) {
	assert.Equal(t, []int{-1, -1}, Align(nil, []string{"a", "b"}))
	assert.Empty(t, Align([]string{"a"}, nil))
}

func TestAlign_DuplicateLines(t *testing.T) {
	got := Align([]string{"}", "}"}, []string{"}", "x", "}"})
	assert.Len(t, got, 3)
	assert.Equal(t, -1, got[1])
	assert.Equal(t, 0, got[0])
	assert.Equal(t, 1, got[2])
}

func TestChangedLines(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, ChangedLines("", "a\nb\nc\n"))
	assert.Equal(t, []int{2}, ChangedLines("a\nb\nc\n", "a\nX\nc\n"))
	assert.Nil(t, ChangedLines("a\nb\n", "a\n"))
}
