package attribution

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice  = Human("Alice")
	claude = AI("claude", "opus", "p1")
)

func TestFromAuthors_Compresses(t *testing.T) {
	fa := FromAuthors([]Author{alice, alice, claude, claude, alice})
	require.NoError(t, fa.Validate())
	assert.Equal(t, 5, fa.LineCount)
	assert.Equal(t, []Record{
		{Author: alice, Lines: LineRange{1, 2}},
		{Author: claude, Lines: LineRange{3, 4}},
		{Author: alice, Lines: LineRange{5, 5}},
	}, fa.Records)
	assert.Equal(t, 2, fa.AILines())
}

func TestFromAuthors_Empty(t *testing.T) {
	fa := FromAuthors(nil)
	assert.NoError(t, fa.Validate())
	assert.Empty(t, fa.Records)
	assert.Equal(t, 0, fa.LineCount)
}

func TestAuthorAt(t *testing.T) {
	fa := FromAuthors([]Author{alice, claude, claude})
	got, ok := fa.AuthorAt(2)
	require.True(t, ok)
	assert.Equal(t, claude, got)

	_, ok = fa.AuthorAt(4)
	assert.False(t, ok)
	_, ok = fa.AuthorAt(0)
	assert.False(t, ok)
}

func TestPerLineRoundTrip(t *testing.T) {
	authors := []Author{claude, alice, alice, claude}
	assert.Equal(t, authors, FromAuthors(authors).PerLine())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		fa   FileAttribution
		ok   bool
	}{
		{"exhaustive", FileAttribution{Records: []Record{{alice, LineRange{1, 3}}}, LineCount: 3}, true},
		{"gap", FileAttribution{Records: []Record{{alice, LineRange{1, 1}}, {claude, LineRange{3, 3}}}, LineCount: 3}, false},
		{"overlap", FileAttribution{Records: []Record{{alice, LineRange{1, 2}}, {claude, LineRange{2, 3}}}, LineCount: 3}, false},
		{"short", FileAttribution{Records: []Record{{alice, LineRange{1, 2}}}, LineCount: 3}, false},
		{"starts_late", FileAttribution{Records: []Record{{alice, LineRange{2, 3}}}, LineCount: 3}, false},
		{"inverted", FileAttribution{Records: []Record{{alice, LineRange{1, 0}}}, LineCount: 0}, false},
		{"bad_author", FileAttribution{Records: []Record{{Author{Kind: KindAI}, LineRange{1, 1}}}, LineCount: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fa.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_ContentMismatch(t *testing.T) {
	fa := Uniform(alice, 2).WithContent("one\n")
	assert.Error(t, fa.Validate())
	assert.NoError(t, Uniform(alice, 1).WithContent("one\n").Validate())
}

func TestNew_NormalizesAndCopies(t *testing.T) {
	files := map[string]FileAttribution{
		"a.go": {Records: []Record{{alice, LineRange{1, 1}}, {alice, LineRange{2, 2}}}, LineCount: 2},
	}
	va, err := New("base", "head", files, map[string]Prompt{"p1": {Tool: "claude"}}, Author{})
	require.NoError(t, err)

	files["a.go"].Records[0] = Record{claude, LineRange{1, 1}}

	fa, ok := va.File("a.go")
	require.True(t, ok)
	assert.Equal(t, []Record{{alice, LineRange{1, 2}}}, fa.Records)
	assert.Equal(t, Human(""), va.HumanFallback())
	assert.Equal(t, []string{"a.go"}, va.Paths())

	fa.Records[0].Author = claude
	again, _ := va.File("a.go")
	assert.Equal(t, alice, again.Records[0].Author)
}

func TestNew_RejectsInvalid(t *testing.T) {
	_, err := New("b", "h", map[string]FileAttribution{
		"x": {Records: []Record{{alice, LineRange{1, 1}}}, LineCount: 2},
	}, nil, Human(""))
	assert.Error(t, err)

	_, err = New("b", "h", nil, nil, claude)
	assert.Error(t, err)
}

func TestEmpty(t *testing.T) {
	va := Empty("abc", Human("Bob"))
	assert.True(t, va.IsEmpty())
	assert.Equal(t, "abc", va.BaseCommit())
	assert.Equal(t, "abc", va.Head())
	assert.Equal(t, Human("Bob"), va.HumanFallback())
}

func TestReferencedPrompts(t *testing.T) {
	files := map[string]FileAttribution{
		"a": FromAuthors([]Author{claude, alice}),
	}
	prompts := map[string]Prompt{"p1": {Tool: "claude"}, "p2": {Tool: "cursor"}}
	got := ReferencedPrompts(files, prompts)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "p1")
}

func TestSentinelsWrap(t *testing.T) {
	err := fmt.Errorf("loading note: %w", ErrStoreCorrupt)
	assert.True(t, errors.Is(err, ErrStoreCorrupt))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestAuthorString(t *testing.T) {
	assert.Equal(t, "human", Human("").String())
	assert.Equal(t, "human:Alice", alice.String())
	assert.Equal(t, "ai:claude/opus", claude.String())
	assert.Equal(t, "claude", claude.DisplayName())
}

func TestRealign_ContentAligned(t *testing.T) {
	fa := FromAuthors([]Author{alice, claude, alice}).WithContent("a\nb\nc\n")
	got := fa.Realign("new\na\nb\nX\n", Human(""))
	require.NoError(t, got.Validate())
	assert.Equal(t, []Author{Human(""), alice, claude, Human("")}, got.PerLine())
	assert.Equal(t, "new\na\nb\nX\n", *got.Content)
}

func TestRealign_Positional(t *testing.T) {
	fa := FromAuthors([]Author{claude, alice})
	got := fa.Realign("1\n2\n3\n", Human("fill"))
	assert.Equal(t, []Author{claude, alice, Human("fill")}, got.PerLine())

	shrunk := fa.Realign("1\n", Human("fill"))
	assert.Equal(t, []Author{claude}, shrunk.PerLine())
}

func TestRealign_Empty(t *testing.T) {
	fa := Uniform(claude, 2).WithContent("a\nb\n")
	got := fa.Realign("", alice)
	assert.NoError(t, got.Validate())
	assert.Equal(t, 0, got.LineCount)
}
