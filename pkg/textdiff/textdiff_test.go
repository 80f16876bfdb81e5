package textdiff

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines_Addition(t *testing.T) {
	ops := Lines("line1\nline2\nline3\n", "line1\nline2\nline2.5\nline3\n")

	require.True(t, HasChanges(ops))
	assert.Equal(t, []Op{
		{Kind: OpEqual, Text: "line1\nline2\n"},
		{Kind: OpInsert, Text: "line2.5\n"},
		{Kind: OpEqual, Text: "line3\n"},
	}, ops)
}

func TestLines_Deletion(t *testing.T) {
	ops := Lines("<p>a</p>\n<p>b</p>\n<p>c</p>", "<p>a</p>\n<p>c</p>")

	before, after := Apply(ops)
	assert.Equal(t, "<p>a</p>\n<p>b</p>\n<p>c</p>", before)
	assert.Equal(t, "<p>a</p>\n<p>c</p>", after)

	var deleted []string
	for _, op := range ops {
		if op.Kind == OpDelete {
			deleted = append(deleted, op.Text)
		}
	}
	assert.Equal(t, []string{"<p>b</p>\n"}, deleted)
}

func TestLines_Identical(t *testing.T) {
	ops := Lines("same\ntext", "same\ntext")
	assert.False(t, HasChanges(ops))
	assert.Equal(t, []Op{{Kind: OpEqual, Text: "same\ntext"}}, ops)
}

func TestLines_EmptyInputs(t *testing.T) {
	assert.Empty(t, Lines("", ""))

	ops := Lines("", "new body")
	assert.Equal(t, []Op{{Kind: OpInsert, Text: "new body"}}, ops)

	ops = Lines("old body", "")
	assert.Equal(t, []Op{{Kind: OpDelete, Text: "old body"}}, ops)
}

func TestWords_ReplacesWholeWords(t *testing.T) {
	ops := Words("The quick brown fox", "The slow brown fox")

	assert.Equal(t, []Op{
		{Kind: OpEqual, Text: "The "},
		{Kind: OpDelete, Text: "quick"},
		{Kind: OpInsert, Text: "slow"},
		{Kind: OpEqual, Text: " brown fox"},
	}, ops)
}

func TestWords_RoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"Hello, world!", "Hello there, world?"},
		{"한글 제목입니다", "한글 새 제목입니다"},
		{"", "only new"},
		{"a  b\tc", "a b c"},
	}
	for _, p := range pairs {
		before, after := Apply(Words(p[0], p[1]))
		assert.Equal(t, p[0], before)
		assert.Equal(t, p[1], after)
	}
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"Hello", ",", " ", "world", "!"}, SplitWords("Hello, world!"))
	assert.Equal(t, []string{"a", "  ", "b_c", "\n"}, SplitWords("a  b_c\n"))
	assert.Empty(t, SplitWords(""))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a\n", "b\n", "c"}, SplitLines("a\nb\nc"))
	assert.Equal(t, []string{"a\n"}, SplitLines("a\n"))
	assert.Nil(t, SplitLines(""))
}

func TestHTML_EscapesAndMarks(t *testing.T) {
	out := HTML([]Op{
		{Kind: OpEqual, Text: "<b>"},
		{Kind: OpDelete, Text: "old"},
		{Kind: OpInsert, Text: "new & shiny"},
	})

	assert.Equal(t,
		`&lt;b&gt;<del class="diff-del">old</del><ins class="diff-ins">new &amp; shiny</ins>`,
		out)
}

func TestCount(t *testing.T) {
	ops := Words("one two three", "one four three five")
	s := Count(ops, SplitWords)
	assert.Equal(t, 2, s.Inserted)
	assert.Equal(t, 1, s.Deleted)
}

func TestEngine_ManyDistinctTokens(t *testing.T) {
	var a, b strings.Builder
	for i := 0; i < 60000; i++ {
		a.WriteString("w")
		a.WriteString(strings.Repeat("x", i%7))
		a.WriteString(string(rune('a' + i%26)))
		a.WriteString(itoa(i))
		a.WriteString("\n")
	}
	b.WriteString(a.String())
	b.WriteString("tail\n")

	e := NewEngine(5 * time.Second)
	ops := e.Lines(a.String(), b.String())
	before, after := Apply(ops)
	assert.Equal(t, a.String(), before)
	assert.Equal(t, b.String(), after)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	n := len(buf)
	for i > 0 {
		n--
		buf[n] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[n:])
}
