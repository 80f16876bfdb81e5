// Package textdiff computes edit scripts between two texts using the
// sergi/go-diff diff-match-patch engine. Texts are first reduced to token
// sequences (lines or words) so the result reads as whole-line or whole-word
// insertions and deletions instead of character noise.
package textdiff

import (
	"html"
	"strings"
	"time"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// OpKind is the kind of an edit script entry
type OpKind string

const (
	OpEqual  OpKind = "equal"
	OpInsert OpKind = "insert"
	OpDelete OpKind = "delete"
)

// Op is one span of an edit script
type Op struct {
	Kind OpKind `json:"kind"`
	Text string `json:"text"`
}

// Stats counts changed tokens
type Stats struct {
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
}

// Engine wraps a configured diff-match-patch instance
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates an Engine. A zero timeout lets the diff run to the
// minimal edit script regardless of input size.
func NewEngine(timeout time.Duration) *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = timeout
	return &Engine{dmp: dmp}
}

// DefaultEngine is shared by the package-level helpers
var DefaultEngine = NewEngine(time.Second)

// Lines diffs a and b line by line. Each line keeps its trailing newline.
func Lines(a, b string) []Op { return DefaultEngine.Lines(a, b) }

// Words diffs a and b word by word. Whitespace and punctuation are tokens too.
func Words(a, b string) []Op { return DefaultEngine.Words(a, b) }

// Lines diffs a and b line by line
func (e *Engine) Lines(a, b string) []Op {
	return e.diffTokens(splitLines(a), splitLines(b))
}

// Words diffs a and b word by word
func (e *Engine) Words(a, b string) []Op {
	return e.diffTokens(splitWords(a), splitWords(b))
}

func (e *Engine) diffTokens(a, b []string) []Op {
	enc := newTokenEncoder()
	ra := enc.encode(a)
	rb := enc.encode(b)

	diffs := e.dmp.DiffMainRunes(ra, rb, false)

	ops := make([]Op, 0, len(diffs))
	for _, d := range diffs {
		text := enc.decode(d.Text)
		if text == "" {
			continue
		}
		kind := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = OpInsert
		case diffmatchpatch.DiffDelete:
			kind = OpDelete
		}
		if n := len(ops); n > 0 && ops[n-1].Kind == kind {
			ops[n-1].Text += text
			continue
		}
		ops = append(ops, Op{Kind: kind, Text: text})
	}
	return ops
}

// HasChanges reports whether ops contain any insertion or deletion
func HasChanges(ops []Op) bool {
	for _, op := range ops {
		if op.Kind != OpEqual {
			return true
		}
	}
	return false
}

// Apply rebuilds the old (before) and new (after) texts from ops
func Apply(ops []Op) (before, after string) {
	var b, a strings.Builder
	for _, op := range ops {
		switch op.Kind {
		case OpEqual:
			b.WriteString(op.Text)
			a.WriteString(op.Text)
		case OpDelete:
			b.WriteString(op.Text)
		case OpInsert:
			a.WriteString(op.Text)
		}
	}
	return b.String(), a.String()
}

// Count returns the number of non-blank inserted and deleted tokens
func Count(ops []Op, split func(string) []string) Stats {
	var s Stats
	for _, op := range ops {
		if op.Kind == OpEqual {
			continue
		}
		n := 0
		for _, tok := range split(op.Text) {
			if strings.TrimSpace(tok) != "" {
				n++
			}
		}
		if op.Kind == OpInsert {
			s.Inserted += n
		} else {
			s.Deleted += n
		}
	}
	return s
}

// HTML renders ops as inline markup: insertions in <ins>, deletions in <del>.
// All text is HTML-escaped.
func HTML(ops []Op) string {
	var sb strings.Builder
	for _, op := range ops {
		text := html.EscapeString(op.Text)
		switch op.Kind {
		case OpInsert:
			sb.WriteString(`<ins class="diff-ins">`)
			sb.WriteString(text)
			sb.WriteString(`</ins>`)
		case OpDelete:
			sb.WriteString(`<del class="diff-del">`)
			sb.WriteString(text)
			sb.WriteString(`</del>`)
		default:
			sb.WriteString(text)
		}
	}
	return sb.String()
}

// SplitLines splits s into lines, keeping line terminators
func SplitLines(s string) []string { return splitLines(s) }

// SplitWords splits s into word, whitespace and punctuation tokens
func SplitWords(s string) []string { return splitWords(s) }

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func splitWords(s string) []string {
	var tokens []string
	start := -1
	inSpace := false
	flush := func(end int) {
		if start >= 0 && end > start {
			tokens = append(tokens, s[start:end])
		}
		start = -1
	}

	for i, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if start >= 0 && inSpace {
				flush(i)
			}
			if start < 0 {
				start = i
				inSpace = false
			}
		case unicode.IsSpace(r):
			if start >= 0 && !inSpace {
				flush(i)
			}
			if start < 0 {
				start = i
				inSpace = true
			}
		default:
			flush(i)
			tokens = append(tokens, string(r))
		}
	}
	flush(len(s))
	return tokens
}

// tokenEncoder maps each distinct token to a single rune so the diff engine
// compares whole tokens.
type tokenEncoder struct {
	index  map[string]rune
	tokens []string
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{index: make(map[string]rune)}
}

// Surrogate code points do not survive a []rune -> string round trip.
const (
	surrogateMin = 0xD800
	surrogateGap = 0x800
)

func (t *tokenEncoder) encode(tokens []string) []rune {
	out := make([]rune, len(tokens))
	for i, tok := range tokens {
		r, ok := t.index[tok]
		if !ok {
			r = rune(len(t.tokens))
			if r >= surrogateMin {
				r += surrogateGap
			}
			t.index[tok] = r
			t.tokens = append(t.tokens, tok)
		}
		out[i] = r
	}
	return out
}

func (t *tokenEncoder) decode(s string) string {
	var sb strings.Builder
	for _, r := range s {
		idx := int(r)
		if r >= surrogateMin+surrogateGap {
			idx -= surrogateGap
		}
		if idx >= 0 && idx < len(t.tokens) {
			sb.WriteString(t.tokens[idx])
		}
	}
	return sb.String()
}
