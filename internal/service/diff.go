package service

import (
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/pkg/textdiff"
)

// BuildDiffResult diffs each tracked field of from against to.
// Identical fields get the no-changes marker; content is diffed by line,
// title and excerpt by word.
func BuildDiffResult(from, to domain.RevisionFields) domain.DiffResult {
	return domain.DiffResult{
		Title:   fieldDiff(domain.FieldTitle, from.Title, to.Title, textdiff.Words, textdiff.SplitWords),
		Excerpt: fieldDiff(domain.FieldExcerpt, from.Excerpt, to.Excerpt, textdiff.Words, textdiff.SplitWords),
		Content: fieldDiff(domain.FieldContent, from.Content, to.Content, textdiff.Lines, textdiff.SplitLines),
	}
}

func fieldDiff(field, a, b string, diff func(a, b string) []textdiff.Op, split func(string) []string) domain.FieldDiff {
	if a == b {
		return domain.FieldDiff{Field: field, Markup: domain.NoChangesMarker}
	}
	ops := diff(a, b)
	stats := textdiff.Count(ops, split)
	return domain.FieldDiff{
		Field:   field,
		Changed: true,
		Ops:     ops,
		Stats:   &stats,
		Markup:  textdiff.HTML(ops),
	}
}
