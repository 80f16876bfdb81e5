package domain

import "github.com/damoang/angple-blog/pkg/textdiff"

// NoChangesMarker is rendered for a field whose values are identical
const NoChangesMarker = "No changes"

// Diffed field names
const (
	FieldTitle   = "title"
	FieldExcerpt = "excerpt"
	FieldContent = "content"
)

// FieldDiff is the edit script for one tracked field
type FieldDiff struct {
	Field   string          `json:"field"`
	Changed bool            `json:"changed"`
	Ops     []textdiff.Op   `json:"ops,omitempty"`
	Stats   *textdiff.Stats `json:"stats,omitempty"`
	Markup  string          `json:"markup"`
}

// DiffResult holds per-field diffs between a revision and another state.
// It is computed on demand and never stored.
type DiffResult struct {
	Title   FieldDiff `json:"title"`
	Excerpt FieldDiff `json:"excerpt"`
	Content FieldDiff `json:"content"`
}

// HasChanges reports whether any field differs
func (d DiffResult) HasChanges() bool {
	return d.Title.Changed || d.Excerpt.Changed || d.Content.Changed
}

// DiffResponse wraps a diff with the revisions it was computed from
type DiffResponse struct {
	Revision RevisionListItem  `json:"revision"`
	Against  *RevisionListItem `json:"against,omitempty"`
	Diff     DiffResult        `json:"diff"`
}
