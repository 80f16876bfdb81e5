package migration

import (
	"context"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/repository"
	"gorm.io/gorm"
)

// Report lists integrity problems already present in the database
type Report struct {
	RedirectRules      int
	SelfRedirects      []uint64
	RedirectCycles     [][]string
	DuplicateRevisions []repository.DuplicateRevisionNumber
}

// OK reports whether no problem was found
func (r *Report) OK() bool {
	return len(r.SelfRedirects) == 0 && len(r.RedirectCycles) == 0 && len(r.DuplicateRevisions) == 0
}

// Verify checks stored redirects with the same rules the editor enforces
// and looks for owners that hold a revision number twice.
func Verify(ctx context.Context, db *gorm.DB) (*Report, error) {
	rules, err := repository.NewRedirectRepository(db).ListAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{RedirectRules: len(rules)}
	edges := make([]common.RedirectEdge, len(rules))
	for i, r := range rules {
		edges[i] = common.RedirectEdge{ID: r.ID, Source: r.SourcePath, Target: r.TargetPath}
		if common.RejectsSelfRedirect(r.SourcePath, r.TargetPath) {
			report.SelfRedirects = append(report.SelfRedirects, r.ID)
		}
	}
	report.RedirectCycles = common.FindRedirectCycles(edges)

	dups, err := repository.NewRevisionRepository(db).DuplicateNumbers(ctx)
	if err != nil {
		return nil, err
	}
	report.DuplicateRevisions = dups
	return report, nil
}
