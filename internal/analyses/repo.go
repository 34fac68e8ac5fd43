package analyses

import (
	"context"

	"resume-analyzer/internal/shared/apperr"
)

// ListLimit caps dashboard listings.
const ListLimit = 50

var (
	ErrNotFound       = apperr.NotFound("Analysis not found")
	ErrResumeNotFound = apperr.NotFound("Resume not found")
)

// Repo defines persistence operations for analyses. Every call is scoped to the owning user.
type Repo interface {
	Insert(ctx context.Context, analysis Analysis) error
	// UpsertMatch applies a match to the newest analysis for (resume, user), inserting one if none exists.
	UpsertMatch(ctx context.Context, update MatchUpdate) (Analysis, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error)
	GetLatest(ctx context.Context, userID, resumeID string) (Analysis, error)
}
