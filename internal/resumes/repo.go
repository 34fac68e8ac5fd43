package resumes

import (
	"context"

	"resume-analyzer/internal/shared/apperr"
)

// ListLimit caps dashboard listings.
const ListLimit = 50

var ErrNotFound = apperr.NotFound("Resume not found")

// Repo persists resumes. Every read is scoped to the owning user.
type Repo interface {
	Create(ctx context.Context, resume Resume) error
	GetOwned(ctx context.Context, userID, resumeID string) (Resume, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Resume, error)
}
