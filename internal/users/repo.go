package users

import (
	"context"

	"resume-analyzer/internal/shared/apperr"
)

var (
	ErrNotFound   = apperr.NotFound("User not found")
	ErrEmailTaken = apperr.Conflict("User already exists with this email")
)

// Repo persists users. Emails are stored normalized and compared case-insensitively.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}
