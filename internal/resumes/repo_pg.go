package resumes

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, resume Resume) error {
	const query = `
INSERT INTO resumes (
    id,
    user_id,
    file_url,
    storage_key,
    file_name,
    mime_type,
    size_bytes,
    extracted_text,
    uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		resume.ID,
		resume.UserID,
		resume.FileURL,
		resume.StorageKey,
		resume.FileName,
		resume.MimeType,
		resume.SizeBytes,
		resume.ExtractedText,
		resume.UploadedAt,
	)
	return err
}

func (r *PGRepo) GetOwned(ctx context.Context, userID, resumeID string) (Resume, error) {
	const query = `
SELECT id, user_id, file_url, storage_key, file_name, mime_type, size_bytes, extracted_text, uploaded_at
FROM resumes
WHERE id = $1 AND user_id = $2
LIMIT 1`
	var resume Resume
	err := r.DB.QueryRowContext(ctx, query, resumeID, userID).Scan(
		&resume.ID,
		&resume.UserID,
		&resume.FileURL,
		&resume.StorageKey,
		&resume.FileName,
		&resume.MimeType,
		&resume.SizeBytes,
		&resume.ExtractedText,
		&resume.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return resume, nil
}

// ListByUser returns the newest resumes first without their extracted text.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Resume, error) {
	const query = `
SELECT id, user_id, file_url, storage_key, file_name, mime_type, size_bytes, uploaded_at
FROM resumes
WHERE user_id = $1
ORDER BY uploaded_at DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Resume, 0)
	for rows.Next() {
		var resume Resume
		if err := rows.Scan(
			&resume.ID,
			&resume.UserID,
			&resume.FileURL,
			&resume.StorageKey,
			&resume.FileName,
			&resume.MimeType,
			&resume.SizeBytes,
			&resume.UploadedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
