package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *PGRepo) Insert(ctx context.Context, analysis Analysis) error {
	return insert(ctx, r.DB, analysis)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
    id, resume_id, user_id, ats_score, jd_match_score, job_description,
    missing_skills, weak_sections, bullet_improvements, feedback, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10, $11, $12)`
	missing, err := marshalJSONB(nonNilStrings(analysis.MissingSkills))
	if err != nil {
		return err
	}
	weak, err := marshalJSONB(nonNilStrings(analysis.WeakSections))
	if err != nil {
		return err
	}
	bullets, err := marshalJSONB(nonNilBullets(analysis.BulletImprovements))
	if err != nil {
		return err
	}
	updatedAt := analysis.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = analysis.CreatedAt
	}
	_, err = db.ExecContext(ctx, query,
		analysis.ID,
		analysis.ResumeID,
		analysis.UserID,
		nullInt(analysis.ATSScore),
		nullInt(analysis.JDMatchScore),
		analysis.JobDescription,
		missing,
		weak,
		bullets,
		analysis.Feedback,
		analysis.CreatedAt,
		updatedAt,
	)
	return err
}

// UpsertMatch runs in one transaction holding a row lock on the resume so concurrent matches serialize.
func (r *PGRepo) UpsertMatch(ctx context.Context, update MatchUpdate) (Analysis, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Analysis{}, err
	}
	defer tx.Rollback()

	var lockedID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM resumes WHERE id = $1 AND user_id = $2 FOR UPDATE`, update.ResumeID, update.UserID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrResumeNotFound
		}
		return Analysis{}, err
	}

	latest, err := getLatest(ctx, tx, update.UserID, update.ResumeID)
	switch {
	case errors.Is(err, ErrNotFound):
		created := update.newAnalysis()
		if err := insert(ctx, tx, created); err != nil {
			return Analysis{}, err
		}
		if err := tx.Commit(); err != nil {
			return Analysis{}, err
		}
		return created, nil
	case err != nil:
		return Analysis{}, err
	}

	missing, err := marshalJSONB(nonNilStrings(update.MissingSkills))
	if err != nil {
		return Analysis{}, err
	}
	appended, err := marshalJSONB(nonNilBullets(update.Suggestions))
	if err != nil {
		return Analysis{}, err
	}
	const query = `
UPDATE analyses
SET jd_match_score = $1,
    job_description = $2,
    missing_skills = $3::jsonb,
    bullet_improvements = bullet_improvements || $4::jsonb,
    updated_at = $5
WHERE id = $6 AND user_id = $7`
	if _, err := tx.ExecContext(ctx, query,
		update.Score,
		update.JobDescription,
		missing,
		appended,
		update.Now,
		latest.ID,
		update.UserID,
	); err != nil {
		return Analysis{}, err
	}
	if err := tx.Commit(); err != nil {
		return Analysis{}, err
	}

	score := update.Score
	latest.JDMatchScore = &score
	latest.JobDescription = update.JobDescription
	latest.MissingSkills = nonNilStrings(update.MissingSkills)
	latest.BulletImprovements = append(latest.BulletImprovements, update.Suggestions...)
	latest.UpdatedAt = update.Now
	return latest, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	const query = `
SELECT a.id, a.resume_id, r.file_name, a.ats_score, a.jd_match_score, a.created_at
FROM analyses a
JOIN resumes r ON r.id = a.resume_id
WHERE a.user_id = $1
ORDER BY a.created_at DESC, a.id DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		var ats, jd sql.NullInt64
		if err := rows.Scan(&s.ID, &s.ResumeID, &s.ResumeName, &ats, &jd, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.ATSScore = intPtr(ats)
		s.JDMatchScore = intPtr(jd)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetLatest(ctx context.Context, userID, resumeID string) (Analysis, error) {
	return getLatest(ctx, r.DB, userID, resumeID)
}

func getLatest(ctx context.Context, db queryRower, userID, resumeID string) (Analysis, error) {
	const query = `
SELECT id, resume_id, user_id, ats_score, jd_match_score, job_description,
       missing_skills, weak_sections, bullet_improvements, feedback, created_at, updated_at
FROM analyses
WHERE resume_id = $1 AND user_id = $2
ORDER BY created_at DESC, id DESC
LIMIT 1`
	var a Analysis
	var ats, jd sql.NullInt64
	var missing, weak, bullets []byte
	err := db.QueryRowContext(ctx, query, resumeID, userID).Scan(
		&a.ID,
		&a.ResumeID,
		&a.UserID,
		&ats,
		&jd,
		&a.JobDescription,
		&missing,
		&weak,
		&bullets,
		&a.Feedback,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	a.ATSScore = intPtr(ats)
	a.JDMatchScore = intPtr(jd)
	if err := unmarshalJSONB(missing, &a.MissingSkills); err != nil {
		return Analysis{}, fmt.Errorf("decode missing_skills: %w", err)
	}
	if err := unmarshalJSONB(weak, &a.WeakSections); err != nil {
		return Analysis{}, fmt.Errorf("decode weak_sections: %w", err)
	}
	if err := unmarshalJSONB(bullets, &a.BulletImprovements); err != nil {
		return Analysis{}, fmt.Errorf("decode bullet_improvements: %w", err)
	}
	a.MissingSkills = nonNilStrings(a.MissingSkills)
	a.WeakSections = nonNilStrings(a.WeakSections)
	a.BulletImprovements = nonNilBullets(a.BulletImprovements)
	return a, nil
}

func marshalJSONB(value any) (string, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func unmarshalJSONB(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

var _ Repo = (*PGRepo)(nil)
