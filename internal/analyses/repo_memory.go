package analyses

import (
	"context"
	"sort"
	"sync"

	"resume-analyzer/internal/llm"
)

// ResumeNamer resolves the original file name of a resume.
type ResumeNamer interface {
	FileName(resumeID string) (string, bool)
}

type MemoryRepo struct {
	mu       sync.Mutex
	names    ResumeNamer
	analyses map[string]Analysis
}

// NewMemoryRepo creates an in-memory store. names may be nil.
func NewMemoryRepo(names ResumeNamer) *MemoryRepo {
	return &MemoryRepo{names: names, analyses: make(map[string]Analysis)}
}

func (r *MemoryRepo) Insert(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses[analysis.ID] = clone(analysis)
	return nil
}

func (r *MemoryRepo) UpsertMatch(ctx context.Context, update MatchUpdate) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	latest, ok := r.latestLocked(update.UserID, update.ResumeID)
	if !ok {
		created := update.newAnalysis()
		r.analyses[created.ID] = clone(created)
		return created, nil
	}

	score := update.Score
	latest.JDMatchScore = &score
	latest.JobDescription = update.JobDescription
	latest.MissingSkills = nonNilStrings(append([]string(nil), update.MissingSkills...))
	latest.BulletImprovements = append(latest.BulletImprovements, update.Suggestions...)
	latest.UpdatedAt = update.Now
	r.analyses[latest.ID] = latest
	return clone(latest), nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	list := make([]Analysis, 0)
	for _, a := range r.analyses {
		if a.UserID == userID {
			list = append(list, a)
		}
	}
	r.mu.Unlock()

	sortNewestFirst(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]Summary, 0, len(list))
	for _, a := range list {
		s := Summary{
			ID:           a.ID,
			ResumeID:     a.ResumeID,
			ATSScore:     a.ATSScore,
			JDMatchScore: a.JDMatchScore,
			CreatedAt:    a.CreatedAt,
		}
		if r.names != nil {
			s.ResumeName, _ = r.names.FileName(a.ResumeID)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *MemoryRepo) GetLatest(ctx context.Context, userID, resumeID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	latest, ok := r.latestLocked(userID, resumeID)
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return clone(latest), nil
}

func (r *MemoryRepo) latestLocked(userID, resumeID string) (Analysis, bool) {
	var latest Analysis
	found := false
	for _, a := range r.analyses {
		if a.UserID != userID || a.ResumeID != resumeID {
			continue
		}
		if !found || newer(a, latest) {
			latest = a
			found = true
		}
	}
	return latest, found
}

func sortNewestFirst(list []Analysis) {
	sort.Slice(list, func(i, j int) bool { return newer(list[i], list[j]) })
}

// newer orders by CreatedAt, breaking ties by ID.
func newer(a, b Analysis) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func clone(a Analysis) Analysis {
	a.MissingSkills = append([]string{}, a.MissingSkills...)
	a.WeakSections = append([]string{}, a.WeakSections...)
	a.BulletImprovements = append([]llm.BulletImprovement{}, a.BulletImprovements...)
	if a.ATSScore != nil {
		v := *a.ATSScore
		a.ATSScore = &v
	}
	if a.JDMatchScore != nil {
		v := *a.JDMatchScore
		a.JDMatchScore = &v
	}
	return a
}

var _ Repo = (*MemoryRepo)(nil)
