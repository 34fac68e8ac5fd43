package analyses

import (
	"time"

	"resume-analyzer/internal/llm"
)

// MatchSuggestionReason tags bullets appended from a job description match.
const MatchSuggestionReason = "JD Match Suggestion"

// Analysis is one stored AI evaluation of a resume. Scores are nil until the matching run has happened.
type Analysis struct {
	ID                 string
	ResumeID           string
	UserID             string
	ATSScore           *int
	JDMatchScore       *int
	JobDescription     string
	MissingSkills      []string
	WeakSections       []string
	BulletImprovements []llm.BulletImprovement
	Feedback           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Summary is a dashboard row.
type Summary struct {
	ID           string
	ResumeID     string
	ResumeName   string
	ATSScore     *int
	JDMatchScore *int
	CreatedAt    time.Time
}

// MatchUpdate carries a job description match into the latest analysis of a resume.
type MatchUpdate struct {
	ResumeID       string
	UserID         string
	Score          int
	JobDescription string
	MissingSkills  []string
	Suggestions    []llm.BulletImprovement

	// Used only when the resume has no analysis yet.
	NewID    string
	Feedback string

	Now time.Time
}

func (m MatchUpdate) newAnalysis() Analysis {
	score := m.Score
	return Analysis{
		ID:                 m.NewID,
		ResumeID:           m.ResumeID,
		UserID:             m.UserID,
		JDMatchScore:       &score,
		JobDescription:     m.JobDescription,
		MissingSkills:      nonNilStrings(m.MissingSkills),
		WeakSections:       []string{},
		BulletImprovements: nonNilBullets(m.Suggestions),
		Feedback:           m.Feedback,
		CreatedAt:          m.Now,
		UpdatedAt:          m.Now,
	}
}

func suggestionBullets(changes []string) []llm.BulletImprovement {
	out := make([]llm.BulletImprovement, 0, len(changes))
	for _, change := range changes {
		out = append(out, llm.BulletImprovement{Original: "", Improved: change, Reason: MatchSuggestionReason})
	}
	return out
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilBullets(v []llm.BulletImprovement) []llm.BulletImprovement {
	if v == nil {
		return []llm.BulletImprovement{}
	}
	return v
}
