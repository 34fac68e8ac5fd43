package analyses

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/resumes"
	"resume-analyzer/internal/shared/apperr"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

// MinTextLength applies to both resume text and job descriptions.
const MinTextLength = 50

var (
	ErrResumeTooShort         = apperr.Validation("Resume text is too short for analysis")
	ErrJobDescriptionTooShort = apperr.Validation("Job description is required and must be at least 50 characters")
)

// ResumeSource looks up resumes owned by a user.
type ResumeSource interface {
	GetOwned(ctx context.Context, userID, resumeID string) (resumes.Resume, error)
}

// AI runs the three analysis prompts.
type AI interface {
	AnalyzeATS(ctx context.Context, resumeText string) (llm.ATSResult, error)
	MatchJobDescription(ctx context.Context, resumeText, jobDescription string) (llm.MatchResult, error)
	RewriteSuggestions(ctx context.Context, resumeText string) (llm.RewriteResult, error)
}

type Service struct {
	Repo    Repo
	Resumes ResumeSource
	AI      AI

	now   func() time.Time
	newID func() string
}

func NewService(repo Repo, resumeSource ResumeSource, ai AI) *Service {
	return &Service{
		Repo:    repo,
		Resumes: resumeSource,
		AI:      ai,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// MatchOutcome is the stored analysis plus the raw suggestions from the match.
type MatchOutcome struct {
	Analysis         Analysis
	MatchPercentage  int
	MissingSkills    []string
	SuggestedChanges []string
}

// Analyze scores the resume and always stores a new analysis. Nothing is stored when the AI call fails.
func (s *Service) Analyze(ctx context.Context, userID, resumeID string) (Analysis, error) {
	resume, err := s.Resumes.GetOwned(ctx, userID, resumeID)
	if err != nil {
		return Analysis{}, err
	}
	if tooShort(resume.ExtractedText) {
		return Analysis{}, ErrResumeTooShort
	}

	result, err := s.AI.AnalyzeATS(ctx, resume.ExtractedText)
	if err != nil {
		return Analysis{}, err
	}
	feedback, err := json.Marshal(result)
	if err != nil {
		return Analysis{}, err
	}

	now := s.now().UTC()
	score := result.ATSScore
	analysis := Analysis{
		ID:                 s.newID(),
		ResumeID:           resume.ID,
		UserID:             userID,
		ATSScore:           &score,
		MissingSkills:      nonNilStrings(result.MissingSkills),
		WeakSections:       nonNilStrings(result.WeakSections),
		BulletImprovements: nonNilBullets(result.BulletImprovements),
		Feedback:           string(feedback),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.Repo.Insert(ctx, analysis); err != nil {
		return Analysis{}, err
	}

	metrics.IncAnalysisSaved()
	telemetry.Info("analysis.saved", map[string]any{
		"analysis_id": analysis.ID,
		"resume_id":   resume.ID,
		"user_id":     userID,
		"ats_score":   score,
	})
	return analysis, nil
}

// MatchJobDescription compares the resume with a job description and folds the result into the latest analysis.
func (s *Service) MatchJobDescription(ctx context.Context, userID, resumeID, jobDescription string) (MatchOutcome, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if utf8.RuneCountInString(jobDescription) < MinTextLength {
		return MatchOutcome{}, ErrJobDescriptionTooShort
	}
	resume, err := s.Resumes.GetOwned(ctx, userID, resumeID)
	if err != nil {
		return MatchOutcome{}, err
	}

	result, err := s.AI.MatchJobDescription(ctx, resume.ExtractedText, jobDescription)
	if err != nil {
		return MatchOutcome{}, err
	}
	feedback, err := json.Marshal(result)
	if err != nil {
		return MatchOutcome{}, err
	}

	analysis, err := s.Repo.UpsertMatch(ctx, MatchUpdate{
		ResumeID:       resume.ID,
		UserID:         userID,
		Score:          result.MatchPercentage,
		JobDescription: jobDescription,
		MissingSkills:  nonNilStrings(result.MissingSkills),
		Suggestions:    suggestionBullets(result.SuggestedChanges),
		NewID:          s.newID(),
		Feedback:       string(feedback),
		Now:            s.now().UTC(),
	})
	if err != nil {
		return MatchOutcome{}, err
	}

	metrics.IncAnalysisSaved()
	telemetry.Info("analysis.matched", map[string]any{
		"analysis_id": analysis.ID,
		"resume_id":   resume.ID,
		"user_id":     userID,
		"match_score": result.MatchPercentage,
	})
	return MatchOutcome{
		Analysis:         analysis,
		MatchPercentage:  result.MatchPercentage,
		MissingSkills:    nonNilStrings(result.MissingSkills),
		SuggestedChanges: nonNilStrings(result.SuggestedChanges),
	}, nil
}

// Rewrite returns bullet rewrites for the resume without storing them.
func (s *Service) Rewrite(ctx context.Context, userID, resumeID string) (llm.RewriteResult, error) {
	resume, err := s.Resumes.GetOwned(ctx, userID, resumeID)
	if err != nil {
		return llm.RewriteResult{}, err
	}
	result, err := s.AI.RewriteSuggestions(ctx, resume.ExtractedText)
	if err != nil {
		return llm.RewriteResult{}, err
	}
	result.BulletImprovements = nonNilBullets(result.BulletImprovements)
	return result, nil
}

// List returns the user's newest analyses with their resume names.
func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	return s.Repo.ListByUser(ctx, userID, ListLimit)
}

// GetForResume returns the latest analysis of a resume.
func (s *Service) GetForResume(ctx context.Context, userID, resumeID string) (Analysis, error) {
	resumeID = strings.TrimSpace(resumeID)
	if resumeID == "" {
		return Analysis{}, ErrNotFound
	}
	return s.Repo.GetLatest(ctx, userID, resumeID)
}

func tooShort(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextLength
}
