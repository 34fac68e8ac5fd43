package analyses

import (
	"time"

	"resume-analyzer/internal/llm"
)

type analyzeResponse struct {
	ID                 string                  `json:"id"`
	ResumeID           string                  `json:"resumeId"`
	ATSScore           *int                    `json:"atsScore"`
	MissingSkills      []string                `json:"missingSkills"`
	WeakSections       []string                `json:"weakSections"`
	BulletImprovements []llm.BulletImprovement `json:"bulletImprovements"`
	CreatedAt          time.Time               `json:"createdAt"`
}

type matchRequest struct {
	JobDescription string `json:"jobDescription"`
}

type matchResponse struct {
	ID               string    `json:"id"`
	MatchPercentage  int       `json:"matchPercentage"`
	MissingSkills    []string  `json:"missingSkills"`
	SuggestedChanges []string  `json:"suggestedChanges"`
	CreatedAt        time.Time `json:"createdAt"`
}

type rewriteResponse struct {
	BulletImprovements []llm.BulletImprovement `json:"bulletImprovements"`
	OverallFeedback    string                  `json:"overallFeedback"`
}

type summaryResponse struct {
	ID           string    `json:"id"`
	ResumeID     string    `json:"resumeId"`
	ResumeName   string    `json:"resumeName"`
	ATSScore     *int      `json:"atsScore"`
	JDMatchScore *int      `json:"jdMatchScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

type detailResponse struct {
	ID                 string                  `json:"id"`
	ResumeID           string                  `json:"resumeId"`
	ATSScore           *int                    `json:"atsScore"`
	JDMatchScore       *int                    `json:"jdMatchScore"`
	JobDescription     string                  `json:"jobDescription"`
	MissingSkills      []string                `json:"missingSkills"`
	WeakSections       []string                `json:"weakSections"`
	BulletImprovements []llm.BulletImprovement `json:"bulletImprovements"`
	CreatedAt          time.Time               `json:"createdAt"`
}

func toAnalyzeResponse(a Analysis) analyzeResponse {
	return analyzeResponse{
		ID:                 a.ID,
		ResumeID:           a.ResumeID,
		ATSScore:           a.ATSScore,
		MissingSkills:      nonNilStrings(a.MissingSkills),
		WeakSections:       nonNilStrings(a.WeakSections),
		BulletImprovements: nonNilBullets(a.BulletImprovements),
		CreatedAt:          a.CreatedAt,
	}
}

func toMatchResponse(m MatchOutcome) matchResponse {
	return matchResponse{
		ID:               m.Analysis.ID,
		MatchPercentage:  m.MatchPercentage,
		MissingSkills:    nonNilStrings(m.MissingSkills),
		SuggestedChanges: nonNilStrings(m.SuggestedChanges),
		CreatedAt:        m.Analysis.CreatedAt,
	}
}

func toSummaryResponse(s Summary) summaryResponse {
	return summaryResponse{
		ID:           s.ID,
		ResumeID:     s.ResumeID,
		ResumeName:   s.ResumeName,
		ATSScore:     s.ATSScore,
		JDMatchScore: s.JDMatchScore,
		CreatedAt:    s.CreatedAt,
	}
}

func toDetailResponse(a Analysis) detailResponse {
	return detailResponse{
		ID:                 a.ID,
		ResumeID:           a.ResumeID,
		ATSScore:           a.ATSScore,
		JDMatchScore:       a.JDMatchScore,
		JobDescription:     a.JobDescription,
		MissingSkills:      nonNilStrings(a.MissingSkills),
		WeakSections:       nonNilStrings(a.WeakSections),
		BulletImprovements: nonNilBullets(a.BulletImprovements),
		CreatedAt:          a.CreatedAt,
	}
}
