package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/ats.txt
	promptATS string
	//go:embed prompts/jd_match.txt
	promptJDMatch string
	//go:embed prompts/rewrite.txt
	promptRewrite string
)

const (
	systemATS     = "You are an expert ATS analyzer. Always return valid JSON only, no markdown, no explanations."
	systemJDMatch = "You are an expert recruiter. Always return valid JSON only, no markdown, no explanations."
	systemRewrite = "You are an expert resume writer. Always return valid JSON only, no markdown, no explanations."

	maxOutputTokens = 4000

	// Character budgets applied before a prompt is built.
	ResumeBudget         = 8000
	MatchResumeBudget    = 6000
	JobDescriptionBudget = 4000
)

// BuildATSRequest builds the ATS scoring prompt.
func BuildATSRequest(resumeText string) Request {
	return Request{
		Variant:     VariantATS,
		System:      systemATS,
		Prompt:      fill(promptATS, Truncate(resumeText, ResumeBudget), ""),
		Temperature: 0.3,
		MaxTokens:   maxOutputTokens,
	}
}

// BuildMatchRequest builds the job-description match prompt.
func BuildMatchRequest(resumeText, jobDescription string) Request {
	return Request{
		Variant:     VariantJDMatch,
		System:      systemJDMatch,
		Prompt:      fill(promptJDMatch, Truncate(resumeText, MatchResumeBudget), Truncate(jobDescription, JobDescriptionBudget)),
		Temperature: 0.3,
		MaxTokens:   maxOutputTokens,
	}
}

// BuildRewriteRequest builds the bullet rewrite prompt.
func BuildRewriteRequest(resumeText string) Request {
	return Request{
		Variant:     VariantRewrite,
		System:      systemRewrite,
		Prompt:      fill(promptRewrite, Truncate(resumeText, ResumeBudget), ""),
		Temperature: 0.4,
		MaxTokens:   maxOutputTokens,
	}
}

func fill(template, resumeText, jobDescription string) string {
	replacer := strings.NewReplacer(
		"{{RESUME_TEXT}}", resumeText,
		"{{JOB_DESCRIPTION}}", jobDescription,
	)
	return strings.TrimSpace(replacer.Replace(template))
}
