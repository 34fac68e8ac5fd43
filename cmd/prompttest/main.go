package main

// Run one analysis prompt against a local PDF:
//   go run ./cmd/prompttest -resume ./cv.pdf -variant ats
//   go run ./cmd/prompttest -resume ./cv.pdf -variant jd_match -jd ./jd.txt

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/llm/gemini"
	"resume-analyzer/internal/llm/openai"
	"resume-analyzer/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume PDF")
	jdPath := flag.String("jd", "", "Path to job description file (jd_match only)")
	variant := flag.String("variant", string(llm.VariantATS), "Prompt variant: ats, jd_match or rewrite")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}

	ctx := context.Background()
	resumeBytes, err := os.ReadFile(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}
	resumeText, err := extract.NewPDF().Extract(ctx, resumeBytes)
	if err != nil {
		exitErr(fmt.Sprintf("extract resume text: %v", err))
	}

	client, err := buildClient(ctx, cfg, *provider, *model)
	if err != nil {
		exitErr(err.Error())
	}
	gateway := llm.NewGateway(client, llm.GatewayOptions{
		Timeout:     cfg.LLMTimeout,
		Budget:      cfg.LLMBudget,
		MaxAttempts: cfg.LLMMaxRetries,
	})

	var result any
	switch llm.Variant(strings.TrimSpace(*variant)) {
	case llm.VariantATS:
		result, err = gateway.AnalyzeATS(ctx, resumeText)
	case llm.VariantJDMatch:
		if strings.TrimSpace(*jdPath) == "" {
			exitErr("jd path is required for jd_match")
		}
		jdBytes, readErr := os.ReadFile(*jdPath)
		if readErr != nil {
			exitErr(fmt.Sprintf("read job description: %v", readErr))
		}
		result, err = gateway.MatchJobDescription(ctx, resumeText, strings.TrimSpace(string(jdBytes)))
	case llm.VariantRewrite:
		result, err = gateway.RewriteSuggestions(ctx, resumeText)
	default:
		exitErr(fmt.Sprintf("unsupported variant: %s", *variant))
	}
	if err != nil {
		exitErr(fmt.Sprintf("llm %s: %v", *variant, err))
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	fmt.Println(string(pretty))
}

func buildClient(ctx context.Context, cfg config.Config, provider, model string) (llm.Completer, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required")
		}
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, model)
	case "openai", "":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		return openai.NewClient(cfg.OpenAIAPIKey, model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
