package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-analyzer/internal/shared/apperr"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	msgNotConfigured = "AI provider is not configured"
	msgProvider      = "AI provider request failed"
	msgTimeout       = "AI provider timed out"
	msgParse         = "Failed to parse AI response"
)

// GatewayOptions tunes retry and timeout behavior. Zero values select defaults.
// Timeout bounds one attempt; Budget bounds all attempts plus backoff together.
type GatewayOptions struct {
	Timeout     time.Duration
	Budget      time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

// Gateway builds prompts, calls the provider with retries and normalizes replies.
type Gateway struct {
	client      Completer
	timeout     time.Duration
	budget      time.Duration
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewGateway(client Completer, opts GatewayOptions) *Gateway {
	g := &Gateway{
		client:      client,
		timeout:     opts.Timeout,
		budget:      opts.Budget,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		sleep:       sleepCtx,
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if g.budget <= 0 {
		g.budget = defaultBudget
	}
	if g.budget < g.timeout {
		g.budget = g.timeout
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = defaultMaxAttempts
	}
	if g.baseDelay <= 0 {
		g.baseDelay = defaultBaseDelay
	}
	return g
}

// AnalyzeATS scores resumeText for ATS compatibility.
func (g *Gateway) AnalyzeATS(ctx context.Context, resumeText string) (ATSResult, error) {
	raw, err := g.call(ctx, BuildATSRequest(resumeText))
	if err != nil {
		return ATSResult{}, err
	}
	res, err := ParseATS(raw)
	if err != nil {
		return ATSResult{}, g.parseFailure(ctx, VariantATS, err)
	}
	return res, nil
}

// MatchJobDescription compares resumeText against jobDescription.
func (g *Gateway) MatchJobDescription(ctx context.Context, resumeText, jobDescription string) (MatchResult, error) {
	raw, err := g.call(ctx, BuildMatchRequest(resumeText, jobDescription))
	if err != nil {
		return MatchResult{}, err
	}
	res, err := ParseMatch(raw)
	if err != nil {
		return MatchResult{}, g.parseFailure(ctx, VariantJDMatch, err)
	}
	return res, nil
}

// RewriteSuggestions proposes improved bullets for resumeText.
func (g *Gateway) RewriteSuggestions(ctx context.Context, resumeText string) (RewriteResult, error) {
	raw, err := g.call(ctx, BuildRewriteRequest(resumeText))
	if err != nil {
		return RewriteResult{}, err
	}
	res, err := ParseRewrite(raw)
	if err != nil {
		return RewriteResult{}, g.parseFailure(ctx, VariantRewrite, err)
	}
	return res, nil
}

func (g *Gateway) call(ctx context.Context, req Request) (string, error) {
	if g == nil || g.client == nil {
		return "", apperr.Provider(msgNotConfigured, nil)
	}

	budgetCtx, cancel := context.WithTimeout(ctx, g.budget)
	defer cancel()

	start := time.Now()
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		attempts = attempt
		raw, err := g.attempt(budgetCtx, req)
		if err == nil {
			g.observe(ctx, req.Variant, attempt, start, nil)
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			g.observe(ctx, req.Variant, attempt, start, err)
			return "", ctx.Err()
		}
		if budgetCtx.Err() != nil {
			lastErr = g.budgetExceeded(err)
			break
		}
		if attempt == g.maxAttempts || !isTransient(err) {
			break
		}
		delay := backoff(g.baseDelay, attempt)
		metrics.IncLLMRetry()
		telemetry.Warn("llm.retry", map[string]any{
			"variant":    string(req.Variant),
			"attempt":    attempt,
			"delay_ms":   delay.Milliseconds(),
			"error":      lastErr,
			"request_id": requestIDFrom(ctx),
		})
		if err := g.sleep(budgetCtx, delay); err != nil {
			if ctx.Err() != nil {
				g.observe(ctx, req.Variant, attempt, start, err)
				return "", ctx.Err()
			}
			lastErr = g.budgetExceeded(lastErr)
			break
		}
	}

	g.observe(ctx, req.Variant, attempts, start, lastErr)
	if isTimeout(lastErr) {
		return "", apperr.ProviderTimeout(msgTimeout, lastErr)
	}
	return "", apperr.Provider(msgProvider, lastErr)
}

func (g *Gateway) attempt(ctx context.Context, req Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	raw, err := g.client.Complete(attemptCtx, req)
	if err != nil && attemptCtx.Err() != nil && ctx.Err() == nil {
		return "", fmt.Errorf("attempt exceeded %s: %w", g.timeout, errors.Join(err, context.DeadlineExceeded))
	}
	return raw, err
}

func (g *Gateway) budgetExceeded(err error) error {
	return fmt.Errorf("attempts exceeded %s: %w", g.budget, errors.Join(err, context.DeadlineExceeded))
}

func (g *Gateway) parseFailure(ctx context.Context, variant Variant, err error) error {
	telemetry.Error("llm.parse_failed", map[string]any{
		"variant":    string(variant),
		"error":      err,
		"request_id": requestIDFrom(ctx),
	})
	return apperr.Parse(msgParse, err)
}

func (g *Gateway) observe(ctx context.Context, variant Variant, attempts int, start time.Time, err error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.ObserveLLMCall(string(variant), durationMs, err != nil)
	fields := map[string]any{
		"variant":     string(variant),
		"attempts":    attempts,
		"duration_ms": durationMs,
		"outcome":     "ok",
		"request_id":  requestIDFrom(ctx),
	}
	if err != nil {
		fields["outcome"] = "error"
		fields["error"] = err
		telemetry.Warn("llm.call", fields)
		return
	}
	telemetry.Info("llm.call", fields)
}

type requestIDKey struct{}

// WithRequestID tags ctx so gateway log lines carry the originating request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
