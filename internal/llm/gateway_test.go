package llm

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"resume-analyzer/internal/shared/apperr"
	"resume-analyzer/internal/shared/telemetry"
)

type scriptedCompleter struct {
	mu      sync.Mutex
	replies []scriptedReply
	calls   int
	gotReq  Request
}

type scriptedReply struct {
	text  string
	err   error
	block bool
}

func (s *scriptedCompleter) Complete(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.gotReq = req
	s.mu.Unlock()
	if i >= len(s.replies) {
		return "", errors.New("unexpected call")
	}
	r := s.replies[i]
	if r.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.text, r.err
}

func newTestGateway(c Completer) (*Gateway, *[]time.Duration) {
	var slept []time.Duration
	g := NewGateway(c, GatewayOptions{Timeout: 50 * time.Millisecond})
	g.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return g, &slept
}

func TestGatewayRetriesTransientErrorsWithBackoff(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	c := &scriptedCompleter{replies: []scriptedReply{
		{err: &StatusError{Provider: "test", StatusCode: 503}},
		{err: &StatusError{Provider: "test", StatusCode: 429}},
		{text: `{"ats_score": 81, "missing_skills": [], "weak_sections": [], "bullet_improvements": []}`},
	}}
	g, slept := newTestGateway(c)

	res, err := g.AnalyzeATS(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("AnalyzeATS: %v", err)
	}
	if res.ATSScore != 81 || c.calls != 3 {
		t.Fatalf("unexpected result %+v after %d calls", res, c.calls)
	}
	if len(*slept) != 2 || (*slept)[0] != 300*time.Millisecond || (*slept)[1] != 600*time.Millisecond {
		t.Fatalf("unexpected backoff %v", *slept)
	}
	if c.gotReq.Variant != VariantATS {
		t.Fatalf("unexpected variant %q", c.gotReq.Variant)
	}
}

func TestGatewayDoesNotRetryClientErrors(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	c := &scriptedCompleter{replies: []scriptedReply{
		{err: &StatusError{Provider: "test", StatusCode: 401, Message: "bad key"}},
	}}
	g, _ := newTestGateway(c)

	_, err := g.RewriteSuggestions(context.Background(), "resume text")
	if !errors.Is(err, apperr.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", c.calls)
	}
}

func TestGatewayGivesUpAfterMaxAttempts(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	c := &scriptedCompleter{replies: []scriptedReply{
		{err: &StatusError{StatusCode: 500}},
		{err: &StatusError{StatusCode: 502}},
		{err: &StatusError{StatusCode: 503}},
		{text: "{}"},
	}}
	g, _ := newTestGateway(c)

	_, err := g.AnalyzeATS(context.Background(), "resume text")
	if !errors.Is(err, apperr.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if c.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", c.calls)
	}
}

func TestGatewayTimeoutSurfacesProviderTimeout(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	c := &scriptedCompleter{replies: []scriptedReply{{block: true}, {block: true}, {block: true}}}
	g, _ := newTestGateway(c)

	_, err := g.MatchJobDescription(context.Background(), "resume", "job description")
	if !errors.Is(err, apperr.ErrProviderTimeout) {
		t.Fatalf("expected provider timeout, got %v", err)
	}
	if c.calls != 3 {
		t.Fatalf("timeouts should be retried, got %d calls", c.calls)
	}
}

func TestGatewayBudgetCapsTotalTime(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	c := &scriptedCompleter{replies: []scriptedReply{{block: true}, {block: true}, {block: true}}}
	g := NewGateway(c, GatewayOptions{Timeout: 50 * time.Millisecond, Budget: 60 * time.Millisecond})
	g.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	start := time.Now()
	_, err := g.AnalyzeATS(context.Background(), "resume")
	if !errors.Is(err, apperr.ErrProviderTimeout) {
		t.Fatalf("expected provider timeout, got %v", err)
	}
	if c.calls != 2 {
		t.Fatalf("expected the budget to stop after 2 attempts, got %d", c.calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("budget not enforced, took %s", elapsed)
	}
}

func TestGatewayBudgetNeverBelowTimeout(t *testing.T) {
	g := NewGateway(&scriptedCompleter{}, GatewayOptions{Timeout: 2 * time.Minute, Budget: time.Minute})
	if g.budget != 2*time.Minute {
		t.Fatalf("expected budget raised to timeout, got %s", g.budget)
	}
	g = NewGateway(&scriptedCompleter{}, GatewayOptions{})
	if g.timeout != defaultTimeout || g.budget != defaultBudget {
		t.Fatalf("unexpected defaults timeout=%s budget=%s", g.timeout, g.budget)
	}
}

func TestGatewayParseFailureIsNotRetried(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	c := &scriptedCompleter{replies: []scriptedReply{{text: "Sorry, I can't produce JSON today."}}}
	g, _ := newTestGateway(c)

	_, err := g.AnalyzeATS(context.Background(), "resume text")
	if !errors.Is(err, apperr.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected 1 call, got %d", c.calls)
	}
}

func TestGatewayWithoutClient(t *testing.T) {
	g := NewGateway(nil, GatewayOptions{})
	if _, err := g.AnalyzeATS(context.Background(), "x"); !errors.Is(err, apperr.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"429", &StatusError{StatusCode: 429}, true},
		{"500", &StatusError{StatusCode: 500}, true},
		{"400", &StatusError{StatusCode: 400}, false},
		{"reset", errors.New("read tcp: connection reset by peer"), true},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		if got := isTransient(tt.err); got != tt.want {
			t.Fatalf("%s: isTransient = %v, want %v", tt.name, got, tt.want)
		}
	}
}
