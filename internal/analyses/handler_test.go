package analyses

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/apperr"
	"resume-analyzer/internal/shared/server/respond"
	"resume-analyzer/internal/shared/telemetry"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set("userId", c.GetHeader("X-Test-User"))
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func do(r http.Handler, method, path, body, userID string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-User", userID)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func errorMessage(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var env respond.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return env.Error.Message
}

func TestAnalysisRoutesFlow(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()
	f := newFixture(t)
	r := newTestRouter(t, f.svc)

	resp := do(r, http.MethodPost, "/api/resume/analyze/r1", "", "u1")
	if resp.Code != http.StatusOK {
		t.Fatalf("analyze expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var analyzed analyzeResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &analyzed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if analyzed.ResumeID != "r1" || analyzed.ATSScore == nil || *analyzed.ATSScore != 78 || len(analyzed.BulletImprovements) != 1 {
		t.Fatalf("unexpected analyze body %s", resp.Body.String())
	}
	for _, key := range []string{`"missingSkills"`, `"weakSections"`, `"bulletImprovements"`, `"createdAt"`} {
		if !strings.Contains(resp.Body.String(), key) {
			t.Fatalf("missing %s in %s", key, resp.Body.String())
		}
	}

	body, _ := json.Marshal(matchRequest{JobDescription: jobDescription})
	resp = do(r, http.MethodPost, "/api/resume/match-jd/r1", string(body), "u1")
	if resp.Code != http.StatusOK {
		t.Fatalf("match expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var matched matchResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &matched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if matched.ID != analyzed.ID || matched.MatchPercentage != 64 || len(matched.SuggestedChanges) != 2 {
		t.Fatalf("unexpected match body %s", resp.Body.String())
	}

	resp = do(r, http.MethodGet, "/api/dashboard/analyses/r1", "", "u1")
	if resp.Code != http.StatusOK {
		t.Fatalf("get expected 200, got %d", resp.Code)
	}
	var detail detailResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.JDMatchScore == nil || *detail.JDMatchScore != 64 || detail.JobDescription == "" || len(detail.BulletImprovements) != 3 {
		t.Fatalf("unexpected detail body %s", resp.Body.String())
	}

	resp = do(r, http.MethodGet, "/api/dashboard/analyses", "", "u1")
	var list []summaryResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ResumeName != "ada.pdf" {
		t.Fatalf("unexpected list body %s", resp.Body.String())
	}

	resp = do(r, http.MethodGet, "/api/resume/rewrite/r1", "", "u1")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"overallFeedback":"Solid base"`) {
		t.Fatalf("unexpected rewrite response %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(r, http.MethodGet, "/api/dashboard/analyses/export", "", "u1")
	if resp.Code != http.StatusOK {
		t.Fatalf("export expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("Content-Type") != exportContentType {
		t.Fatalf("unexpected content type %q", resp.Header().Get("Content-Type"))
	}
	if !strings.Contains(resp.Header().Get("Content-Disposition"), exportFileName) {
		t.Fatalf("missing attachment header")
	}
}

func TestAnalysisRoutesErrors(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()
	f := newFixture(t)
	r := newTestRouter(t, f.svc)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		user    string
		status  int
		message string
	}{
		{"analyze foreign resume", http.MethodPost, "/api/resume/analyze/r2", "", "u1", http.StatusNotFound, "Resume not found"},
		{"analyze short text", http.MethodPost, "/api/resume/analyze/short", "", "u1", http.StatusBadRequest, "Resume text is too short for analysis"},
		{"match missing body", http.MethodPost, "/api/resume/match-jd/r1", "", "u1", http.StatusBadRequest, "Job description is required and must be at least 50 characters"},
		{"match short jd", http.MethodPost, "/api/resume/match-jd/r1", `{"jobDescription":"short"}`, "u1", http.StatusBadRequest, "Job description is required and must be at least 50 characters"},
		{"match malformed body", http.MethodPost, "/api/resume/match-jd/r1", `{"jobDescription":`, "u1", http.StatusBadRequest, "invalid request body"},
		{"get without analysis", http.MethodGet, "/api/dashboard/analyses/r1", "", "u1", http.StatusNotFound, "Analysis not found"},
		{"rewrite foreign resume", http.MethodGet, "/api/resume/rewrite/r1", "", "u2", http.StatusNotFound, "Resume not found"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp := do(r, tt.method, tt.path, tt.body, tt.user)
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			if msg := errorMessage(t, resp); msg != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, msg)
			}
		})
	}
}

func TestAnalysisRoutesMapProviderErrors(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"timeout", apperr.ProviderTimeout("AI provider timed out", nil), http.StatusGatewayTimeout},
		{"provider", apperr.Provider("AI provider request failed", nil), http.StatusBadGateway},
		{"parse", apperr.Parse("Failed to parse AI response", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.ai.err = tt.err
			r := newTestRouter(t, f.svc)

			resp := do(r, http.MethodPost, "/api/resume/analyze/r1", "", "u1")
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
		})
	}
}
