package resumes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/server/respond"
	"resume-analyzer/internal/shared/telemetry"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("userId", id)
		}
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func multipartBody(t *testing.T, field, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if field != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	} else if err := w.WriteField("note", "no file"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func TestUploadHandlerCreatesResume(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()
	svc, _ := newTestService(t, &fakeExtractor{text: sampleText})
	r := newTestRouter(t, svc)

	body, ct := multipartBody(t, "resume", "ada.pdf", "application/pdf", samplePDF)
	req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Test-User", "user-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var got resumeResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == "" || got.FileName != "ada.pdf" || got.FileURL == "" || got.UploadedAt.IsZero() {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard/resumes", nil)
	req.Header.Set("X-Test-User", "user-1")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list expected 200, got %d", resp.Code)
	}
	var list []resumeResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != got.ID {
		t.Fatalf("unexpected list %s", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard/resumes", nil)
	req.Header.Set("X-Test-User", "user-2")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Body.String() != "[]" {
		t.Fatalf("expected empty list for other user, got %s", resp.Body.String())
	}
}

func TestUploadHandlerErrors(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	tests := []struct {
		name    string
		field   string
		ctype   string
		text    string
		status  int
		message string
	}{
		{"missing file", "", "", sampleText, http.StatusBadRequest, "No file uploaded"},
		{"wrong field", "file", "application/pdf", sampleText, http.StatusBadRequest, "No file uploaded"},
		{"not pdf", "resume", "image/png", sampleText, http.StatusBadRequest, "Only PDF files are allowed"},
		{"short text", "resume", "application/pdf", "tiny", http.StatusBadRequest, "Failed to extract text from PDF or resume is too short"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, &fakeExtractor{text: tt.text})
			r := newTestRouter(t, svc)

			body, ct := multipartBody(t, tt.field, "cv.pdf", tt.ctype, samplePDF)
			req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", body)
			req.Header.Set("Content-Type", ct)
			req.Header.Set("X-Test-User", "user-1")
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			var env respond.ErrorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, env.Error.Message)
			}
		})
	}
}

func TestUploadHandlerRejectsOversizedFile(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()
	svc, _ := newTestService(t, &fakeExtractor{text: sampleText})
	svc.MaxBytes = 64
	r := newTestRouter(t, svc)

	payload := append(append([]byte{}, samplePDF...), bytes.Repeat([]byte("x"), 128)...)
	body, ct := multipartBody(t, "resume", "cv.pdf", "application/pdf", payload)
	req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Test-User", "user-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
}
