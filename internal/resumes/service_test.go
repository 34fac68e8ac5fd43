package resumes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resume-analyzer/internal/shared/apperr"
	localstore "resume-analyzer/internal/shared/storage/object/local"
	"resume-analyzer/internal/shared/telemetry"
)

const sampleText = "Ada Lovelace\nSenior Go engineer with ten years of backend experience building APIs."

var samplePDF = []byte("%PDF-1.4\n% fake body for tests\n")

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

type failingRepo struct {
	*MemoryRepo
}

func (failingRepo) Create(ctx context.Context, resume Resume) error {
	return errors.New("insert failed")
}

func newTestService(t *testing.T, ext Extractor) (*Service, *localstore.Store) {
	t.Helper()
	store := localstore.New(t.TempDir(), "")
	svc := NewService(NewMemoryRepo(), store, ext, 1<<20)
	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC) }
	return svc, store
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return n
}

func TestUploadStoresFileAndRecord(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()
	svc, store := newTestService(t, &fakeExtractor{text: "  " + sampleText + "  "})

	resume, err := svc.Upload(context.Background(), "user-1", UploadInput{
		FileName:    "cv.pdf",
		ContentType: "application/pdf",
		Body:        bytes.NewReader(samplePDF),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resume.ExtractedText != sampleText {
		t.Fatalf("expected trimmed text, got %q", resume.ExtractedText)
	}
	if resume.FileName != "cv.pdf" || resume.MimeType != "application/pdf" {
		t.Fatalf("unexpected resume %+v", resume)
	}
	if !strings.HasPrefix(resume.FileURL, "/uploads/") {
		t.Fatalf("unexpected file url %q", resume.FileURL)
	}
	if resume.SizeBytes != int64(len(samplePDF)) {
		t.Fatalf("expected size %d, got %d", len(samplePDF), resume.SizeBytes)
	}

	got, err := svc.GetOwned(context.Background(), "user-1", resume.ID)
	if err != nil {
		t.Fatalf("GetOwned: %v", err)
	}
	if got.StorageKey != resume.StorageKey {
		t.Fatalf("stored record mismatch: %+v", got)
	}
	if countFiles(t, store.BaseDir()) != 1 {
		t.Fatalf("expected one stored file")
	}
}

func TestUploadRejectsBeforeWriting(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	tests := []struct {
		name     string
		ext      *fakeExtractor
		in       UploadInput
		kind     apperr.Kind
		extracts bool
	}{
		{
			name: "empty body",
			ext:  &fakeExtractor{text: sampleText},
			in:   UploadInput{FileName: "cv.pdf", ContentType: "application/pdf", Body: bytes.NewReader(nil)},
			kind: apperr.KindValidation,
		},
		{
			name: "declared non pdf",
			ext:  &fakeExtractor{text: sampleText},
			in:   UploadInput{FileName: "cv.docx", ContentType: "application/msword", Body: bytes.NewReader(samplePDF)},
			kind: apperr.KindValidation,
		},
		{
			name: "sniffed non pdf",
			ext:  &fakeExtractor{text: sampleText},
			in:   UploadInput{FileName: "cv.pdf", ContentType: "application/pdf", Body: strings.NewReader("hello world")},
			kind: apperr.KindValidation,
		},
		{
			name: "too large",
			ext:  &fakeExtractor{text: sampleText},
			in:   UploadInput{FileName: "cv.pdf", ContentType: "application/pdf", Body: bytes.NewReader(append(append([]byte{}, samplePDF...), make([]byte, 1<<20)...))},
			kind: apperr.KindValidation,
		},
		{
			name:     "extractor failure",
			ext:      &fakeExtractor{err: errors.New("xref broken")},
			in:       UploadInput{FileName: "cv.pdf", ContentType: "application/pdf", Body: bytes.NewReader(samplePDF)},
			kind:     apperr.KindExtraction,
			extracts: true,
		},
		{
			name:     "text too short",
			ext:      &fakeExtractor{text: "   short text   "},
			in:       UploadInput{FileName: "cv.pdf", ContentType: "application/pdf", Body: bytes.NewReader(samplePDF)},
			kind:     apperr.KindExtraction,
			extracts: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, tt.ext)
			_, err := svc.Upload(context.Background(), "user-1", tt.in)
			if got := apperr.KindOf(err); got != tt.kind {
				t.Fatalf("expected kind %s, got %s (%v)", tt.kind, got, err)
			}
			if (tt.ext.calls > 0) != tt.extracts {
				t.Fatalf("extractor calls = %d", tt.ext.calls)
			}
			if countFiles(t, store.BaseDir()) != 0 {
				t.Fatalf("rejected upload left a file behind")
			}
			list, _ := svc.List(context.Background(), "user-1")
			if len(list) != 0 {
				t.Fatalf("rejected upload left a record behind")
			}
		})
	}
}

func TestUploadShortTextMessage(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()
	svc, _ := newTestService(t, &fakeExtractor{text: strings.Repeat("a", MinTextLength-1)})

	_, err := svc.Upload(context.Background(), "user-1", UploadInput{FileName: "cv.pdf", Body: bytes.NewReader(samplePDF)})
	if msg := apperr.PublicMessage(err); msg != "Failed to extract text from PDF or resume is too short" {
		t.Fatalf("unexpected message %q", msg)
	}

	svc.Extractor = &fakeExtractor{text: strings.Repeat("a", MinTextLength)}
	if _, err := svc.Upload(context.Background(), "user-1", UploadInput{FileName: "cv.pdf", Body: bytes.NewReader(samplePDF)}); err != nil {
		t.Fatalf("text at the minimum length should be accepted: %v", err)
	}
}

func TestUploadRemovesFileWhenRecordFails(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()
	svc, store := newTestService(t, &fakeExtractor{text: sampleText})
	svc.Repo = failingRepo{NewMemoryRepo()}

	if _, err := svc.Upload(context.Background(), "user-1", UploadInput{FileName: "cv.pdf", Body: bytes.NewReader(samplePDF)}); err == nil {
		t.Fatalf("expected error")
	}
	if countFiles(t, store.BaseDir()) != 0 {
		t.Fatalf("expected stored file to be removed")
	}
}

func TestGetOwnedScopesByUser(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()
	svc, _ := newTestService(t, &fakeExtractor{text: sampleText})

	resume, err := svc.Upload(context.Background(), "owner", UploadInput{FileName: "cv.pdf", Body: bytes.NewReader(samplePDF)})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := svc.GetOwned(context.Background(), "intruder", resume.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetOwned(context.Background(), "owner", "missing"); apperr.PublicMessage(err) != "Resume not found" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_ = repo.Create(context.Background(), Resume{ID: id, UserID: "u1", UploadedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	_ = repo.Create(context.Background(), Resume{ID: "other", UserID: "u2", UploadedAt: base})

	list, err := repo.ListByUser(context.Background(), "u1", 2)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" {
		t.Fatalf("unexpected order %+v", list)
	}
}
