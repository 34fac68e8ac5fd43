package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/shared/apperr"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/storage/object"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	// MinTextLength is the shortest extracted text accepted for a resume.
	MinTextLength = 50

	DefaultMaxBytes = 5 << 20 // 5MB
)

var (
	ErrNoFile        = apperr.Validation("No file uploaded")
	ErrNotPDF        = apperr.Validation("Only PDF files are allowed")
	ErrTooShort      = apperr.Extraction("Failed to extract text from PDF or resume is too short", nil)
	errEmptyUserID   = errors.New("user id is required")
	errNotConfigured = errors.New("resume service not configured")
)

// Extractor turns PDF bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

type Service struct {
	Repo      Repo
	Store     object.ObjectStore
	Extractor Extractor
	MaxBytes  int64

	now   func() time.Time
	newID func() string
}

func NewService(repo Repo, store object.ObjectStore, extractor Extractor, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{
		Repo:      repo,
		Store:     store,
		Extractor: extractor,
		MaxBytes:  maxBytes,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// UploadInput is a single file received from a client.
type UploadInput struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// Upload validates and extracts the PDF before anything is written, then stores the file and its record.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (Resume, error) {
	if s == nil || s.Repo == nil || s.Store == nil || s.Extractor == nil {
		return Resume{}, errNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return Resume{}, errEmptyUserID
	}
	if in.Body == nil {
		return Resume{}, ErrNoFile
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.MaxBytes+1))
	if err != nil {
		return Resume{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Resume{}, ErrNoFile
	}
	if int64(len(data)) > s.MaxBytes {
		return Resume{}, s.TooLarge()
	}
	if !acceptedType(in.ContentType) || !extract.IsPDF(data) {
		return Resume{}, ErrNotPDF
	}

	text, err := s.Extractor.Extract(ctx, data)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindExtraction {
			return Resume{}, err
		}
		return Resume{}, apperr.Extraction("Failed to extract text from PDF", err)
	}
	text = strings.TrimSpace(text)
	if len([]rune(text)) < MinTextLength {
		return Resume{}, ErrTooShort
	}

	fileName := displayName(in.FileName)
	key, size, mimeType, err := s.Store.Save(ctx, userID, strings.ReplaceAll(fileName, "..", "_"), bytes.NewReader(data))
	if err != nil {
		return Resume{}, fmt.Errorf("store upload: %w", err)
	}
	if extract.NormalizeMimeType(mimeType) != extract.MimePDF {
		mimeType = extract.MimePDF
	}

	resume := Resume{
		ID:            s.newID(),
		UserID:        userID,
		FileURL:       s.Store.URL(key),
		StorageKey:    key,
		FileName:      fileName,
		MimeType:      mimeType,
		SizeBytes:     size,
		ExtractedText: text,
		UploadedAt:    s.now().UTC(),
	}
	if err := s.Repo.Create(ctx, resume); err != nil {
		if delErr := s.Store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			telemetry.Warn("resume.cleanup_failed", map[string]any{
				"storage_key": key,
				"error":       delErr.Error(),
			})
		}
		return Resume{}, fmt.Errorf("create resume: %w", err)
	}

	metrics.IncResumeUploaded()
	telemetry.Info("resume.uploaded", map[string]any{
		"resume_id":  resume.ID,
		"user_id":    userID,
		"size_bytes": size,
		"text_chars": len(text),
	})
	return resume, nil
}

// GetOwned returns the resume when it belongs to userID.
func (s *Service) GetOwned(ctx context.Context, userID, resumeID string) (Resume, error) {
	resumeID = strings.TrimSpace(resumeID)
	if resumeID == "" {
		return Resume{}, ErrNotFound
	}
	return s.Repo.GetOwned(ctx, userID, resumeID)
}

// List returns the user's newest resumes.
func (s *Service) List(ctx context.Context, userID string) ([]Resume, error) {
	return s.Repo.ListByUser(ctx, userID, ListLimit)
}

// TooLarge is the validation error for uploads over the configured limit.
func (s *Service) TooLarge() error {
	if mb := s.MaxBytes >> 20; mb > 0 {
		return apperr.Validation(fmt.Sprintf("File too large, max %dMB", mb))
	}
	return apperr.Validation(fmt.Sprintf("File too large, max %d bytes", s.MaxBytes))
}

func acceptedType(declared string) bool {
	switch extract.NormalizeMimeType(declared) {
	case extract.MimePDF, "", "application/octet-stream":
		return true
	default:
		return false
	}
}

func displayName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "resume.pdf"
	}
	return name
}
