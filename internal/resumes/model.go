package resumes

import "time"

// Resume is an uploaded PDF and its extracted text. ExtractedText never changes after creation.
type Resume struct {
	ID            string
	UserID        string
	FileURL       string
	StorageKey    string
	FileName      string
	MimeType      string
	SizeBytes     int64
	ExtractedText string
	UploadedAt    time.Time
}
