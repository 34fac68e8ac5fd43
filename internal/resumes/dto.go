package resumes

import "time"

type resumeResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func toResponse(r Resume) resumeResponse {
	return resumeResponse{
		ID:         r.ID,
		FileName:   r.FileName,
		FileURL:    r.FileURL,
		UploadedAt: r.UploadedAt,
	}
}
