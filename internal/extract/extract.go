package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"resume-analyzer/internal/shared/apperr"
)

const (
	MimePDF = "application/pdf"

	msgExtractFailed = "Failed to extract text from PDF"
	msgEncrypted     = "Encrypted PDFs are not supported"
)

var pdfMagic = []byte("%PDF-")

// PDF extracts plain text from PDF documents with github.com/ledongthuc/pdf.
type PDF struct{}

func NewPDF() *PDF {
	return &PDF{}
}

// Extract returns the document text. Any parse failure, including parser panics on
// malformed input, is reported as an extraction error.
func (p *PDF) Extract(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !IsPDF(data) {
		return "", apperr.Extraction(msgExtractFailed, errors.New("missing pdf header"))
	}

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = apperr.Extraction(msgExtractFailed, fmt.Errorf("pdf parser panic: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", apperr.Extraction(msgEncrypted, err)
		}
		return "", apperr.Extraction(msgExtractFailed, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", apperr.Extraction(msgExtractFailed, fmt.Errorf("page %d: %w", i, err))
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

// IsPDF reports whether data starts with the PDF header, allowing leading whitespace.
func IsPDF(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n\x00")
	return bytes.HasPrefix(trimmed, pdfMagic)
}

// NormalizeMimeType strips parameters and lower-cases a declared content type.
func NormalizeMimeType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
