// Package ocr turns OCR output into field boxes for the receipt preview.
//
// Two sources are supported: Google Document AI, whose entities already
// carry field names, and Google Cloud Vision, whose words are labelled by
// matching them against known receipt values. Both can run live against
// the Google APIs or from a saved JSON response.
//
// Required Environment Variables for live processing:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_PROJECT_ID, GOOGLE_LOCATION, GOOGLE_PROCESSOR_ID: Document AI only
//
// API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Cloud Vision: at most 5 PDF pages per synchronous request
package ocr

import (
	"net/http"
	"strings"
	"time"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of PDF pages Vision processes synchronously
	MaxPagesSync = 5

	mimePDF = "application/pdf"
)

// DocumentAIConfig holds configuration for Google Document AI processing.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the expense/receipt processor ID.
	ProcessorID string

	// Timeout is the maximum time to wait for processing.
	Timeout time.Duration
}

// ProcessorName returns the full resource name of the processor.
func (c DocumentAIConfig) ProcessorName() string {
	return "projects/" + c.ProjectID + "/locations/" + c.Location + "/processors/" + c.ProcessorID
}

// detectMimeType sniffs the content type, accepting PDFs and images only.
func detectMimeType(data []byte) (string, bool) {
	if len(data) >= 4 && string(data[:4]) == "%PDF" {
		return mimePDF, true
	}
	mimeType := http.DetectContentType(data)
	if strings.HasPrefix(mimeType, "image/") {
		return mimeType, true
	}
	return mimeType, false
}
