package ocr

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrFileTooLarge means the input exceeds MaxFileSizeBytes.
	ErrFileTooLarge = errors.New("file size exceeds the maximum limit (20MB)")

	// ErrUnsupportedFormat means the input is neither a PDF nor an image.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrOCRFailed means a Google API call failed or returned nothing usable.
	ErrOCRFailed = errors.New("OCR processing failed")

	ErrMissingCredentials   = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
	ErrInvalidConfiguration = errors.New("invalid Document AI configuration")

	// ErrTooManyPages means a PDF has more than MaxPagesSync pages.
	ErrTooManyPages = errors.New("PDF has too many pages (maximum 5 pages for synchronous processing)")

	// ErrEmptyDocument means OCR found no text to box.
	ErrEmptyDocument = errors.New("document contains no readable text")

	// ErrInvalidExport means a saved response is not a Document AI or
	// Vision JSON export.
	ErrInvalidExport = errors.New("invalid OCR export")
)

// OCRError records which step of turning a document into boxes failed.
type OCRError struct {
	Op      string
	Err     error
	Details string
}

func (e *OCRError) Error() string {
	parts := []string{"ocr", e.Op}
	if e.Details != "" {
		parts = append(parts, e.Details)
	}
	parts = append(parts, e.Err.Error())
	return strings.Join(parts, ": ")
}

func (e *OCRError) Unwrap() error {
	return e.Err
}

// Retryable reports whether running the same request again may succeed:
// timeouts and failed API calls are, bad input and configuration are not.
func (e *OCRError) Retryable() bool {
	return errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, ErrOCRFailed)
}

// WrapOCRError attaches op and details to err. An error that already is an
// *OCRError keeps its innermost op.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}
	return &OCRError{Op: op, Err: err, Details: details}
}

// IsRetryable reports whether err is an OCR failure worth retrying.
func IsRetryable(err error) bool {
	var ocrErr *OCRError
	return errors.As(err, &ocrErr) && ocrErr.Retryable()
}
