package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"receipts/internal/logger"
)

// DocumentAIProcessor runs a Document AI expense processor over receipts.
type DocumentAIProcessor struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIProcessor creates a processor client for cfg.Location with
// credentials from environment.
func NewDocumentAIProcessor(ctx context.Context, cfg DocumentAIConfig) (*DocumentAIProcessor, error) {
	const op = "NewDocumentAIProcessor"

	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_PROJECT_ID and GOOGLE_PROCESSOR_ID are required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption
	if cfg.Location != "us" {
		clientOptions = append(clientOptions, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return &DocumentAIProcessor{
		client: client,
		config: cfg,
		log:    logger.WithComponent("document-ai"),
	}, nil
}

// Process sends a receipt image or PDF to the processor and returns the
// parsed document.
func (p *DocumentAIProcessor) Process(ctx context.Context, data io.Reader) (*documentaipb.Document, error) {
	const op = "Process"

	content, mimeType, err := readDocument(op, data)
	if err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: p.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: content, MimeType: mimeType},
		},
	})
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	p.log.Debug().
		Int("entities", len(resp.Document.Entities)).
		Int("pages", len(resp.Document.Pages)).
		Msg("Document AI processing completed")

	return resp.Document, nil
}

// handleProcessingError converts Document AI errors to OCR errors.
func (p *DocumentAIProcessor) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"), strings.Contains(errStr, "PermissionDenied"):
		return WrapOCRError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "NOT_FOUND"), strings.Contains(errStr, "NotFound"):
		return WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"), strings.Contains(errStr, "InvalidArgument"):
		return WrapOCRError(op, ErrUnsupportedFormat, "document format not supported or corrupted")
	case strings.Contains(errStr, "context deadline exceeded"), strings.Contains(errStr, "DeadlineExceeded"):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "context canceled"), strings.Contains(errStr, "Canceled"):
		return WrapOCRError(op, context.Canceled, "processing was canceled")
	default:
		return WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (p *DocumentAIProcessor) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
