package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"receipts/internal/logger"
)

// VisionService runs document text detection with Google Cloud Vision.
type VisionService struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionService creates a Vision client with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewVisionService(ctx context.Context) (*VisionService, error) {
	const op = "NewVisionService"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionService{
		client: client,
		log:    logger.WithComponent("vision"),
	}, nil
}

// AnnotateDocument detects text in a receipt image or PDF. Pages of a PDF
// are merged into one annotation in page order.
func (v *VisionService) AnnotateDocument(ctx context.Context, data io.Reader) (*visionpb.TextAnnotation, error) {
	const op = "AnnotateDocument"

	content, mimeType, err := readDocument(op, data)
	if err != nil {
		return nil, err
	}

	features := []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}}

	var pages []*visionpb.AnnotateImageResponse
	if mimeType == mimePDF {
		resp, err := v.client.BatchAnnotateFiles(ctx, &visionpb.BatchAnnotateFilesRequest{
			Requests: []*visionpb.AnnotateFileRequest{{
				InputConfig: &visionpb.InputConfig{Content: content, MimeType: mimeType},
				Features:    features,
			}},
		})
		if err != nil {
			return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
		}
		if len(resp.Responses) == 0 {
			return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
		}
		if fileErr := resp.Responses[0].Error; fileErr != nil {
			return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileErr.GetMessage()))
		}
		pages = resp.Responses[0].Responses
		if len(pages) > MaxPagesSync {
			return nil, WrapOCRError(op, ErrTooManyPages, fmt.Sprintf("document has %d pages", len(pages)))
		}
	} else {
		resp, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
			Requests: []*visionpb.AnnotateImageRequest{{
				Image:    &visionpb.Image{Content: content},
				Features: features,
			}},
		})
		if err != nil {
			return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
		}
		pages = resp.Responses
	}

	merged, err := mergePages(pages)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	v.log.Debug().
		Int("pages", len(merged.Pages)).
		Int("characters", len(merged.Text)).
		Msg("Vision text detection completed")

	return merged, nil
}

func mergePages(pages []*visionpb.AnnotateImageResponse) (*visionpb.TextAnnotation, error) {
	merged := &visionpb.TextAnnotation{}
	var text strings.Builder

	for i, page := range pages {
		if page.Error != nil {
			return nil, fmt.Errorf("error processing page %d: %s", i+1, page.Error.GetMessage())
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(page.FullTextAnnotation.Text)
		merged.Pages = append(merged.Pages, page.FullTextAnnotation.Pages...)
	}

	merged.Text = text.String()
	if strings.TrimSpace(merged.Text) == "" {
		return nil, ErrEmptyDocument
	}
	return merged, nil
}

// Close closes the underlying Vision client.
func (v *VisionService) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

func readDocument(op string, data io.Reader) ([]byte, string, error) {
	content, err := io.ReadAll(io.LimitReader(data, MaxFileSizeBytes+1))
	if err != nil {
		return nil, "", WrapOCRError(op, err, "failed to read document")
	}
	if len(content) > MaxFileSizeBytes {
		return nil, "", WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("more than %d bytes", MaxFileSizeBytes))
	}

	mimeType, ok := detectMimeType(content)
	if !ok {
		return nil, "", WrapOCRError(op, ErrUnsupportedFormat, mimeType)
	}
	return content, mimeType, nil
}
