package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"receipts/internal/logger"
	"receipts/internal/ocr"
	"receipts/pkg/models"
)

var boxesCmd = &cobra.Command{
	Use:   "boxes [file]",
	Short: "Extract field boxes from a receipt image with Document AI or Cloud Vision",
	Long: `Locate receipt fields on the receipt image and print them as boxes in
0-1 page coordinates, the shape the preview uses for hover highlighting.

Sources:
  documentai  entities of a Document AI expense processor name the fields
  vision      Cloud Vision words are matched against known values, taken
              from --receipt (fetched from the back office) and --value

The file is a receipt image or PDF, or with --saved a JSON response
previously saved from either API.

Required environment variables for live processing:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_PROJECT_ID, GOOGLE_LOCATION, GOOGLE_PROCESSOR_ID - Document AI only`,
	Example: `  # Document AI on a scanned receipt
  receipts boxes kvitto.jpg

  # Cloud Vision, labelled with the values stored for receipt 42
  receipts boxes kvitto.pdf --source vision --receipt 42

  # From a saved Vision response with explicit values
  receipts boxes vision.json --source vision --saved --value gross_amount=129.90`,
	Args: cobra.ExactArgs(1),
	RunE: runBoxes,
}

func init() {
	rootCmd.AddCommand(boxesCmd)

	boxesCmd.Flags().String("source", "documentai", "OCR source: documentai or vision")
	boxesCmd.Flags().Bool("saved", false, "Read a saved JSON response instead of calling the API")
	boxesCmd.Flags().String("receipt", "", "Receipt whose values label Vision words")
	boxesCmd.Flags().StringArray("value", nil, "Known field value for Vision, field=text (repeatable)")
	boxesCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runBoxes(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("boxes")

	source, _ := cmd.Flags().GetString("source")
	saved, _ := cmd.Flags().GetBool("saved")
	receiptID, _ := cmd.Flags().GetString("receipt")
	valueFlags, _ := cmd.Flags().GetStringArray("value")
	outputPath, _ := cmd.Flags().GetString("output")

	path := args[0]
	if source != "documentai" && source != "vision" {
		return fmt.Errorf("unknown source %q: use documentai or vision", source)
	}

	if _, err := validateInputFile(path, log); err != nil {
		return err
	}

	cfg, err := loadConfig(receiptID != "", log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, log)
	defer cancel()

	values := map[string]string{}
	if receiptID != "" {
		s, err := openSession(ctx, cfg, receiptID, log)
		if err != nil {
			return err
		}
		values = ocr.ReceiptValues(s.Snapshot().Payload.Receipt)
	}
	assignments, err := parseAssignments(valueFlags)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		values[a[0]] = a[1]
	}
	if source == "vision" && len(values) == 0 {
		return fmt.Errorf("vision needs values to look for: pass --receipt or --value")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close file")
		}
	}()

	var boxes []models.FieldBox
	switch source {
	case "documentai":
		boxes, err = documentBoxes(ctx, file, saved, ocr.DocumentAIConfig{
			ProjectID:   cfg.GoogleProjectID,
			Location:    cfg.GoogleLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
	case "vision":
		boxes, err = visionBoxes(ctx, file, saved, values)
	}
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Str("source", source).
		Int("boxes", len(boxes)).
		Msg("Field boxes extracted")

	if boxes == nil {
		boxes = []models.FieldBox{}
	}
	return writeJSON(boxes, outputPath, log)
}

func documentBoxes(ctx context.Context, file *os.File, saved bool, cfg ocr.DocumentAIConfig) ([]models.FieldBox, error) {
	if saved {
		doc, err := ocr.LoadDocument(file)
		if err != nil {
			return nil, err
		}
		return ocr.BoxesFromDocument(doc), nil
	}

	processor, err := ocr.NewDocumentAIProcessor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer processor.Close()

	doc, err := processor.Process(ctx, file)
	if err != nil {
		return nil, err
	}
	return ocr.BoxesFromDocument(doc), nil
}

func visionBoxes(ctx context.Context, file *os.File, saved bool, values map[string]string) ([]models.FieldBox, error) {
	if saved {
		ann, err := ocr.LoadTextAnnotation(file)
		if err != nil {
			return nil, err
		}
		return ocr.LabelVisionWords(ann, values), nil
	}

	service, err := ocr.NewVisionService(ctx)
	if err != nil {
		return nil, err
	}
	defer service.Close()

	ann, err := service.AnnotateDocument(ctx, file)
	if err != nil {
		return nil, err
	}
	return ocr.LabelVisionWords(ann, values), nil
}

// validateInputFile checks if the file exists, is readable and within the size limit
func validateInputFile(path string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("File not found")
			return nil, fmt.Errorf("file not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().Str("file", path).Msg("Permission denied accessing file")
			return nil, fmt.Errorf("permission denied accessing file: %s", path)
		}
		return nil, fmt.Errorf("error accessing file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}
	if fileInfo.Size() > ocr.MaxFileSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", fileInfo.Size()).
			Int64("max_size", ocr.MaxFileSizeBytes).
			Msg("File exceeds maximum size limit")
		return nil, fmt.Errorf("file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), ocr.MaxFileSizeBytes)
	}

	return fileInfo, nil
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrFileTooLarge):
		return fmt.Errorf("file is too large (maximum 20MB). Try compressing or splitting the file")
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("PDF has too many pages (maximum 5 pages). Try splitting into smaller files")
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported file. Pass a receipt image or PDF, or use --saved for a JSON response: %w", err)
	case errors.Is(err, ocr.ErrInvalidExport):
		return fmt.Errorf("the saved response could not be read: %w", err)
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document")
	case errors.Is(err, ocr.ErrInvalidConfiguration):
		return fmt.Errorf("Document AI is not configured. Set GOOGLE_PROJECT_ID, GOOGLE_LOCATION and GOOGLE_PROCESSOR_ID: %w", err)
	case errors.Is(err, ocr.ErrMissingCredentials),
		strings.Contains(errStr, "Unauthenticated"),
		strings.Contains(errStr, "invalid_grant"),
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Set GOOGLE_APPLICATION_CREDENTIALS to a service account JSON file or GOOGLE_CREDENTIALS to its content: %w", err)
	case strings.Contains(errStr, "QUOTA_EXCEEDED"), strings.Contains(errStr, "quota"):
		return fmt.Errorf("Google Cloud quota exceeded. Check your project quotas in the Google Cloud Console")
	case ocr.IsRetryable(err):
		return fmt.Errorf("OCR processing failed, the request can be retried: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}
