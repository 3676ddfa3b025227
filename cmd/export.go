package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"receipts/internal/export"
	"receipts/internal/logger"
	"receipts/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export [receipt-id...]",
	Short: "Export receipts as bookkeeping rows to CSV, XLSX or Google Sheets",
	Long: `Flatten one or more receipts into rows, one per line item and
accounting proposal, and write them out.

Formats:
  csv    comma separated text (default)
  xlsx   Excel workbook
  sheet  append to the Google Sheet in GOOGLE_SHEET_URL; receipts already
         present in the sheet are skipped unless --force is given

When --format is omitted it is taken from the --output file extension.`,
	Example: `  # CSV to stdout
  receipts export 42 43

  # Excel workbook
  receipts export 42 -o receipts.xlsx

  # Append to Google Sheets
  receipts export 42 --format sheet --worksheet "Mars 2024"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", "", "Output format: csv, xlsx or sheet")
	exportCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	exportCmd.Flags().String("worksheet", "", "Sheet name (default: GOOGLE_SHEET_WORKSHEET)")
	exportCmd.Flags().Bool("force", false, "Append to Google Sheets even if the receipt is already there")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	force, _ := cmd.Flags().GetBool("force")

	format = exportFormat(format, outputPath)
	if format != "csv" && format != "xlsx" && format != "sheet" {
		return fmt.Errorf("unknown format %q: use csv, xlsx or sheet", format)
	}

	cfg, err := loadConfig(true, log)
	if err != nil {
		return err
	}
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}

	ctx, cancel := commandContext(cmd, log)
	defer cancel()

	var rows []export.Row
	for _, receiptID := range args {
		s, err := openSession(ctx, cfg, receiptID, logger.WithReceipt("export", receiptID))
		if err != nil {
			return err
		}
		rows = append(rows, export.Rows(receiptID, s.Snapshot().Payload, cfg.DefaultCurrency)...)
	}

	log.Info().
		Int("receipts", len(args)).
		Int("rows", len(rows)).
		Str("format", format).
		Msg("Exporting receipts")

	switch format {
	case "sheet":
		if cfg.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL is required for --format sheet")
		}
		service, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return err
		}
		written, err := service.AppendRows(ctx, worksheet, rows, force)
		if err != nil {
			return err
		}
		fmt.Printf("%d rows appended to sheet %q.\n", written, worksheet)
		return nil
	case "xlsx":
		if outputPath == "" {
			return fmt.Errorf("--output is required for xlsx")
		}
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, rows, worksheet); err != nil {
			return err
		}
		return writeOutput(buf.Bytes(), outputPath, log)
	default:
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, rows); err != nil {
			return err
		}
		return writeOutput(buf.Bytes(), outputPath, log)
	}
}

func exportFormat(format, outputPath string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	if strings.EqualFold(filepath.Ext(outputPath), ".xlsx") {
		return "xlsx"
	}
	return "csv"
}
