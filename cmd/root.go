package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"receipts/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "receipts",
	Short: "Receipts CLI - review, correct and export receipts from the back office",
	Long: `Receipts CLI works against the receipts back office REST API.

It loads a receipt's preview payload, reconciles the many shapes the
backend sends into one canonical receipt with line items and accounting
proposals, lets you edit and save it, and exports the result to CSV,
XLSX or Google Sheets. OCR output from Document AI or Cloud Vision can be
turned into field boxes for the preview.`,
	Version:      version,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("Receipts CLI executed")

		_ = cmd.Help()
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Int("timeout", 60, "Timeout in seconds for back office and OCR calls")
}
