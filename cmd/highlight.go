package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"receipts/internal/highlight"
	"receipts/internal/logger"
	"receipts/pkg/models"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight [receipt-id]",
	Short: "Show how form fields and image boxes highlight each other",
	Long: `Resolve every receipt form field to the bounding box it belongs to and
print the highlight state of both while hovering over one field.

Hovering a form field highlights its box and mutes every other field and
box; hovering a box does the same from the other side.`,
	Example: `  # Which form fields have a box at all
  receipts highlight 42

  # Hover the gross amount
  receipts highlight 42 --hover gross_amount

  # Use boxes produced by "receipts boxes" instead of the stored ones
  receipts highlight 42 --boxes boxes.json --hover total_amount`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

func init() {
	rootCmd.AddCommand(highlightCmd)

	highlightCmd.Flags().String("hover", "", "Field or box name to hover")
	highlightCmd.Flags().String("boxes", "", "JSON file with boxes to use instead of the stored ones")
}

func runHighlight(cmd *cobra.Command, args []string) error {
	receiptID := args[0]
	log := logger.WithReceipt("highlight", receiptID)

	hover, _ := cmd.Flags().GetString("hover")
	boxesFile, _ := cmd.Flags().GetString("boxes")

	cfg, err := loadConfig(true, log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, log)
	defer cancel()

	s, err := openSession(ctx, cfg, receiptID, log)
	if err != nil {
		return err
	}
	boxes := s.Snapshot().Payload.Boxes

	if boxesFile != "" {
		data, err := os.ReadFile(boxesFile)
		if err != nil {
			return fmt.Errorf("failed to read boxes file: %w", err)
		}
		boxes = nil
		if err := json.Unmarshal(data, &boxes); err != nil {
			return fmt.Errorf("boxes file %s is not a list of boxes: %w", boxesFile, err)
		}
	}

	idx := highlight.NewIndex(boxes, highlight.ReceiptFormFields)
	var tracker highlight.Tracker
	if hover != "" {
		tracker.Enter(hover)
	}
	rows, boxStates := idx.Render(&tracker)

	printHighlight(rows, boxes, boxStates)
	return nil
}

func printHighlight(rows []highlight.Row, boxes []models.FieldBox, boxStates []highlight.State) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tSTATE\tBOX\tBOX STATE")
	for _, row := range rows {
		box := "-"
		if row.HasBox {
			box = row.Box
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Form, row.FormState, box, row.BoxState)
	}
	_ = tw.Flush()

	if len(boxes) == 0 {
		return
	}

	fmt.Println()
	tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BOX\tPAGE\tX\tY\tW\tH\tSTATE")
	for i, b := range boxes {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%s\n",
			b.Field, b.Page, b.X, b.Y, b.Width, b.Height, boxStates[i])
	}
	_ = tw.Flush()
}
