package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"receipts/internal/draft"
	"receipts/internal/fields"
	"receipts/internal/logger"
	"receipts/internal/reconciliation"
	"receipts/pkg/models"
)

var showCmd = &cobra.Command{
	Use:   "show [receipt-id]",
	Short: "Show a receipt with its line items and accounting proposals",
	Long: `Load a receipt's preview payload from the back office and print it.

Line items are fetched from the line items endpoint when the preview
payload carries none. Accounting proposals are listed under the item
they are booked against.`,
	Example: `  # Human readable summary
  receipts show 42

  # Canonical payload as JSON
  receipts show 42 --json

  # The editable draft, as used by "receipts edit"
  receipts show 42 --draft`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("json", false, "Print the canonical payload as JSON")
	showCmd.Flags().Bool("draft", false, "Print the editable draft as JSON")
	showCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runShow(cmd *cobra.Command, args []string) error {
	receiptID := args[0]
	log := logger.WithReceipt("show", receiptID)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	draftOutput, _ := cmd.Flags().GetBool("draft")
	outputPath, _ := cmd.Flags().GetString("output")

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
	payload := s.Snapshot().Payload

	switch {
	case draftOutput:
		return writeJSON(draft.ToDraft(payload), outputPath, log)
	case jsonOutput:
		return writeJSON(payload, outputPath, log)
	}

	var out strings.Builder
	printPayload(&out, receiptID, payload)
	return writeOutput([]byte(out.String()), outputPath, log)
}

func printPayload(w io.Writer, receiptID string, p models.ModalPayload) {
	r := p.Receipt
	currency := r.Currency

	fmt.Fprintf(w, "Receipt %s\n", receiptID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, line := range [][2]string{
		{"Merchant", r.MerchantName},
		{"Purchased", r.PurchaseDatetime},
		{"Gross", amount(r.GrossAmount, currency)},
		{"Net", amount(r.NetAmount, currency)},
		{"VAT 25%", amount(r.VAT25, currency)},
		{"VAT 12%", amount(r.VAT12, currency)},
		{"VAT 6%", amount(r.VAT6, currency)},
		{"Payment", strings.TrimSpace(r.PaymentType + " " + r.CardType + " " + r.CardNumberMasked)},
		{"Receipt no", r.ReceiptNumber},
		{"Company", strings.TrimSpace(p.Company.Name + " " + p.Company.OrgNumber)},
		{"Tags", strings.Join(r.Tags, ", ")},
	} {
		if line[1] != "" {
			fmt.Fprintf(tw, "  %s\t%s\n", line[0], line[1])
		}
	}
	_ = tw.Flush()

	groups := reconciliation.GroupByItem(p.Items, p.Proposals)
	if groups == nil {
		if len(p.Proposals) > 0 {
			fmt.Fprintln(w, "\nAccounting (no line items)")
			printProposals(w, p.Proposals, currency)
		}
		return
	}

	fmt.Fprintln(w, "\nLine items")
	for i, item := range p.Items {
		fmt.Fprintf(w, "  %d. %s  qty %s  %s inc VAT (VAT %s, %s%%)\n",
			i+1, item.Name,
			orDash(fields.FormatNumber(item.Number)),
			orDash(fields.FormatNumber(item.ItemTotalPriceIncVat)),
			orDash(fields.FormatNumber(item.Vat)),
			orDash(fields.FormatNumber(item.VatPercentage)),
		)
		printProposals(w, groups[i], currency)
	}
}

func printProposals(w io.Writer, proposals []models.AccountingProposal, currency string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range proposals {
		side := p.Side()
		if side == "" {
			side = "-"
		}
		fmt.Fprintf(tw, "      %s\t%s\t%s\t%s\n", p.Account, side, amount(models.Float(p.Amount()), currency), p.Notes)
	}
	_ = tw.Flush()
}

func amount(v *float64, currency string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f %s", *v, currency)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
