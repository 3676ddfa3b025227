package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"receipts/internal/fields"
	"receipts/internal/logger"
	"receipts/internal/poller"
	"receipts/pkg/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "List receipts and keep the list fresh in the background",
	Long: `Print the receipts list and refresh it on a schedule until interrupted.

Refresh failures are logged and the previous list is kept. The schedule
accepts cron expressions and "@every" intervals.`,
	Example: `  # Refresh every 30 seconds (RECEIPTS_POLL_SCHEDULE)
  receipts watch

  # Refresh every 5 minutes
  receipts watch --schedule "*/5 * * * *"

  # Print the list once and exit
  receipts watch --once`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("schedule", "", "Refresh schedule (default: RECEIPTS_POLL_SCHEDULE)")
	watchCmd.Flags().Bool("once", false, "Print the list once and exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("watch")

	schedule, _ := cmd.Flags().GetString("schedule")
	once, _ := cmd.Flags().GetBool("once")

	cfg, err := loadConfig(true, log)
	if err != nil {
		return err
	}
	if schedule == "" {
		schedule = cfg.PollSchedule
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	p := poller.New(client,
		poller.WithSchedule(schedule),
		poller.WithTimeout(cfg.HTTPTimeout),
		poller.WithOnUpdate(printReceiptList),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	firstCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
	refreshed := p.Refresh(firstCtx)
	cancel()

	if once {
		if !refreshed {
			_, lastErr := p.LastRefresh()
			return handleAPIError(lastErr, log)
		}
		return nil
	}

	if err := p.Start(); err != nil {
		return err
	}
	defer p.Stop()

	<-ctx.Done()
	log.Info().Msg("Stopping watch")
	return nil
}

func printReceiptList(receipts []models.ReceiptSummary) {
	fmt.Printf("\n%s  %d receipts\n", time.Now().Format("15:04:05"), len(receipts))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMERCHANT\tPURCHASED\tGROSS\tSTATUS")
	for _, r := range receipts {
		gross := fields.FormatNumber(r.GrossAmount)
		if gross != "" && r.Currency != "" {
			gross += " " + r.Currency
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.MerchantName, r.PurchaseDatetime, gross, r.Status)
	}
	_ = tw.Flush()
}
