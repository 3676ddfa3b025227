package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"receipts/internal/logger"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [receipt-id]",
	Short: "Delete a receipt from the back office",
	Example: `  receipts delete 42 --yes`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().Bool("yes", false, "Confirm the deletion")
}

func runDelete(cmd *cobra.Command, args []string) error {
	receiptID := args[0]
	log := logger.WithReceipt("delete", receiptID)

	confirmed, _ := cmd.Flags().GetBool("yes")
	if !confirmed {
		return fmt.Errorf("refusing to delete receipt %s without --yes", receiptID)
	}

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
	if err := s.Delete(ctx); err != nil {
		return handleAPIError(err, log)
	}

	fmt.Printf("Receipt %s deleted.\n", receiptID)
	return nil
}
