package cmd

import (
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"receipts/internal/draft"
	"receipts/internal/logger"
	"receipts/pkg/models"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the editable draft or of the saved payload",
	Long: `Print a JSON Schema describing either the draft accepted by
"receipts edit --draft-file" (default) or the canonical payload sent to
the back office on save.`,
	Example: `  receipts schema
  receipts schema --payload -o payload.schema.json`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().Bool("payload", false, "Describe the saved payload instead of the draft")
	schemaCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("schema")

	payload, _ := cmd.Flags().GetBool("payload")
	outputPath, _ := cmd.Flags().GetString("output")

	return writeJSON(reflectSchema(payload), outputPath, log)
}

func reflectSchema(payload bool) *jsonschema.Schema {
	if payload {
		// unknown backend keys ride along on save
		r := jsonschema.Reflector{AllowAdditionalProperties: true, DoNotReference: true}
		return r.Reflect(&models.ModalPayload{})
	}
	r := jsonschema.Reflector{AllowAdditionalProperties: false, DoNotReference: true}
	return r.Reflect(&draft.Draft{})
}
