package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/vrcxpredict/internal/report"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of 'analyze --json' output",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report.Schema()); err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	return nil
}
