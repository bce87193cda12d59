package cli

import (
	"fmt"

	"github.com/saulo-duarte/chronos-autopilot/internal/container"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent notes documents and whether they were processed",
	RunE:  runList,
}

func init() {
	listCmd.Flags().Int("limit", 20, "Number of documents to show")
	listCmd.Flags().StringP("output", "o", outputTable, "Output format: table, json or yaml")
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("output")

	if err := settings.ValidateNotes(); err != nil {
		return err
	}
	c, err := openContainer(cmd.Context(), container.ModeReadOnly)
	if err != nil {
		return err
	}
	defer c.Close()

	docs, err := c.MeetingContainer.Service.ListRecent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 && format == outputTable {
		fmt.Fprintln(cmd.OutOrStdout(), "No documents found.")
		return nil
	}
	return writeDocuments(cmd.OutOrStdout(), format, docs)
}
