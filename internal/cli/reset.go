package cli

import (
	"fmt"

	"github.com/saulo-duarte/chronos-autopilot/internal/container"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every processed meeting and document id",
	RunE:  runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	c, err := openContainer(cmd.Context(), container.ModeReadOnly)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.MeetingContainer.Service.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("reset dedup store: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Processed ids cleared.")
	return nil
}
