package cli

import (
	"errors"
	"fmt"

	"github.com/saulo-duarte/chronos-autopilot/internal/container"
	"github.com/saulo-duarte/chronos-autopilot/internal/meeting"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process one notes document now",
	Long: `Process runs the extraction, ticket and notification pipeline for a single
notes document, chosen by --latest (newest unprocessed), --title or --id.
Processed documents are skipped unless --force is given.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Bool("latest", false, "Process the most recent unprocessed document")
	processCmd.Flags().String("title", "", "Process the newest document whose title contains this text")
	processCmd.Flags().String("id", "", "Process the document with this id")
	processCmd.Flags().Bool("force", false, "Process even if the document was already handled")
	processCmd.MarkFlagsMutuallyExclusive("latest", "title", "id")
	processCmd.MarkFlagsOneRequired("latest", "title", "id")
}

func runProcess(cmd *cobra.Command, args []string) error {
	latest, _ := cmd.Flags().GetBool("latest")
	title, _ := cmd.Flags().GetString("title")
	id, _ := cmd.Flags().GetString("id")
	force, _ := cmd.Flags().GetBool("force")
	ctx := cmd.Context()

	c, err := openContainer(ctx, container.ModeProcess)
	if err != nil {
		return err
	}
	defer c.Close()
	svc := c.MeetingContainer.Service

	var outcome *meeting.Outcome
	switch {
	case latest:
		outcome, err = svc.ProcessLatest(ctx, force)
	case title != "":
		outcome, err = svc.ProcessByTitle(ctx, title, force)
	default:
		outcome, err = svc.ProcessByID(ctx, id, force)
	}

	switch {
	case errors.Is(err, meeting.ErrNotFound):
		return fmt.Errorf("no matching document: %w", err)
	case errors.Is(err, meeting.ErrAlreadyProcessed):
		return fmt.Errorf("%w (use --force to run it again)", err)
	case err != nil:
		return err
	}

	writeOutcome(cmd.OutOrStdout(), outcome)
	return nil
}
