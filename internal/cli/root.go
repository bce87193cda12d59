package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/container"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	settings   *config.Settings
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "autopilot",
		Short: "Meeting autopilot - turns finished meetings into tickets and summaries",
		Long: `autopilot watches today's calendar and, a few minutes after each meeting ends,
finds the matching notes document, extracts decisions and action items,
files tickets and posts a summary.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSettings,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $AUTOPILOT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(secretCmd)
}

func loadSettings(cmd *cobra.Command, args []string) error {
	config.Init()
	if verbose {
		config.Logger.SetLevel(logrus.DebugLevel)
	}

	s, err := config.Load(configPath)
	if err != nil {
		return err
	}
	settings = s
	return nil
}

// Execute runs the root command. Any returned error means exit status 1.
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func openContainer(ctx context.Context, mode container.Mode) (*container.Container, error) {
	return container.New(ctx, settings, mode)
}
