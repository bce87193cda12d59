package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/spf13/cobra"
)

var secretCmd = &cobra.Command{
	Use:   "seal-secret [value]",
	Short: "Encrypt a credential for use in the config file",
	Long: `seal-secret encrypts a value with CRYPTO_KEY so it can be stored in the
config file in place of the plain credential.`,
	Args: cobra.ExactArgs(1),
	RunE: runSealSecret,
}

func runSealSecret(cmd *cobra.Command, args []string) error {
	value := strings.TrimSpace(args[0])
	if value == "" {
		return errors.New("value is empty")
	}
	sealed, err := config.SealSecret(value)
	if err != nil {
		return fmt.Errorf("seal secret: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sealed)
	return nil
}
