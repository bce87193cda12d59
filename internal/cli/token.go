package cli

import (
	"fmt"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/auth"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator token for the HTTP API",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().String("subject", "operator", "Token subject")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	if err := auth.SetSecret(settings.JWTSecret); err != nil {
		return err
	}
	token, err := auth.GenerateJWT(subject, auth.RoleOperator, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
