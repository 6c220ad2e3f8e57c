package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kevin07696/recharge-gateway/internal/bootstrap"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Carrier token operations",
	}
	cmd.AddCommand(tokenFetchCmd())
	return cmd
}

func tokenFetchCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Request a carrier access token and print its envelope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			carrierDeps, err := bootstrap.NewCarrier(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer carrierDeps.Close()

			token, err := carrierDeps.Tokens.GetToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("token request failed: %w", err)
			}

			printed := *token
			if !reveal {
				printed.AccessToken = redact(printed.AccessToken)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(printed)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the full access token")
	return cmd
}

// redact keeps the first and last four characters
func redact(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
