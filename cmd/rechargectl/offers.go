package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kevin07696/recharge-gateway/internal/adapters/postgres"
)

func offersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offers",
		Short: "Offer catalog operations",
	}
	cmd.AddCommand(offersListCmd())
	return cmd
}

func offersListCmd() *cobra.Command {
	var beID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active offers for a business entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if beID == "" {
				return errors.New("--be is required")
			}

			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			db, err := e.database(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			offers, err := postgres.NewOfferRepository(db.Pool(), db).ListActiveByBeID(cmd.Context(), beID)
			if err != nil {
				return err
			}
			if len(offers) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no active offers for %s\n", beID)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OFFER\tPRICE\tNAME")
			for _, o := range offers {
				fmt.Fprintf(w, "%s\t%s\t%s\n", o.OfferCode, o.Price.StringFixed(2), o.CommercialName)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&beID, "be", "", "business entity id")
	return cmd
}
