package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kevin07696/recharge-gateway/internal/adapters/postgres"
	"github.com/kevin07696/recharge-gateway/internal/bootstrap"
	"github.com/kevin07696/recharge-gateway/internal/services/report"
	"github.com/kevin07696/recharge-gateway/pkg/timeutil"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Settlement report operations",
	}
	cmd.AddCommand(reportGenerateCmd())
	return cmd
}

func reportGenerateCmd() *cobra.Command {
	var (
		date    string
		all     bool
		deliver bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the settlement report file",
		Long: `Write the settlement report for one UTC day, or for every ledger row.

Examples:
  rechargectl report generate --date 2025-12-05
  rechargectl report generate --all
  rechargectl report generate --date 2025-12-05 --deliver`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := reportDate(date, all, timeutil.Now())
			if err != nil {
				return err
			}
			if deliver && day == nil {
				return errors.New("--deliver needs a single day, not --all")
			}

			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			db, err := e.database(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			ledger := postgres.NewLedgerRepository(db.Pool(), db, e.logger)

			var generator *report.Generator
			if deliver {
				sinks, err := bootstrap.ReportSinks(ctx, e.cfg, e.logger)
				if err != nil {
					return err
				}
				generator = report.NewGenerator(ledger, bootstrap.ReportConfig(e.cfg), e.logger, sinks...)
			} else {
				generator = report.NewGenerator(ledger, bootstrap.ReportConfig(e.cfg), e.logger)
			}

			var rep *report.Report
			if deliver {
				rep, err = report.NewJob(generator, e.logger).RunOnce(ctx, *day)
			} else {
				rep, err = generator.Generate(ctx, day)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:  %s\n", rep.Path)
			fmt.Fprintf(out, "rows:  %d\n", rep.Rows)
			fmt.Fprintf(out, "bytes: %d\n", rep.Size)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "UTC day as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&all, "all", false, "include every ledger row")
	cmd.Flags().BoolVar(&deliver, "deliver", false, "also ship the file through the configured sinks")
	cmd.MarkFlagsMutuallyExclusive("date", "all")
	return cmd
}

// reportDate resolves the flags: nil means every row
func reportDate(date string, all bool, now time.Time) (*time.Time, error) {
	if all {
		if date != "" {
			return nil, errors.New("--date and --all cannot be combined")
		}
		return nil, nil
	}
	day := timeutil.StartOfDay(now)
	if date != "" {
		parsed, err := timeutil.ParseDay(date)
		if err != nil {
			return nil, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
		day = parsed
	}
	return &day, nil
}
