package main

import (
	"fmt"
	"os"
	"time"

	"boutique/internal/core"
	"boutique/internal/export"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var out, month string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the monthly summary to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.monthlySummary(cmd.Context())
			if err != nil {
				return err
			}
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("--month must look like YYYY-MM: %w", err)
				}
				rows = []core.MonthSummary{core.SummaryFor(rows, core.Period{Year: t.Year(), Month: int(t.Month())})}
			}
			if out == "" {
				out = export.Filename(rows)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.MonthlySummaryXLSX(f, rows); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d months to %s\n", len(rows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default summary[-YYYY-MM].xlsx)")
	cmd.Flags().StringVar(&month, "month", "", "export a single month (YYYY-MM)")
	return cmd
}
