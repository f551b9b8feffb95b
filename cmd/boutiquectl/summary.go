package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"boutique/internal/cli"
	"boutique/internal/core"
	"boutique/internal/report"
	"boutique/internal/store"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// summaryRow is the yaml shape of one month.
type summaryRow struct {
	Period   string `yaml:"period"`
	Label    string `yaml:"label"`
	Income   string `yaml:"income"`
	Expenses string `yaml:"expenses"`
	Balance  string `yaml:"balance"`
}

func newSummaryCmd(a *app) *cobra.Command {
	var month, format string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the monthly income and expense summary",
		Example: `  boutiquectl summary
  boutiquectl summary --month 2024-03
  boutiquectl summary --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if month != "" {
				return a.printReport(ctx, cmd.OutOrStdout(), month)
			}
			rows, err := a.monthlySummary(ctx)
			if err != nil {
				return err
			}
			switch format {
			case "yaml":
				return writeYAML(cmd.OutOrStdout(), rows)
			case "text":
				return writeTable(cmd.OutOrStdout(), rows)
			default:
				return fmt.Errorf("unknown format %q: want text or yaml", format)
			}
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "print the full report for one month (YYYY-MM)")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or yaml")
	return cmd
}

// monthlySummary loads every ledger from the configured backend.
func (a *app) monthlySummary(ctx context.Context) ([]core.MonthSummary, error) {
	be, err := cli.OpenBackend(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = be.Cleanup() }()

	records := store.New(a.logger)
	if err := records.Load(ctx, be.Repository); err != nil {
		return nil, fmt.Errorf("load %s: %w", a.backendLabel(), err)
	}
	return core.MonthlySummary(records.Sales(), records.Expenses(), records.Orders()), nil
}

func (a *app) printReport(ctx context.Context, w io.Writer, month string) error {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return fmt.Errorf("--month must look like YYYY-MM: %w", err)
	}
	be, err := cli.OpenBackend(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() { _ = be.Cleanup() }()

	r, err := report.NewBuilder(be.Repository).Build(ctx, core.Period{Year: t.Year(), Month: int(t.Month())})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, r.Text())
	return err
}

func writeTable(w io.Writer, rows []core.MonthSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Month\tIncome\tExpenses\tBalance\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Period.Label(), r.Income.Format(), r.Expenses.Format(), r.Balance.Format())
	}
	return tw.Flush()
}

func writeYAML(w io.Writer, rows []core.MonthSummary) error {
	out := make([]summaryRow, len(rows))
	for i, r := range rows {
		out[i] = summaryRow{
			Period:   r.Period.Key(),
			Label:    r.Period.Label(),
			Income:   r.Income.String(),
			Expenses: r.Expenses.String(),
			Balance:  r.Balance.String(),
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]summaryRow{"months": out}); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
