// Package report builds the monthly business report and delivers it on a
// schedule.
package report

import (
	"context"
	"fmt"
	"strings"

	"boutique/internal/core"
	"boutique/internal/storage"

	"golang.org/x/sync/errgroup"
)

// Report is one month's figures plus the all-time dashboard.
type Report struct {
	Period     core.Period
	Month      core.MonthSummary
	Totals     core.DashboardTotals
	OpenOrders int
}

// Builder reads the ledgers from a backend.
type Builder struct {
	lister storage.Lister
}

func NewBuilder(lister storage.Lister) *Builder {
	return &Builder{lister: lister}
}

// Build loads the sales, expenses and orders concurrently and computes the
// report for period.
func (b *Builder) Build(ctx context.Context, period core.Period) (Report, error) {
	var (
		sales    []core.Sale
		expenses []core.Expense
		orders   []core.TailoringOrder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sales, err = b.lister.ListSales(gctx, storage.DefaultListOptions(core.CollectionSales))
		return err
	})
	g.Go(func() (err error) {
		expenses, err = b.lister.ListExpenses(gctx, storage.DefaultListOptions(core.CollectionExpenses))
		return err
	})
	g.Go(func() (err error) {
		orders, err = b.lister.ListOrders(gctx, storage.DefaultListOptions(core.CollectionOrders))
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("build report %s: %w", period.Key(), err)
	}

	r := Report{
		Period: period,
		Month:  core.SummaryFor(core.MonthlySummary(sales, expenses, orders), period),
		Totals: core.Dashboard(sales, expenses, orders),
	}
	for _, o := range orders {
		if !o.Status.IsTerminal() {
			r.OpenOrders++
		}
	}
	return r, nil
}

// Text renders the report for a chat webhook.
func (r Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Monthly report: %s\n", r.Period.Label())
	fmt.Fprintf(&b, "Income: %s\n", r.Month.Income.Format())
	fmt.Fprintf(&b, "Expenses: %s\n", r.Month.Expenses.Format())
	fmt.Fprintf(&b, "Balance: %s\n", r.Month.Balance.Format())
	b.WriteString("\nAll time\n")
	fmt.Fprintf(&b, "Revenue: %s\n", r.Totals.Revenue.Format())
	fmt.Fprintf(&b, "Net profit: %s (%s%%)\n", r.Totals.NetProfit.Format(), r.Totals.ProfitMargin.StringFixed(2))
	fmt.Fprintf(&b, "Outstanding balances: %s across %d open orders", r.Totals.Outstanding.Format(), r.OpenOrders)
	return b.String()
}
