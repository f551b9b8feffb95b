package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Period is a (year, month) bucket.
type Period struct {
	Year  int
	Month int // 1-12
}

// PeriodOf returns the bucket d falls into.
func PeriodOf(d Date) Period {
	return Period{Year: d.Year(), Month: d.Month()}
}

// Before reports whether p is an earlier month than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Key is the YYYY-MM form used in URLs and cache keys.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Label is the human form, e.g. "March 2024".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", time.Month(p.Month), p.Year)
}

// Prev returns the month before p.
func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// MonthSummary is one row of the monthly analysis.
type MonthSummary struct {
	Period   Period
	Income   Money
	Expenses Money
	Balance  Money // Income - Expenses, negative for a loss-making month
}

// MonthlySummary buckets sales, order advances and expenses by month and
// returns one row per month that has any record, most recent first.
// The inputs are only read.
func MonthlySummary(sales []Sale, expenses []Expense, orders []TailoringOrder) []MonthSummary {
	buckets := make(map[Period]*MonthSummary)
	row := func(d Date) *MonthSummary {
		p := PeriodOf(d)
		r, ok := buckets[p]
		if !ok {
			r = &MonthSummary{Period: p}
			buckets[p] = r
		}
		return r
	}

	for _, o := range orders {
		r := row(o.Date)
		r.Income = r.Income.Add(o.Advance)
	}
	for _, s := range sales {
		r := row(s.Date)
		r.Income = r.Income.Add(s.Price)
	}
	for _, e := range expenses {
		r := row(e.Date)
		r.Expenses = r.Expenses.Add(e.Amount)
	}

	out := make([]MonthSummary, 0, len(buckets))
	for _, r := range buckets {
		r.Balance = r.Income.Sub(r.Expenses)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].Period.Before(out[i].Period)
	})
	return out
}

// SummaryFor returns the row for p, zero-filled when nothing was recorded.
func SummaryFor(rows []MonthSummary, p Period) MonthSummary {
	for _, r := range rows {
		if r.Period == p {
			return r
		}
	}
	return MonthSummary{Period: p}
}

// DashboardTotals are the owner's headline figures.
type DashboardTotals struct {
	Revenue      Money
	Expenses     Money
	NetProfit    Money
	ProfitMargin decimal.Decimal // percent, two decimals
	Outstanding  Money           // sum of open order balances
}

// Dashboard computes all-time totals over the three ledgers.
func Dashboard(sales []Sale, expenses []Expense, orders []TailoringOrder) DashboardTotals {
	var t DashboardTotals
	for _, s := range sales {
		t.Revenue = t.Revenue.Add(s.Price)
	}
	for _, o := range orders {
		t.Revenue = t.Revenue.Add(o.Advance)
		t.Outstanding = t.Outstanding.Add(o.Balance)
	}
	for _, e := range expenses {
		t.Expenses = t.Expenses.Add(e.Amount)
	}
	t.NetProfit = t.Revenue.Sub(t.Expenses)
	t.ProfitMargin = decimal.Zero
	if t.Revenue.Paise > 0 {
		t.ProfitMargin = decimal.NewFromInt(t.NetProfit.Paise).
			Div(decimal.NewFromInt(t.Revenue.Paise)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return t
}
