package http

import (
	"bytes"
	"net/http"

	"boutique/internal/core"
	"boutique/internal/export"
)

// handleDashboard serves the owner's all-time totals plus the month picked
// by ?month (default: the current one).
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !s.loaded(w) {
		return
	}
	period, err := parsePeriod(r, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	sales, expenses, orders := s.store.Sales(), s.store.Expenses(), s.store.Orders()

	totals := core.Dashboard(sales, expenses, orders)
	open := 0
	for _, o := range orders {
		if !o.Status.IsTerminal() {
			open++
		}
	}
	month := core.SummaryFor(core.MonthlySummary(sales, expenses, orders), period)

	NewResponse().JSON(dashboardView{
		Revenue:      totals.Revenue.String(),
		Expenses:     totals.Expenses.String(),
		NetProfit:    totals.NetProfit.String(),
		ProfitMargin: totals.ProfitMargin.StringFixed(2),
		Outstanding:  totals.Outstanding.String(),
		OpenOrders:   open,
		Month:        newMonthView(month),
	}).Write(w)
}

// handleAnalysis lists one row per month with activity, newest first.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.loaded(w) {
		return
	}
	rows := core.MonthlySummary(s.store.Sales(), s.store.Expenses(), s.store.Orders())
	months := make([]monthView, len(rows))
	for i, m := range rows {
		months[i] = newMonthView(m)
	}
	NewResponse().JSON(map[string]any{"months": months}).Write(w)
}

// handleExport downloads the analysis as a workbook. ?month narrows it to
// a single month.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !s.loaded(w) {
		return
	}
	rows := core.MonthlySummary(s.store.Sales(), s.store.Expenses(), s.store.Orders())
	if r.URL.Query().Get("month") != "" {
		period, err := parsePeriod(r, s.now())
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		rows = []core.MonthSummary{core.SummaryFor(rows, period)}
	}

	var buf bytes.Buffer
	if err := export.MonthlySummaryXLSX(&buf, rows); err != nil {
		s.respondError(w, r, err, "failed to export summary")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(rows)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
