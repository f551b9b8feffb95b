// Package export writes the monthly analysis as a spreadsheet download.
package export

import (
	"fmt"
	"io"

	"boutique/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var summaryHeader = []any{"Month", "Income", "Expenses", "Balance"}

// MonthlySummaryXLSX writes rows, in the given order, to a workbook with a
// single Summary sheet.
func MonthlySummaryXLSX(w io.Writer, rows []core.MonthSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "D1", bold); err != nil {
		return err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	for i, r := range rows {
		n := i + 2
		if err := f.SetCellStr(SummarySheet, fmt.Sprintf("A%d", n), r.Period.Label()); err != nil {
			return err
		}
		for col, m := range map[string]core.Money{"B": r.Income, "C": r.Expenses, "D": r.Balance} {
			cell := fmt.Sprintf("%s%d", col, n)
			if err := f.SetCellFloat(SummarySheet, cell, m.Decimal().InexactFloat64(), 2, 64); err != nil {
				return err
			}
		}
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(SummarySheet, "B2", fmt.Sprintf("D%d", len(rows)+1), amount); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SummarySheet, "A", "D", 16); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename is the download name for the analysis export. rows are newest
// first, so a multi-month export is named oldest_newest.
func Filename(rows []core.MonthSummary) string {
	switch len(rows) {
	case 0:
		return "summary.xlsx"
	case 1:
		return fmt.Sprintf("summary-%s.xlsx", rows[0].Period.Key())
	}
	return fmt.Sprintf("summary-%s_%s.xlsx", rows[len(rows)-1].Period.Key(), rows[0].Period.Key())
}
