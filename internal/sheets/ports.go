// Package sheets mirrors ledger records into a spreadsheet, one tab per
// collection.
package sheets

import (
	"context"
	"fmt"

	"boutique/internal/core"
)

// RowAppender appends a single row to the named tab and returns a reference
// to where it landed (an A1 range for Google Sheets).
type RowAppender interface {
	AppendRow(ctx context.Context, sheet string, row []any) (rowRef string, err error)
}

// HeaderWriter is implemented by appenders that can stamp a header row on
// an empty tab.
type HeaderWriter interface {
	EnsureHeader(ctx context.Context, sheet string, header []any) error
}

// Tab names in the spreadsheet.
const (
	TabSales     = "Sales"
	TabExpenses  = "Expenses"
	TabTailoring = "Tailoring"
	TabDesigns   = "Designs"
)

// TabFor maps a collection to its tab.
func TabFor(c core.Collection) (string, error) {
	switch c {
	case core.CollectionSales:
		return TabSales, nil
	case core.CollectionExpenses:
		return TabExpenses, nil
	case core.CollectionOrders:
		return TabTailoring, nil
	case core.CollectionDesigns:
		return TabDesigns, nil
	}
	return "", fmt.Errorf("no sheet for collection %q", c)
}

// Headers lists the header row of every tab.
var Headers = map[string][]any{
	TabSales:     {"ID", "Date", "Items", "Price", "Payment Mode", "Status"},
	TabExpenses:  {"ID", "Date", "Description", "Amount", "Payment Mode"},
	TabTailoring: {"ID", "Date", "Bill No", "Customer", "Phone", "Type", "Total Cost", "Advance", "Balance", "Delivery Date", "Payment Mode", "Status"},
	TabDesigns:   {"ID", "Name", "Image URL", "Material Cost", "Labor Cost", "Total Cost", "Selling Price", "Start Date", "End Date", "Status"},
}

// Amounts go out as plain decimals so USER_ENTERED parses them as numbers.

func SaleRow(s core.Sale) []any {
	return []any{s.ID, s.Date.String(), s.Items, s.Price.String(), string(s.PaymentMode), string(s.Status)}
}

func ExpenseRow(e core.Expense) []any {
	return []any{e.ID, e.Date.String(), e.Description, e.Amount.String(), string(e.PaymentMode)}
}

func OrderRow(o core.TailoringOrder) []any {
	return []any{
		o.ID, o.Date.String(), o.BillNo, o.Customer, o.Phone, o.Type,
		o.TotalCost.String(), o.Advance.String(), o.Balance.String(),
		o.DeliveryDate.String(), string(o.PaymentMode), string(o.Status),
	}
}

func DesignRow(d core.Design) []any {
	return []any{
		d.ID, d.Name, d.ImageURL,
		d.MaterialCost.String(), d.LaborCost.String(), d.TotalCost.String(), d.SellingPrice.String(),
		d.StartDate.String(), d.EndDate.String(), string(d.Status),
	}
}
