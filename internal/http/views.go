package http

import "boutique/internal/core"

// Wire shapes. Amounts are decimal strings in rupees ("1250.50") and dates
// are YYYY-MM-DD.

type saleView struct {
	ID          string `json:"id"`
	Items       string `json:"items"`
	Price       string `json:"price"`
	Date        string `json:"date"`
	PaymentMode string `json:"paymentMode"`
	Status      string `json:"status"`
}

type expenseView struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	PaymentMode string `json:"paymentMode"`
}

type orderView struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	BillNo       string `json:"billNo"`
	Customer     string `json:"customer"`
	Phone        string `json:"phone"`
	Type         string `json:"type"`
	TotalCost    string `json:"totalCost"`
	Advance      string `json:"advance"`
	Balance      string `json:"balance"`
	DeliveryDate string `json:"deliveryDate"`
	PaymentMode  string `json:"paymentMode"`
	Status       string `json:"status"`
}

type designView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"imageUrl,omitempty"`
	MaterialCost string `json:"materialCost"`
	LaborCost    string `json:"laborCost"`
	TotalCost    string `json:"totalCost"`
	SellingPrice string `json:"sellingPrice"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate,omitempty"`
	Status       string `json:"status"`
}

type monthView struct {
	Period   string `json:"period"`
	Label    string `json:"label"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Balance  string `json:"balance"`
}

type dashboardView struct {
	Revenue      string    `json:"revenue"`
	Expenses     string    `json:"expenses"`
	NetProfit    string    `json:"netProfit"`
	ProfitMargin string    `json:"profitMargin"`
	Outstanding  string    `json:"outstanding"`
	OpenOrders   int       `json:"openOrders"`
	Month        monthView `json:"month"`
}

type listView[T any] struct {
	Items []T `json:"items"`
}

func newSaleView(s core.Sale) saleView {
	return saleView{
		ID:          s.ID,
		Items:       s.Items,
		Price:       s.Price.String(),
		Date:        s.Date.String(),
		PaymentMode: string(s.PaymentMode),
		Status:      string(s.Status),
	}
}

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.String(),
		Date:        e.Date.String(),
		PaymentMode: string(e.PaymentMode),
	}
}

func newOrderView(o core.TailoringOrder) orderView {
	return orderView{
		ID:           o.ID,
		Date:         o.Date.String(),
		BillNo:       o.BillNo,
		Customer:     o.Customer,
		Phone:        o.Phone,
		Type:         o.Type,
		TotalCost:    o.TotalCost.String(),
		Advance:      o.Advance.String(),
		Balance:      o.Balance.String(),
		DeliveryDate: o.DeliveryDate.String(),
		PaymentMode:  string(o.PaymentMode),
		Status:       string(o.Status),
	}
}

func newDesignView(d core.Design) designView {
	return designView{
		ID:           d.ID,
		Name:         d.Name,
		ImageURL:     d.ImageURL,
		MaterialCost: d.MaterialCost.String(),
		LaborCost:    d.LaborCost.String(),
		TotalCost:    d.TotalCost.String(),
		SellingPrice: d.SellingPrice.String(),
		StartDate:    d.StartDate.String(),
		EndDate:      d.EndDate.String(),
		Status:       string(d.Status),
	}
}

func newMonthView(m core.MonthSummary) monthView {
	return monthView{
		Period:   m.Period.Key(),
		Label:    m.Period.Label(),
		Income:   m.Income.String(),
		Expenses: m.Expenses.String(),
		Balance:  m.Balance.String(),
	}
}

func listOf[R, V any](records []R, view func(R) V) listView[V] {
	items := make([]V, len(records))
	for i, r := range records {
		items[i] = view(r)
	}
	return listView[V]{Items: items}
}
