package memory

import "boutique/internal/core"

// Seed is the YAML layout accepted by NewFromFile. Amounts are rupee strings
// ("1500", "99.50") and dates use YYYY-MM-DD.
type Seed struct {
	Sales    []SeedSale    `yaml:"sales"`
	Expenses []SeedExpense `yaml:"expenses"`
	Orders   []SeedOrder   `yaml:"tailoringOrders"`
	Designs  []SeedDesign  `yaml:"designs"`
}

type SeedSale struct {
	Items       string `yaml:"items"`
	Price       string `yaml:"price"`
	Date        string `yaml:"date"`
	PaymentMode string `yaml:"paymentMode"`
	Status      string `yaml:"status"`
}

type SeedExpense struct {
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
	Date        string `yaml:"date"`
	PaymentMode string `yaml:"paymentMode"`
}

type SeedOrder struct {
	Date         string `yaml:"date"`
	BillNo       string `yaml:"billNo"`
	Customer     string `yaml:"customer"`
	Phone        string `yaml:"phone"`
	Type         string `yaml:"type"`
	TotalCost    string `yaml:"totalCost"`
	Advance      string `yaml:"advance"`
	DeliveryDate string `yaml:"deliveryDate"`
	PaymentMode  string `yaml:"paymentMode"`
	Status       string `yaml:"status"`
}

type SeedDesign struct {
	Name         string `yaml:"name"`
	ImageURL     string `yaml:"imageUrl"`
	MaterialCost string `yaml:"materialCost"`
	LaborCost    string `yaml:"laborCost"`
	SellingPrice string `yaml:"sellingPrice"`
	StartDate    string `yaml:"startDate"`
	EndDate      string `yaml:"endDate"`
	Status       string `yaml:"status"`
}

// fields turns seed strings into typed values, collecting parse failures per field.
type fields struct {
	errs core.FieldErrors
}

func newFields() *fields { return &fields{errs: core.FieldErrors{}} }

func (f *fields) money(name, raw string) core.Money {
	if raw == "" {
		return core.Money{}
	}
	p, err := core.ParseAmount(raw)
	if err != nil {
		f.errs.Add(name, err.Error())
	}
	return core.Money{Paise: p}
}

func (f *fields) date(name, raw string) core.Date {
	if raw == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		f.errs.Add(name, "must be YYYY-MM-DD")
	}
	return d
}

func (in SeedSale) record() (core.Sale, error) {
	f := newFields()
	s := core.Sale{
		Items:       in.Items,
		Price:       f.money("price", in.Price),
		Date:        f.date("date", in.Date),
		PaymentMode: core.PaymentMode(in.PaymentMode),
		Status:      core.SaleStatus(in.Status),
	}
	if err := f.errs.Err(); err != nil {
		return s, err
	}
	err := s.Validate()
	return s, err
}

func (in SeedExpense) record() (core.Expense, error) {
	f := newFields()
	e := core.Expense{
		Description: in.Description,
		Amount:      f.money("amount", in.Amount),
		Date:        f.date("date", in.Date),
		PaymentMode: core.PaymentMode(in.PaymentMode),
	}
	if err := f.errs.Err(); err != nil {
		return e, err
	}
	err := e.Validate()
	return e, err
}

func (in SeedOrder) record() (core.TailoringOrder, error) {
	f := newFields()
	o := core.TailoringOrder{
		Date:         f.date("date", in.Date),
		BillNo:       in.BillNo,
		Customer:     in.Customer,
		Phone:        in.Phone,
		Type:         in.Type,
		TotalCost:    f.money("totalCost", in.TotalCost),
		Advance:      f.money("advance", in.Advance),
		DeliveryDate: f.date("deliveryDate", in.DeliveryDate),
		PaymentMode:  core.PaymentMode(in.PaymentMode),
		Status:       core.OrderStatus(in.Status),
	}
	if err := f.errs.Err(); err != nil {
		return o, err
	}
	err := o.Validate()
	return o, err
}

func (in SeedDesign) record() (core.Design, error) {
	f := newFields()
	d := core.Design{
		Name:         in.Name,
		ImageURL:     in.ImageURL,
		MaterialCost: f.money("materialCost", in.MaterialCost),
		LaborCost:    f.money("laborCost", in.LaborCost),
		SellingPrice: f.money("sellingPrice", in.SellingPrice),
		StartDate:    f.date("startDate", in.StartDate),
		EndDate:      f.date("endDate", in.EndDate),
		Status:       core.DesignStatus(in.Status),
	}
	if err := f.errs.Err(); err != nil {
		return d, err
	}
	err := d.Validate()
	return d, err
}
