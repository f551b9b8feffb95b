package core

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the wire and form layout for calendar dates.
const DateLayout = "2006-01-02"

const (
	Cash  PaymentMode = "Cash"
	Card  PaymentMode = "Card"
	UPI   PaymentMode = "UPI"
	Other PaymentMode = "Other"
)

const (
	SaleDone           SaleStatus = "Done"
	SalePaymentPending SaleStatus = "Payment Pending"
)

const (
	DesignDesigning DesignStatus = "Designing"
	DesignStitching DesignStatus = "Stitching"
	DesignFinished  DesignStatus = "Finished"
	DesignSold      DesignStatus = "Sold"
)

type (
	PaymentMode  string
	SaleStatus   string
	DesignStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Paise int64
	}

	Sale struct {
		ID          string
		Items       string
		Price       Money
		Date        Date
		PaymentMode PaymentMode
		Status      SaleStatus
	}

	Expense struct {
		ID          string
		Description string
		Amount      Money
		Date        Date
		PaymentMode PaymentMode
	}

	TailoringOrder struct {
		ID           string
		Date         Date // booking date, buckets the advance into a month
		BillNo       string
		Customer     string
		Phone        string
		Type         string // work type
		TotalCost    Money
		Advance      Money
		Balance      Money
		DeliveryDate Date
		PaymentMode  PaymentMode
		Status       OrderStatus
	}

	Design struct {
		ID           string
		Name         string
		ImageURL     string
		MaterialCost Money
		LaborCost    Money
		TotalCost    Money
		SellingPrice Money
		StartDate    Date
		EndDate      Date // zero when the design is still open
		Status       DesignStatus
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrAmountTooLarge     = errors.New("amount is too large")
	ErrPaymentExceedsCost = errors.New("total paid exceeds total cost")
	ErrEndBeforeStart     = errors.New("end date is before start date")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether an optional date was left unset.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Paise < 0 {
		return ErrNegativeAmount
	}
	if m.Paise > MaxAmountPaise {
		return ErrAmountTooLarge
	}
	return nil
}

func (p PaymentMode) IsValid() bool {
	switch p {
	case Cash, Card, UPI, Other:
		return true
	}
	return false
}

func (s SaleStatus) IsValid() bool {
	return s == SaleDone || s == SalePaymentPending
}

func (s DesignStatus) IsValid() bool {
	switch s {
	case DesignDesigning, DesignStitching, DesignFinished, DesignSold:
		return true
	}
	return false
}

// Validate checks a sale; an empty status is filled with Done first.
func (s *Sale) Validate() error {
	if s.Status == "" {
		s.Status = SaleDone
	}
	fe := FieldErrors{}
	fe.MinLen("items", s.Items, 2)
	fe.Amount("price", s.Price)
	fe.Date("date", s.Date)
	fe.Check("paymentMode", s.PaymentMode.IsValid(), "invalid payment mode")
	fe.Check("status", s.Status.IsValid(), "invalid status")
	return fe.Err()
}

func (e Expense) Validate() error {
	fe := FieldErrors{}
	fe.MinLen("description", e.Description, 2)
	fe.Amount("amount", e.Amount)
	fe.Date("date", e.Date)
	fe.Check("paymentMode", e.PaymentMode.IsValid(), "invalid payment mode")
	return fe.Err()
}

// Validate checks a new order. An empty status becomes ToDo and the balance
// is derived from total cost and advance.
func (o *TailoringOrder) Validate() error {
	if o.Status == "" {
		o.Status = ToDo
	}
	fe := FieldErrors{}
	fe.Date("date", o.Date)
	fe.Check("billNo", strings.TrimSpace(o.BillNo) != "", "bill number is required")
	fe.MinLen("customer", o.Customer, 2)
	fe.MinLen("phone", o.Phone, 10)
	fe.MinLen("type", o.Type, 2)
	fe.Amount("totalCost", o.TotalCost)
	fe.Amount("advance", o.Advance)
	fe.Date("deliveryDate", o.DeliveryDate)
	fe.Check("paymentMode", o.PaymentMode.IsValid(), "invalid payment mode")
	fe.Check("status", o.Status.IsValid(), "invalid status")
	if _, ok := fe["advance"]; !ok {
		balance, err := OrderBalance(o.TotalCost, o.Advance, Money{})
		if err != nil {
			fe.Add("advance", err.Error())
		} else {
			o.Balance = balance
		}
	}
	return fe.Err()
}

// Validate checks a new design and stamps its total cost.
func (d *Design) Validate() error {
	fe := FieldErrors{}
	fe.MinLen("name", d.Name, 2)
	if d.ImageURL != "" && !validImageURL(d.ImageURL) {
		fe.Add("imageUrl", "must be a valid URL")
	}
	fe.Amount("materialCost", d.MaterialCost)
	fe.Amount("laborCost", d.LaborCost)
	fe.Amount("sellingPrice", d.SellingPrice)
	fe.Date("startDate", d.StartDate)
	if !d.EndDate.IsEmpty() && !d.StartDate.IsEmpty() && d.EndDate.Before(d.StartDate.Time) {
		fe.Add("endDate", ErrEndBeforeStart.Error())
	}
	fe.Check("status", d.Status.IsValid(), "invalid status")
	d.TotalCost = DesignTotalCost(d.MaterialCost, d.LaborCost)
	return fe.Err()
}

func validImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
