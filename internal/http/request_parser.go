// Package http provides HTTP server and handler implementations.
//
// This file decodes JSON request bodies into form structs, validates them
// and converts them into records.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"boutique/internal/core"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// amountField accepts an amount as a JSON number or a string such as
// "1250,50".
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountField(n)
	return nil
}

type saleForm struct {
	Items       string      `json:"items" validate:"required"`
	Price       amountField `json:"price" validate:"required"`
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	PaymentMode string      `json:"paymentMode" validate:"required"`
	Status      string      `json:"status"`
}

type expenseForm struct {
	Description string      `json:"description" validate:"required"`
	Amount      amountField `json:"amount" validate:"required"`
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	PaymentMode string      `json:"paymentMode" validate:"required"`
}

type orderForm struct {
	Date         string      `json:"date" validate:"required,datetime=2006-01-02"`
	BillNo       string      `json:"billNo" validate:"required"`
	Customer     string      `json:"customer" validate:"required"`
	Phone        string      `json:"phone" validate:"required"`
	Type         string      `json:"type" validate:"required"`
	TotalCost    amountField `json:"totalCost" validate:"required"`
	Advance      amountField `json:"advance"`
	DeliveryDate string      `json:"deliveryDate" validate:"required,datetime=2006-01-02"`
	PaymentMode  string      `json:"paymentMode" validate:"required"`
	Status       string      `json:"status"`
}

type orderUpdateForm struct {
	PaymentReceived amountField `json:"paymentReceived"`
	Status          string      `json:"status"`
}

type designForm struct {
	Name         string      `json:"name" validate:"required"`
	ImageURL     string      `json:"imageUrl"`
	MaterialCost amountField `json:"materialCost" validate:"required"`
	LaborCost    amountField `json:"laborCost" validate:"required"`
	SellingPrice amountField `json:"sellingPrice" validate:"required"`
	StartDate    string      `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      string      `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Status       string      `json:"status" validate:"required"`
}

type loginForm struct {
	Role     string `json:"role" validate:"required,oneof=owner staff"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// errMalformedBody is answered with 400; everything else in decodeForm is a 422.
var errMalformedBody = errors.New("malformed JSON body")

// decodeForm reads r's JSON body into dst and runs the struct validation.
// It returns errMalformedBody or core.FieldErrors.
func decodeForm(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		fe := core.FieldErrors{}
		for _, e := range ve {
			fe.Add(e.Field(), message(e))
		}
		return fe
	}
	return nil
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date (YYYY-MM-DD)"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	}
	return "is invalid"
}

// formParser accumulates conversion errors while turning form strings into
// typed values.
type formParser struct {
	fe core.FieldErrors
}

func newFormParser() *formParser {
	return &formParser{fe: core.FieldErrors{}}
}

func (p *formParser) amount(field string, v amountField) core.Money {
	if v == "" {
		return core.Money{}
	}
	paise, err := core.ParseAmount(string(v))
	if err != nil {
		p.fe.Add(field, "must be a valid amount")
		return core.Money{}
	}
	return core.Money{Paise: paise}
}

func (p *formParser) date(field, v string) core.Date {
	if v == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(v)
	if err != nil {
		p.fe.Add(field, "must be a date (YYYY-MM-DD)")
	}
	return d
}

// err reports the parse failures. When there are any, the record's own
// checks run too so the answer lists every bad field at once; a field that
// failed to parse keeps the parse message. A clean parse is left for the
// service to validate.
func (p *formParser) err(validate func() error) error {
	if len(p.fe) == 0 {
		return nil
	}
	var fe core.FieldErrors
	if validate != nil && errors.As(validate(), &fe) {
		for field, msg := range fe {
			p.fe.Add(field, msg)
		}
	}
	return p.fe.Err()
}

func (f saleForm) record() (core.Sale, error) {
	p := newFormParser()
	s := core.Sale{
		Items:       sanitizeInput(f.Items),
		Price:       p.amount("price", f.Price),
		Date:        p.date("date", f.Date),
		PaymentMode: core.PaymentMode(f.PaymentMode),
		Status:      core.SaleStatus(f.Status),
	}
	return s, p.err(func() error { c := s; return c.Validate() })
}

func (f expenseForm) record() (core.Expense, error) {
	p := newFormParser()
	e := core.Expense{
		Description: sanitizeInput(f.Description),
		Amount:      p.amount("amount", f.Amount),
		Date:        p.date("date", f.Date),
		PaymentMode: core.PaymentMode(f.PaymentMode),
	}
	return e, p.err(e.Validate)
}

func (f orderForm) record() (core.TailoringOrder, error) {
	p := newFormParser()
	o := core.TailoringOrder{
		Date:         p.date("date", f.Date),
		BillNo:       sanitizeInput(f.BillNo),
		Customer:     sanitizeInput(f.Customer),
		Phone:        sanitizeInput(f.Phone),
		Type:         sanitizeInput(f.Type),
		TotalCost:    p.amount("totalCost", f.TotalCost),
		Advance:      p.amount("advance", f.Advance),
		DeliveryDate: p.date("deliveryDate", f.DeliveryDate),
		PaymentMode:  core.PaymentMode(f.PaymentMode),
		Status:       core.OrderStatus(f.Status),
	}
	return o, p.err(func() error { c := o; return c.Validate() })
}

func (f orderUpdateForm) values() (core.Money, core.OrderStatus, error) {
	p := newFormParser()
	payment := p.amount("paymentReceived", f.PaymentReceived)
	return payment, core.OrderStatus(f.Status), p.err(nil)
}

func (f designForm) record() (core.Design, error) {
	p := newFormParser()
	d := core.Design{
		Name:         sanitizeInput(f.Name),
		ImageURL:     strings.TrimSpace(f.ImageURL),
		MaterialCost: p.amount("materialCost", f.MaterialCost),
		LaborCost:    p.amount("laborCost", f.LaborCost),
		SellingPrice: p.amount("sellingPrice", f.SellingPrice),
		StartDate:    p.date("startDate", f.StartDate),
		EndDate:      p.date("endDate", f.EndDate),
		Status:       core.DesignStatus(f.Status),
	}
	return d, p.err(func() error { c := d; return c.Validate() })
}
