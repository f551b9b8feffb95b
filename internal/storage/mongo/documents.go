package mongo

import (
	"time"

	"boutique/internal/core"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type saleDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Items       string             `bson:"items"`
	Price       int64              `bson:"price"`
	Date        time.Time          `bson:"date"`
	PaymentMode string             `bson:"paymentMode"`
	Status      string             `bson:"status"`
	SyncedAt    *time.Time         `bson:"syncedAt"`
}

type expenseDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Description string             `bson:"description"`
	Amount      int64              `bson:"amount"`
	Date        time.Time          `bson:"date"`
	PaymentMode string             `bson:"paymentMode"`
	SyncedAt    *time.Time         `bson:"syncedAt"`
}

type orderDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Date         time.Time          `bson:"date"`
	BillNo       string             `bson:"billNo"`
	Customer     string             `bson:"customer"`
	Phone        string             `bson:"phone"`
	Type         string             `bson:"type"`
	TotalCost    int64              `bson:"totalCost"`
	Advance      int64              `bson:"advance"`
	Balance      int64              `bson:"balance"`
	DeliveryDate time.Time          `bson:"deliveryDate"`
	PaymentMode  string             `bson:"paymentMode"`
	Status       string             `bson:"status"`
	SyncedAt     *time.Time         `bson:"syncedAt"`
}

type designDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	ImageURL     string             `bson:"imageUrl"`
	MaterialCost int64              `bson:"materialCost"`
	LaborCost    int64              `bson:"laborCost"`
	TotalCost    int64              `bson:"totalCost"`
	SellingPrice int64              `bson:"sellingPrice"`
	StartDate    time.Time          `bson:"startDate"`
	EndDate      *time.Time         `bson:"endDate,omitempty"`
	Status       string             `bson:"status"`
	SyncedAt     *time.Time         `bson:"syncedAt"`
}

func day(t time.Time) core.Date {
	y, m, d := t.UTC().Date()
	return core.NewDate(y, int(m), d)
}

func newSaleDoc(s core.Sale) saleDoc {
	return saleDoc{
		Items:       s.Items,
		Price:       s.Price.Paise,
		Date:        s.Date.Time,
		PaymentMode: string(s.PaymentMode),
		Status:      string(s.Status),
	}
}

func (d saleDoc) record() core.Sale {
	return core.Sale{
		ID:          d.ID.Hex(),
		Items:       d.Items,
		Price:       core.Money{Paise: d.Price},
		Date:        day(d.Date),
		PaymentMode: core.PaymentMode(d.PaymentMode),
		Status:      core.SaleStatus(d.Status),
	}
}

func newExpenseDoc(e core.Expense) expenseDoc {
	return expenseDoc{
		Description: e.Description,
		Amount:      e.Amount.Paise,
		Date:        e.Date.Time,
		PaymentMode: string(e.PaymentMode),
	}
}

func (d expenseDoc) record() core.Expense {
	return core.Expense{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Amount:      core.Money{Paise: d.Amount},
		Date:        day(d.Date),
		PaymentMode: core.PaymentMode(d.PaymentMode),
	}
}

func newOrderDoc(o core.TailoringOrder) orderDoc {
	return orderDoc{
		Date:         o.Date.Time,
		BillNo:       o.BillNo,
		Customer:     o.Customer,
		Phone:        o.Phone,
		Type:         o.Type,
		TotalCost:    o.TotalCost.Paise,
		Advance:      o.Advance.Paise,
		Balance:      o.Balance.Paise,
		DeliveryDate: o.DeliveryDate.Time,
		PaymentMode:  string(o.PaymentMode),
		Status:       string(o.Status),
	}
}

func (d orderDoc) record() core.TailoringOrder {
	return core.TailoringOrder{
		ID:           d.ID.Hex(),
		Date:         day(d.Date),
		BillNo:       d.BillNo,
		Customer:     d.Customer,
		Phone:        d.Phone,
		Type:         d.Type,
		TotalCost:    core.Money{Paise: d.TotalCost},
		Advance:      core.Money{Paise: d.Advance},
		Balance:      core.Money{Paise: d.Balance},
		DeliveryDate: day(d.DeliveryDate),
		PaymentMode:  core.PaymentMode(d.PaymentMode),
		Status:       core.OrderStatus(d.Status),
	}
}

func newDesignDoc(d core.Design) designDoc {
	doc := designDoc{
		Name:         d.Name,
		ImageURL:     d.ImageURL,
		MaterialCost: d.MaterialCost.Paise,
		LaborCost:    d.LaborCost.Paise,
		TotalCost:    d.TotalCost.Paise,
		SellingPrice: d.SellingPrice.Paise,
		StartDate:    d.StartDate.Time,
		Status:       string(d.Status),
	}
	if !d.EndDate.IsEmpty() {
		end := d.EndDate.Time
		doc.EndDate = &end
	}
	return doc
}

func (d designDoc) record() core.Design {
	out := core.Design{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		ImageURL:     d.ImageURL,
		MaterialCost: core.Money{Paise: d.MaterialCost},
		LaborCost:    core.Money{Paise: d.LaborCost},
		TotalCost:    core.Money{Paise: d.TotalCost},
		SellingPrice: core.Money{Paise: d.SellingPrice},
		StartDate:    day(d.StartDate),
		Status:       core.DesignStatus(d.Status),
	}
	if d.EndDate != nil {
		out.EndDate = day(*d.EndDate)
	}
	return out
}
