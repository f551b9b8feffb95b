// Package storage defines the persistence port for the four ledgers and its
// SQLite implementation.
package storage

import (
	"context"
	"errors"
	"fmt"

	"boutique/internal/core"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidOrderBy = errors.New("invalid order by field")
	// ErrConflict means a conditional update found the record already changed.
	ErrConflict = errors.New("record changed since it was read")
)

// ListOptions selects the ordering of a list call.
type ListOptions struct {
	OrderBy string
	Desc    bool
}

// DefaultListOptions is the cache ordering: the collection's date field, newest first.
func DefaultListOptions(c core.Collection) ListOptions {
	return ListOptions{OrderBy: c.SortField(), Desc: true}
}

// Writer creates records and applies the one supported update.
type Writer interface {
	CreateSale(ctx context.Context, s core.Sale) (string, error)
	CreateExpense(ctx context.Context, e core.Expense) (string, error)
	CreateOrder(ctx context.Context, o core.TailoringOrder) (string, error)
	CreateDesign(ctx context.Context, d core.Design) (string, error)
	UpdateOrder(ctx context.Context, id string, u core.OrderUpdate) error
}

// Lister returns whole collections in the requested order.
type Lister interface {
	ListSales(ctx context.Context, opts ListOptions) ([]core.Sale, error)
	ListExpenses(ctx context.Context, opts ListOptions) ([]core.Expense, error)
	ListOrders(ctx context.Context, opts ListOptions) ([]core.TailoringOrder, error)
	ListDesigns(ctx context.Context, opts ListOptions) ([]core.Design, error)
}

// Reader fetches single records by id.
type Reader interface {
	GetSale(ctx context.Context, id string) (core.Sale, error)
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetOrder(ctx context.Context, id string) (core.TailoringOrder, error)
	GetDesign(ctx context.Context, id string) (core.Design, error)
}

// SyncTracker records which rows have been mirrored to the spreadsheet.
type SyncTracker interface {
	PendingSync(ctx context.Context, c core.Collection, limit int) ([]string, error)
	MarkSynced(ctx context.Context, c core.Collection, id string) error
}

// Repository is everything a backend provides.
type Repository interface {
	Writer
	Lister
	Reader
	SyncTracker
	Close() error
}

var orderColumns = map[core.Collection]map[string]string{
	core.CollectionSales: {
		"date":  "date",
		"price": "price_paise",
	},
	core.CollectionExpenses: {
		"date":   "date",
		"amount": "amount_paise",
	},
	core.CollectionOrders: {
		"date":         "date",
		"deliveryDate": "delivery_date",
		"totalCost":    "total_cost_paise",
		"balance":      "balance_paise",
	},
	core.CollectionDesigns: {
		"startDate": "start_date",
		"endDate":   "end_date",
		"totalCost": "total_cost_paise",
	},
}

// OrderColumn maps an API field name to its column for c. An empty field
// selects the collection's default sort field.
func OrderColumn(c core.Collection, field string) (string, error) {
	if field == "" {
		field = c.SortField()
	}
	col, ok := orderColumns[c][field]
	if !ok {
		return "", fmt.Errorf("%w: %q for %s", ErrInvalidOrderBy, field, c)
	}
	return col, nil
}
