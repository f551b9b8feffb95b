// Package memory is a process-local backend for development and tests,
// optionally seeded from a YAML file.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"boutique/internal/core"
	"boutique/internal/storage"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Store struct {
	mu       sync.Mutex
	sales    []core.Sale
	expenses []core.Expense
	orders   []core.TailoringOrder
	designs  []core.Design
	synced   map[core.Collection]map[string]bool
	// pending keeps insertion order of records awaiting sync
	pending map[core.Collection][]string
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		synced:  make(map[core.Collection]map[string]bool),
		pending: make(map[core.Collection][]string),
	}
}

// NewFromFile builds a store holding the records listed in a YAML seed file.
// Seeded records count as already synced.
func NewFromFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	s := New()
	if err := s.apply(seed); err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) apply(seed Seed) error {
	for i, in := range seed.Sales {
		rec, err := in.record()
		if err != nil {
			return fmt.Errorf("sales[%d]: %w", i, err)
		}
		rec.ID = s.newID(core.CollectionSales, true)
		s.sales = append(s.sales, rec)
	}
	for i, in := range seed.Expenses {
		rec, err := in.record()
		if err != nil {
			return fmt.Errorf("expenses[%d]: %w", i, err)
		}
		rec.ID = s.newID(core.CollectionExpenses, true)
		s.expenses = append(s.expenses, rec)
	}
	for i, in := range seed.Orders {
		rec, err := in.record()
		if err != nil {
			return fmt.Errorf("tailoringOrders[%d]: %w", i, err)
		}
		rec.ID = s.newID(core.CollectionOrders, true)
		s.orders = append(s.orders, rec)
	}
	for i, in := range seed.Designs {
		rec, err := in.record()
		if err != nil {
			return fmt.Errorf("designs[%d]: %w", i, err)
		}
		rec.ID = s.newID(core.CollectionDesigns, true)
		s.designs = append(s.designs, rec)
	}
	return nil
}

// newID must be called with mu held (or before the store is shared).
func (s *Store) newID(c core.Collection, synced bool) string {
	id := uuid.NewString()
	if s.synced[c] == nil {
		s.synced[c] = make(map[string]bool)
	}
	s.synced[c][id] = synced
	if !synced {
		s.pending[c] = append(s.pending[c], id)
	}
	return id
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateSale(_ context.Context, rec core.Sale) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.newID(core.CollectionSales, false)
	s.sales = append(s.sales, rec)
	return rec.ID, nil
}

func (s *Store) CreateExpense(_ context.Context, rec core.Expense) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.newID(core.CollectionExpenses, false)
	s.expenses = append(s.expenses, rec)
	return rec.ID, nil
}

func (s *Store) CreateOrder(_ context.Context, rec core.TailoringOrder) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.newID(core.CollectionOrders, false)
	s.orders = append(s.orders, rec)
	return rec.ID, nil
}

func (s *Store) CreateDesign(_ context.Context, rec core.Design) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.newID(core.CollectionDesigns, false)
	s.designs = append(s.designs, rec)
	return rec.ID, nil
}

func (s *Store) UpdateOrder(_ context.Context, id string, u core.OrderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			if u.IfAdvance != nil && s.orders[i].Advance != *u.IfAdvance {
				return fmt.Errorf("update tailoring order %s: %w", id, storage.ErrConflict)
			}
			s.orders[i] = u.Apply(s.orders[i])
			s.markPending(core.CollectionOrders, id)
			return nil
		}
	}
	return fmt.Errorf("update tailoring order %s: %w", id, storage.ErrNotFound)
}

func (s *Store) markPending(c core.Collection, id string) {
	if s.synced[c][id] {
		s.synced[c][id] = false
		s.pending[c] = append(s.pending[c], id)
	}
}

func (s *Store) ListSales(_ context.Context, opts storage.ListOptions) ([]core.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedCopy(s.sales, core.CollectionSales, opts, saleOrder)
}

func (s *Store) ListExpenses(_ context.Context, opts storage.ListOptions) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedCopy(s.expenses, core.CollectionExpenses, opts, expenseOrder)
}

func (s *Store) ListOrders(_ context.Context, opts storage.ListOptions) ([]core.TailoringOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedCopy(s.orders, core.CollectionOrders, opts, orderOrder)
}

func (s *Store) ListDesigns(_ context.Context, opts storage.ListOptions) ([]core.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedCopy(s.designs, core.CollectionDesigns, opts, designOrder)
}

func (s *Store) GetSale(_ context.Context, id string) (core.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.sales, id, func(r core.Sale) string { return r.ID })
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.expenses, id, func(r core.Expense) string { return r.ID })
}

func (s *Store) GetOrder(_ context.Context, id string) (core.TailoringOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.orders, id, func(r core.TailoringOrder) string { return r.ID })
}

func (s *Store) GetDesign(_ context.Context, id string) (core.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.designs, id, func(r core.Design) string { return r.ID })
}

func (s *Store) PendingSync(_ context.Context, c core.Collection, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, id := range s.pending[c] {
		if len(out) == limit {
			break
		}
		if !s.synced[c][id] && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, c core.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.synced[c][id]; !ok {
		return fmt.Errorf("mark synced %s/%s: %w", c, id, storage.ErrNotFound)
	}
	s.synced[c][id] = true
	s.pending[c] = slices.DeleteFunc(s.pending[c], func(p string) bool { return p == id })
	return nil
}

func find[T any](items []T, id string, key func(T) string) (T, error) {
	for _, it := range items {
		if key(it) == id {
			return it, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
}

type comparators[T any] map[string]func(a, b T) int

func sortedCopy[T any](items []T, c core.Collection, opts storage.ListOptions, cmps comparators[T]) ([]T, error) {
	field := opts.OrderBy
	if field == "" {
		field = c.SortField()
	}
	if _, err := storage.OrderColumn(c, field); err != nil {
		return nil, err
	}
	compare := cmps[field]
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		if opts.Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out, nil
}

func dates(a, b core.Date) int { return a.Compare(b.Time) }
func amounts(a, b core.Money) int { return cmp.Compare(a.Paise, b.Paise) }

var saleOrder = comparators[core.Sale]{
	"date":  func(a, b core.Sale) int { return dates(a.Date, b.Date) },
	"price": func(a, b core.Sale) int { return amounts(a.Price, b.Price) },
}

var expenseOrder = comparators[core.Expense]{
	"date":   func(a, b core.Expense) int { return dates(a.Date, b.Date) },
	"amount": func(a, b core.Expense) int { return amounts(a.Amount, b.Amount) },
}

var orderOrder = comparators[core.TailoringOrder]{
	"date":         func(a, b core.TailoringOrder) int { return dates(a.Date, b.Date) },
	"deliveryDate": func(a, b core.TailoringOrder) int { return dates(a.DeliveryDate, b.DeliveryDate) },
	"totalCost":    func(a, b core.TailoringOrder) int { return amounts(a.TotalCost, b.TotalCost) },
	"balance":      func(a, b core.TailoringOrder) int { return amounts(a.Balance, b.Balance) },
}

var designOrder = comparators[core.Design]{
	"startDate": func(a, b core.Design) int { return dates(a.StartDate, b.StartDate) },
	"endDate":   func(a, b core.Design) int { return dates(a.EndDate, b.EndDate) },
	"totalCost": func(a, b core.Design) int { return amounts(a.TotalCost, b.TotalCost) },
}
