// Package store holds the in-memory copy of the four record collections that
// the API serves from. Each collection is kept sorted newest first and is only
// written through the Store methods.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"boutique/internal/core"
	"boutique/internal/log"
	"boutique/internal/storage"

	"golang.org/x/sync/errgroup"
)

type collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	compare func(a, b T) int
}

func newCollection[T any](compare func(a, b T) int) *collection[T] {
	return &collection[T]{compare: compare}
}

func (c *collection[T]) put(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// prepend so a new record sorts ahead of older ones with the same date
	c.items = append([]T{item}, c.items...)
	slices.SortStableFunc(c.items, c.compare)
}

func (c *collection[T]) replace(items []T) {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, c.compare)
	c.mu.Lock()
	c.items = sorted
	c.mu.Unlock()
}

func (c *collection[T]) update(match func(T) bool, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.items, match)
	if i < 0 {
		return false
	}
	c.items[i] = fn(c.items[i])
	slices.SortStableFunc(c.items, c.compare)
	return true
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *collection[T]) find(match func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := slices.IndexFunc(c.items, match)
	if i < 0 {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

func newestFirst(a, b core.Date) int { return b.Compare(a.Time) }

// Store is the owned record cache.
type Store struct {
	sales    *collection[core.Sale]
	expenses *collection[core.Expense]
	orders   *collection[core.TailoringOrder]
	designs  *collection[core.Design]

	loading atomic.Int32
	loaded  atomic.Bool
	logger  *log.Logger
}

func New(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{
		sales:    newCollection(func(a, b core.Sale) int { return newestFirst(a.Date, b.Date) }),
		expenses: newCollection(func(a, b core.Expense) int { return newestFirst(a.Date, b.Date) }),
		orders:   newCollection(func(a, b core.TailoringOrder) int { return newestFirst(a.DeliveryDate, b.DeliveryDate) }),
		designs:  newCollection(func(a, b core.Design) int { return newestFirst(a.StartDate, b.StartDate) }),
		logger:   logger.WithComponent(log.ComponentStore),
	}
}

func (s *Store) PutSale(r core.Sale) { s.sales.put(r) }
func (s *Store) PutExpense(r core.Expense) { s.expenses.put(r) }
func (s *Store) PutOrder(r core.TailoringOrder) { s.orders.put(r) }
func (s *Store) PutDesign(r core.Design) { s.designs.put(r) }
func (s *Store) ReplaceSales(rs []core.Sale) { s.sales.replace(rs) }
func (s *Store) ReplaceExpenses(rs []core.Expense) { s.expenses.replace(rs) }
func (s *Store) ReplaceOrders(rs []core.TailoringOrder) { s.orders.replace(rs) }
func (s *Store) ReplaceDesigns(rs []core.Design) { s.designs.replace(rs) }

// ReplaceOrder applies an update to the cached order with the given id.
// It reports false when the order is not cached.
func (s *Store) ReplaceOrder(id string, u core.OrderUpdate) bool {
	return s.orders.update(
		func(o core.TailoringOrder) bool { return o.ID == id },
		u.Apply,
	)
}

func (s *Store) Sales() []core.Sale { return s.sales.snapshot() }
func (s *Store) Expenses() []core.Expense { return s.expenses.snapshot() }
func (s *Store) Orders() []core.TailoringOrder { return s.orders.snapshot() }
func (s *Store) Designs() []core.Design { return s.designs.snapshot() }

func (s *Store) Order(id string) (core.TailoringOrder, bool) {
	return s.orders.find(func(o core.TailoringOrder) bool { return o.ID == id })
}

// Loading reports whether the store has yet to finish its first Load, or
// has a Load in flight.
func (s *Store) Loading() bool {
	return !s.loaded.Load() || s.loading.Load() > 0
}

// Load fetches the four collections concurrently. Each collection is
// replaced as soon as its fetch succeeds; a failed fetch keeps whatever the
// collection held before. The returned error joins every fetch failure.
func (s *Store) Load(ctx context.Context, lister storage.Lister) error {
	s.loading.Add(1)
	defer func() {
		s.loaded.Store(true)
		s.loading.Add(-1)
	}()

	errs := make([]error, len(core.Collections))
	var g errgroup.Group
	for i, c := range core.Collections {
		g.Go(func() error {
			if err := s.loadOne(ctx, lister, c); err != nil {
				s.logger.ErrorContext(ctx, "Failed to load collection",
					log.FieldCollection, string(c),
					log.FieldOperation, log.OpLoad,
					log.FieldError, err)
				errs[i] = fmt.Errorf("load %s: %w", c, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	if err == nil {
		s.logger.InfoContext(ctx, "Store loaded",
			"sales", len(s.Sales()),
			"expenses", len(s.Expenses()),
			"orders", len(s.Orders()),
			"designs", len(s.Designs()))
	}
	return err
}

func (s *Store) loadOne(ctx context.Context, lister storage.Lister, c core.Collection) error {
	opts := storage.DefaultListOptions(c)
	switch c {
	case core.CollectionSales:
		rs, err := lister.ListSales(ctx, opts)
		if err != nil {
			return err
		}
		s.ReplaceSales(rs)
	case core.CollectionExpenses:
		rs, err := lister.ListExpenses(ctx, opts)
		if err != nil {
			return err
		}
		s.ReplaceExpenses(rs)
	case core.CollectionOrders:
		rs, err := lister.ListOrders(ctx, opts)
		if err != nil {
			return err
		}
		s.ReplaceOrders(rs)
	case core.CollectionDesigns:
		rs, err := lister.ListDesigns(ctx, opts)
		if err != nil {
			return err
		}
		s.ReplaceDesigns(rs)
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	return nil
}

// Reset drops every cached record.
func (s *Store) Reset() {
	s.sales.replace(nil)
	s.expenses.replace(nil)
	s.orders.replace(nil)
	s.designs.replace(nil)
}
