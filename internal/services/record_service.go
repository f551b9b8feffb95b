package services

import (
	"context"
	"errors"
	"fmt"

	"boutique/internal/amqp"
	"boutique/internal/core"
	"boutique/internal/log"
	"boutique/internal/storage"
)

// ErrPersistence marks a write the backend refused. The record was not
// stored and the cache is untouched.
var ErrPersistence = errors.New("persistence failure")

// ErrOrderNotFound is returned when an update names an unknown order.
var ErrOrderNotFound = errors.New("tailoring order not found")

// ErrOrderConflict is returned when the stored order kept moving under an
// update, which only happens when another process writes the same backend.
var ErrOrderConflict = errors.New("tailoring order changed concurrently")

// PersistenceError carries the message shown to the user alongside the
// backend cause.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string { return e.Message }

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

func persistenceError(msg string, err error) error {
	return &PersistenceError{Message: msg, Err: err}
}

// Publisher announces stored records to the sync worker.
type Publisher interface {
	PublishRecordSync(ctx context.Context, collection core.Collection, id, op string) error
}

// Cache is the part of the record store the service writes to.
type Cache interface {
	PutSale(core.Sale)
	PutExpense(core.Expense)
	PutOrder(core.TailoringOrder)
	PutDesign(core.Design)
	ReplaceOrder(id string, u core.OrderUpdate) bool
	Order(id string) (core.TailoringOrder, bool)
}

// RecordService runs every write: validate, persist, cache, publish.
type RecordService struct {
	repo      storage.Repository
	cache     Cache
	publisher Publisher
	logger    *log.Logger
	events    *log.StructuredLogger
	orders    orderLocks
}

// NewRecordService wires the write path. publisher may be nil when AMQP is
// not configured.
func NewRecordService(repo storage.Repository, cache Cache, publisher Publisher, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RecordService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		events:    log.NewStructuredLogger(logger),
	}
}

func (s *RecordService) AddSale(ctx context.Context, sale core.Sale) (core.Sale, error) {
	if err := sale.Validate(); err != nil {
		return core.Sale{}, err
	}
	id, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return core.Sale{}, s.failed(ctx, core.CollectionSales, log.OpCreate, "failed to add sale", err)
	}
	sale.ID = id
	s.cache.PutSale(sale)
	s.created(ctx, core.CollectionSales, id, sale.Price)
	return sale, nil
}

func (s *RecordService) AddExpense(ctx context.Context, expense core.Expense) (core.Expense, error) {
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}
	id, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, s.failed(ctx, core.CollectionExpenses, log.OpCreate, "failed to add expense", err)
	}
	expense.ID = id
	s.cache.PutExpense(expense)
	s.created(ctx, core.CollectionExpenses, id, expense.Amount)
	return expense, nil
}

// AddOrder stores a new order with status To Do (unless given) and its
// balance derived from total cost and advance.
func (s *RecordService) AddOrder(ctx context.Context, order core.TailoringOrder) (core.TailoringOrder, error) {
	if err := order.Validate(); err != nil {
		return core.TailoringOrder{}, err
	}
	id, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return core.TailoringOrder{}, s.failed(ctx, core.CollectionOrders, log.OpCreate, "failed to add tailoring order", err)
	}
	order.ID = id
	s.cache.PutOrder(order)
	s.created(ctx, core.CollectionOrders, id, order.Advance)
	return order, nil
}

// UpdateOrder records a payment and optionally moves the order to a new
// status. An empty status keeps the current one. Updates to one order are
// applied one at a time, and the backend write only lands if the stored
// advance is still the one the payment was added to.
func (s *RecordService) UpdateOrder(ctx context.Context, id string, paymentReceived core.Money, status core.OrderStatus) (core.TailoringOrder, error) {
	unlock := s.orders.lock(id)
	defer unlock()

	current, ok := s.cache.Order(id)
	if !ok {
		o, err := s.fetchOrder(ctx, id)
		if err != nil {
			return core.TailoringOrder{}, err
		}
		current = o
	}

	for attempt := 0; ; attempt++ {
		upd, err := core.ApplyPayment(current, paymentReceived, status)
		if err != nil {
			return core.TailoringOrder{}, err
		}
		err = s.repo.UpdateOrder(ctx, id, upd)
		switch {
		case err == nil:
			return s.orderUpdated(ctx, id, current, upd, paymentReceived), nil
		case errors.Is(err, storage.ErrNotFound):
			return core.TailoringOrder{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		case errors.Is(err, storage.ErrConflict) && attempt == 0:
			// the cached copy is stale; redo the payment against the stored order
			s.logger.WarnContext(ctx, "Tailoring order changed in the backend, retrying",
				log.FieldRecordID, id)
			fresh, ferr := s.fetchOrder(ctx, id)
			if ferr != nil {
				return core.TailoringOrder{}, ferr
			}
			s.cacheOrder(fresh)
			current = fresh
		case errors.Is(err, storage.ErrConflict):
			return core.TailoringOrder{}, fmt.Errorf("%w: %s", ErrOrderConflict, id)
		default:
			return core.TailoringOrder{}, s.failed(ctx, core.CollectionOrders, log.OpUpdate, "failed to update tailoring order", err)
		}
	}
}

func (s *RecordService) fetchOrder(ctx context.Context, id string) (core.TailoringOrder, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.TailoringOrder{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if err != nil {
		return core.TailoringOrder{}, s.failed(ctx, core.CollectionOrders, log.OpUpdate, "failed to update tailoring order", err)
	}
	return o, nil
}

// cacheOrder overwrites the cached copy of o, adding it when missing.
func (s *RecordService) cacheOrder(o core.TailoringOrder) {
	if !s.cache.ReplaceOrder(o.ID, core.OrderUpdate{Advance: &o.Advance, Balance: &o.Balance, Status: &o.Status}) {
		s.cache.PutOrder(o)
	}
}

func (s *RecordService) orderUpdated(ctx context.Context, id string, current core.TailoringOrder, upd core.OrderUpdate, paymentReceived core.Money) core.TailoringOrder {
	updated := upd.Apply(current)
	if !s.cache.ReplaceOrder(id, upd) {
		s.cache.PutOrder(updated)
	}
	s.logger.InfoContext(ctx, "Tailoring order updated",
		log.NewFields().
			WithRecord(string(core.CollectionOrders), id).
			WithAmount(paymentReceived.Paise).
			WithOperation(log.OpUpdate).
			ToSlice()...)
	s.publish(ctx, core.CollectionOrders, id, amqp.OpUpdate)
	return updated
}

// AddDesign stores a design with its total cost fixed at material + labor.
func (s *RecordService) AddDesign(ctx context.Context, design core.Design) (core.Design, error) {
	if err := design.Validate(); err != nil {
		return core.Design{}, err
	}
	id, err := s.repo.CreateDesign(ctx, design)
	if err != nil {
		return core.Design{}, s.failed(ctx, core.CollectionDesigns, log.OpCreate, "failed to add design", err)
	}
	design.ID = id
	s.cache.PutDesign(design)
	s.created(ctx, core.CollectionDesigns, id, design.TotalCost)
	return design, nil
}

func (s *RecordService) created(ctx context.Context, c core.Collection, id string, amount core.Money) {
	s.events.LogRecordCreated(ctx, string(c), id, amount.Paise)
	s.publish(ctx, c, id, amqp.OpCreate)
}

func (s *RecordService) failed(ctx context.Context, c core.Collection, op, msg string, err error) error {
	s.events.LogError(ctx, msg, err, log.ComponentLedger, op,
		log.NewFields().WithRecord(string(c), ""))
	return persistenceError(msg, err)
}

// publish never fails the write; the periodic sweep picks up anything the
// broker missed.
func (s *RecordService) publish(ctx context.Context, c core.Collection, id, op string) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP not configured, skipping sync message", log.FieldRecordID, id)
		return
	}
	if err := s.publisher.PublishRecordSync(ctx, c, id, op); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish sync message",
			log.FieldCollection, string(c),
			log.FieldRecordID, id,
			log.FieldError, err)
	}
}
