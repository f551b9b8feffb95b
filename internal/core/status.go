package core

import "fmt"

const (
	ToDo               OrderStatus = "To Do"
	InProgress         OrderStatus = "In Progress"
	Blocked            OrderStatus = "Blocked"
	Completed          OrderStatus = "Completed"
	Canceled           OrderStatus = "Canceled"
	DonePaymentPending OrderStatus = "Done – Payment Pending"
)

// OrderStatus is the lifecycle state of a tailoring order.
type OrderStatus string

// OrderStatuses lists every order state in display order.
var OrderStatuses = []OrderStatus{ToDo, InProgress, Blocked, Completed, Canceled, DonePaymentPending}

// OrderTransitions is the allowed-transitions table. Every state may move to
// every other state; Completed and Canceled are terminal only by convention.
var OrderTransitions = func() map[OrderStatus][]OrderStatus {
	t := make(map[OrderStatus][]OrderStatus, len(OrderStatuses))
	for _, from := range OrderStatuses {
		for _, to := range OrderStatuses {
			if from != to {
				t[from] = append(t[from], to)
			}
		}
	}
	return t
}()

func (s OrderStatus) IsValid() bool {
	_, ok := OrderTransitions[s]
	return ok
}

// IsTerminal reports the conventional end states.
func (s OrderStatus) IsTerminal() bool {
	return s == Completed || s == Canceled
}

// CanTransition reports whether an order may move from one state to another.
// Staying in the same state is always allowed.
func CanTransition(from, to OrderStatus) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
	}
	if from == to {
		return nil
	}
	for _, next := range OrderTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
}
