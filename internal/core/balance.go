package core

// OrderBalance returns what is still owed on an order:
// max(0, totalCost - (advance + paymentReceived)).
// Paying more than the total cost is rejected with ErrPaymentExceedsCost;
// amounts outside 0..MaxAmountPaise are rejected before they are added.
func OrderBalance(totalCost, advance, paymentReceived Money) (Money, error) {
	for _, m := range []Money{totalCost, advance, paymentReceived} {
		if err := m.Validate(); err != nil {
			return Money{}, err
		}
	}
	paid := advance.Add(paymentReceived)
	if paid.Paise > totalCost.Paise {
		return Money{}, ErrPaymentExceedsCost
	}
	return Money{Paise: max(0, totalCost.Paise-paid.Paise)}, nil
}

// OrderUpdate is a partial change to a stored order. Nil fields are left as they are.
type OrderUpdate struct {
	Advance *Money
	Balance *Money
	Status  *OrderStatus

	// IfAdvance, when set, is the advance the update was computed from.
	// Backends refuse the write if the stored advance has moved since.
	IfAdvance *Money
}

// Apply returns a copy of o with the update merged in.
func (u OrderUpdate) Apply(o TailoringOrder) TailoringOrder {
	if u.Advance != nil {
		o.Advance = *u.Advance
	}
	if u.Balance != nil {
		o.Balance = *u.Balance
	}
	if u.Status != nil {
		o.Status = *u.Status
	}
	return o
}

// ApplyPayment captures a payment against an order. The payment is folded
// into the advance and the balance is recomputed; status moves to next when
// it is set.
func ApplyPayment(o TailoringOrder, paymentReceived Money, next OrderStatus) (OrderUpdate, error) {
	fe := FieldErrors{}
	fe.Amount("paymentReceived", paymentReceived)
	if next == "" {
		next = o.Status
	}
	if err := CanTransition(o.Status, next); err != nil {
		fe.Add("status", err.Error())
	}
	var balance Money
	if _, bad := fe["paymentReceived"]; !bad {
		b, err := OrderBalance(o.TotalCost, o.Advance, paymentReceived)
		if err != nil {
			fe.Add("paymentReceived", err.Error())
		}
		balance = b
	}
	if err := fe.Err(); err != nil {
		return OrderUpdate{}, err
	}
	advance := o.Advance.Add(paymentReceived)
	prev := o.Advance
	return OrderUpdate{Advance: &advance, Balance: &balance, Status: &next, IfAdvance: &prev}, nil
}

// DesignTotalCost is material plus labor, fixed when the design is recorded.
func DesignTotalCost(material, labor Money) Money {
	return material.Add(labor)
}
