package core

// Collection names one of the four ledgers.
type Collection string

const (
	CollectionSales    Collection = "sales"
	CollectionExpenses Collection = "expenses"
	CollectionOrders   Collection = "tailoringOrders"
	CollectionDesigns  Collection = "designs"
)

// Collections lists every ledger in load order.
var Collections = []Collection{CollectionSales, CollectionExpenses, CollectionOrders, CollectionDesigns}

func (c Collection) IsValid() bool {
	switch c {
	case CollectionSales, CollectionExpenses, CollectionOrders, CollectionDesigns:
		return true
	}
	return false
}

// SortField is the date field a collection is kept ordered by, newest first.
func (c Collection) SortField() string {
	switch c {
	case CollectionOrders:
		return "deliveryDate"
	case CollectionDesigns:
		return "startDate"
	default:
		return "date"
	}
}

// Noun is the singular used in user-facing messages.
func (c Collection) Noun() string {
	switch c {
	case CollectionSales:
		return "sale"
	case CollectionExpenses:
		return "expense"
	case CollectionOrders:
		return "tailoring order"
	case CollectionDesigns:
		return "design"
	}
	return string(c)
}
