package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"boutique/internal/core"
	"boutique/internal/storage"
)

const seedYAML = `
sales:
  - items: Silk saree
    price: "500"
    date: 2024-03-10
    paymentMode: UPI
  - items: Dupatta
    price: "120.50"
    date: 2024-04-02
    paymentMode: Cash
    status: Payment Pending
expenses:
  - description: Thread
    amount: "200"
    date: 2024-03-15
    paymentMode: Cash
tailoringOrders:
  - date: 2024-04-01
    billNo: B-1
    customer: Asha
    phone: "9876543210"
    type: Blouse
    totalCost: "800"
    advance: "300"
    deliveryDate: 2024-04-20
    paymentMode: Card
designs:
  - name: Lehenga
    materialCost: "1500"
    laborCost: "800"
    sellingPrice: "5000"
    startDate: 2024-02-01
    status: Designing
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestNewFromFileSeedsRecords(t *testing.T) {
	ctx := context.Background()
	s, err := NewFromFile(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}

	sales, _ := s.ListSales(ctx, storage.DefaultListOptions(core.CollectionSales))
	if len(sales) != 2 || sales[0].Items != "Dupatta" {
		t.Fatalf("unexpected sales: %+v", sales)
	}
	if sales[0].Price.Paise != 12050 || sales[1].Status != core.SaleDone {
		t.Fatalf("unexpected parsed sale values: %+v", sales)
	}

	orders, _ := s.ListOrders(ctx, storage.DefaultListOptions(core.CollectionOrders))
	if len(orders) != 1 || orders[0].Balance != core.Rupees(500) || orders[0].Status != core.ToDo {
		t.Fatalf("order balance/status not derived: %+v", orders)
	}

	designs, _ := s.ListDesigns(ctx, storage.DefaultListOptions(core.CollectionDesigns))
	if len(designs) != 1 || designs[0].TotalCost != core.Rupees(2300) {
		t.Fatalf("design total not derived: %+v", designs)
	}

	pending, _ := s.PendingSync(ctx, core.CollectionSales, 10)
	if len(pending) != 0 {
		t.Fatalf("seeded records should not be pending: %v", pending)
	}
}

func TestNewFromFileRejectsInvalidRecords(t *testing.T) {
	bad := "sales:\n  - items: x\n    price: \"-1\"\n    date: 2024-03-10\n    paymentMode: UPI\n"
	if _, err := NewFromFile(writeSeed(t, bad)); err == nil {
		t.Fatalf("expected error for invalid seed")
	}
	if _, err := NewFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestStoreCreateUpdateAndSync(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateOrder(ctx, core.TailoringOrder{
		Date: core.NewDate(2024, 4, 1), TotalCost: core.Rupees(100), Advance: core.Rupees(60),
		Balance: core.Rupees(40), DeliveryDate: core.NewDate(2024, 4, 9), Status: core.ToDo,
	})
	if err != nil || id == "" {
		t.Fatalf("create: id=%q err=%v", id, err)
	}

	pending, _ := s.PendingSync(ctx, core.CollectionOrders, 10)
	if len(pending) != 1 || pending[0] != id {
		t.Fatalf("expected new order pending, got %v", pending)
	}
	if err := s.MarkSynced(ctx, core.CollectionOrders, id); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	status := core.Completed
	if err := s.UpdateOrder(ctx, id, core.OrderUpdate{Status: &status}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetOrder(ctx, id)
	if got.Status != core.Completed || got.Advance != core.Rupees(60) {
		t.Fatalf("unexpected order after update: %+v", got)
	}
	pending, _ = s.PendingSync(ctx, core.CollectionOrders, 10)
	if len(pending) != 1 {
		t.Fatalf("updated order should be pending again, got %v", pending)
	}

	if err := s.UpdateOrder(ctx, "nope", core.OrderUpdate{Status: &status}); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestUpdateOrderChecksAdvance(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.CreateOrder(ctx, core.TailoringOrder{TotalCost: core.Rupees(100), Balance: core.Rupees(100), Status: core.ToDo})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	from, advance := core.Money{}, core.Rupees(60)
	if err := s.UpdateOrder(ctx, id, core.OrderUpdate{Advance: &advance, IfAdvance: &from}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	err = s.UpdateOrder(ctx, id, core.OrderUpdate{Advance: &advance, IfAdvance: &from})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestListRejectsUnknownOrderField(t *testing.T) {
	s := New()
	if _, err := s.ListExpenses(context.Background(), storage.ListOptions{OrderBy: "description"}); err == nil {
		t.Fatalf("expected invalid order by error")
	}
}
