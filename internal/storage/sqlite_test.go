package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"boutique/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "boutique.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_SalesRoundTripAndOrdering(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	dates := []core.Date{core.NewDate(2024, 3, 10), core.NewDate(2024, 5, 1), core.NewDate(2023, 12, 24)}
	for i, d := range dates {
		_, err := repo.CreateSale(ctx, core.Sale{
			Items:       "Item",
			Price:       core.Rupees(int64(100 * (i + 1))),
			Date:        d,
			PaymentMode: core.UPI,
			Status:      core.SaleDone,
		})
		require.NoError(t, err)
	}

	sales, err := repo.ListSales(ctx, DefaultListOptions(core.CollectionSales))
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, core.NewDate(2024, 5, 1), sales[0].Date)
	assert.Equal(t, core.NewDate(2023, 12, 24), sales[2].Date)
	assert.Equal(t, core.Rupees(200), sales[0].Price)

	asc, err := repo.ListSales(ctx, ListOptions{OrderBy: "price"})
	require.NoError(t, err)
	assert.Equal(t, core.Rupees(100), asc[0].Price)

	_, err = repo.ListSales(ctx, ListOptions{OrderBy: "items; DROP TABLE sales"})
	assert.ErrorIs(t, err, ErrInvalidOrderBy)
}

func TestSQLiteRepository_OrderUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.CreateOrder(ctx, core.TailoringOrder{
		Date:         core.NewDate(2024, 4, 1),
		BillNo:       "B-7",
		Customer:     "Meera",
		Phone:        "9876543210",
		Type:         "Blouse",
		TotalCost:    core.Rupees(100),
		Advance:      core.Rupees(60),
		Balance:      core.Rupees(40),
		DeliveryDate: core.NewDate(2024, 4, 12),
		PaymentMode:  core.Cash,
		Status:       core.ToDo,
	})
	require.NoError(t, err)

	advance, balance, status := core.Rupees(100), core.Money{}, core.Completed
	require.NoError(t, repo.UpdateOrder(ctx, id, core.OrderUpdate{Advance: &advance, Balance: &balance, Status: &status}))

	got, err := repo.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.Rupees(100), got.Advance)
	assert.Equal(t, core.Money{}, got.Balance)
	assert.Equal(t, core.Completed, got.Status)
	assert.Equal(t, "Meera", got.Customer)

	onlyStatus := core.InProgress
	require.NoError(t, repo.UpdateOrder(ctx, id, core.OrderUpdate{Status: &onlyStatus}))
	got, err = repo.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.Rupees(100), got.Advance, "nil fields must be left alone")

	err = repo.UpdateOrder(ctx, "9999", core.OrderUpdate{Status: &onlyStatus})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteRepository_ConditionalOrderUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.CreateOrder(ctx, core.TailoringOrder{
		Date: core.NewDate(2024, 4, 1), TotalCost: core.Rupees(100), Balance: core.Rupees(100),
		DeliveryDate: core.NewDate(2024, 4, 12), PaymentMode: core.Cash, Status: core.ToDo,
	})
	require.NoError(t, err)

	from, advance, balance := core.Money{}, core.Rupees(60), core.Rupees(40)
	pay := core.OrderUpdate{Advance: &advance, Balance: &balance, IfAdvance: &from}
	require.NoError(t, repo.UpdateOrder(ctx, id, pay))

	// a second payment computed from the same starting advance is stale
	err = repo.UpdateOrder(ctx, id, pay)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := repo.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.Rupees(60), got.Advance)

	err = repo.UpdateOrder(ctx, "9999", pay)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRepository_DesignOptionalEndDate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	open := core.Design{Name: "Kurta", MaterialCost: core.Rupees(10), LaborCost: core.Rupees(5), TotalCost: core.Rupees(15),
		StartDate: core.NewDate(2024, 1, 1), Status: core.DesignDesigning}
	id, err := repo.CreateDesign(ctx, open)
	require.NoError(t, err)

	got, err := repo.GetDesign(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.EndDate.IsEmpty())
	assert.Equal(t, core.Rupees(15), got.TotalCost)

	bad := open
	bad.EndDate = core.NewDate(2023, 1, 1)
	_, err = repo.CreateDesign(ctx, bad)
	assert.Error(t, err, "end before start violates the table check")
}

func TestSQLiteRepository_SyncBookkeeping(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.CreateExpense(ctx, core.Expense{Description: "Rent", Amount: core.Rupees(5000), Date: core.NewDate(2024, 3, 1), PaymentMode: core.Card})
	require.NoError(t, err)

	pending, err := repo.PendingSync(ctx, core.CollectionExpenses, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, pending)

	require.NoError(t, repo.MarkSynced(ctx, core.CollectionExpenses, id))
	pending, err = repo.PendingSync(ctx, core.CollectionExpenses, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = repo.GetExpense(ctx, "12345")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
