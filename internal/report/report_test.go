package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"boutique/internal/core"
	"boutique/internal/storage"
	"boutique/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()
	_, err := repo.CreateSale(ctx, core.Sale{Date: core.NewDate(2024, 3, 5), Items: "Saree", Price: core.Rupees(150000), PaymentMode: core.Cash, Status: core.SaleDone})
	require.NoError(t, err)
	_, err = repo.CreateSale(ctx, core.Sale{Date: core.NewDate(2024, 4, 1), Items: "Dupatta", Price: core.Rupees(500), PaymentMode: core.UPI, Status: core.SaleDone})
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, core.Expense{Date: core.NewDate(2024, 3, 9), Description: "Rent", Amount: core.Rupees(20000), PaymentMode: core.Card})
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, core.TailoringOrder{
		Date: core.NewDate(2024, 3, 12), BillNo: "1", Customer: "Asha", Type: "Blouse",
		TotalCost: core.Rupees(1000), Advance: core.Rupees(400), Balance: core.Rupees(600),
		DeliveryDate: core.NewDate(2024, 3, 20), PaymentMode: core.Cash, Status: core.InProgress,
	})
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, core.TailoringOrder{
		Date: core.NewDate(2024, 2, 1), BillNo: "2", Customer: "Ravi", Type: "Kurta",
		TotalCost: core.Rupees(800), Advance: core.Rupees(800),
		DeliveryDate: core.NewDate(2024, 2, 10), PaymentMode: core.Cash, Status: core.Completed,
	})
	require.NoError(t, err)
	return repo
}

func TestBuild(t *testing.T) {
	r, err := NewBuilder(seeded(t)).Build(context.Background(), core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)

	assert.Equal(t, core.Rupees(150400), r.Month.Income)
	assert.Equal(t, core.Rupees(20000), r.Month.Expenses)
	assert.Equal(t, core.Rupees(130400), r.Month.Balance)
	assert.Equal(t, core.Rupees(151700), r.Totals.Revenue)
	assert.Equal(t, core.Rupees(600), r.Totals.Outstanding)
	assert.Equal(t, 1, r.OpenOrders)

	text := r.Text()
	assert.Contains(t, text, "Monthly report: March 2024")
	assert.Contains(t, text, "Income: ₹1,50,400.00")
	assert.Contains(t, text, "across 1 open orders")
}

func TestBuildEmptyMonth(t *testing.T) {
	r, err := NewBuilder(seeded(t)).Build(context.Background(), core.Period{Year: 2023, Month: 1})
	require.NoError(t, err)
	assert.Zero(t, r.Month.Income.Paise)
	assert.Zero(t, r.Month.Balance.Paise)
}

type failingLister struct{ storage.Lister }

func (failingLister) ListSales(context.Context, storage.ListOptions) ([]core.Sale, error) {
	return nil, errors.New("db gone")
}

func (failingLister) ListExpenses(context.Context, storage.ListOptions) ([]core.Expense, error) {
	return nil, nil
}

func (failingLister) ListOrders(context.Context, storage.ListOptions) ([]core.TailoringOrder, error) {
	return nil, nil
}

func TestBuildPropagatesListErrors(t *testing.T) {
	_, err := NewBuilder(failingLister{}).Build(context.Background(), core.Period{Year: 2024, Month: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-03")
	assert.Contains(t, err.Error(), "db gone")
}

func TestNotifierPostsText(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewNotifier(srv.URL, nil).Send(context.Background(), "hello"))
	assert.Equal(t, "hello", got.Text)
}

func TestNotifierReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL, nil).Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad token")
}

func TestNotifierWithoutURLOnlyLogs(t *testing.T) {
	assert.NoError(t, NewNotifier("  ", nil).Send(context.Background(), "hello"))
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	s := NewScheduler(NewBuilder(seeded(t)), NewNotifier("", nil), nil, nil)
	err := s.Schedule("not a cron", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule report")
}

type countingSyncer struct{ calls int }

func (c *countingSyncer) SyncPending(context.Context) (int, error) {
	c.calls++
	return 0, nil
}

func TestScheduleRegistersJobs(t *testing.T) {
	syncer := &countingSyncer{}
	s := NewScheduler(NewBuilder(seeded(t)), NewNotifier("", nil), syncer, nil)
	require.NoError(t, s.Schedule("0 9 1 * *", "@every 5m"))
	assert.Len(t, s.cron.Entries(), 2)

	s.Start()
	s.Stop()

	s.syncPending()
	assert.Equal(t, 1, syncer.calls)
}

func TestRunReportCoversPreviousMonth(t *testing.T) {
	var text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhookPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		text = p.Text
	}))
	defer srv.Close()

	s := NewScheduler(NewBuilder(seeded(t)), NewNotifier(srv.URL, nil), nil, nil)
	s.now = func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, s.RunReport(context.Background()))
	assert.True(t, strings.HasPrefix(text, "Monthly report: March 2024"), text)
}
