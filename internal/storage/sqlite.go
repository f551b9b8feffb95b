package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"boutique/internal/core"

	_ "modernc.org/sqlite"
)

var tables = map[core.Collection]string{
	core.CollectionSales:    "sales",
	core.CollectionExpenses: "expenses",
	core.CollectionOrders:   "tailoring_orders",
	core.CollectionDesigns:  "designs",
}

// SQLiteRepository stores the ledgers in a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateSale(ctx context.Context, s core.Sale) (string, error) {
	id, err := r.queries.CreateSale(ctx, SaleRow{
		Items:       s.Items,
		PricePaise:  s.Price.Paise,
		Date:        s.Date.String(),
		PaymentMode: string(s.PaymentMode),
		Status:      string(s.Status),
	})
	if err != nil {
		return "", fmt.Errorf("create sale: %w", err)
	}
	slog.InfoContext(ctx, "Sale saved to SQLite", "id", id, "price_paise", s.Price.Paise, "date", s.Date.String())
	return strconv.FormatInt(id, 10), nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	id, err := r.queries.CreateExpense(ctx, ExpenseRow{
		Description: e.Description,
		AmountPaise: e.Amount.Paise,
		Date:        e.Date.String(),
		PaymentMode: string(e.PaymentMode),
	})
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved to SQLite", "id", id, "amount_paise", e.Amount.Paise, "date", e.Date.String())
	return strconv.FormatInt(id, 10), nil
}

func (r *SQLiteRepository) CreateOrder(ctx context.Context, o core.TailoringOrder) (string, error) {
	id, err := r.queries.CreateOrder(ctx, OrderRow{
		Date:           o.Date.String(),
		BillNo:         o.BillNo,
		Customer:       o.Customer,
		Phone:          o.Phone,
		WorkType:       o.Type,
		TotalCostPaise: o.TotalCost.Paise,
		AdvancePaise:   o.Advance.Paise,
		BalancePaise:   o.Balance.Paise,
		DeliveryDate:   o.DeliveryDate.String(),
		PaymentMode:    string(o.PaymentMode),
		Status:         string(o.Status),
	})
	if err != nil {
		return "", fmt.Errorf("create tailoring order: %w", err)
	}
	slog.InfoContext(ctx, "Tailoring order saved to SQLite", "id", id, "bill_no", o.BillNo)
	return strconv.FormatInt(id, 10), nil
}

func (r *SQLiteRepository) CreateDesign(ctx context.Context, d core.Design) (string, error) {
	id, err := r.queries.CreateDesign(ctx, DesignRow{
		Name:              d.Name,
		ImageURL:          d.ImageURL,
		MaterialCostPaise: d.MaterialCost.Paise,
		LaborCostPaise:    d.LaborCost.Paise,
		TotalCostPaise:    d.TotalCost.Paise,
		SellingPricePaise: d.SellingPrice.Paise,
		StartDate:         d.StartDate.String(),
		EndDate:           sql.NullString{String: d.EndDate.String(), Valid: !d.EndDate.IsEmpty()},
		Status:            string(d.Status),
	})
	if err != nil {
		return "", fmt.Errorf("create design: %w", err)
	}
	slog.InfoContext(ctx, "Design saved to SQLite", "id", id, "name", d.Name)
	return strconv.FormatInt(id, 10), nil
}

func (r *SQLiteRepository) UpdateOrder(ctx context.Context, id string, u core.OrderUpdate) error {
	rowID, err := parseID(id)
	if err != nil {
		return err
	}
	params := UpdateOrderParams{ID: rowID}
	if u.Advance != nil {
		params.AdvancePaise = sql.NullInt64{Int64: u.Advance.Paise, Valid: true}
	}
	if u.Balance != nil {
		params.BalancePaise = sql.NullInt64{Int64: u.Balance.Paise, Valid: true}
	}
	if u.Status != nil {
		params.Status = sql.NullString{String: string(*u.Status), Valid: true}
	}
	if u.IfAdvance != nil {
		params.IfAdvance = sql.NullInt64{Int64: u.IfAdvance.Paise, Valid: true}
	}
	n, err := r.queries.UpdateOrder(ctx, params)
	if err != nil {
		return fmt.Errorf("update tailoring order %s: %w", id, err)
	}
	if n > 0 {
		return nil
	}
	if !params.IfAdvance.Valid {
		return fmt.Errorf("update tailoring order %s: %w", id, ErrNotFound)
	}
	// the row is either gone or holds a different advance
	if _, err := r.GetOrder(ctx, id); err != nil {
		return fmt.Errorf("update tailoring order %s: %w", id, err)
	}
	return fmt.Errorf("update tailoring order %s: %w", id, ErrConflict)
}

func (r *SQLiteRepository) ListSales(ctx context.Context, opts ListOptions) ([]core.Sale, error) {
	col, err := OrderColumn(core.CollectionSales, opts.OrderBy)
	if err != nil {
		return nil, err
	}
	rows, err := r.queries.ListSales(ctx, col, opts.Desc)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return convertAll(rows, saleFromRow)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, opts ListOptions) ([]core.Expense, error) {
	col, err := OrderColumn(core.CollectionExpenses, opts.OrderBy)
	if err != nil {
		return nil, err
	}
	rows, err := r.queries.ListExpenses(ctx, col, opts.Desc)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return convertAll(rows, expenseFromRow)
}

func (r *SQLiteRepository) ListOrders(ctx context.Context, opts ListOptions) ([]core.TailoringOrder, error) {
	col, err := OrderColumn(core.CollectionOrders, opts.OrderBy)
	if err != nil {
		return nil, err
	}
	rows, err := r.queries.ListOrders(ctx, col, opts.Desc)
	if err != nil {
		return nil, fmt.Errorf("list tailoring orders: %w", err)
	}
	return convertAll(rows, orderFromRow)
}

func (r *SQLiteRepository) ListDesigns(ctx context.Context, opts ListOptions) ([]core.Design, error) {
	col, err := OrderColumn(core.CollectionDesigns, opts.OrderBy)
	if err != nil {
		return nil, err
	}
	rows, err := r.queries.ListDesigns(ctx, col, opts.Desc)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	return convertAll(rows, designFromRow)
}

func (r *SQLiteRepository) GetSale(ctx context.Context, id string) (core.Sale, error) {
	rowID, err := parseID(id)
	if err != nil {
		return core.Sale{}, err
	}
	row, err := r.queries.GetSale(ctx, rowID)
	if err != nil {
		return core.Sale{}, notFound("get sale", id, err)
	}
	return saleFromRow(row)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	rowID, err := parseID(id)
	if err != nil {
		return core.Expense{}, err
	}
	row, err := r.queries.GetExpense(ctx, rowID)
	if err != nil {
		return core.Expense{}, notFound("get expense", id, err)
	}
	return expenseFromRow(row)
}

func (r *SQLiteRepository) GetOrder(ctx context.Context, id string) (core.TailoringOrder, error) {
	rowID, err := parseID(id)
	if err != nil {
		return core.TailoringOrder{}, err
	}
	row, err := r.queries.GetOrder(ctx, rowID)
	if err != nil {
		return core.TailoringOrder{}, notFound("get tailoring order", id, err)
	}
	return orderFromRow(row)
}

func (r *SQLiteRepository) GetDesign(ctx context.Context, id string) (core.Design, error) {
	rowID, err := parseID(id)
	if err != nil {
		return core.Design{}, err
	}
	row, err := r.queries.GetDesign(ctx, rowID)
	if err != nil {
		return core.Design{}, notFound("get design", id, err)
	}
	return designFromRow(row)
}

func (r *SQLiteRepository) PendingSync(ctx context.Context, c core.Collection, limit int) ([]string, error) {
	table, ok := tables[c]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	ids, err := r.queries.PendingSync(ctx, table, limit)
	if err != nil {
		return nil, fmt.Errorf("pending sync %s: %w", c, err)
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, c core.Collection, id string) error {
	table, ok := tables[c]
	if !ok {
		return fmt.Errorf("unknown collection %q", c)
	}
	rowID, err := parseID(id)
	if err != nil {
		return err
	}
	n, err := r.queries.MarkSynced(ctx, table, rowID)
	if err != nil {
		return fmt.Errorf("mark synced %s/%s: %w", c, id, err)
	}
	if n == 0 {
		return fmt.Errorf("mark synced %s/%s: %w", c, id, ErrNotFound)
	}
	return nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	return n, nil
}

func notFound(op, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

func convertAll[R, T any](rows []R, conv func(R) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := conv(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func saleFromRow(r SaleRow) (core.Sale, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Sale{}, fmt.Errorf("sale %d: bad date %q: %w", r.ID, r.Date, err)
	}
	return core.Sale{
		ID:          strconv.FormatInt(r.ID, 10),
		Items:       r.Items,
		Price:       core.Money{Paise: r.PricePaise},
		Date:        date,
		PaymentMode: core.PaymentMode(r.PaymentMode),
		Status:      core.SaleStatus(r.Status),
	}, nil
}

func expenseFromRow(r ExpenseRow) (core.Expense, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: bad date %q: %w", r.ID, r.Date, err)
	}
	return core.Expense{
		ID:          strconv.FormatInt(r.ID, 10),
		Description: r.Description,
		Amount:      core.Money{Paise: r.AmountPaise},
		Date:        date,
		PaymentMode: core.PaymentMode(r.PaymentMode),
	}, nil
}

func orderFromRow(r OrderRow) (core.TailoringOrder, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.TailoringOrder{}, fmt.Errorf("tailoring order %d: bad date %q: %w", r.ID, r.Date, err)
	}
	delivery, err := core.ParseDate(r.DeliveryDate)
	if err != nil {
		return core.TailoringOrder{}, fmt.Errorf("tailoring order %d: bad delivery date %q: %w", r.ID, r.DeliveryDate, err)
	}
	return core.TailoringOrder{
		ID:           strconv.FormatInt(r.ID, 10),
		Date:         date,
		BillNo:       r.BillNo,
		Customer:     r.Customer,
		Phone:        r.Phone,
		Type:         r.WorkType,
		TotalCost:    core.Money{Paise: r.TotalCostPaise},
		Advance:      core.Money{Paise: r.AdvancePaise},
		Balance:      core.Money{Paise: r.BalancePaise},
		DeliveryDate: delivery,
		PaymentMode:  core.PaymentMode(r.PaymentMode),
		Status:       core.OrderStatus(r.Status),
	}, nil
}

func designFromRow(r DesignRow) (core.Design, error) {
	start, err := core.ParseDate(r.StartDate)
	if err != nil {
		return core.Design{}, fmt.Errorf("design %d: bad start date %q: %w", r.ID, r.StartDate, err)
	}
	var end core.Date
	if r.EndDate.Valid && r.EndDate.String != "" {
		if end, err = core.ParseDate(r.EndDate.String); err != nil {
			return core.Design{}, fmt.Errorf("design %d: bad end date %q: %w", r.ID, r.EndDate.String, err)
		}
	}
	return core.Design{
		ID:           strconv.FormatInt(r.ID, 10),
		Name:         r.Name,
		ImageURL:     r.ImageURL,
		MaterialCost: core.Money{Paise: r.MaterialCostPaise},
		LaborCost:    core.Money{Paise: r.LaborCostPaise},
		TotalCost:    core.Money{Paise: r.TotalCostPaise},
		SellingPrice: core.Money{Paise: r.SellingPricePaise},
		StartDate:    start,
		EndDate:      end,
		Status:       core.DesignStatus(r.Status),
	}, nil
}
