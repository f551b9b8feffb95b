package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type SaleRow struct {
	ID          int64
	Items       string
	PricePaise  int64
	Date        string
	PaymentMode string
	Status      string
}

type ExpenseRow struct {
	ID          int64
	Description string
	AmountPaise int64
	Date        string
	PaymentMode string
}

type OrderRow struct {
	ID             int64
	Date           string
	BillNo         string
	Customer       string
	Phone          string
	WorkType       string
	TotalCostPaise int64
	AdvancePaise   int64
	BalancePaise   int64
	DeliveryDate   string
	PaymentMode    string
	Status         string
}

type DesignRow struct {
	ID                int64
	Name              string
	ImageURL          string
	MaterialCostPaise int64
	LaborCostPaise    int64
	TotalCostPaise    int64
	SellingPricePaise int64
	StartDate         string
	EndDate           sql.NullString
	Status            string
}

const createSale = `INSERT INTO sales (items, price_paise, date, payment_mode, status)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateSale(ctx context.Context, arg SaleRow) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createSale, arg.Items, arg.PricePaise, arg.Date, arg.PaymentMode, arg.Status).Scan(&id)
	return id, err
}

const createExpense = `INSERT INTO expenses (description, amount_paise, date, payment_mode)
VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateExpense(ctx context.Context, arg ExpenseRow) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createExpense, arg.Description, arg.AmountPaise, arg.Date, arg.PaymentMode).Scan(&id)
	return id, err
}

const createOrder = `INSERT INTO tailoring_orders (
    date, bill_no, customer, phone, work_type, total_cost_paise,
    advance_paise, balance_paise, delivery_date, payment_mode, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateOrder(ctx context.Context, arg OrderRow) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createOrder,
		arg.Date, arg.BillNo, arg.Customer, arg.Phone, arg.WorkType, arg.TotalCostPaise,
		arg.AdvancePaise, arg.BalancePaise, arg.DeliveryDate, arg.PaymentMode, arg.Status,
	).Scan(&id)
	return id, err
}

const createDesign = `INSERT INTO designs (
    name, image_url, material_cost_paise, labor_cost_paise, total_cost_paise,
    selling_price_paise, start_date, end_date, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateDesign(ctx context.Context, arg DesignRow) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createDesign,
		arg.Name, arg.ImageURL, arg.MaterialCostPaise, arg.LaborCostPaise, arg.TotalCostPaise,
		arg.SellingPricePaise, arg.StartDate, arg.EndDate, arg.Status,
	).Scan(&id)
	return id, err
}

// UpdateOrderParams carries the optional columns of a partial order update.
type UpdateOrderParams struct {
	ID           int64
	AdvancePaise sql.NullInt64
	BalancePaise sql.NullInt64
	Status       sql.NullString
	// IfAdvance, when valid, restricts the update to a row still holding it.
	IfAdvance sql.NullInt64
}

// The update clears synced_at so the mirror picks the new state up.
const updateOrder = `UPDATE tailoring_orders SET
    advance_paise = COALESCE(?, advance_paise),
    balance_paise = COALESCE(?, balance_paise),
    status = COALESCE(?, status),
    updated_at = CURRENT_TIMESTAMP,
    synced_at = NULL
WHERE id = ? AND (? IS NULL OR advance_paise = ?)`

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateOrder, arg.AdvancePaise, arg.BalancePaise, arg.Status, arg.ID, arg.IfAdvance, arg.IfAdvance)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const (
	saleColumns    = `id, items, price_paise, date, payment_mode, status`
	expenseColumns = `id, description, amount_paise, date, payment_mode`
	orderColumnSet = `id, date, bill_no, customer, phone, work_type, total_cost_paise, advance_paise, balance_paise, delivery_date, payment_mode, status`
	designColumns  = `id, name, image_url, material_cost_paise, labor_cost_paise, total_cost_paise, selling_price_paise, start_date, end_date, status`
)

func orderClause(column string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, dir, dir)
}

func scanSale(row rowScanner) (SaleRow, error) {
	var r SaleRow
	err := row.Scan(&r.ID, &r.Items, &r.PricePaise, &r.Date, &r.PaymentMode, &r.Status)
	return r, err
}

func scanExpense(row rowScanner) (ExpenseRow, error) {
	var r ExpenseRow
	err := row.Scan(&r.ID, &r.Description, &r.AmountPaise, &r.Date, &r.PaymentMode)
	return r, err
}

func scanOrder(row rowScanner) (OrderRow, error) {
	var r OrderRow
	err := row.Scan(&r.ID, &r.Date, &r.BillNo, &r.Customer, &r.Phone, &r.WorkType,
		&r.TotalCostPaise, &r.AdvancePaise, &r.BalancePaise, &r.DeliveryDate, &r.PaymentMode, &r.Status)
	return r, err
}

func scanDesign(row rowScanner) (DesignRow, error) {
	var r DesignRow
	err := row.Scan(&r.ID, &r.Name, &r.ImageURL, &r.MaterialCostPaise, &r.LaborCostPaise,
		&r.TotalCostPaise, &r.SellingPricePaise, &r.StartDate, &r.EndDate, &r.Status)
	return r, err
}

func queryAll[T any](ctx context.Context, db DBTX, query string, scan func(rowScanner) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) ListSales(ctx context.Context, column string, desc bool) ([]SaleRow, error) {
	return queryAll(ctx, q.db, "SELECT "+saleColumns+" FROM sales"+orderClause(column, desc), scanSale)
}

func (q *Queries) ListExpenses(ctx context.Context, column string, desc bool) ([]ExpenseRow, error) {
	return queryAll(ctx, q.db, "SELECT "+expenseColumns+" FROM expenses"+orderClause(column, desc), scanExpense)
}

func (q *Queries) ListOrders(ctx context.Context, column string, desc bool) ([]OrderRow, error) {
	return queryAll(ctx, q.db, "SELECT "+orderColumnSet+" FROM tailoring_orders"+orderClause(column, desc), scanOrder)
}

func (q *Queries) ListDesigns(ctx context.Context, column string, desc bool) ([]DesignRow, error) {
	return queryAll(ctx, q.db, "SELECT "+designColumns+" FROM designs"+orderClause(column, desc), scanDesign)
}

func (q *Queries) GetSale(ctx context.Context, id int64) (SaleRow, error) {
	return scanSale(q.db.QueryRowContext(ctx, "SELECT "+saleColumns+" FROM sales WHERE id = ?", id))
}

func (q *Queries) GetExpense(ctx context.Context, id int64) (ExpenseRow, error) {
	return scanExpense(q.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id))
}

func (q *Queries) GetOrder(ctx context.Context, id int64) (OrderRow, error) {
	return scanOrder(q.db.QueryRowContext(ctx, "SELECT "+orderColumnSet+" FROM tailoring_orders WHERE id = ?", id))
}

func (q *Queries) GetDesign(ctx context.Context, id int64) (DesignRow, error) {
	return scanDesign(q.db.QueryRowContext(ctx, "SELECT "+designColumns+" FROM designs WHERE id = ?", id))
}

// PendingSync returns ids of rows in table never mirrored since their last change.
func (q *Queries) PendingSync(ctx context.Context, table string, limit int) ([]int64, error) {
	return queryAll(ctx, q.db, "SELECT id FROM "+table+" WHERE synced_at IS NULL ORDER BY id LIMIT ?",
		func(row rowScanner) (int64, error) {
			var id int64
			err := row.Scan(&id)
			return id, err
		}, limit)
}

func (q *Queries) MarkSynced(ctx context.Context, table string, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, "UPDATE "+table+" SET synced_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
