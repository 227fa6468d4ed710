package db

import (
	"context"
)

const lockVariantByBarcode = `-- name: LockVariantByBarcode :one
SELECT id, barcode, sale_price, stock
FROM variants
WHERE barcode = $1
FOR UPDATE
`

func (q *Queries) LockVariantByBarcode(ctx context.Context, barcode string) (LockedVariant, error) {
	row := q.db.QueryRow(ctx, lockVariantByBarcode, barcode)
	var i LockedVariant
	err := row.Scan(&i.ID, &i.Barcode, &i.SalePrice, &i.Stock)
	return i, err
}

const decrementVariantStock = `-- name: DecrementVariantStock :execrows
UPDATE variants
SET stock = stock - $2
WHERE id = $1 AND stock >= $2
`

type DecrementVariantStockParams struct {
	ID       int64
	Quantity int32
}

// DecrementVariantStock reports the number of rows updated; zero means the
// guard rejected the decrement.
func (q *Queries) DecrementVariantStock(ctx context.Context, arg DecrementVariantStockParams) (int64, error) {
	result, err := q.db.Exec(ctx, decrementVariantStock, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertSale = `-- name: InsertSale :one
INSERT INTO sales (user_id, sold_at, subtotal, discount, total, payment, change_due, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, user_id, sold_at, subtotal, discount, total, payment, change_due, status
`

func (q *Queries) InsertSale(ctx context.Context, arg InsertSaleParams) (Sale, error) {
	row := q.db.QueryRow(ctx, insertSale,
		arg.UserID,
		arg.SoldAt,
		arg.Subtotal,
		arg.Discount,
		arg.Total,
		arg.Payment,
		arg.ChangeDue,
		arg.Status,
	)
	var i Sale
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.SoldAt,
		&i.Subtotal,
		&i.Discount,
		&i.Total,
		&i.Payment,
		&i.ChangeDue,
		&i.Status,
	)
	return i, err
}

const insertSaleLine = `-- name: InsertSaleLine :one
INSERT INTO sale_lines (sale_id, variant_id, quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING id
`

func (q *Queries) InsertSaleLine(ctx context.Context, arg InsertSaleLineParams) (int64, error) {
	row := q.db.QueryRow(ctx, insertSaleLine, arg.SaleID, arg.VariantID, arg.Quantity, arg.UnitPrice)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getSale = `-- name: GetSale :one
SELECT id, user_id, sold_at, subtotal, discount, total, payment, change_due, status
FROM sales
WHERE id = $1
`

func (q *Queries) GetSale(ctx context.Context, id int64) (Sale, error) {
	row := q.db.QueryRow(ctx, getSale, id)
	var i Sale
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.SoldAt,
		&i.Subtotal,
		&i.Discount,
		&i.Total,
		&i.Payment,
		&i.ChangeDue,
		&i.Status,
	)
	return i, err
}

const listSaleLines = `-- name: ListSaleLines :many
SELECT l.id, l.sale_id, l.variant_id, v.barcode, l.quantity, l.unit_price
FROM sale_lines l
JOIN variants v ON v.id = l.variant_id
WHERE l.sale_id = $1
ORDER BY l.id
`

func (q *Queries) ListSaleLines(ctx context.Context, saleID int64) ([]SaleLine, error) {
	rows, err := q.db.Query(ctx, listSaleLines, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SaleLine{}
	for rows.Next() {
		var i SaleLine
		if err := rows.Scan(&i.ID, &i.SaleID, &i.VariantID, &i.Barcode, &i.Quantity, &i.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getUserDisplayName = `-- name: GetUserDisplayName :one
SELECT display_name FROM users WHERE id = $1
`

func (q *Queries) GetUserDisplayName(ctx context.Context, id int64) (string, error) {
	row := q.db.QueryRow(ctx, getUserDisplayName, id)
	var name string
	err := row.Scan(&name)
	return name, err
}
