package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type RangeParams struct {
	From pgtype.Timestamptz
	To   pgtype.Timestamptz
}

const salesByRange = `-- name: SalesByRange :many
SELECT s.id, s.sold_at, s.total, u.display_name
FROM sales s
JOIN users u ON u.id = s.user_id
WHERE s.sold_at >= $1 AND s.sold_at < $2
ORDER BY s.sold_at DESC, s.id DESC
`

func (q *Queries) SalesByRange(ctx context.Context, arg RangeParams) ([]SalesByRangeRow, error) {
	rows, err := q.db.Query(ctx, salesByRange, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SalesByRangeRow{}
	for rows.Next() {
		var i SalesByRangeRow
		if err := rows.Scan(&i.ID, &i.SoldAt, &i.Total, &i.SellerName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const topProducts = `-- name: TopProducts :many
SELECT p.name, c.name, SUM(l.quantity)::bigint AS units, SUM(l.unit_price * l.quantity) AS revenue
FROM sale_lines l
JOIN sales s ON s.id = l.sale_id
JOIN variants v ON v.id = l.variant_id
JOIN products p ON p.id = v.product_id
JOIN categories c ON c.id = p.category_id
WHERE s.sold_at >= $1 AND s.sold_at < $2
GROUP BY p.name, c.name
ORDER BY units DESC, p.name
LIMIT $3
`

type TopProductsParams struct {
	From  pgtype.Timestamptz
	To    pgtype.Timestamptz
	Limit int32
}

func (q *Queries) TopProducts(ctx context.Context, arg TopProductsParams) ([]TopProductsRow, error) {
	rows, err := q.db.Query(ctx, topProducts, arg.From, arg.To, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []TopProductsRow{}
	for rows.Next() {
		var i TopProductsRow
		if err := rows.Scan(&i.ProductName, &i.CategoryName, &i.Units, &i.Revenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const revenueByCategory = `-- name: RevenueByCategory :many
SELECT c.name, COUNT(DISTINCT s.id) AS sales, SUM(l.unit_price * l.quantity) AS revenue
FROM sale_lines l
JOIN sales s ON s.id = l.sale_id
JOIN variants v ON v.id = l.variant_id
JOIN products p ON p.id = v.product_id
JOIN categories c ON c.id = p.category_id
WHERE s.sold_at >= $1 AND s.sold_at < $2
GROUP BY c.name
ORDER BY revenue DESC, c.name
`

func (q *Queries) RevenueByCategory(ctx context.Context, arg RangeParams) ([]RevenueByCategoryRow, error) {
	rows, err := q.db.Query(ctx, revenueByCategory, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []RevenueByCategoryRow{}
	for rows.Next() {
		var i RevenueByCategoryRow
		if err := rows.Scan(&i.CategoryName, &i.Sales, &i.Revenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const periodRevenue = `-- name: PeriodRevenue :one
SELECT COALESCE(SUM(total), 0)::numeric(14,2) FROM sales WHERE sold_at >= $1 AND sold_at < $2
`

func (q *Queries) PeriodRevenue(ctx context.Context, arg RangeParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, periodRevenue, arg.From, arg.To)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}

const inventoryValuation = `-- name: InventoryValuation :many
SELECT p.name, p.description, v.size, v.color, v.barcode, v.stock, v.sale_price, v.sale_price * v.stock AS stock_value
FROM variants v
JOIN products p ON p.id = v.product_id
WHERE v.stock > 0
ORDER BY p.name, p.description, v.size, v.color
`

func (q *Queries) InventoryValuation(ctx context.Context) ([]InventoryRow, error) {
	rows, err := q.db.Query(ctx, inventoryValuation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []InventoryRow{}
	for rows.Next() {
		var i InventoryRow
		if err := rows.Scan(
			&i.ProductName,
			&i.Description,
			&i.Size,
			&i.Color,
			&i.Barcode,
			&i.Stock,
			&i.SalePrice,
			&i.StockValue,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
