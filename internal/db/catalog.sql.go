package db

import (
	"context"
)

const getVariantByBarcode = `-- name: GetVariantByBarcode :one
SELECT v.id, v.product_id, v.barcode, v.size, v.color, v.sale_price, v.stock, p.name, c.name
FROM variants v
JOIN products p ON p.id = v.product_id
JOIN categories c ON c.id = p.category_id
WHERE v.barcode = $1
`

func (q *Queries) GetVariantByBarcode(ctx context.Context, barcode string) (VariantDetail, error) {
	row := q.db.QueryRow(ctx, getVariantByBarcode, barcode)
	var i VariantDetail
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.Barcode,
		&i.Size,
		&i.Color,
		&i.SalePrice,
		&i.Stock,
		&i.ProductName,
		&i.CategoryName,
	)
	return i, err
}

const searchProductsByName = `-- name: SearchProductsByName :many
SELECT p.id, p.name, p.description, c.name
FROM products p
JOIN categories c ON c.id = p.category_id
WHERE lower(p.name) LIKE '%' || lower($1) || '%'
ORDER BY p.name, p.id
LIMIT $2
`

type SearchProductsByNameParams struct {
	Name  string
	Limit int32
}

func (q *Queries) SearchProductsByName(ctx context.Context, arg SearchProductsByNameParams) ([]ProductLite, error) {
	rows, err := q.db.Query(ctx, searchProductsByName, arg.Name, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ProductLite{}
	for rows.Next() {
		var i ProductLite
		if err := rows.Scan(&i.ID, &i.Name, &i.Description, &i.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const productExists = `-- name: ProductExists :one
SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)
`

func (q *Queries) ProductExists(ctx context.Context, id int64) (bool, error) {
	row := q.db.QueryRow(ctx, productExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listVariantsByProduct = `-- name: ListVariantsByProduct :many
SELECT v.id, v.product_id, v.barcode, v.size, v.color, v.sale_price, v.stock, p.name, c.name
FROM variants v
JOIN products p ON p.id = v.product_id
JOIN categories c ON c.id = p.category_id
WHERE v.product_id = $1
ORDER BY v.size, v.color, v.id
`

func (q *Queries) ListVariantsByProduct(ctx context.Context, productID int64) ([]VariantDetail, error) {
	rows, err := q.db.Query(ctx, listVariantsByProduct, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []VariantDetail{}
	for rows.Next() {
		var i VariantDetail
		if err := rows.Scan(
			&i.ID,
			&i.ProductID,
			&i.Barcode,
			&i.Size,
			&i.Color,
			&i.SalePrice,
			&i.Stock,
			&i.ProductName,
			&i.CategoryName,
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
