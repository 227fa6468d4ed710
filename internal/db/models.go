package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type VariantDetail struct {
	ID           int64
	ProductID    int64
	Barcode      string
	Size         string
	Color        string
	SalePrice    pgtype.Numeric
	Stock        int32
	ProductName  string
	CategoryName string
}

type LockedVariant struct {
	ID        int64
	Barcode   string
	SalePrice pgtype.Numeric
	Stock     int32
}

type ProductLite struct {
	ID           int64
	Name         string
	Description  string
	CategoryName string
}

type Sale struct {
	ID        int64
	UserID    int64
	SoldAt    pgtype.Timestamptz
	Subtotal  pgtype.Numeric
	Discount  pgtype.Numeric
	Total     pgtype.Numeric
	Payment   pgtype.Numeric
	ChangeDue pgtype.Numeric
	Status    string
}

type SaleLine struct {
	ID        int64
	SaleID    int64
	VariantID int64
	Barcode   string
	Quantity  int32
	UnitPrice pgtype.Numeric
}

type InsertSaleParams struct {
	UserID    int64
	SoldAt    pgtype.Timestamptz
	Subtotal  pgtype.Numeric
	Discount  pgtype.Numeric
	Total     pgtype.Numeric
	Payment   pgtype.Numeric
	ChangeDue pgtype.Numeric
	Status    string
}

type InsertSaleLineParams struct {
	SaleID    int64
	VariantID int64
	Quantity  int32
	UnitPrice pgtype.Numeric
}

type SalesByRangeRow struct {
	ID         int64
	SoldAt     pgtype.Timestamptz
	Total      pgtype.Numeric
	SellerName string
}

type TopProductsRow struct {
	ProductName  string
	CategoryName string
	Units        int64
	Revenue      pgtype.Numeric
}

type RevenueByCategoryRow struct {
	CategoryName string
	Sales        int64
	Revenue      pgtype.Numeric
}

type InventoryRow struct {
	ProductName string
	Description string
	Size        string
	Color       string
	Barcode     string
	Stock       int32
	SalePrice   pgtype.Numeric
	StockValue  pgtype.Numeric
}
