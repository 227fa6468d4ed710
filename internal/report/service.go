// Package report serves read-only sales and inventory reports.
package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/boutique-pos/internal/cache"
	"github.com/noah-isme/boutique-pos/internal/db"
	"github.com/noah-isme/boutique-pos/internal/money"
)

// Querier defines the database access required for reports.
type Querier interface {
	SalesByRange(ctx context.Context, arg db.RangeParams) ([]db.SalesByRangeRow, error)
	TopProducts(ctx context.Context, arg db.TopProductsParams) ([]db.TopProductsRow, error)
	RevenueByCategory(ctx context.Context, arg db.RangeParams) ([]db.RevenueByCategoryRow, error)
	PeriodRevenue(ctx context.Context, arg db.RangeParams) (pgtype.Numeric, error)
	InventoryValuation(ctx context.Context) ([]db.InventoryRow, error)
}

// Range is a half-open time interval [From, To).
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) params() db.RangeParams {
	return db.RangeParams{
		From: pgtype.Timestamptz{Time: r.From, Valid: true},
		To:   pgtype.Timestamptz{Time: r.To, Valid: true},
	}
}

// SaleRow is one sale in the sales-by-range report.
type SaleRow struct {
	ID     int64     `json:"id"`
	SoldAt time.Time `json:"soldAt"`
	Total  string    `json:"total"`
	Seller string    `json:"seller"`
}

// ProductRow is one product in the top products report.
type ProductRow struct {
	Product  string `json:"product"`
	Category string `json:"category"`
	Units    int64  `json:"units"`
	Revenue  string `json:"revenue"`
}

// CategoryRow is one category in the revenue by category report. Share is
// the percentage of period revenue, rounded to two decimals.
type CategoryRow struct {
	Category string `json:"category"`
	Sales    int64  `json:"sales"`
	Revenue  string `json:"revenue"`
	Share    string `json:"share"`
}

// InventoryRow is one in-stock variant with its valuation.
type InventoryRow struct {
	Product     string `json:"product"`
	Description string `json:"description"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Code        string `json:"code"`
	Stock       int32  `json:"stock"`
	UnitPrice   string `json:"unitPrice"`
	Value       string `json:"value"`
}

// Inventory is the inventory valuation report.
type Inventory struct {
	Items      []InventoryRow `json:"items"`
	TotalUnits int64          `json:"totalUnits"`
	TotalValue string         `json:"totalValue"`
}

// Service provides cached access to reports.
type Service struct {
	Q        Querier
	Cache    *cache.JSON
	Lock     Locker
	Logger   zerolog.Logger
	Now      func() time.Time
	Location *time.Location
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) location() *time.Location {
	if s != nil && s.Location != nil {
		return s.Location
	}
	return time.Local
}

// Locker serializes cache fills across API instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

const fillLockTTL = 30 * time.Second

// cached returns the report stored under key, computing it with load on a
// miss. With a Locker configured only one instance computes a given report
// at a time; the others wait and read the filled cache.
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	var out T
	if s.read(ctx, key, &out) {
		return out, nil
	}
	if s.Lock == nil {
		return fill(ctx, s, key, load)
	}
	var (
		loadErr error
		filled  bool
	)
	lockErr := s.Lock.WithLock(ctx, "fill:"+key, fillLockTTL, func(ctx context.Context) error {
		filled = true
		if s.read(ctx, key, &out) {
			return nil
		}
		out, loadErr = fill(ctx, s, key, load)
		return loadErr
	})
	if filled {
		return out, loadErr
	}
	s.Logger.Warn().Err(lockErr).Str("key", key).Msg("report fill lock unavailable")
	return fill(ctx, s, key, load)
}

func (s *Service) read(ctx context.Context, key string, dst any) bool {
	hit, err := s.Cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		return false
	}
	return hit
}

func fill[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	out, err := load()
	if err != nil {
		return out, err
	}
	if err := s.Cache.SetJSON(ctx, key, out); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
	return out, nil
}

func (s *Service) ready() error {
	if s == nil || s.Q == nil {
		return fmt.Errorf("report service not configured")
	}
	return nil
}

// SalesByRange lists sales in r, newest first.
func (s *Service) SalesByRange(ctx context.Context, r Range) ([]SaleRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.KeyReport("sales", r.From, r.To), func() ([]SaleRow, error) {
		rows, err := s.Q.SalesByRange(ctx, r.params())
		if err != nil {
			return nil, fmt.Errorf("sales by range: %w", err)
		}
		out := make([]SaleRow, 0, len(rows))
		for _, row := range rows {
			out = append(out, SaleRow{
				ID:     row.ID,
				SoldAt: row.SoldAt.Time,
				Total:  money.Format(money.FromNumeric(row.Total)),
				Seller: row.SellerName,
			})
		}
		return out, nil
	})
}

// TopProducts lists the best selling products in r by units sold.
func (s *Service) TopProducts(ctx context.Context, r Range, limit int) ([]ProductRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	key := cache.KeyReport("top", r.From, r.To, strconv.Itoa(limit))
	return cached(ctx, s, key, func() ([]ProductRow, error) {
		rows, err := s.Q.TopProducts(ctx, db.TopProductsParams{
			From:  pgtype.Timestamptz{Time: r.From, Valid: true},
			To:    pgtype.Timestamptz{Time: r.To, Valid: true},
			Limit: int32(limit),
		})
		if err != nil {
			return nil, fmt.Errorf("top products: %w", err)
		}
		out := make([]ProductRow, 0, len(rows))
		for _, row := range rows {
			out = append(out, ProductRow{
				Product:  row.ProductName,
				Category: row.CategoryName,
				Units:    row.Units,
				Revenue:  money.Format(money.FromNumeric(row.Revenue)),
			})
		}
		return out, nil
	})
}

// RevenueByCategory groups revenue in r by category.
func (s *Service) RevenueByCategory(ctx context.Context, r Range) ([]CategoryRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.KeyReport("categories", r.From, r.To), func() ([]CategoryRow, error) {
		rows, err := s.Q.RevenueByCategory(ctx, r.params())
		if err != nil {
			return nil, fmt.Errorf("revenue by category: %w", err)
		}
		total, err := s.Q.PeriodRevenue(ctx, r.params())
		if err != nil {
			return nil, fmt.Errorf("period revenue: %w", err)
		}
		periodTotal := money.FromNumeric(total)
		hundred := decimal.NewFromInt(100)
		out := make([]CategoryRow, 0, len(rows))
		for _, row := range rows {
			revenue := money.FromNumeric(row.Revenue)
			share := decimal.Zero
			if periodTotal.IsPositive() {
				share = revenue.Mul(hundred).Div(periodTotal)
			}
			out = append(out, CategoryRow{
				Category: row.CategoryName,
				Sales:    row.Sales,
				Revenue:  money.Format(revenue),
				Share:    money.Format(share),
			})
		}
		return out, nil
	})
}

// Inventory values every in-stock variant. It reads live stock and is never cached.
func (s *Service) Inventory(ctx context.Context) (Inventory, error) {
	if err := s.ready(); err != nil {
		return Inventory{}, err
	}
	rows, err := s.Q.InventoryValuation(ctx)
	if err != nil {
		return Inventory{}, fmt.Errorf("inventory valuation: %w", err)
	}
	inv := Inventory{Items: make([]InventoryRow, 0, len(rows))}
	totalValue := decimal.Zero
	for _, row := range rows {
		value := money.FromNumeric(row.StockValue)
		totalValue = totalValue.Add(value)
		inv.TotalUnits += int64(row.Stock)
		inv.Items = append(inv.Items, InventoryRow{
			Product:     row.ProductName,
			Description: row.Description,
			Size:        row.Size,
			Color:       row.Color,
			Code:        row.Barcode,
			Stock:       row.Stock,
			UnitPrice:   money.Format(money.FromNumeric(row.SalePrice)),
			Value:       money.Format(value),
		})
	}
	inv.TotalValue = money.Format(totalValue)
	return inv, nil
}
