package report_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boutique-pos/internal/cache"
	"github.com/noah-isme/boutique-pos/internal/db"
	"github.com/noah-isme/boutique-pos/internal/lock"
	"github.com/noah-isme/boutique-pos/internal/money"
	"github.com/noah-isme/boutique-pos/internal/report"
)

func num(s string) pgtype.Numeric {
	return money.Numeric(decimal.RequireFromString(s))
}

type stubQueries struct {
	salesCalls int
	lastRange  db.RangeParams
	lastLimit  int32
	period     string
	categories []db.RevenueByCategoryRow
	inventory  []db.InventoryRow
}

func (s *stubQueries) SalesByRange(_ context.Context, arg db.RangeParams) ([]db.SalesByRangeRow, error) {
	s.salesCalls++
	s.lastRange = arg
	return []db.SalesByRangeRow{{
		ID:         7,
		SoldAt:     pgtype.Timestamptz{Time: arg.From.Time.Add(time.Hour), Valid: true},
		Total:      num("150"),
		SellerName: "Ana",
	}}, nil
}

func (s *stubQueries) TopProducts(_ context.Context, arg db.TopProductsParams) ([]db.TopProductsRow, error) {
	s.lastLimit = arg.Limit
	return []db.TopProductsRow{{ProductName: "Blusa", CategoryName: "Blusas", Units: 4, Revenue: num("400")}}, nil
}

func (s *stubQueries) RevenueByCategory(context.Context, db.RangeParams) ([]db.RevenueByCategoryRow, error) {
	return s.categories, nil
}

func (s *stubQueries) PeriodRevenue(context.Context, db.RangeParams) (pgtype.Numeric, error) {
	return num(s.period), nil
}

func (s *stubQueries) InventoryValuation(context.Context) ([]db.InventoryRow, error) {
	return s.inventory, nil
}

func newCache(t *testing.T) *cache.JSON {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewJSON(rdb, time.Minute)
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestSalesByRangeCached(t *testing.T) {
	q := &stubQueries{}
	svc := &report.Service{Q: q, Cache: newCache(t)}
	rng := report.Range{From: fixedNow().AddDate(0, 0, -1), To: fixedNow()}

	first, err := svc.SalesByRange(context.Background(), rng)
	require.NoError(t, err)
	second, err := svc.SalesByRange(context.Background(), rng)
	require.NoError(t, err)

	require.Equal(t, 1, q.salesCalls)
	require.Len(t, second, 1)
	require.Equal(t, "150.00", second[0].Total)
	require.Equal(t, first[0].ID, second[0].ID)
}

func TestSalesByRangeFillUnderLock(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := &stubQueries{}
	svc := &report.Service{
		Q:     q,
		Cache: cache.NewJSON(rdb, time.Minute),
		Lock:  lock.Locker{R: rdb, Prefix: "lock:", RetryBackoff: 5 * time.Millisecond, MaxWait: 50 * time.Millisecond},
	}
	rng := report.Range{From: fixedNow().AddDate(0, 0, -1), To: fixedNow()}

	_, err := svc.SalesByRange(context.Background(), rng)
	require.NoError(t, err)
	require.False(t, mr.Exists("lock:fill:"+cache.KeyReport("sales", rng.From, rng.To)))
	require.True(t, mr.Exists(cache.KeyReport("sales", rng.From, rng.To)))

	other := report.Range{From: rng.From.AddDate(0, 0, -1), To: rng.To}
	require.NoError(t, rdb.Set(context.Background(), "lock:fill:"+cache.KeyReport("sales", other.From, other.To), "held", time.Minute).Err())
	rows, err := svc.SalesByRange(context.Background(), other)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 2, q.salesCalls)
}

func TestRevenueByCategoryShare(t *testing.T) {
	q := &stubQueries{
		period: "300",
		categories: []db.RevenueByCategoryRow{
			{CategoryName: "Vestidos", Sales: 2, Revenue: num("200")},
			{CategoryName: "Blusas", Sales: 1, Revenue: num("100")},
		},
	}
	svc := &report.Service{Q: q}
	rows, err := svc.RevenueByCategory(context.Background(), report.Range{From: fixedNow().AddDate(0, 0, -7), To: fixedNow()})
	require.NoError(t, err)
	require.Equal(t, "66.67", rows[0].Share)
	require.Equal(t, "33.33", rows[1].Share)
	require.Equal(t, "200.00", rows[0].Revenue)
}

func TestRevenueByCategoryZeroRevenue(t *testing.T) {
	q := &stubQueries{
		period:     "0",
		categories: []db.RevenueByCategoryRow{{CategoryName: "Vestidos", Sales: 1, Revenue: num("0")}},
	}
	svc := &report.Service{Q: q}
	rows, err := svc.RevenueByCategory(context.Background(), report.Range{From: fixedNow().AddDate(0, 0, -7), To: fixedNow()})
	require.NoError(t, err)
	require.Equal(t, "0.00", rows[0].Share)
}

func TestInventoryTotals(t *testing.T) {
	q := &stubQueries{inventory: []db.InventoryRow{
		{ProductName: "Vestido", Barcode: "V-1", Stock: 3, SalePrice: num("100"), StockValue: num("300")},
		{ProductName: "Blusa", Barcode: "B-1", Stock: 2, SalePrice: num("49.99"), StockValue: num("99.98")},
	}}
	svc := &report.Service{Q: q}
	inv, err := svc.Inventory(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(5), inv.TotalUnits)
	require.Equal(t, "399.98", inv.TotalValue)
	require.Equal(t, "V-1", inv.Items[0].Code)
}

func TestServiceNotConfigured(t *testing.T) {
	var svc *report.Service
	_, err := svc.SalesByRange(context.Background(), report.Range{})
	require.Error(t, err)
}

func TestSalesHandlerRange(t *testing.T) {
	q := &stubQueries{}
	h := report.NewHandler(&report.Service{Q: q, Now: fixedNow, Location: time.UTC})

	rec := httptest.NewRecorder()
	h.Sales(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales?from=2024-06-01&to=2024-06-10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), q.lastRange.From.Time)
	require.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), q.lastRange.To.Time)

	var body struct {
		Data []report.SaleRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
}

func TestSalesHandlerDefaultRange(t *testing.T) {
	q := &stubQueries{}
	h := report.NewHandler(&report.Service{Q: q, Now: fixedNow, Location: time.UTC})

	rec := httptest.NewRecorder()
	h.Sales(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), q.lastRange.From.Time)
	require.Equal(t, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), q.lastRange.To.Time)
}

func TestHandlerRejectsBadRanges(t *testing.T) {
	h := report.NewHandler(&report.Service{Q: &stubQueries{}, Now: fixedNow, Location: time.UTC})
	for name, query := range map[string]string{
		"bad date":  "?from=06/01/2024",
		"inverted":  "?from=2024-06-10&to=2024-06-01",
		"too long":  "?from=2022-01-01&to=2024-01-01",
		"bad limit": "?limit=500",
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.TopProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/top-products"+query, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), "REQUEST_INVALID")
		})
	}
}

func TestTopProductsHandlerLimit(t *testing.T) {
	q := &stubQueries{}
	h := report.NewHandler(&report.Service{Q: q, Now: fixedNow, Location: time.UTC})
	rec := httptest.NewRecorder()
	h.TopProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/top-products?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int32(5), q.lastLimit)
}
