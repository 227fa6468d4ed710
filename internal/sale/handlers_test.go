package sale_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boutique-pos/internal/sale"
)

type saleEnvelope struct {
	Data sale.SaleView `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newHandler(t *testing.T) (*sale.Handler, *memStore) {
	t.Helper()
	store := newMemStore()
	store.addVariant(1, "BC-001", "Vestido", "100.00", 10)
	svc := newService(t, store, nil)
	return sale.NewHandler(sale.HandlerConfig{Service: svc, PublicBaseURL: "https://pos.example"}), store
}

func TestCreateSaleHandler(t *testing.T) {
	h, store := newHandler(t)
	body := `{"buyerId":1,"items":[{"code":"BC-001","quantity":2}],"discount":"50.00","payment":150}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp saleEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "150.00", resp.Data.Total)
	require.Equal(t, "200.00", resp.Data.Subtotal)
	require.Equal(t, "0.00", resp.Data.Change)
	require.Equal(t, "COMPLETED", resp.Data.Status)
	require.Len(t, resp.Data.Lines, 1)
	require.Equal(t, "https://pos.example/api/v1/sales/1/ticket.pdf", resp.Data.Ticket.PDFURL)
	require.Equal(t, "/api/v1/sales/1", rec.Header().Get("Location"))
	require.Equal(t, 8, store.stockOf("BC-001"))
}

func TestCreateSaleHandlerErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"buyerId":`, http.StatusBadRequest, "REQUEST_INVALID"},
		{"unknown field", `{"buyerId":1,"items":[],"coupon":"x"}`, http.StatusBadRequest, "REQUEST_INVALID"},
		{"missing buyer", `{"items":[{"code":"BC-001","quantity":1}]}`, http.StatusBadRequest, "REQUEST_INVALID"},
		{"empty", `{"buyerId":1,"items":[]}`, http.StatusBadRequest, "SALE_EMPTY"},
		{"unknown variant", `{"buyerId":1,"items":[{"code":"X","quantity":1}],"payment":10}`, http.StatusNotFound, "VARIANT_NOT_FOUND"},
		{"stock", `{"buyerId":1,"items":[{"code":"BC-001","quantity":11}],"payment":5000}`, http.StatusConflict, "STOCK_INSUFFICIENT"},
		{"payment", `{"buyerId":1,"items":[{"code":"BC-001","quantity":1}],"payment":"99.99"}`, http.StatusConflict, "PAYMENT_INSUFFICIENT"},
		{"code too long", `{"buyerId":1,"items":[{"code":"` + strings.Repeat("x", 65) + `","quantity":1}]}`, http.StatusBadRequest, "REQUEST_INVALID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, store := newHandler(t)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Create(rec, req)

			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			var resp errorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tc.code, resp.Error.Code)
			require.Equal(t, 10, store.stockOf("BC-001"))
		})
	}
}

func TestQuoteHandler(t *testing.T) {
	h, store := newHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/quote", strings.NewReader(`{"buyerId":1,"items":[{"code":"BC-001","quantity":3}],"discount":-4}`))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data sale.QuoteView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "300.00", resp.Data.Total)
	require.Equal(t, "0.00", resp.Data.Discount)
	require.Equal(t, 10, store.stockOf("BC-001"))
}

func TestGetSaleHandler(t *testing.T) {
	h, _ := newHandler(t)
	create := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"buyerId":1,"items":[{"code":"BC-001","quantity":1}],"payment":100}`))
	h.Create(httptest.NewRecorder(), create)

	get := func(id string) *httptest.ResponseRecorder {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", id)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/"+id, nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		return rec
	}

	rec := get("1")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp saleEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Ana Cajera", resp.Data.BuyerName)
	require.Equal(t, "Vestido M Negro", resp.Data.Lines[0].DisplayName)

	require.Equal(t, http.StatusNotFound, get("2").Code)
	require.Equal(t, http.StatusBadRequest, get("zero").Code)
}
