package ticket_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boutique-pos/internal/common"
	"github.com/noah-isme/boutique-pos/internal/sale"
	"github.com/noah-isme/boutique-pos/internal/ticket"
)

func sampleSale() sale.Sale {
	d := decimal.RequireFromString
	return sale.Sale{
		ID:        12,
		BuyerID:   1,
		BuyerName: "Ana Cajera",
		SoldAt:    time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC),
		Subtotal:  d("200.00"),
		Discount:  d("50.00"),
		Total:     d("150.00"),
		Payment:   d("150.00"),
		Status:    sale.StatusCompleted,
		Lines: []sale.Line{
			{ID: 1, VariantID: 1, Code: "BC-001", DisplayName: "Vestido largo de lino con encaje M Negro", Quantity: 2, UnitPrice: d("100.00")},
		},
	}
}

func newRenderer() *ticket.Renderer {
	return ticket.NewRenderer(ticket.Shop{
		Name:    "CHAZZ BOUTIQUE",
		Address: "Calle Guillermo Prieto #339, Col. Centro, Los Mochis",
		Contact: "Tel: +52 1 668 253 1651",
		Footer:  []string{"¡Gracias por su preferencia!", "@chazz.boutique"},
	}, time.UTC)
}

func TestRenderProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRenderer().Render(&buf, sampleSale()))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRenderToleratesNegativeChangeAndMissingNames(t *testing.T) {
	s := sampleSale()
	s.Payment = decimal.RequireFromString("100.00")
	s.BuyerName = ""
	s.Lines[0].DisplayName = ""
	s.Lines[0].Code = ""
	var buf bytes.Buffer
	require.NoError(t, newRenderer().Render(&buf, s))
	require.NotZero(t, buf.Len())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "Blusa", ticket.Truncate("Blusa", 25))
	require.Equal(t, "Vestido largo de lino ...", ticket.Truncate("Vestido largo de lino con encaje", 25))
	require.Len(t, []rune(ticket.Truncate("ñññññññññññññññññññññññññññ", 25)), 25)
}

type stubSource struct {
	sale sale.Sale
	err  error
}

func (s stubSource) GetWithLines(context.Context, int64) (sale.Sale, error) {
	return s.sale, s.err
}

func ticketRequest(id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/"+id+"/ticket.pdf", nil)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestTicketHandler(t *testing.T) {
	h := &ticket.Handler{Sales: stubSource{sale: sampleSale()}, Renderer: newRenderer()}
	rec := httptest.NewRecorder()
	h.Ticket(rec, ticketRequest("12"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Equal(t, `inline; filename="TicketVenta_12.pdf"`, rec.Header().Get("Content-Disposition"))
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestTicketHandlerMissingSale(t *testing.T) {
	notFound := common.NewAppError(string(sale.KindSaleNotFound), "sale 5 not found", http.StatusNotFound, nil)
	h := &ticket.Handler{Sales: stubSource{err: notFound}, Renderer: newRenderer()}
	rec := httptest.NewRecorder()
	h.Ticket(rec, ticketRequest("5"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "SALE_NOT_FOUND")

	rec = httptest.NewRecorder()
	h.Ticket(rec, ticketRequest("x"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
