package sale

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/boutique-pos/internal/common"
	"github.com/noah-isme/boutique-pos/internal/money"
)

// Handler exposes the sale endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
	baseURL  string
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
	// PublicBaseURL prefixes ticket links when set.
	PublicBaseURL string
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, validate: validator.New(), baseURL: cfg.PublicBaseURL}
}

// LineView is the JSON shape of a sale line.
type LineView struct {
	ID          int64  `json:"id,omitempty"`
	VariantID   int64  `json:"variantId"`
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"`
}

// QuoteView is the JSON shape of a quote.
type QuoteView struct {
	BuyerID  int64      `json:"buyerId"`
	Lines    []LineView `json:"lines"`
	Subtotal string     `json:"subtotal"`
	Discount string     `json:"discount"`
	Total    string     `json:"total"`
}

// TicketLink points at the printable receipt.
type TicketLink struct {
	PDFURL string `json:"pdfUrl"`
}

// SaleView is the JSON shape of a registered sale.
type SaleView struct {
	ID        int64      `json:"id"`
	BuyerID   int64      `json:"buyerId"`
	BuyerName string     `json:"buyerName,omitempty"`
	SoldAt    time.Time  `json:"soldAt"`
	Status    string     `json:"status"`
	Subtotal  string     `json:"subtotal"`
	Discount  string     `json:"discount"`
	Total     string     `json:"total"`
	Payment   string     `json:"payment"`
	Change    string     `json:"change"`
	Lines     []LineView `json:"lines"`
	Ticket    TicketLink `json:"ticket"`
}

// Quote handles POST /api/v1/sales/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	q, err := h.service.Quote(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, quoteView(q))
}

// Create handles POST /api/v1/sales: prices the request and registers it.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	draft, err := h.service.Price(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	sale, err := h.service.Register(r.Context(), draft)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/sales/%d", sale.ID))
	common.Data(w, http.StatusCreated, h.saleView(sale))
}

// Get handles GET /api/v1/sales/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "sale service not configured", nil)
		return
	}
	id, ok := common.ParseID(chi.URLParam(r, "id"))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, string(KindRequestInvalid), "sale id must be a positive integer", nil)
		return
	}
	sale, err := h.service.GetWithLines(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.saleView(sale))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (PriceRequest, bool) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "sale service not configured", nil)
		return PriceRequest{}, false
	}
	var req PriceRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, string(KindRequestInvalid), "request body is not valid JSON", map[string]any{"reason": err.Error()})
		return PriceRequest{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, string(KindRequestInvalid), "request is malformed", map[string]any{"reason": err.Error()})
		return PriceRequest{}, false
	}
	return req, true
}

func quoteView(q Quote) QuoteView {
	lines := make([]LineView, 0, len(q.Lines))
	for _, l := range q.Lines {
		lines = append(lines, LineView{
			VariantID:   l.VariantID,
			Code:        l.Code,
			DisplayName: l.DisplayName,
			Quantity:    l.Quantity,
			UnitPrice:   money.Format(l.UnitPrice),
			Subtotal:    money.Format(l.Subtotal),
		})
	}
	return QuoteView{
		BuyerID:  q.BuyerID,
		Lines:    lines,
		Subtotal: money.Format(q.Subtotal),
		Discount: money.Format(q.Discount),
		Total:    money.Format(q.Total),
	}
}

func (h *Handler) saleView(s Sale) SaleView {
	lines := make([]LineView, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, LineView{
			ID:          l.ID,
			VariantID:   l.VariantID,
			Code:        l.Code,
			DisplayName: l.DisplayName,
			Quantity:    l.Quantity,
			UnitPrice:   money.Format(l.UnitPrice),
			Subtotal:    money.Format(l.Subtotal()),
		})
	}
	return SaleView{
		ID:        s.ID,
		BuyerID:   s.BuyerID,
		BuyerName: s.BuyerName,
		SoldAt:    s.SoldAt,
		Status:    s.Status,
		Subtotal:  money.Format(s.Subtotal),
		Discount:  money.Format(s.Discount),
		Total:     money.Format(s.Total),
		Payment:   money.Format(s.Payment),
		Change:    money.Format(s.Change),
		Lines:     lines,
		Ticket:    TicketLink{PDFURL: fmt.Sprintf("%s/api/v1/sales/%d/ticket.pdf", h.baseURL, s.ID)},
	}
}
