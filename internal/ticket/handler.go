package ticket

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/boutique-pos/internal/common"
	"github.com/noah-isme/boutique-pos/internal/obs"
	"github.com/noah-isme/boutique-pos/internal/sale"
)

// SaleSource loads a sale ready for printing.
type SaleSource interface {
	GetWithLines(ctx context.Context, id int64) (sale.Sale, error)
}

// Handler serves receipt PDFs.
type Handler struct {
	Sales    SaleSource
	Renderer *Renderer
	Logger   zerolog.Logger
}

// Ticket handles GET /api/v1/sales/{id}/ticket.pdf.
func (h *Handler) Ticket(w http.ResponseWriter, r *http.Request) {
	if h.Sales == nil || h.Renderer == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ticket service not configured", nil)
		return
	}
	id, ok := common.ParseID(chi.URLParam(r, "id"))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, string(sale.KindRequestInvalid), "sale id must be a positive integer", nil)
		return
	}
	s, err := h.Sales.GetWithLines(r.Context(), id)
	if err != nil {
		obs.CountResult(obs.TicketsRenderedTotal, string(sale.KindOf(err)))
		common.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, s); err != nil {
		obs.CountResult(obs.TicketsRenderedTotal, "render_failed")
		h.Logger.Error().Err(err).Int64("sale_id", id).Msg("ticket render failed")
		common.JSONError(w, http.StatusInternalServerError, "TICKET_RENDER_FAILED", "could not render ticket", nil)
		return
	}
	obs.CountResult(obs.TicketsRenderedTotal, "ok")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="TicketVenta_%d.pdf"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
