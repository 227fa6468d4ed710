package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/boutique-pos/internal/common"
	"github.com/noah-isme/boutique-pos/internal/money"
)

// Handler exposes catalog lookup endpoints used by the register screen.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// VariantView is the JSON shape of a variant.
type VariantView struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Category    string `json:"category"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	DisplayName string `json:"displayName"`
}

// ToView converts a snapshot into its JSON shape.
func ToView(v VariantSnapshot) VariantView {
	return VariantView{
		ID:          v.ID,
		Code:        v.Code,
		ProductID:   v.ProductID,
		ProductName: v.ProductName,
		Category:    v.Category,
		Size:        v.Size,
		Color:       v.Color,
		Price:       money.Format(v.UnitPrice),
		Stock:       v.Stock,
		DisplayName: v.DisplayName(),
	}
}

// SearchProducts handles GET /api/v1/products/search?name=&limit=.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	q := r.URL.Query()
	items, err := h.service.SearchProducts(r.Context(), q.Get("name"), common.AtoiDefault(q.Get("limit"), 0))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

// ProductVariants handles GET /api/v1/products/{id}/variants.
func (h *Handler) ProductVariants(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id, ok := common.ParseID(chi.URLParam(r, "id"))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "REQUEST_INVALID", "product id must be a positive integer", nil)
		return
	}
	variants, err := h.service.ListVariantsByProduct(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	views := make([]VariantView, 0, len(variants))
	for _, v := range variants {
		views = append(views, ToView(v))
	}
	common.Data(w, http.StatusOK, views)
}

// VariantByCode handles GET /api/v1/variants/code/{code}.
func (h *Handler) VariantByCode(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	code := chi.URLParam(r, "code")
	v, err := h.service.LookupVariantByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrVariantNotFound) {
			common.JSONError(w, http.StatusNotFound, "VARIANT_NOT_FOUND", "variant not found", map[string]any{"code": code})
			return
		}
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, ToView(v))
}
