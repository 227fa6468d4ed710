package report

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/boutique-pos/internal/common"
)

const (
	dateLayout       = "2006-01-02"
	defaultRangeDays = 30
	maxRangeDays     = 366
)

type rangeQuery struct {
	From  string `validate:"omitempty,datetime=2006-01-02"`
	To    string `validate:"omitempty,datetime=2006-01-02"`
	Limit int    `validate:"min=1,max=100"`
}

// Handler exposes report read endpoints.
type Handler struct {
	Svc      *Service
	validate *validator.Validate
}

// NewHandler constructs a report Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, validate: validator.New()}
}

// parseRange resolves from/to query dates into a half-open range. Both dates
// are calendar days in the service location and to is inclusive.
func (h *Handler) parseRange(r *http.Request) (Range, int, bool, string) {
	q := r.URL.Query()
	params := rangeQuery{
		From:  q.Get("from"),
		To:    q.Get("to"),
		Limit: common.AtoiDefault(q.Get("limit"), 10),
	}
	if err := h.validate.Struct(params); err != nil {
		return Range{}, 0, false, "from and to must be YYYY-MM-DD dates and limit between 1 and 100"
	}
	loc := h.Svc.location()
	now := h.Svc.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	to := today
	if params.To != "" {
		to, _ = time.ParseInLocation(dateLayout, params.To, loc)
	}
	from := to.AddDate(0, 0, -(defaultRangeDays - 1))
	if params.From != "" {
		from, _ = time.ParseInLocation(dateLayout, params.From, loc)
	}
	if from.After(to) {
		return Range{}, 0, false, "from must not be after to"
	}
	end := to.AddDate(0, 0, 1)
	if end.Sub(from) > maxRangeDays*24*time.Hour+time.Hour {
		return Range{}, 0, false, "range must not exceed 366 days"
	}
	return Range{From: from, To: end}, params.Limit, true, ""
}

func (h *Handler) configured(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_NOT_CONFIGURED", "report service not configured", nil)
		return false
	}
	return true
}

func writeRangeError(w http.ResponseWriter, msg string) {
	common.JSONError(w, http.StatusBadRequest, "REQUEST_INVALID", msg, nil)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.Svc.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("report failed")
	common.JSONError(w, http.StatusInternalServerError, "REPORT_FAILED", "could not build report", nil)
}

// Sales handles GET /api/v1/reports/sales.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	rng, _, ok, msg := h.parseRange(r)
	if !ok {
		writeRangeError(w, msg)
		return
	}
	rows, err := h.Svc.SalesByRange(r.Context(), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// TopProducts handles GET /api/v1/reports/top-products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	rng, limit, ok, msg := h.parseRange(r)
	if !ok {
		writeRangeError(w, msg)
		return
	}
	rows, err := h.Svc.TopProducts(r.Context(), rng, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// Categories handles GET /api/v1/reports/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	rng, _, ok, msg := h.parseRange(r)
	if !ok {
		writeRangeError(w, msg)
		return
	}
	rows, err := h.Svc.RevenueByCategory(r.Context(), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// Inventory handles GET /api/v1/reports/inventory.
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	inv, err := h.Svc.Inventory(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, inv)
}
