package sale

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/boutique-pos/internal/catalog"
	"github.com/noah-isme/boutique-pos/internal/events"
	"github.com/noah-isme/boutique-pos/internal/money"
	"github.com/noah-isme/boutique-pos/internal/obs"
	"github.com/noah-isme/boutique-pos/internal/pricing"
)

// Service prices, registers and retrieves sales.
type Service struct {
	catalog Catalog
	buyers  Buyers
	store   Store
	events  Emitter
	logger  zerolog.Logger
	now     func() time.Time
}

// Config groups Service dependencies.
type Config struct {
	Catalog Catalog
	Buyers  Buyers
	Store   Store
	Events  Emitter
	Logger  *zerolog.Logger
	Now     func() time.Time
}

// NewService constructs a sale service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("sale: catalog is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("sale: store is required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "sale").Logger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		catalog: cfg.Catalog,
		buyers:  cfg.Buyers,
		store:   cfg.Store,
		events:  cfg.Events,
		logger:  logger,
		now:     now,
	}, nil
}

func lineSubtotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return pricing.LineSubtotal(unit, qty)
}

// Quote validates the request and prices it without looking at the payment.
func (s *Service) Quote(ctx context.Context, req PriceRequest) (Quote, error) {
	q, err := s.quote(ctx, req)
	obs.CountResult(obs.SalesQuotedTotal, string(KindOf(err)))
	return q, err
}

// Price validates the request against the live catalog and returns a draft
// ready for registration. Checks run in a fixed order and the first failure
// is returned. Pricing performs reads only.
func (s *Service) Price(ctx context.Context, req PriceRequest) (Draft, error) {
	q, err := s.quote(ctx, req)
	if err != nil {
		return Draft{}, err
	}
	payment := money.NormalizeNull(req.Payment)
	change, shortfall := pricing.Settle(q.Total, payment)
	if shortfall.IsPositive() {
		return Draft{}, newError(KindPaymentInsufficient,
			fmt.Sprintf("payment %s is below total %s", money.Format(payment), money.Format(q.Total)),
			nil, map[string]any{"shortfall": money.Format(shortfall)})
	}
	return Draft{Quote: q, Payment: payment, Change: change}, nil
}

func (s *Service) quote(ctx context.Context, req PriceRequest) (Quote, error) {
	if req.BuyerID == nil {
		return Quote{}, newError(KindRequestInvalid, "buyer id is required", nil, nil)
	}
	if len(req.Items) == 0 {
		return Quote{}, newError(KindSaleEmpty, "sale has no items", nil, nil)
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.Code) == "" {
			return Quote{}, newError(KindCodeRequired, "every item needs a variant code", nil, map[string]any{"index": i})
		}
	}

	lines := make([]PricedLine, 0, len(req.Items))
	items := make([]pricing.Item, 0, len(req.Items))
	for _, it := range req.Items {
		code := strings.TrimSpace(it.Code)
		v, err := s.catalog.LookupVariantByCode(ctx, code)
		if err != nil {
			if errors.Is(err, catalog.ErrVariantNotFound) {
				return Quote{}, newError(KindVariantNotFound, fmt.Sprintf("variant %s not found", code), nil, map[string]any{"code": code})
			}
			s.logger.Error().Err(err).Str("code", code).Msg("variant lookup failed")
			return Quote{}, newError(KindVariantLookupFailed, fmt.Sprintf("could not look up variant %s", code), err, map[string]any{"code": code})
		}
		if it.Quantity < 1 {
			return Quote{}, newError(KindQuantityInvalid, fmt.Sprintf("quantity for %s must be at least 1", code), nil, map[string]any{"code": code})
		}
		if it.Quantity > v.Stock {
			return Quote{}, stockError(code, v.Stock, it.Quantity)
		}
		unit := money.Normalize(v.UnitPrice)
		lines = append(lines, PricedLine{
			VariantID:   v.ID,
			Code:        code,
			DisplayName: v.DisplayName(),
			Quantity:    it.Quantity,
			UnitPrice:   unit,
			Subtotal:    lineSubtotal(unit, it.Quantity),
		})
		items = append(items, pricing.Item{Qty: it.Quantity, UnitPrice: unit})
	}

	summary, err := pricing.Compute(items, money.NormalizeNull(req.Discount))
	if err != nil {
		return Quote{}, newError(KindDiscountInvalid,
			fmt.Sprintf("discount %s exceeds subtotal %s", money.Format(summary.Discount), money.Format(summary.Subtotal)),
			nil, map[string]any{"subtotal": money.Format(summary.Subtotal)})
	}
	return Quote{
		BuyerID:  *req.BuyerID,
		Lines:    lines,
		Subtotal: summary.Subtotal,
		Discount: summary.Discount,
		Total:    summary.Total,
	}, nil
}

func stockError(code string, available, requested int) error {
	return newError(KindStockInsufficient,
		fmt.Sprintf("insufficient stock for %s: %d available", code, available),
		nil, map[string]any{"code": code, "available": available, "requested": requested})
}

// Register persists a draft atomically: stock is re-checked under row locks,
// the header and lines are written and stock is decremented in one
// transaction. Any failure leaves the store untouched.
func (s *Service) Register(ctx context.Context, d Draft) (Sale, error) {
	start := time.Now()
	sale, err := s.register(ctx, d)
	obs.CountResult(obs.SalesRegisteredTotal, string(KindOf(err)))
	obs.ObserveMillis(obs.SaleRegisterLatency, obs.DurationMillis(time.Since(start)))
	if err != nil {
		return Sale{}, err
	}
	s.publishRegistered(ctx, sale)
	return sale, nil
}

func (s *Service) register(ctx context.Context, d Draft) (Sale, error) {
	if err := checkDraft(d); err != nil {
		return Sale{}, err
	}

	demand := make(map[string]int, len(d.Lines))
	for _, l := range d.Lines {
		demand[l.Code] += l.Quantity
	}
	codes := make([]string, 0, len(demand))
	for code := range demand {
		codes = append(codes, code)
	}
	// a fixed lock order keeps concurrent registrations from deadlocking
	sort.Strings(codes)

	var saved Sale
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		locked := make(map[string]LockedVariant, len(codes))
		for _, code := range codes {
			v, err := tx.LockVariant(ctx, code)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return newError(KindVariantNotFound, fmt.Sprintf("variant %s not found", code), nil, map[string]any{"code": code})
				}
				return err
			}
			if demand[code] > v.Stock {
				return stockError(code, v.Stock, demand[code])
			}
			locked[code] = v
		}

		header, err := tx.InsertSale(ctx, Sale{
			BuyerID:  d.BuyerID,
			SoldAt:   s.now().UTC(),
			Subtotal: d.Subtotal,
			Discount: d.Discount,
			Total:    d.Total,
			Payment:  d.Payment,
			Change:   d.Change,
			Status:   StatusCompleted,
		})
		if err != nil {
			return err
		}

		header.Lines = make([]Line, 0, len(d.Lines))
		for _, pl := range d.Lines {
			v := locked[pl.Code]
			line := Line{
				VariantID:   v.ID,
				Code:        pl.Code,
				DisplayName: pl.DisplayName,
				Quantity:    pl.Quantity,
				UnitPrice:   pl.UnitPrice,
			}
			if line.ID, err = tx.InsertLine(ctx, header.ID, line); err != nil {
				return err
			}
			ok, err := tx.DecrementStock(ctx, v.ID, pl.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return stockError(pl.Code, v.Stock, demand[pl.Code])
			}
			header.Lines = append(header.Lines, line)
		}
		saved = header
		return nil
	})
	if err != nil {
		return Sale{}, s.registrationError(err)
	}
	return saved, nil
}

func (s *Service) registrationError(err error) error {
	if KindOf(err) != KindInternal {
		return err
	}
	if errors.Is(err, ErrUnknownBuyer) {
		return newError(KindRequestInvalid, "buyer does not exist", err, nil)
	}
	s.logger.Error().Err(err).Msg("sale registration rolled back")
	return newError(KindPersistenceFailed, "could not register sale", err, nil)
}

// checkDraft re-validates the invariants a draft must satisfy before any write.
func checkDraft(d Draft) error {
	if len(d.Lines) == 0 {
		return newError(KindSaleEmpty, "sale has no items", nil, nil)
	}
	subtotal := money.Zero
	for _, l := range d.Lines {
		if strings.TrimSpace(l.Code) == "" {
			return newError(KindCodeRequired, "every item needs a variant code", nil, nil)
		}
		if l.Quantity < 1 {
			return newError(KindQuantityInvalid, fmt.Sprintf("quantity for %s must be at least 1", l.Code), nil, map[string]any{"code": l.Code})
		}
		if !l.Subtotal.Equal(lineSubtotal(l.UnitPrice, l.Quantity)) {
			return newError(KindRequestInvalid, fmt.Sprintf("line %s subtotal does not match price and quantity", l.Code), nil, nil)
		}
		subtotal = subtotal.Add(l.Subtotal)
	}
	if !money.Normalize(subtotal).Equal(d.Subtotal) {
		return newError(KindRequestInvalid, "subtotal does not match lines", nil, nil)
	}
	if d.Discount.IsNegative() || d.Discount.GreaterThan(d.Subtotal) {
		return newError(KindDiscountInvalid, "discount must be between zero and the subtotal", nil, nil)
	}
	if !d.Total.Equal(money.Normalize(d.Subtotal.Sub(d.Discount))) || d.Total.IsNegative() {
		return newError(KindRequestInvalid, "total must equal subtotal minus discount", nil, nil)
	}
	if d.Payment.LessThan(d.Total) {
		return newError(KindPaymentInsufficient, "payment is below total", nil,
			map[string]any{"shortfall": money.Format(d.Total.Sub(d.Payment))})
	}
	return nil
}

func (s *Service) publishRegistered(ctx context.Context, sale Sale) {
	if s.events == nil {
		return
	}
	lines := make([]map[string]any, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		lines = append(lines, map[string]any{
			"variantId": l.VariantID,
			"code":      l.Code,
			"quantity":  l.Quantity,
			"unitPrice": money.Format(l.UnitPrice),
		})
	}
	payload := map[string]any{
		"saleId":   sale.ID,
		"buyerId":  sale.BuyerID,
		"soldAt":   sale.SoldAt,
		"subtotal": money.Format(sale.Subtotal),
		"discount": money.Format(sale.Discount),
		"total":    money.Format(sale.Total),
		"lines":    lines,
	}
	// the sale is committed; delivery problems are reported, not returned
	if _, err := s.events.Emit(ctx, events.TopicSaleRegistered, strconv.FormatInt(sale.ID, 10), payload); err != nil {
		obs.CountResult(obs.SaleEventsPublishedTotal, "error")
		s.logger.Warn().Err(err).Int64("sale_id", sale.ID).Msg("sale event not delivered")
		return
	}
	obs.CountResult(obs.SaleEventsPublishedTotal, "ok")
}

// GetWithLines loads a sale and resolves display names for its buyer and
// lines. Prices and quantities come from the stored lines.
func (s *Service) GetWithLines(ctx context.Context, id int64) (Sale, error) {
	sale, err := s.store.FindSale(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Sale{}, newError(KindSaleNotFound, fmt.Sprintf("sale %d not found", id), nil, map[string]any{"id": id})
		}
		s.logger.Error().Err(err).Int64("sale_id", id).Msg("load sale failed")
		return Sale{}, newError(KindPersistenceFailed, "could not load sale", err, nil)
	}
	for i := range sale.Lines {
		line := &sale.Lines[i]
		line.DisplayName = line.Code
		v, err := s.catalog.LookupVariantByCode(ctx, line.Code)
		if err != nil {
			s.logger.Debug().Err(err).Str("code", line.Code).Msg("display name lookup failed")
			continue
		}
		line.DisplayName = v.DisplayName()
	}
	sale.BuyerName = s.buyerName(ctx, sale.BuyerID)
	return sale, nil
}

func (s *Service) buyerName(ctx context.Context, id int64) string {
	fallback := fmt.Sprintf("Usuario #%d", id)
	if s.buyers == nil {
		return fallback
	}
	name, err := s.buyers.DisplayName(ctx, id)
	if err != nil || strings.TrimSpace(name) == "" {
		return fallback
	}
	return strings.TrimSpace(name)
}
