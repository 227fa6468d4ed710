package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/boutique-pos/internal/cache"
	"github.com/noah-isme/boutique-pos/internal/common"
	"github.com/noah-isme/boutique-pos/internal/db"
	"github.com/noah-isme/boutique-pos/internal/money"
)

// ErrVariantNotFound is returned when no variant carries the requested code.
var ErrVariantNotFound = errors.New("catalog: variant not found")

const (
	defaultSearchLimit = 15
	maxSearchLimit     = 50
)

type queryProvider interface {
	GetVariantByBarcode(ctx context.Context, barcode string) (db.VariantDetail, error)
	SearchProductsByName(ctx context.Context, arg db.SearchProductsByNameParams) ([]db.ProductLite, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
	ListVariantsByProduct(ctx context.Context, productID int64) ([]db.VariantDetail, error)
}

// VariantSnapshot is the catalog's view of a sellable variant at lookup time.
type VariantSnapshot struct {
	ID          int64
	Code        string
	ProductID   int64
	ProductName string
	Category    string
	Size        string
	Color       string
	UnitPrice   decimal.Decimal
	Stock       int
}

// DisplayName renders the variant the way it is printed on receipts: product
// name followed by size and color when known.
func (v VariantSnapshot) DisplayName() string {
	name := strings.TrimSpace(v.ProductName)
	if name == "" {
		name = v.Code
	}
	var attrs []string
	if s := strings.TrimSpace(v.Size); s != "" {
		attrs = append(attrs, s)
	}
	if c := strings.TrimSpace(v.Color); c != "" {
		attrs = append(attrs, c)
	}
	if len(attrs) == 0 {
		return name
	}
	return name + " " + strings.Join(attrs, " ")
}

// ProductLite is a search result entry.
type ProductLite struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Service answers catalog lookups and caches product searches.
type Service struct {
	queries      queryProvider
	cache        *cache.JSON
	defaultLimit int
	logger       zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *cache.JSON
	DefaultLimit int
	Logger       *zerolog.Logger
}

// NewService constructs a catalog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog queries are required")
	}
	limit := cfg.DefaultLimit
	if limit < 1 || limit > maxSearchLimit {
		limit = defaultSearchLimit
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "catalog").Logger()
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache, defaultLimit: limit, logger: logger}, nil
}

// LookupVariantByCode returns a fresh snapshot of the variant with the given
// barcode. Snapshots carry live stock and are never cached.
func (s *Service) LookupVariantByCode(ctx context.Context, code string) (VariantSnapshot, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return VariantSnapshot{}, ErrVariantNotFound
	}
	row, err := s.queries.GetVariantByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VariantSnapshot{}, ErrVariantNotFound
		}
		return VariantSnapshot{}, fmt.Errorf("lookup variant %q: %w", code, err)
	}
	return snapshotFromRow(row), nil
}

// SearchProducts performs a case-insensitive substring search on product
// names. A blank name yields an empty result without touching the database.
func (s *Service) SearchProducts(ctx context.Context, name string, limit int) ([]ProductLite, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []ProductLite{}, nil
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	limit = common.ClampInt(limit, 1, maxSearchLimit)

	key := cache.KeyProductSearch(name, limit)
	var cached []ProductLite
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	rows, err := s.queries.SearchProductsByName(ctx, db.SearchProductsByNameParams{
		Name:  escapeLike(name),
		Limit: int32(limit),
	})
	if err != nil {
		return nil, err
	}
	items := make([]ProductLite, 0, len(rows))
	for _, row := range rows {
		items = append(items, ProductLite{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Category:    row.CategoryName,
		})
	}
	if err := s.cache.SetJSON(ctx, key, items); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return items, nil
}

// ListVariantsByProduct returns every variant of a product.
func (s *Service) ListVariantsByProduct(ctx context.Context, productID int64) ([]VariantSnapshot, error) {
	exists, err := s.queries.ProductExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.NewAppError("PRODUCT_NOT_FOUND", fmt.Sprintf("product %d not found", productID), http.StatusNotFound, nil)
	}
	rows, err := s.queries.ListVariantsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]VariantSnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, snapshotFromRow(row))
	}
	return out, nil
}

func snapshotFromRow(row db.VariantDetail) VariantSnapshot {
	return VariantSnapshot{
		ID:          row.ID,
		Code:        row.Barcode,
		ProductID:   row.ProductID,
		ProductName: row.ProductName,
		Category:    row.CategoryName,
		Size:        row.Size,
		Color:       row.Color,
		UnitPrice:   money.FromNumeric(row.SalePrice),
		Stock:       int(row.Stock),
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
