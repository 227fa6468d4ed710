package sale

import (
	"context"
	"errors"

	"github.com/noah-isme/boutique-pos/internal/catalog"
	"github.com/noah-isme/boutique-pos/internal/events"
)

var (
	// ErrNotFound is returned by stores when a sale or variant row is absent.
	ErrNotFound = errors.New("sale: record not found")
	// ErrUnknownBuyer is returned by stores when the buyer does not exist.
	ErrUnknownBuyer = errors.New("sale: unknown buyer")
)

// Catalog resolves variant codes to live snapshots.
type Catalog interface {
	LookupVariantByCode(ctx context.Context, code string) (catalog.VariantSnapshot, error)
}

// Buyers resolves a buyer id to a display name.
type Buyers interface {
	DisplayName(ctx context.Context, id int64) (string, error)
}

// Emitter publishes domain events after a sale commits.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// LockedVariant is a variant row held under a write lock for the rest of the
// transaction.
type LockedVariant struct {
	ID    int64
	Code  string
	Stock int
}

// Tx is the set of writes a registration performs inside one transaction.
type Tx interface {
	LockVariant(ctx context.Context, code string) (LockedVariant, error)
	InsertSale(ctx context.Context, header Sale) (Sale, error)
	InsertLine(ctx context.Context, saleID int64, line Line) (int64, error)
	// DecrementStock reports false when the row had less than qty in stock.
	DecrementStock(ctx context.Context, variantID int64, qty int) (bool, error)
}

// Store persists sales. WithinTx commits when fn returns nil and rolls back
// every write otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
	FindSale(ctx context.Context, id int64) (Sale, error)
}
