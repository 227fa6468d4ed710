package sale

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/boutique-pos/internal/db"
	"github.com/noah-isme/boutique-pos/internal/money"
)

const pgForeignKeyViolation = "23503"

// PGStore is the Postgres implementation of Store.
type PGStore struct {
	Pool *pgxpool.Pool
	Q    *db.Queries
}

// NewPGStore constructs a store over pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool, Q: db.New(pool)}
}

// WithinTx runs fn in a read-committed transaction. Row locks taken by
// LockVariant are held until commit or rollback.
func (s *PGStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	if s == nil || s.Pool == nil || s.Q == nil {
		return errors.New("sale store not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(&pgTx{q: s.Q.WithTx(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindSale loads a sale header and its lines in insertion order.
func (s *PGStore) FindSale(ctx context.Context, id int64) (Sale, error) {
	row, err := s.Q.GetSale(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrNotFound
		}
		return Sale{}, err
	}
	lines, err := s.Q.ListSaleLines(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	out := saleFromRow(row)
	out.Lines = make([]Line, 0, len(lines))
	for _, l := range lines {
		out.Lines = append(out.Lines, Line{
			ID:        l.ID,
			VariantID: l.VariantID,
			Code:      l.Barcode,
			Quantity:  int(l.Quantity),
			UnitPrice: money.FromNumeric(l.UnitPrice),
		})
	}
	return out, nil
}

type pgTx struct {
	q *db.Queries
}

func (t *pgTx) LockVariant(ctx context.Context, code string) (LockedVariant, error) {
	row, err := t.q.LockVariantByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LockedVariant{}, ErrNotFound
		}
		return LockedVariant{}, fmt.Errorf("lock variant %s: %w", code, err)
	}
	return LockedVariant{ID: row.ID, Code: row.Barcode, Stock: int(row.Stock)}, nil
}

func (t *pgTx) InsertSale(ctx context.Context, header Sale) (Sale, error) {
	row, err := t.q.InsertSale(ctx, db.InsertSaleParams{
		UserID:    header.BuyerID,
		SoldAt:    pgtype.Timestamptz{Time: header.SoldAt, Valid: true},
		Subtotal:  money.Numeric(header.Subtotal),
		Discount:  money.Numeric(header.Discount),
		Total:     money.Numeric(header.Total),
		Payment:   money.Numeric(header.Payment),
		ChangeDue: money.Numeric(header.Change),
		Status:    header.Status,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return Sale{}, fmt.Errorf("%w: %s", ErrUnknownBuyer, pgErr.ConstraintName)
		}
		return Sale{}, fmt.Errorf("insert sale: %w", err)
	}
	return saleFromRow(row), nil
}

func (t *pgTx) InsertLine(ctx context.Context, saleID int64, line Line) (int64, error) {
	id, err := t.q.InsertSaleLine(ctx, db.InsertSaleLineParams{
		SaleID:    saleID,
		VariantID: line.VariantID,
		Quantity:  int32(line.Quantity),
		UnitPrice: money.Numeric(line.UnitPrice),
	})
	if err != nil {
		return 0, fmt.Errorf("insert sale line %s: %w", line.Code, err)
	}
	return id, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, variantID int64, qty int) (bool, error) {
	n, err := t.q.DecrementVariantStock(ctx, db.DecrementVariantStockParams{ID: variantID, Quantity: int32(qty)})
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return n == 1, nil
}

func saleFromRow(row db.Sale) Sale {
	return Sale{
		ID:       row.ID,
		BuyerID:  row.UserID,
		SoldAt:   row.SoldAt.Time.UTC(),
		Subtotal: money.FromNumeric(row.Subtotal),
		Discount: money.FromNumeric(row.Discount),
		Total:    money.FromNumeric(row.Total),
		Payment:  money.FromNumeric(row.Payment),
		Change:   money.FromNumeric(row.ChangeDue),
		Status:   row.Status,
	}
}
