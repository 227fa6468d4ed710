package sale_test

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/boutique-pos/internal/catalog"
	"github.com/noah-isme/boutique-pos/internal/events"
	"github.com/noah-isme/boutique-pos/internal/sale"
)

type fakeVariant struct {
	id      int64
	code    string
	product string
	size    string
	color   string
	price   decimal.Decimal
	stock   int
}

// memStore is an in-memory Store. Transactions are serialized and roll back by
// restoring a snapshot taken at begin.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	variants map[string]*fakeVariant
	sales    map[int64]sale.Sale
	buyers   map[int64]string
	nextID   int64

	lookupErr     error
	failLineAfter int
	linesInserted int
}

func newMemStore() *memStore {
	return &memStore{
		variants:      map[string]*fakeVariant{},
		sales:         map[int64]sale.Sale{},
		buyers:        map[int64]string{1: "Ana Cajera"},
		failLineAfter: -1,
	}
}

func (m *memStore) addVariant(id int64, code, product string, price string, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[code] = &fakeVariant{
		id: id, code: code, product: product, size: "M", color: "Negro",
		price: decimal.RequireFromString(price), stock: stock,
	}
}

func (m *memStore) stockOf(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.variants[code].stock
}

func (m *memStore) setPrice(code, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[code].price = decimal.RequireFromString(price)
}

func (m *memStore) saleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sales)
}

// LookupVariantByCode implements sale.Catalog against the live rows.
func (m *memStore) LookupVariantByCode(_ context.Context, code string) (catalog.VariantSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return catalog.VariantSnapshot{}, m.lookupErr
	}
	v, ok := m.variants[code]
	if !ok {
		return catalog.VariantSnapshot{}, catalog.ErrVariantNotFound
	}
	return catalog.VariantSnapshot{
		ID: v.id, Code: v.code, ProductID: 100 + v.id, ProductName: v.product,
		Size: v.size, Color: v.color, UnitPrice: v.price, Stock: v.stock,
	}, nil
}

// DisplayName implements sale.Buyers.
func (m *memStore) DisplayName(_ context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.buyers[id]
	if !ok {
		return "", errors.New("no such user")
	}
	return name, nil
}

func (m *memStore) WithinTx(ctx context.Context, fn func(sale.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	stock := make(map[string]int, len(m.variants))
	for code, v := range m.variants {
		stock[code] = v.stock
	}
	sales := make(map[int64]sale.Sale, len(m.sales))
	for id, s := range m.sales {
		sales[id] = s
	}
	nextID := m.nextID
	m.mu.Unlock()

	if err := fn(&memTx{m: m}); err != nil {
		m.mu.Lock()
		for code, v := range m.variants {
			v.stock = stock[code]
		}
		m.sales = sales
		m.nextID = nextID
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) FindSale(_ context.Context, id int64) (sale.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return sale.Sale{}, sale.ErrNotFound
	}
	s.Lines = append([]sale.Line(nil), s.Lines...)
	for i := range s.Lines {
		s.Lines[i].DisplayName = ""
	}
	return s, nil
}

type memTx struct {
	m *memStore
}

func (t *memTx) LockVariant(_ context.Context, code string) (sale.LockedVariant, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	v, ok := t.m.variants[code]
	if !ok {
		return sale.LockedVariant{}, sale.ErrNotFound
	}
	return sale.LockedVariant{ID: v.id, Code: v.code, Stock: v.stock}, nil
}

func (t *memTx) InsertSale(_ context.Context, header sale.Sale) (sale.Sale, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.buyers[header.BuyerID]; !ok {
		return sale.Sale{}, sale.ErrUnknownBuyer
	}
	t.m.nextID++
	header.ID = t.m.nextID
	t.m.sales[header.ID] = header
	return header, nil
}

func (t *memTx) InsertLine(_ context.Context, saleID int64, line sale.Line) (int64, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.m.failLineAfter >= 0 && t.m.linesInserted >= t.m.failLineAfter {
		return 0, errors.New("disk full")
	}
	t.m.linesInserted++
	s := t.m.sales[saleID]
	line.ID = int64(len(s.Lines) + 1)
	s.Lines = append(s.Lines, line)
	t.m.sales[saleID] = s
	return line.ID, nil
}

func (t *memTx) DecrementStock(_ context.Context, variantID int64, qty int) (bool, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for _, v := range t.m.variants {
		if v.id != variantID {
			continue
		}
		if v.stock < qty {
			return false, nil
		}
		v.stock -= qty
		return true, nil
	}
	return false, sale.ErrNotFound
}

type captureEmitter struct {
	mu     sync.Mutex
	topics []string
	ids    []string
	err    error
}

func (c *captureEmitter) Emit(_ context.Context, topic, aggregateID string, _ any) (events.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.ids = append(c.ids, aggregateID)
	return events.Event{Topic: topic, AggregateID: aggregateID}, c.err
}
