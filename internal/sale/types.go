package sale

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusCompleted is the only status a registered sale can have.
const StatusCompleted = "COMPLETED"

// LineItemRequest is one requested (variant code, quantity) pair.
type LineItemRequest struct {
	Code     string `json:"code" validate:"max=64"`
	Quantity int    `json:"quantity"`
}

// PriceRequest is the input to Price and Quote. Discount and Payment may be
// omitted, in which case they count as zero.
type PriceRequest struct {
	BuyerID  *int64              `json:"buyerId"`
	Items    []LineItemRequest   `json:"items" validate:"max=200,dive"`
	Discount decimal.NullDecimal `json:"discount"`
	Payment  decimal.NullDecimal `json:"payment"`
}

// PricedLine is a validated line with its price frozen at pricing time.
type PricedLine struct {
	VariantID   int64
	Code        string
	DisplayName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Quote is a priced sale before payment is considered.
type Quote struct {
	BuyerID  int64
	Lines    []PricedLine
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Draft is a priced, validated, not yet persisted sale.
type Draft struct {
	Quote
	Payment decimal.Decimal
	Change  decimal.Decimal
}

// Line is a persisted sale line. UnitPrice is the price at sale time and is
// never recomputed from the live catalog.
type Line struct {
	ID          int64
	VariantID   int64
	Code        string
	DisplayName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Subtotal returns the normalized line amount.
func (l Line) Subtotal() decimal.Decimal {
	return lineSubtotal(l.UnitPrice, l.Quantity)
}

// Sale is a registered sale with its lines.
type Sale struct {
	ID        int64
	BuyerID   int64
	BuyerName string
	SoldAt    time.Time
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	Payment   decimal.Decimal
	Change    decimal.Decimal
	Status    string
	Lines     []Line
}
