// Package ticket renders 80mm thermal-printer receipts for registered sales.
package ticket

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"github.com/noah-isme/boutique-pos/internal/money"
	"github.com/noah-isme/boutique-pos/internal/sale"
)

const (
	pageWidth  = 80.0
	margin     = 5.0
	lineHeight = 4.0
	maxNameLen = 25
	separator  = "----------------------------------------"
)

// Shop holds the strings printed in the receipt header and footer.
type Shop struct {
	Name    string
	Address string
	Contact string
	Footer  []string
}

// Renderer writes receipt PDFs.
type Renderer struct {
	shop     Shop
	location *time.Location
}

// NewRenderer constructs a Renderer. Sale dates are printed in loc, or local
// time when loc is nil.
func NewRenderer(shop Shop, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{shop: shop, location: loc}
}

// Render writes the receipt for s to w.
func (r *Renderer) Render(w io.Writer, s sale.Sale) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: r.pageHeight(s)},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle(fmt.Sprintf("Ticket %d", s.ID), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width := pageWidth - 2*margin

	line := func(style string, size float64, align, text string) {
		pdf.SetFont("Courier", style, size)
		pdf.CellFormat(width, lineHeight, tr(text), "", 1, align, false, 0, "")
	}

	line("B", 12, "C", r.shop.Name)
	pdf.SetFont("Courier", "", 7)
	pdf.MultiCell(width, 3, tr(r.shop.Address), "", "C", false)
	pdf.MultiCell(width, 3, tr(r.shop.Contact), "", "C", false)
	line("", 7, "C", separator)

	line("", 8, "L", "Fecha: "+s.SoldAt.In(r.location).Format("02/01/06 15:04"))
	line("", 8, "L", fmt.Sprintf("Ticket: #%d", s.ID))
	line("", 8, "L", "Vendedor: "+seller(s))
	line("", 7, "C", separator)

	line("B", 6.5, "L", fmt.Sprintf("%-25s %4s %10s %10s", "ARTICULO", "CANT", "P.UNIT", "TOTAL"))
	for _, l := range s.Lines {
		line("", 6.5, "L", fmt.Sprintf("%-25s %4d %10s %10s",
			Truncate(itemName(l), maxNameLen),
			l.Quantity,
			money.Format(l.UnitPrice),
			money.Format(l.Subtotal()),
		))
	}
	line("", 7, "C", separator)

	change := money.ClampNonNegative(s.Payment.Sub(s.Total))
	totals := []struct {
		label string
		value string
		style string
	}{
		{"SUBTOTAL:", money.Format(s.Subtotal), ""},
		{"DESCUENTO:", money.Format(s.Discount), ""},
		{"TOTAL:", money.Format(s.Total), "B"},
		{"PAGO CON:", money.Format(s.Payment), ""},
		{"CAMBIO:", money.Format(change), ""},
	}
	for _, t := range totals {
		line(t.style, 8, "L", fmt.Sprintf("%-15s %15s", t.label, t.value))
	}
	line("", 7, "C", separator)

	for _, f := range r.shop.Footer {
		line("", 6.5, "C", f)
	}
	return pdf.Output(w)
}

func (r *Renderer) pageHeight(s sale.Sale) float64 {
	fixed := 22 + 4 + 3*lineHeight + 2*lineHeight + 5*lineHeight + 2*lineHeight
	return fixed + float64(len(s.Lines)+len(r.shop.Footer))*lineHeight + 2*margin
}

func seller(s sale.Sale) string {
	if name := strings.TrimSpace(s.BuyerName); name != "" {
		return name
	}
	return fmt.Sprintf("Usuario #%d", s.BuyerID)
}

func itemName(l sale.Line) string {
	if name := strings.TrimSpace(l.DisplayName); name != "" {
		return name
	}
	if code := strings.TrimSpace(l.Code); code != "" {
		return code
	}
	return "SIN-COD"
}

// Truncate shortens s to at most n runes, ending with "..." when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
