// Package pdf implementa la representación gráfica de una factura.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + Estado      │  N° Factura + Fecha         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ETIQUETAS de la factura                                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA | Total s/IVA | Total │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Impuestos / TOTAL                       │
//	│  PAGOS: id | referencia | fecha | monto                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR de verificación + leyenda                        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/invoice-lifecycle/internal/application/billing"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
)

var _ billing.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	printer *message.Printer
}

// NewMarotoPDFGenerator construye el generador; los montos se formatean en español
// (1.234,50).
func NewMarotoPDFGenerator() *MarotoPDFGenerator {
	return &MarotoPDFGenerator{printer: message.NewPrinter(language.Spanish)}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(ctx context.Context, invoice *entity.Invoice) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+invoice.InvoiceNo, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	if len(invoice.InvoiceTags) > 0 {
		m.AddRows(tagsRow("ETIQUETAS", invoice.InvoiceTags))
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}

	m.AddRows(tableHeaderRow())
	m.AddRows(g.tableDetailRows(invoice.LineItems)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(invoice))

	if len(invoice.Payments) > 0 {
		m.AddRows(g.paymentRows(invoice.Payments)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(g.footerRows(invoice)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoPDFGenerator) headerRow(invoice *entity.Invoice) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+string(invoice.Status), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("N° "+invoice.InvoiceNo, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Fecha: "+nonEmpty(invoice.DateIssued, "—"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Pagar después de: "+nonEmpty(invoice.PayAfter, "—"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// tagsRow: "dimensión: valor" separados por barras.
func tagsRow(title string, tags []entity.Tag) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(formatTags(tags), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("P. Unit.", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("Total s/IVA", 2, align.Right),
		h("Total", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por línea; las etiquetas de la línea van debajo de la descripción.
func (g *MarotoPDFGenerator) tableDetailRows(items []entity.LineItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, li := range items {
		desc := nonEmpty(li.Description, li.ID)
		height := 7.0
		descCol := col.New(4).Add(text.New(desc, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1}))
		if len(li.LineItemTags) > 0 {
			height = 11
			descCol.Add(text.New(formatTags(li.LineItemTags), props.Text{
				Size: 6.5, Top: 6, Left: 1, Color: colorGray,
			}))
		}
		result = append(result, row.New(height).Add(
			col.New(1).Add(text.New(g.number(li.Quantity, scaleOf(li.Quantity)), props.Text{Size: 8, Align: align.Center, Top: 1})),
			descCol,
			col.New(2).Add(text.New(g.money(li.UnitPriceTaxExcl), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(g.number(li.TaxPercent, scaleOf(li.TaxPercent))+"%", props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(g.money(li.TotalPriceTaxExcl), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(g.money(li.TotalPriceTaxIncl), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func (g *MarotoPDFGenerator) totalsRow(invoice *entity.Invoice) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	tax := invoice.TotalPriceTaxIncl.Sub(invoice.TotalPriceTaxExcl)
	currency := " " + invoice.Currency

	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 1),
			label("Impuestos:", 6),
			text.New("TOTAL:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 12,
			}),
		),
		col.New(3).Add(
			value(g.money(invoice.TotalPriceTaxExcl)+currency, 1),
			value(g.money(tax)+currency, 6),
			text.New(g.money(invoice.TotalPriceTaxIncl)+currency, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 12,
			}),
		),
	)
}

func (g *MarotoPDFGenerator) paymentRows(payments []entity.Payment) []core.Row {
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(text.New("PAGOS", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
		}))),
	}
	for _, p := range payments {
		status := "pendiente"
		switch {
		case p.Confirmed:
			status = "confirmado"
		case p.Issue != "":
			status = "incidencia: " + p.Issue
		case p.TxnRef != "":
			status = "enviado"
		}
		rows = append(rows, row.New(5).Add(
			col.New(3).Add(text.New(p.ID, props.Text{Size: 7.5, Top: 0.5})),
			col.New(3).Add(text.New(nonEmpty(p.TxnRef, p.ProcessorRef), props.Text{Size: 7.5, Top: 0.5, Color: colorGray})),
			col.New(3).Add(text.New(status, props.Text{Size: 7.5, Top: 0.5, Color: colorGray})),
			col.New(3).Add(text.New(g.money(p.Amount), props.Text{Size: 7.5, Align: align.Right, Top: 0.5, Right: 1})),
		))
	}
	return rows
}

// footerRows: QR con los datos de verificación + leyenda.
func (g *MarotoPDFGenerator) footerRows(invoice *entity.Invoice) []core.Row {
	qr := strings.Join([]string{
		"NumFac=" + invoice.InvoiceNo,
		"FecFac=" + invoice.DateIssued,
		"ValTot=" + invoice.TotalPriceTaxIncl.StringFixed(2),
		"Id=" + invoice.ID,
	}, "\n")

	return []core.Row{
		row.New(40).Add(
			col.New(4).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
			col.New(8).Add(
				text.New(fmt.Sprintf("Revisión %d", invoice.Revision), props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("Documento generado a partir del estado actual de la factura.", props.Text{
					Size: 8, Top: 12, Left: 3, Color: colorGray,
				}),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money formatea con dos decimales y separadores del locale ("1.234,50").
func (g *MarotoPDFGenerator) money(d decimal.Decimal) string {
	return g.number(d, 2)
}

func (g *MarotoPDFGenerator) number(d decimal.Decimal, scale int) string {
	return g.printer.Sprint(number.Decimal(d.Round(int32(scale)).InexactFloat64(), number.Scale(scale)))
}

// scaleOf decimales significativos de d (2 -> 0, 1.50 -> 1).
func scaleOf(d decimal.Decimal) int {
	_, frac, ok := strings.Cut(d.String(), ".")
	if !ok {
		return 0
	}
	return len(strings.TrimRight(frac, "0"))
}

func formatTags(tags []entity.Tag) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		v := t.Value
		if t.Label != nil && *t.Label != "" {
			v = *t.Label
		}
		parts = append(parts, t.Dimension+": "+v)
	}
	return strings.Join(parts, "  |  ")
}
