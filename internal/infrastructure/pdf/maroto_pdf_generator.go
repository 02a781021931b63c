// Package pdf implementa la generación del PDF de una factura del taller.
//
// Layout de la página A4 (plantilla standard):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: FACTURA + N° │ Emisión / Vencimiento / Estado      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + Email / Tel / Dirección                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Descripción | Horas | Tarifa | Repuestos | Imp% | $ │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Impuestos / TOTAL                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: fecha de generación + leyenda                      │
//	└─────────────────────────────────────────────────────────────┘
//
// La plantilla compact usa la misma estructura con letra menor y el cliente en una sola línea.
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
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
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appbilling "github.com/jhoicas/taller-facturacion/internal/application/billing"
	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// layout parámetros que cambian entre plantillas.
type layout struct {
	baseSize   float64
	headerH    float64
	customerH  float64
	lineH      float64
	totalsH    float64
	oneLineCli bool
}

var templates = map[string]layout{
	entity.TemplateStandard: {baseSize: 9, headerH: 22, customerH: 18, lineH: 7, totalsH: 18},
	entity.TemplateCompact:  {baseSize: 7, headerH: 14, customerH: 8, lineH: 5, totalsH: 14, oneLineCli: true},
}

var statusLabels = map[string]string{
	entity.InvoiceStatusDraft:   "borrador",
	entity.InvoiceStatusSent:    "enviada",
	entity.InvoiceStatusPaid:    "pagada",
	entity.InvoiceStatusOverdue: "vencida",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	shopName string
}

// NewMarotoPDFGenerator construye el generador. shopName aparece como autor del documento.
func NewMarotoPDFGenerator(shopName string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{shopName: shopName}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, snap appbilling.InvoiceSnapshot) ([]byte, error) {
	tplName := snap.Template
	if tplName == "" {
		tplName = entity.TemplateStandard
	}
	lay, ok := templates[tplName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, tplName)
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: lay.baseSize}).
		WithTitle("Factura "+snap.InvoiceNumber, true).
		WithAuthor(nonEmpty(g.shopName, "Taller"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(snap, lay))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(snap, lay))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow(lay))
	m.AddRows(tableDetailRows(snap.Items, lay)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(snap, lay))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(snap, lay))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: número de factura (izq) y fechas + estado (der).
func headerRow(snap appbilling.InvoiceSnapshot, lay layout) core.Row {
	s := lay.baseSize
	return row.New(lay.headerH).Add(
		col.New(7).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: s + 5, Color: colorPrimary, Top: 1,
			}),
			text.New("N° "+snap.InvoiceNumber, props.Text{
				Style: fontstyle.Bold, Size: s + 1, Top: s + 1,
			}),
		),
		col.New(5).Add(
			text.New("Emisión: "+snap.IssuedDate.Format("02/01/2006"), props.Text{
				Size: s - 1, Align: align.Right, Top: 1, Color: colorGray,
			}),
			text.New("Vencimiento: "+snap.DueDate.Format("02/01/2006"), props.Text{
				Size: s - 1, Align: align.Right, Top: s - 1, Color: colorGray,
			}),
			text.New("Estado: "+StatusLabel(snap.Status), props.Text{
				Style: fontstyle.Bold, Size: s - 1, Align: align.Right, Top: 2*s - 3, Color: colorPrimary,
			}),
		),
	)
}

// customerRow: datos de contacto del cliente.
func customerRow(snap appbilling.InvoiceSnapshot, lay layout) core.Row {
	s := lay.baseSize
	contact := fmt.Sprintf("Email: %s   |   Tel: %s",
		nonEmpty(snap.CustomerEmail, "—"),
		nonEmpty(snap.CustomerPhone, "—"),
	)
	if lay.oneLineCli {
		return row.New(lay.customerH).Add(col.New(12).Add(
			text.New("Cliente: "+snap.CustomerName+"   |   "+contact, props.Text{Size: s, Top: 1}),
		))
	}
	return row.New(lay.customerH).Add(
		col.New(12).Add(
			text.New("FACTURAR A", props.Text{
				Style: fontstyle.Bold, Size: s - 1, Color: colorPrimary, Top: 1,
			}),
			text.New(snap.CustomerName, props.Text{
				Style: fontstyle.Bold, Size: s + 1, Top: 5,
			}),
			text.New(contact, props.Text{Size: s - 1, Top: 10, Color: colorGray}),
			text.New("Dirección: "+nonEmpty(snap.CustomerAddress, "—"), props.Text{
				Size: s - 1, Top: 14, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow(lay layout) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: lay.baseSize - 1, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(lay.lineH+1).Add(
		h("Descripción", 4, align.Left),
		h("Horas", 1, align.Center),
		h("Tarifa", 2, align.Right),
		h("Repuestos", 2, align.Right),
		h("Imp.%", 1, align.Center),
		h("Importe", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por línea.
func tableDetailRows(items []entity.LineItem, lay layout) []core.Row {
	s := lay.baseSize - 1
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(lay.lineH).Add(
			col.New(4).Add(text.New(nonEmpty(it.Description, "—"),
				props.Text{Size: s, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(it.Hours.String(),
				props.Text{Size: s, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New("$"+FormatMoney(it.Rate),
				props.Text{Size: s, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+FormatMoney(it.Parts),
				props.Text{Size: s, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(it.Tax.String()+"%",
				props.Text{Size: s, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New("$"+FormatMoney(it.Amount()),
				props.Text{Size: s, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: subtotal, impuestos y total alineados a la derecha.
func totalsRow(snap appbilling.InvoiceSnapshot, lay layout) core.Row {
	s := lay.baseSize
	step := s - 3
	label := func(v string, top float64, bold bool) core.Component {
		p := props.Text{Size: s, Align: align.Right, Right: 2, Top: top}
		if bold {
			p.Style = fontstyle.Bold
			p.Color = colorPrimary
			p.Size = s + 1
		}
		return text.New(v, p)
	}
	return row.New(lay.totalsH).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 1, false),
			label("Impuestos:", 1+step, false),
			label("TOTAL:", 1+2*step, true),
		),
		col.New(3).Add(
			label("$"+FormatMoney(snap.Subtotal), 1, false),
			label("$"+FormatMoney(snap.Tax), 1+step, false),
			label("$"+FormatMoney(snap.Total), 1+2*step, true),
		),
	)
}

// footerRow: fecha de generación y leyenda.
func footerRow(snap appbilling.InvoiceSnapshot, lay layout) core.Row {
	msg := "Generado el " + snap.GeneratedAt.Format("02/01/2006 15:04") + " UTC. Gracias por su preferencia."
	if snap.Skipped > 0 {
		msg += fmt.Sprintf(" (%d línea(s) ilegibles no incluidas)", snap.Skipped)
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: lay.baseSize - 2, Color: colorGray, Top: 2, Align: align.Center}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

// StatusLabel nombre del estado para mostrar, ej. "paid" → "Pagada".
func StatusLabel(status string) string {
	label, ok := statusLabels[status]
	if !ok {
		label = status
	}
	return cases.Title(language.Spanish).String(label)
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// FormatMoney dos decimales con separador de miles.
// Ej: 25000 → "25,000.00", 1234567.5 → "1,234,567.50"
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	n := len(intPart)
	if n <= 3 {
		return sign + intPart + frac
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + frac
}
