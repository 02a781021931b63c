package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/jhoicas/taller-facturacion/internal/application/billing"
	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/infrastructure/pdf"
)

func sampleSnapshot(template string) appbilling.InvoiceSnapshot {
	issued := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return appbilling.InvoiceSnapshot{
		InvoiceID:     "b7c1d2",
		InvoiceNumber: "INV-0001",
		IssuedDate:    issued,
		DueDate:       issued.AddDate(0, 0, 30),
		Status:        entity.InvoiceStatusSent,
		Template:      template,
		CustomerName:  "Acme Transportes",
		CustomerEmail: "acme@example.com",
		CustomerPhone: "555-123-4567",
		Items: []entity.LineItem{
			{Description: "Cambio de frenos", Hours: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100), Parts: decimal.NewFromInt(20), Tax: decimal.RequireFromString("8.5")},
			{Description: "Diagnóstico", Hours: decimal.NewFromInt(2), Rate: decimal.NewFromInt(5)},
		},
		Subtotal:    decimal.RequireFromString("130"),
		Tax:         decimal.RequireFromString("10.20"),
		Total:       decimal.RequireFromString("140.20"),
		GeneratedAt: time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestGenerateInvoicePDF_PlantillasDisponibles(t *testing.T) {
	gen := pdf.NewMarotoPDFGenerator("Taller Central")
	for _, tpl := range []string{entity.TemplateStandard, entity.TemplateCompact, ""} {
		out, err := gen.GenerateInvoicePDF(context.Background(), sampleSnapshot(tpl))
		require.NoError(t, err, "plantilla %q", tpl)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "plantilla %q", tpl)
	}
}

func TestGenerateInvoicePDF_SinLineas(t *testing.T) {
	snap := sampleSnapshot(entity.TemplateStandard)
	snap.Items = nil
	snap.Total = decimal.Zero
	out, err := pdf.NewMarotoPDFGenerator("").GenerateInvoicePDF(context.Background(), snap)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateInvoicePDF_PlantillaDesconocida(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator("Taller").GenerateInvoicePDF(context.Background(), sampleSnapshot("elegante"))
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestFormatMoney(t *testing.T) {
	casos := map[string]string{
		"0":         "0.00",
		"999.5":     "999.50",
		"1000":      "1,000.00",
		"25000":     "25,000.00",
		"1234567.5": "1,234,567.50",
		"-1234.567": "-1,234.57",
	}
	for in, want := range casos {
		assert.Equal(t, want, pdf.FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Pagada", pdf.StatusLabel(entity.InvoiceStatusPaid))
	assert.Equal(t, "Borrador", pdf.StatusLabel(entity.InvoiceStatusDraft))
	assert.Equal(t, "Vencida", pdf.StatusLabel(entity.InvoiceStatusOverdue))
	assert.Equal(t, "Otro", pdf.StatusLabel("otro"))
}
