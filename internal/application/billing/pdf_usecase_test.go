package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-facturacion/internal/application/billing"
	"github.com/jhoicas/taller-facturacion/internal/application/dto"
	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

type fakeGenerator struct {
	last billing.InvoiceSnapshot
	err  error
}

func (g *fakeGenerator) GenerateInvoicePDF(_ context.Context, snap billing.InvoiceSnapshot) ([]byte, error) {
	g.last = snap
	if g.err != nil {
		return nil, g.err
	}
	return []byte("%PDF-1.4 " + snap.InvoiceNumber), nil
}

func newPDFFixture(t *testing.T, gen billing.InvoicePDFGenerator) (*invoiceFixture, *billing.PDFUseCase, string) {
	t.Helper()
	f := newInvoiceFixture(t)
	_, err := f.customers.Create(context.Background(), f.userID, dto.CustomerRequest{
		Name: "Acme", Email: "acme@example.com", Phone: "555-123-4567", Address: "Calle 1",
	})
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "pdfs")
	return f, billing.NewPDFUseCase(f.env.tx, gen, dir, logger.Nop()), dir
}

func TestPDFUseCase_GenerateEscribeEnCarpeta(t *testing.T) {
	gen := &fakeGenerator{}
	f, uc, dir := newPDFFixture(t, gen)
	inv := f.create(t, dto.CreateInvoiceRequest{
		CustomerName: "Acme", InvoiceNumber: "F-001", DueDate: "2024-06-30",
		LineItems: json.RawMessage(`[{"description":"frenos","hours":1,"rate":100,"parts":20,"tax":8.5},{"hours":"?"}]`),
	})

	path, err := uc.Generate(context.Background(), f.userID, inv.ID, "")
	require.NoError(t, err)

	absDir, _ := filepath.Abs(dir)
	assert.Equal(t, filepath.Join(absDir, "invoice_f-001.pdf"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 F-001", string(content))

	snap := gen.last
	assert.Equal(t, "Acme", snap.CustomerName)
	assert.Equal(t, "acme@example.com", snap.CustomerEmail)
	assert.Equal(t, "120.00", snap.Subtotal.StringFixed(2))
	assert.Equal(t, "10.20", snap.Tax.StringFixed(2))
	assert.Equal(t, "130.20", snap.Total.StringFixed(2))
	assert.Equal(t, 1, snap.Skipped)
	assert.Len(t, snap.Items, 1)
}

func TestPDFUseCase_RutaFueraDeCarpetaSeConfina(t *testing.T) {
	f, uc, dir := newPDFFixture(t, &fakeGenerator{})
	inv := f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", InvoiceNumber: "F-002", DueDate: "2024-06-30"})

	path, err := uc.Generate(context.Background(), f.userID, inv.ID, "../../fuera.pdf")
	require.NoError(t, err)
	absDir, _ := filepath.Abs(dir)
	assert.Equal(t, filepath.Join(absDir, "fuera.pdf"), path)
	assert.FileExists(t, path)
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()

	got, err := billing.ResolveOutputPath(dir, "", "invoice_x.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "invoice_x.pdf"), got)

	got, err = billing.ResolveOutputPath(dir, "sub/copia.pdf", "invoice_x.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub", "copia.pdf"), got, "una subcarpeta se respeta")

	got, err = billing.ResolveOutputPath(dir, "/etc/passwd", "invoice_x.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "passwd"), got)

	got, err = billing.ResolveOutputPath(dir, "..", "invoice_x.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "invoice_x.pdf"), got)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "invoice_f-001.pdf", billing.FileName("F-001", "id"))
	assert.Equal(t, "invoice_factura-12.pdf", billing.FileName("Factura #12", "id"))
	assert.Equal(t, "invoice_abc.pdf", billing.FileName("###", "abc"))
}

func TestPDFUseCase_ErroresDelGeneradorSePropagan(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("%w: elegante", domain.ErrTemplateNotFound)}
	f, uc, dir := newPDFFixture(t, gen)
	inv := f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", DueDate: "2024-06-30"})

	_, err := uc.Generate(context.Background(), f.userID, inv.ID, "")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	assert.NoDirExists(t, dir, "no se escribe nada si falla la generación")
}

func TestPDFUseCase_FacturaInexistenteOAjena(t *testing.T) {
	f, uc, _ := newPDFFixture(t, &fakeGenerator{})
	inv := f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", DueDate: "2024-06-30"})

	_, _, err := uc.Render(context.Background(), f.userID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	other := f.env.user(t, "otro@example.com")
	_, _, err = uc.Render(context.Background(), other, inv.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPDFUseCase_ErrorDeEscritura(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	blocker := filepath.Join(t.TempDir(), "archivo")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	uc := billing.NewPDFUseCase(f.env.tx, &fakeGenerator{}, filepath.Join(blocker, "pdfs"), logger.Nop())
	inv := f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", DueDate: "2024-06-30"})

	_, err := uc.Generate(context.Background(), f.userID, inv.ID, "")
	assert.ErrorIs(t, err, domain.ErrPDFWrite)
}
