package billing_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-facturacion/internal/application/billing"
	"github.com/jhoicas/taller-facturacion/internal/application/dto"
	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

type invoiceFixture struct {
	env       *testEnv
	customers *billing.CustomerUseCase
	invoices  *billing.InvoiceUseCase
	userID    string
}

func newInvoiceFixture(t *testing.T, customerNames ...string) *invoiceFixture {
	t.Helper()
	env := newTestEnv(t)
	f := &invoiceFixture{
		env:       env,
		customers: billing.NewCustomerUseCase(env.tx, logger.Nop()),
		invoices:  billing.NewInvoiceUseCase(env.tx, logger.Nop()).WithClock(clock),
		userID:    env.user(t, "taller@example.com"),
	}
	for _, name := range customerNames {
		_, err := f.customers.Create(context.Background(), f.userID, dto.CustomerRequest{Name: name})
		require.NoError(t, err)
	}
	return f
}

func (f *invoiceFixture) create(t *testing.T, in dto.CreateInvoiceRequest) *dto.InvoiceResponse {
	t.Helper()
	inv, err := f.invoices.Create(context.Background(), f.userID, in)
	require.NoError(t, err)
	return inv
}

// ── Escenario completo ───────────────────────────────────────────────────────

func TestInvoiceUseCase_EscenarioCompleto(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	ctx := context.Background()

	inv := f.create(t, dto.CreateInvoiceRequest{
		CustomerName: "Acme",
		DueDate:      "2024-06-30",
		LineItems:    json.RawMessage(`[{"description":"mano de obra","hours":2,"rate":50,"parts":0,"tax":0}]`),
	})
	assert.Equal(t, "100.00", inv.Total.StringFixed(2))
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, entity.TemplateStandard, inv.Template)
	assert.Equal(t, "2024-06-15", inv.IssuedDate, "la emisión por defecto es hoy")
	assert.Equal(t, "Acme", inv.CustomerName)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-"), "número generado: %s", inv.InvoiceNumber)

	revenue, err := f.invoices.TotalRevenue(ctx, f.userID)
	require.NoError(t, err)
	assert.True(t, revenue.IsZero(), "un borrador no suma ingresos")

	_, err = f.invoices.Update(ctx, f.userID, inv.ID, dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusPaid)})
	require.NoError(t, err)

	revenue, err = f.invoices.TotalRevenue(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", revenue.StringFixed(2))

	require.NoError(t, f.invoices.Delete(ctx, f.userID, inv.ID))

	revenue, err = f.invoices.TotalRevenue(ctx, f.userID)
	require.NoError(t, err)
	assert.True(t, revenue.IsZero())

	assert.ErrorIs(t, f.invoices.Delete(ctx, f.userID, inv.ID), domain.ErrNotFound)
}

// ── Reglas de creación ───────────────────────────────────────────────────────

func TestInvoiceUseCase_CreateClienteInexistente(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	_, err := f.invoices.Create(context.Background(), f.userID, dto.CreateInvoiceRequest{
		CustomerName: "Desconocido", DueDate: "2024-06-30",
	})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestInvoiceUseCase_ClienteDeOtroUsuarioNoSeResuelve(t *testing.T) {
	f := newInvoiceFixture(t)
	other := f.env.user(t, "otro@example.com")
	_, err := f.customers.Create(context.Background(), other, dto.CustomerRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = f.invoices.Create(context.Background(), f.userID, dto.CreateInvoiceRequest{CustomerName: "Acme", DueDate: "2024-06-30"})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestInvoiceUseCase_VencimientoAnteriorAEmision(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	ctx := context.Background()

	_, err := f.invoices.Create(ctx, f.userID, dto.CreateInvoiceRequest{
		CustomerName: "Acme", IssuedDate: "2024-06-10", DueDate: "2024-06-09",
	})
	assert.ErrorIs(t, err, domain.ErrDueBeforeIssued)

	inv := f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", IssuedDate: "2024-06-10", DueDate: "2024-06-10"})

	_, err = f.invoices.Update(ctx, f.userID, inv.ID, dto.UpdateInvoiceRequest{DueDate: strPtr("2024-06-01")})
	assert.ErrorIs(t, err, domain.ErrDueBeforeIssued)

	_, err = f.invoices.Update(ctx, f.userID, inv.ID, dto.UpdateInvoiceRequest{IssuedDate: strPtr("2024-06-11")})
	assert.ErrorIs(t, err, domain.ErrDueBeforeIssued, "mover la emisión también se valida")

	got, err := f.invoices.Get(ctx, f.userID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", got.DueDate, "la factura no cambió")
}

func TestInvoiceUseCase_NumeroUnicoEntreUsuarios(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	ctx := context.Background()
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", InvoiceNumber: "F-001", DueDate: "2024-06-30"})

	_, err := f.invoices.Create(ctx, f.userID, dto.CreateInvoiceRequest{CustomerName: "Acme", InvoiceNumber: "F-001", DueDate: "2024-06-30"})
	assert.ErrorIs(t, err, domain.ErrInvoiceNumberExists)

	other := f.env.user(t, "otro@example.com")
	_, err = f.customers.Create(ctx, other, dto.CustomerRequest{Name: "Beta"})
	require.NoError(t, err)
	_, err = f.invoices.Create(ctx, other, dto.CreateInvoiceRequest{CustomerName: "Beta", InvoiceNumber: "F-001", DueDate: "2024-06-30"})
	assert.ErrorIs(t, err, domain.ErrInvoiceNumberExists, "el número es único en todo el sistema")

	second := f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", InvoiceNumber: "F-002", DueDate: "2024-06-30"})
	_, err = f.invoices.Update(ctx, f.userID, second.ID, dto.UpdateInvoiceRequest{InvoiceNumber: strPtr("F-001")})
	assert.ErrorIs(t, err, domain.ErrInvoiceNumberExists)

	_, err = f.invoices.Update(ctx, f.userID, second.ID, dto.UpdateInvoiceRequest{InvoiceNumber: strPtr("F-002")})
	assert.NoError(t, err, "conservar el propio número no es conflicto")
}

func TestInvoiceUseCase_NumerosGeneradosDistintos(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	a := f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", DueDate: "2024-06-30"})
	b := f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", DueDate: "2024-06-30"})
	assert.NotEqual(t, a.InvoiceNumber, b.InvoiceNumber)
}

func TestInvoiceUseCase_ValidacionesDeEntrada(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	ctx := context.Background()

	casos := map[string]dto.CreateInvoiceRequest{
		"sin vencimiento":  {CustomerName: "Acme"},
		"fecha inválida":   {CustomerName: "Acme", DueDate: "30/06/2024"},
		"estado inválido":  {CustomerName: "Acme", DueDate: "2024-06-30", Status: "cancelada"},
		"líneas no arreglo": {CustomerName: "Acme", DueDate: "2024-06-30", LineItems: json.RawMessage(`{"hours":1}`)},
	}
	for nombre, in := range casos {
		_, err := f.invoices.Create(ctx, f.userID, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, nombre)
	}

	_, err := f.invoices.Create(ctx, f.userID, dto.CreateInvoiceRequest{CustomerName: "Acme", DueDate: "2024-06-30", Template: "elegante"})
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

// ── Líneas y total ───────────────────────────────────────────────────────────

func TestInvoiceUseCase_LineasIlegiblesSeOmitenYCuentan(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	inv := f.create(t, dto.CreateInvoiceRequest{
		CustomerName: "Acme",
		DueDate:      "2024-06-30",
		LineItems: json.RawMessage(`[
			{"description":"a","hours":2,"rate":5},
			{"description":"frenos","quantity":1,"rate":"100","parts":20,"tax":8.5},
			{"description":"roto","hours":"x"}
		]`),
	})
	assert.Equal(t, "140.20", inv.Total.StringFixed(2))
	assert.Equal(t, 1, inv.SkippedLineItems)
	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "130.20", inv.LineItems[1].Amount.StringFixed(2))
}

func TestInvoiceUseCase_UpdateRecalculaSoloConLineas(t *testing.T) {
	f := newInvoiceFixture(t, "Acme", "Beta")
	ctx := context.Background()
	inv := f.create(t, dto.CreateInvoiceRequest{
		CustomerName: "Acme", DueDate: "2024-06-30",
		LineItems: json.RawMessage(`[{"hours":1,"rate":10}]`),
	})

	got, err := f.invoices.Update(ctx, f.userID, inv.ID, dto.UpdateInvoiceRequest{
		CustomerName: strPtr("Beta"),
		Template:     strPtr(entity.TemplateCompact),
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.Total.StringFixed(2))
	assert.Equal(t, "Beta", got.CustomerName)
	assert.Equal(t, entity.TemplateCompact, got.Template)

	got, err = f.invoices.Update(ctx, f.userID, inv.ID, dto.UpdateInvoiceRequest{
		LineItems: json.RawMessage(`[{"hours":3,"rate":10,"tax":10}]`),
	})
	require.NoError(t, err)
	assert.Equal(t, "33.00", got.Total.StringFixed(2))

	got, err = f.invoices.Get(ctx, f.userID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "33.00", got.Total.StringFixed(2), "el total quedó persistido")

	_, err = f.invoices.Update(ctx, f.userID, inv.ID, dto.UpdateInvoiceRequest{CustomerName: strPtr("Nadie")})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = f.invoices.Update(ctx, f.userID, "no-existe", dto.UpdateInvoiceRequest{Status: strPtr(entity.InvoiceStatusSent)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Listados y métricas ──────────────────────────────────────────────────────

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, billing.TotalPages(0, 10))
	assert.Equal(t, 1, billing.TotalPages(10, 10))
	assert.Equal(t, 2, billing.TotalPages(11, 10))
	assert.Equal(t, 3, billing.TotalPages(5, 2))
}

func TestInvoiceUseCase_ListPaginado(t *testing.T) {
	f := newInvoiceFixture(t, "Acme Corp", "Beta")
	ctx := context.Background()

	page, err := f.invoices.List(ctx, f.userID, dto.InvoiceListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages, "sin facturas hay una página")
	assert.Empty(t, page.Items)

	for i := 1; i <= 5; i++ {
		f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme Corp", InvoiceNumber: fmt.Sprintf("A-%03d", i), DueDate: "2024-06-30"})
	}
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Beta", InvoiceNumber: "B-001", DueDate: "2024-06-30", Status: entity.InvoiceStatusSent})

	page, err = f.invoices.List(ctx, f.userID, dto.InvoiceListRequest{Page: 1, PerPage: 2, Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 2)

	page, err = f.invoices.List(ctx, f.userID, dto.InvoiceListRequest{Page: 3, PerPage: 2, Search: "acme"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	page, err = f.invoices.List(ctx, f.userID, dto.InvoiceListRequest{Page: 9, PerPage: 2, Search: "acme"})
	require.NoError(t, err, "página fuera de rango no es error")
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.TotalPages)

	for _, req := range []dto.InvoiceListRequest{
		{Page: math.MaxInt/2 + 2, PerPage: 4, Search: "acme"},
		{Page: math.MaxInt, PerPage: 2, Search: "acme"},
		{Page: math.MaxInt/10 + 2, PerPage: 10, Search: "acme"},
	} {
		page, err = f.invoices.List(ctx, f.userID, req)
		require.NoError(t, err)
		assert.Empty(t, page.Items, "página %d: el offset no debe desbordar", req.Page)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, req.Page, page.Page)
	}

	page, err = f.invoices.List(ctx, f.userID, dto.InvoiceListRequest{Search: "b-0"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1, "busca también en el número")
	assert.Equal(t, "B-001", page.Items[0].InvoiceNumber)

	page, err = f.invoices.List(ctx, f.userID, dto.InvoiceListRequest{Status: entity.InvoiceStatusSent})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 10, page.PerPage, "per_page por defecto")

	_, err = f.invoices.List(ctx, f.userID, dto.InvoiceListRequest{Status: "archivada"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInvoiceUseCase_VencidasYPendientes(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	ctx := context.Background()
	// hoy = 2024-06-15
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", IssuedDate: "2024-06-01", DueDate: "2024-06-14", Status: entity.InvoiceStatusSent})
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", IssuedDate: "2024-06-01", DueDate: "2024-06-10", Status: entity.InvoiceStatusDraft})
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", IssuedDate: "2024-06-01", DueDate: "2024-06-10", Status: entity.InvoiceStatusPaid})
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", IssuedDate: "2024-06-01", DueDate: "2024-06-15", Status: entity.InvoiceStatusSent})
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", IssuedDate: "2024-06-01", DueDate: "2024-07-15", Status: entity.InvoiceStatusDraft})

	overdue, err := f.invoices.OverdueCount(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), overdue)

	pending, err := f.invoices.PendingCount(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	count, err := f.invoices.Count(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	recent, err := f.invoices.Recent(ctx, f.userID, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
	assert.Equal(t, "Acme", recent[0].CustomerName)
}

func TestInvoiceUseCase_GetByNumber(t *testing.T) {
	f := newInvoiceFixture(t, "Acme")
	ctx := context.Background()
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Acme", InvoiceNumber: "F-777", DueDate: "2024-06-30"})

	got, err := f.invoices.GetByNumber(ctx, f.userID, " F-777 ")
	require.NoError(t, err)
	assert.Equal(t, "F-777", got.InvoiceNumber)

	other := f.env.user(t, "otro@example.com")
	_, err = f.invoices.GetByNumber(ctx, other, "F-777")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceUseCase_ListBuscaClienteConAcentos(t *testing.T) {
	f := newInvoiceFixture(t, "Ángel Pérez", "Beta")
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Ángel Pérez", InvoiceNumber: "F-001", DueDate: "2024-06-30"})
	f.create(t, dto.CreateInvoiceRequest{CustomerName: "Beta", InvoiceNumber: "F-002", DueDate: "2024-06-30"})

	for _, term := range []string{"Ángel", "ángel", "ÁNGEL"} {
		page, err := f.invoices.List(context.Background(), f.userID, dto.InvoiceListRequest{Search: term})
		require.NoError(t, err)
		require.Len(t, page.Items, 1, term)
		assert.Equal(t, "F-001", page.Items[0].InvoiceNumber, term)
	}
}
