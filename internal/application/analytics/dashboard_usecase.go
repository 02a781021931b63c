// Package analytics contiene el resumen del tablero principal del taller.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-facturacion/internal/application/dto"
)

const dashboardRecentInvoices = 5 // facturas en el widget de recientes

// InvoiceMetrics lecturas de facturas que usa el tablero (implementado por billing.InvoiceUseCase).
type InvoiceMetrics interface {
	Count(ctx context.Context, userID string) (int64, error)
	TotalRevenue(ctx context.Context, userID string) (decimal.Decimal, error)
	OverdueCount(ctx context.Context, userID string) (int64, error)
	PendingCount(ctx context.Context, userID string) (int64, error)
	Recent(ctx context.Context, userID string, limit int) ([]dto.InvoiceResponse, error)
}

// CustomerCounter implementado por billing.CustomerUseCase.
type CustomerCounter interface {
	Count(ctx context.Context, userID string) (int64, error)
}

// DashboardUseCase arma el resumen del usuario: conteos, ingresos y facturas recientes.
type DashboardUseCase struct {
	invoices  InvoiceMetrics
	customers CustomerCounter
	now       func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(invoices InvoiceMetrics, customers CustomerCounter) *DashboardUseCase {
	return &DashboardUseCase{invoices: invoices, customers: customers, now: time.Now}
}

// WithClock reemplaza el reloj usado para la etiqueta del mes.
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetSummary construye el DashboardSummaryDTO del usuario.
//
// Seis lecturas en paralelo, cada una en su propia transacción; gana el primer error
// en el orden del DTO.
func (uc *DashboardUseCase) GetSummary(ctx context.Context, userID string) (*dto.DashboardSummaryDTO, error) {
	type countResult struct {
		n   int64
		err error
	}
	type revenueResult struct {
		sum decimal.Decimal
		err error
	}
	type recentResult struct {
		list []dto.InvoiceResponse
		err  error
	}

	invoiceCh := make(chan countResult, 1)
	customerCh := make(chan countResult, 1)
	overdueCh := make(chan countResult, 1)
	pendingCh := make(chan countResult, 1)
	revenueCh := make(chan revenueResult, 1)
	recentCh := make(chan recentResult, 1)

	go func() {
		n, err := uc.invoices.Count(ctx, userID)
		invoiceCh <- countResult{n, err}
	}()
	go func() {
		n, err := uc.customers.Count(ctx, userID)
		customerCh <- countResult{n, err}
	}()
	go func() {
		sum, err := uc.invoices.TotalRevenue(ctx, userID)
		revenueCh <- revenueResult{sum, err}
	}()
	go func() {
		n, err := uc.invoices.OverdueCount(ctx, userID)
		overdueCh <- countResult{n, err}
	}()
	go func() {
		n, err := uc.invoices.PendingCount(ctx, userID)
		pendingCh <- countResult{n, err}
	}()
	go func() {
		list, err := uc.invoices.Recent(ctx, userID, dashboardRecentInvoices)
		recentCh <- recentResult{list, err}
	}()

	invoices := <-invoiceCh
	customers := <-customerCh
	revenue := <-revenueCh
	overdue := <-overdueCh
	pending := <-pendingCh
	recent := <-recentCh

	if invoices.err != nil {
		return nil, fmt.Errorf("dashboard: facturas: %w", invoices.err)
	}
	if customers.err != nil {
		return nil, fmt.Errorf("dashboard: clientes: %w", customers.err)
	}
	if revenue.err != nil {
		return nil, fmt.Errorf("dashboard: ingresos: %w", revenue.err)
	}
	if overdue.err != nil {
		return nil, fmt.Errorf("dashboard: vencidas: %w", overdue.err)
	}
	if pending.err != nil {
		return nil, fmt.Errorf("dashboard: pendientes: %w", pending.err)
	}
	if recent.err != nil {
		return nil, fmt.Errorf("dashboard: recientes: %w", recent.err)
	}

	return &dto.DashboardSummaryDTO{
		InvoiceCount:   invoices.n,
		CustomerCount:  customers.n,
		TotalRevenue:   revenue.sum.Round(2),
		OverdueCount:   overdue.n,
		PendingCount:   pending.n,
		RecentInvoices: recent.list,
		DateLabel:      monthLabel(uc.now()),
	}, nil
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
