package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	InvoiceCount   int64             `json:"invoice_count"`
	CustomerCount  int64             `json:"customer_count"`
	TotalRevenue   decimal.Decimal   `json:"total_revenue"` // suma de facturas pagadas
	OverdueCount   int64             `json:"overdue_count"`
	PendingCount   int64             `json:"pending_count"`
	RecentInvoices []InvoiceResponse `json:"recent_invoices"`
	DateLabel      string            `json:"date_label"` // ej. "Junio 2024"
}
