package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ── Clientes ─────────────────────────────────────────────────────────────────

// CustomerRequest body para POST /api/customers y PUT /api/customers/:id.
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email,omitempty" validate:"omitempty,max=100"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes   string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// CustomerSearch parámetros de GET /api/customers/search.
// SortBy admite name, email, phone, address, notes, created_at, updated_at; otro valor ordena por nombre.
type CustomerSearch struct {
	Term     string `query:"q"`
	SortBy   string `query:"sort_by"`
	SortDesc bool   `query:"desc"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerStatsResponse agregados de facturación del cliente.
type CustomerStatsResponse struct {
	CustomerID   string          `json:"customer_id"`
	InvoiceCount int64           `json:"invoice_count"`
	TotalBilled  decimal.Decimal `json:"total_billed"`
}

// ── Facturas ─────────────────────────────────────────────────────────────────

// CreateInvoiceRequest body para POST /api/invoices.
// LineItems: arreglo de {description, hours|quantity, rate, parts, tax}.
type CreateInvoiceRequest struct {
	CustomerName  string          `json:"customer_name" validate:"required,max=100"`
	InvoiceNumber string          `json:"invoice_number,omitempty" validate:"omitempty,max=50"` // opcional; si va vacío se genera
	IssuedDate    string          `json:"issued_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate       string          `json:"due_date" validate:"required,datetime=2006-01-02"`
	LineItems     json.RawMessage `json:"line_items" swaggertype:"array,object"`
	Template      string          `json:"template,omitempty" validate:"omitempty,max=20"`
	Status        string          `json:"status,omitempty" validate:"omitempty,oneof=draft sent paid overdue"`
}

// UpdateInvoiceRequest body para PUT /api/invoices/:id. Los campos nulos no se modifican.
type UpdateInvoiceRequest struct {
	CustomerName  *string         `json:"customer_name,omitempty" validate:"omitempty,min=1,max=100"`
	InvoiceNumber *string         `json:"invoice_number,omitempty" validate:"omitempty,min=1,max=50"`
	IssuedDate    *string         `json:"issued_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate       *string         `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LineItems     json.RawMessage `json:"line_items,omitempty" swaggertype:"array,object"`
	Template      *string         `json:"template,omitempty" validate:"omitempty,max=20"`
	Status        *string         `json:"status,omitempty" validate:"omitempty,oneof=draft sent paid overdue"`
}

// InvoiceListRequest parámetros de GET /api/invoices.
type InvoiceListRequest struct {
	Page    int    `query:"page"`
	PerPage int    `query:"per_page"`
	Search  string `query:"search"`
	Status  string `query:"status"`
}

// LineItemResponse línea con su importe calculado.
type LineItemResponse struct {
	Description string          `json:"description"`
	Hours       decimal.Decimal `json:"hours"`
	Rate        decimal.Decimal `json:"rate"`
	Parts       decimal.Decimal `json:"parts"`
	Tax         decimal.Decimal `json:"tax"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse factura con líneas y cliente.
type InvoiceResponse struct {
	ID               string             `json:"id"`
	InvoiceNumber    string             `json:"invoice_number"`
	CustomerID       string             `json:"customer_id"`
	CustomerName     string             `json:"customer_name,omitempty"`
	IssuedDate       string             `json:"issued_date"`
	DueDate          string             `json:"due_date"`
	Status           string             `json:"status"`
	Template         string             `json:"template"`
	Total            decimal.Decimal    `json:"total"`
	LineItems        []LineItemResponse `json:"line_items"`
	SkippedLineItems int                `json:"skipped_line_items"` // líneas ilegibles excluidas del total
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// InvoicePage página de facturas. TotalPages es al menos 1.
type InvoicePage struct {
	Items      []InvoiceResponse `json:"items"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	Total      int64             `json:"total"`
	TotalPages int               `json:"total_pages"`
}
